package binding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/internal/metrics"
	"github.com/goliatone/go-surveysync/pkg/hooks"
	"github.com/goliatone/go-surveysync/pkg/loop"
	"github.com/goliatone/go-surveysync/pkg/protocol"
	"github.com/goliatone/go-surveysync/pkg/render"
	"github.com/goliatone/go-surveysync/pkg/survey"
	"github.com/goliatone/go-surveysync/pkg/theme"
)

// IDPrefix starts every generated instance id.
const IDPrefix = "survey-"

const tracerName = "github.com/goliatone/go-surveysync/pkg/binding"

// Option configures a Runtime.
type Option func(*Runtime)

// WithSink sets where events go. Without one, events are logged and dropped.
func WithSink(sink protocol.EventSink) Option {
	return func(r *Runtime) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithRenderers supplies the renderer registry.
func WithRenderers(registry *render.Registry) Option {
	return func(r *Runtime) {
		if registry != nil {
			r.renderers = registry
		}
	}
}

// WithDefaultView selects the renderer used when an init payload names none.
func WithDefaultView(name string) Option {
	return func(r *Runtime) {
		r.defaultView = strings.TrimSpace(name)
	}
}

// WithPage supplies the mount points instances render into.
func WithPage(page *render.Page) Option {
	return func(r *Runtime) {
		if page != nil {
			r.page = page
		}
	}
}

// WithThemes supplies the theme catalog.
func WithThemes(catalog *theme.Catalog) Option {
	return func(r *Runtime) {
		r.themes = catalog
	}
}

// WithHooks registers lifecycle hooks applied to every instance.
func WithHooks(h hooks.Hooks) Option {
	return func(r *Runtime) {
		r.hooks = h
	}
}

// WithScriptEngine opts in to hook source shipped in init payloads.
func WithScriptEngine(engine *hooks.ScriptEngine) Option {
	return func(r *Runtime) {
		r.scripts = engine
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDebounceWindow overrides DefaultDebounceWindow.
func WithDebounceWindow(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithIDGenerator overrides how ids are generated for payloads without one.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runtime) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTracer overrides the otel tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runtime) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

type commandHandler func(ctx context.Context, inst *Instance, cmd protocol.Command) error

// Runtime hosts widget instances on one loop.
type Runtime struct {
	sched       loop.Scheduler
	sink        protocol.EventSink
	renderers   *render.Registry
	defaultView string
	page        *render.Page
	themes      *theme.Catalog
	hooks       hooks.Hooks
	scripts     *hooks.ScriptEngine
	logger      logger.Logger
	window      time.Duration
	newID       func() string
	now         func() time.Time
	tracer      trace.Tracer

	registry *Registry
	table    map[protocol.Kind]commandHandler
}

// New builds a runtime bound to sched.
func New(sched loop.Scheduler, options ...Option) (*Runtime, error) {
	if sched == nil {
		return nil, errors.New("binding: scheduler is required")
	}
	r := &Runtime{
		sched:     sched,
		renderers: render.NewRegistry(),
		page:      render.NewPage(),
		logger:    logger.NewNoOpLogger(),
		window:    DefaultDebounceWindow,
		newID:     func() string { return IDPrefix + uuid.NewString() },
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
		registry:  NewRegistry(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.sink == nil {
		r.sink = protocol.EventSinkFunc(func(_ context.Context, e protocol.Event) error {
			r.logger.Debug("binding: no event sink configured, dropping event", map[string]interface{}{
				"instance": e.ID,
				"kind":     string(e.Kind),
			})
			return nil
		})
	}
	r.table = r.dispatchTable()
	return r, nil
}

// Scheduler returns the loop the runtime runs on.
func (r *Runtime) Scheduler() loop.Scheduler {
	return r.sched
}

// Page returns the mount points.
func (r *Runtime) Page() *render.Page {
	return r.page
}

// Registry exposes the instance registry.
func (r *Runtime) Registry() *Registry {
	return r.registry
}

// Instance returns a live instance.
func (r *Runtime) Instance(id string) (*Instance, bool) {
	return r.registry.Get(id)
}

// Snapshot returns the answers of a live instance.
func (r *Runtime) Snapshot(id string) (map[string]any, bool) {
	inst, ok := r.registry.Get(id)
	if !ok {
		return nil, false
	}
	return inst.Snapshot(), true
}

// CheckResult reports whether a view can be rendered.
type CheckResult struct {
	OK      bool
	View    string
	Missing []string
}

// Check reports the dependencies missing for view; blank selects the
// runtime default.
func (r *Runtime) Check(view string) CheckResult {
	name := r.viewName(view)
	res := CheckResult{View: name}
	renderer, err := r.renderers.Get(name)
	if err != nil {
		res.Missing = append(res.Missing, "renderer "+name)
		return res
	}
	if checker, ok := renderer.(render.DependencyChecker); ok {
		res.Missing = append(res.Missing, checker.Missing()...)
	}
	res.OK = len(res.Missing) == 0
	return res
}

func (r *Runtime) viewName(view string) string {
	if name := strings.TrimSpace(view); name != "" {
		return name
	}
	if r.defaultView != "" {
		return r.defaultView
	}
	return r.renderers.Default()
}

// Initialize creates the instance described by cfg, replacing any instance
// with the same id. Failures leave an inline error in the mount and no
// registry entry. Must run on the loop goroutine.
func (r *Runtime) Initialize(ctx context.Context, cfg protocol.InitConfig) (*Instance, error) {
	id := strings.TrimSpace(cfg.ElementID)
	if id == "" {
		id = r.newID()
	}
	log := r.logger.WithFields(map[string]interface{}{"instance": id})
	mount := r.page.Mount(id)

	if prev, ok := r.registry.Delete(id); ok {
		r.teardown(prev)
		metrics.InstancesActive.Dec()
		log.Debug("binding: replacing existing instance", nil)
	}
	mount.Clear()

	fail := func(code ErrorCode, placeholder string, err error) (*Instance, error) {
		mount.ShowError(placeholder)
		log.Error("binding: initialize failed", map[string]interface{}{
			"code":  string(code),
			"error": err.Error(),
		})
		metrics.InitializeTotal.WithLabelValues(strings.ToLower(string(code))).Inc()
		return nil, newError(code, id, err)
	}

	check := r.Check(cfg.View)
	if !check.OK {
		err := fmt.Errorf("%s: %s", check.View, strings.Join(check.Missing, ", "))
		return fail(ErrCodeMissingDependency, "Survey cannot be displayed: missing "+strings.Join(check.Missing, ", "), err)
	}

	schema, err := survey.ParseSchema(cfg.Schema)
	if err != nil {
		return fail(ErrCodeMalformedSchema, "Survey schema could not be loaded: "+err.Error(), err)
	}

	model := survey.New(schema)
	if dropped := model.SetData(cfg.Data); len(dropped) > 0 {
		log.Debug("binding: prefill fields not in schema dropped", map[string]interface{}{"fields": dropped})
	}
	if cfg.ReadOnly {
		_ = model.SetMode(survey.ModeDisplay)
	}
	if err := model.SetLocale(cfg.Locale); err != nil {
		log.Warn("binding: ignoring locale", map[string]interface{}{"error": err.Error()})
	}

	instCtx, cancel := context.WithCancel(context.Background())
	inst := &Instance{
		id:         id,
		live:       cfg.Live,
		viewName:   check.View,
		model:      model,
		generation: 1,
		mount:      mount,
		hooks:      r.instanceHooks(log, cfg),
		ctx:        instCtx,
		cancel:     cancel,
	}
	if cfg.Theme != "" || len(cfg.ThemeVars) > 0 {
		if style, ok := r.resolveStyle(log, cfg.Theme, cfg.ThemeVars); ok {
			inst.style = style
		}
	}

	renderer, _ := r.renderers.Get(check.View)
	view, err := renderer.NewView(render.ViewOptions{
		InstanceID: id,
		Scheduler:  r.sched,
		Logger:     log,
		Style:      inst.style,
	})
	if err != nil {
		cancel()
		return fail(ErrCodeMissingDependency, "Survey cannot be displayed: "+err.Error(), err)
	}
	inst.view = view
	inst.debounce = newDebouncer(r.sched, r.window, func() { r.emit(inst.ctx, inst, protocol.EventDataLive, inst.model.Data()) })

	r.runHook(inst, hooks.StagePreRender, nil)
	r.bind(inst)
	r.registry.Put(inst)
	metrics.InstancesActive.Inc()
	metrics.InitializeTotal.WithLabelValues("ok").Inc()

	r.sched.AfterFunc(0, func() { r.firstRender(inst) })
	log.Info("binding: instance initialized", map[string]interface{}{
		"view":      inst.viewName,
		"live":      inst.live,
		"mode":      string(model.Mode()),
		"read_only": cfg.ReadOnly,
	})
	return inst, nil
}

func (r *Runtime) firstRender(inst *Instance) {
	if current, ok := r.registry.Get(inst.id); !ok || current != inst || inst.destroyed {
		return
	}
	if err := inst.view.Attach(inst.ctx, inst.mount, inst.model); err != nil {
		inst.mount.ShowError("Survey could not be rendered.")
		r.logger.Error("binding: render failed", map[string]interface{}{
			"instance": inst.id,
			"error":    err.Error(),
		})
		return
	}
	inst.rendered = true
	r.runHook(inst, hooks.StagePostRender, nil)
}

// Destroy tears an instance down and removes it. It reports whether the id
// was live. A mount left behind by a failed initialize is removed as well.
// Must run on the loop goroutine.
func (r *Runtime) Destroy(id string) bool {
	inst, ok := r.registry.Delete(id)
	if !ok {
		r.page.Remove(id)
		return false
	}
	r.teardown(inst)
	inst.mount.Clear()
	r.page.Remove(id)
	metrics.InstancesActive.Dec()
	r.logger.Info("binding: instance destroyed", map[string]interface{}{"instance": id})
	return true
}

func (r *Runtime) teardown(inst *Instance) {
	inst.destroyed = true
	r.unbind(inst)
	inst.debounce.Stop()
	if inst.view != nil {
		inst.view.Detach()
	}
	inst.cancel()
}

// bind subscribes the instance to its current model generation.
func (r *Runtime) bind(inst *Instance) {
	model := inst.model
	inst.removes = append(inst.removes, model.OnComplete.Add(func(data map[string]any) {
		r.emit(inst.ctx, inst, protocol.EventDataFinal, data)
		r.runHook(inst, hooks.StageComplete, data)
	}))
	if inst.live {
		inst.removes = append(inst.removes, model.OnValueChanged.Add(func(survey.ValueChange) {
			inst.debounce.Trigger()
		}))
	}
}

func (r *Runtime) unbind(inst *Instance) {
	for _, remove := range inst.removes {
		remove()
	}
	inst.removes = nil
}

func (r *Runtime) emit(ctx context.Context, inst *Instance, kind protocol.EventKind, data map[string]any) {
	event := protocol.NewEvent(inst.id, kind, data, r.now())
	metrics.EventsTotal.WithLabelValues(string(kind)).Inc()
	if err := r.sink.Emit(ctx, event); err != nil {
		metrics.EventSinkFailures.WithLabelValues(string(kind)).Inc()
		r.logger.Error("binding: event delivery failed", map[string]interface{}{
			"instance": inst.id,
			"kind":     string(kind),
			"error":    err.Error(),
		})
	}
}

func (r *Runtime) instanceHooks(log logger.Logger, cfg protocol.InitConfig) hooks.Hooks {
	sources := map[hooks.Stage]string{
		hooks.StagePreRender:  cfg.PreRenderHook,
		hooks.StagePostRender: cfg.PostRenderHook,
		hooks.StageComplete:   cfg.CompleteHook,
	}
	compiled := map[hooks.Stage]hooks.Func{}
	for stage, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		if r.scripts == nil {
			log.Warn("binding: script hooks are disabled, ignoring hook source", map[string]interface{}{"stage": string(stage)})
			continue
		}
		fn, err := r.scripts.Compile(stage, src)
		if err != nil {
			log.Warn("binding: hook did not compile", map[string]interface{}{"stage": string(stage), "error": err.Error()})
			continue
		}
		compiled[stage] = fn
	}
	return hooks.Hooks{
		PreRender:  hooks.Chain(r.hooks.PreRender, compiled[hooks.StagePreRender]),
		PostRender: hooks.Chain(r.hooks.PostRender, compiled[hooks.StagePostRender]),
		Complete:   hooks.Chain(r.hooks.Complete, compiled[hooks.StageComplete]),
	}
}

func (r *Runtime) runHook(inst *Instance, stage hooks.Stage, data map[string]any) {
	fn := inst.hooks.For(stage)
	if fn == nil {
		return
	}
	err := hooks.Run(inst.ctx, stage, fn, hooks.Context{InstanceID: inst.id, Model: inst.model, Data: data})
	if err != nil {
		r.logger.Warn("binding: hook failed", map[string]interface{}{
			"instance": inst.id,
			"stage":    string(stage),
			"error":    err.Error(),
		})
	}
}

func (r *Runtime) resolveStyle(log logger.Logger, name string, vars map[string]string) (render.Style, bool) {
	catalog := r.themes
	if catalog == nil {
		catalog, _ = theme.NewCatalog()
	}
	res, err := catalog.Resolve(name, vars)
	if err != nil {
		log.Warn("binding: theme not applied", map[string]interface{}{"theme": name, "error": err.Error()})
		return render.Style{}, false
	}
	if len(res.Unknown) > 0 {
		log.Warn("binding: theme variables not defined by theme", map[string]interface{}{"theme": name, "variables": res.Unknown})
	}
	return res.Style, true
}
