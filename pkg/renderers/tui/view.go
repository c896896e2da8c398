package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/loop"
	"github.com/goliatone/go-surveysync/pkg/render"
	"github.com/goliatone/go-surveysync/pkg/survey"
	"github.com/goliatone/go-surveysync/pkg/visibility"
)

type promptKind int

const (
	promptInput promptKind = iota
	promptNumber
	promptTextArea
	promptConfirm
	promptSelect
	promptMulti
)

// step is an immutable prompt description built on the loop goroutine.
type step struct {
	name     string
	kind     promptKind
	message  string
	help     string
	def      string
	defBool  bool
	options  []string
	values   []any
	defIdx   int
	defMulti []int

	visibleIf visibility.Condition
}

type view struct {
	renderer *Renderer
	id       string
	sched    loop.Scheduler
	logger   logger.Logger
	style    render.Style

	mount   *render.Mount
	model   *survey.Model
	gen     int
	cancel  context.CancelFunc
	done    chan struct{}
	removes []func()
}

func (v *view) Attach(ctx context.Context, mount *render.Mount, model *survey.Model) error {
	if mount == nil || model == nil {
		return fmt.Errorf("tui view: mount and model are required")
	}
	if model.Mode() == survey.ModeEdit && !model.IsCompleted() && len(v.renderer.Missing()) > 0 {
		return ErrNoTerminal
	}
	v.Detach()
	v.gen++
	v.mount = mount
	v.model = model
	v.removes = append(v.removes, model.OnChanged.Add(func(survey.Change) { v.summarize() }))
	v.summarize()

	runCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.done = make(chan struct{})

	if model.Mode() == survey.ModeDisplay || model.IsCompleted() {
		lines := v.summaryLines()
		go v.print(runCtx, lines, v.done)
		return nil
	}
	go v.prompt(runCtx, v.gen, v.plan(), model.Data(), v.done)
	return nil
}

func (v *view) SetStyle(style render.Style) error {
	v.style = style
	return nil
}

// Detach cancels the prompt goroutine. A prompt already waiting on the
// terminal keeps reading until the user answers; that answer is dropped and
// no further prompts are asked.
func (v *view) Detach() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	for _, remove := range v.removes {
		remove()
	}
	v.removes = nil
	v.model = nil
}

func (v *view) plan() []step {
	m := v.model
	var steps []step
	for _, q := range m.Schema().Questions() {
		if !q.HasValue() || q.Hidden || q.ReadOnly {
			continue
		}
		current, _ := m.Value(q.Name)
		st := step{
			name:    q.Name,
			message: m.Text(q.Title, q.Name),
			help:    m.Text(q.Description, ""),
			def:     textOf(current),
		}
		st.visibleIf, _ = visibility.Compile(q.VisibleIf)
		if q.IsRequired {
			st.message += " *"
		}

		switch {
		case q.Type == "boolean":
			st.kind = promptConfirm
			st.defBool, _ = current.(bool)
		case q.Type == "rating":
			st.kind = promptSelect
			for i := q.RateMin; i <= q.RateMax; i++ {
				st.options = append(st.options, strconv.Itoa(i))
				st.values = append(st.values, i)
			}
		case len(q.Choices) > 0:
			st.kind = promptSelect
			if q.Type == "checkbox" || q.Type == "tagbox" {
				st.kind = promptMulti
			}
			for _, c := range q.Choices {
				st.options = append(st.options, m.Text(c.Text, fmt.Sprint(c.Value)))
				st.values = append(st.values, c.Value)
			}
		case q.Type == "comment":
			st.kind = promptTextArea
		case q.InputType == "number":
			st.kind = promptNumber
		default:
			st.kind = promptInput
		}
		st.defIdx, st.defMulti = defaults(st.values, current)
		steps = append(steps, st)
	}
	return steps
}

// prompt asks each step in turn. answers starts as the snapshot taken when
// the plan was built and tracks what the user entered, so visibleIf
// conditions see earlier answers.
func (v *view) prompt(ctx context.Context, gen int, steps []step, answers map[string]any, done chan struct{}) {
	defer close(done)
	driver := v.renderer.driver
	for _, st := range steps {
		if ctx.Err() != nil {
			return
		}
		if st.visibleIf != nil && !st.visibleIf.Eval(answers) {
			continue
		}
		value, err := ask(ctx, driver, st)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, ErrAborted) {
				return
			}
			_ = driver.Info(ctx, v.renderer.theme.ErrorPrefix+err.Error())
			v.post(gen, func(*survey.Model) {
				v.log("tui view: prompt failed", map[string]interface{}{"question": st.name, "error": err.Error()})
			})
			return
		}
		name := st.name
		answers[name] = value
		v.post(gen, func(m *survey.Model) {
			if err := m.SetValue(name, value); err != nil {
				v.log("tui view: answer not applied", map[string]interface{}{"question": name, "error": err.Error()})
			}
		})
	}
	v.post(gen, func(m *survey.Model) {
		m.Complete()
	})
}

// post runs fn on the loop if the view is still attached to generation gen.
func (v *view) post(gen int, fn func(*survey.Model)) {
	v.sched.RunOnLoop(func() {
		if v.model == nil || v.gen != gen {
			return
		}
		fn(v.model)
	})
}

func (v *view) print(ctx context.Context, lines []string, done chan struct{}) {
	defer close(done)
	for _, line := range lines {
		if err := v.renderer.driver.Info(ctx, v.renderer.theme.InfoPrefix+line); err != nil {
			return
		}
	}
}

func (v *view) summarize() {
	if v.model == nil || v.mount == nil {
		return
	}
	v.mount.Set(strings.Join(v.summaryLines(), "\n"))
}

func (v *view) summaryLines() []string {
	m := v.model
	var lines []string
	if title := m.Title(); title != "" {
		lines = append(lines, title)
	}
	data := m.Data()
	for _, q := range m.Schema().Questions() {
		if !q.HasValue() || !m.IsVisible(q) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Text(q.Title, q.Name), textOf(data[q.Name])))
	}
	lines = append(lines, fmt.Sprintf("[%s, %s]", m.Mode(), m.State()))
	return lines
}

func (v *view) log(msg string, fields map[string]interface{}) {
	if v.logger == nil {
		return
	}
	fields["instance"] = v.id
	v.logger.Warn(msg, fields)
}

func ask(ctx context.Context, driver PromptDriver, st step) (any, error) {
	switch st.kind {
	case promptConfirm:
		return driver.Confirm(ctx, ConfirmConfig{Message: st.message, Help: st.help, Default: st.defBool})
	case promptSelect:
		idx, err := driver.Select(ctx, SelectConfig{Message: st.message, Help: st.help, Options: st.options, DefaultIndex: st.defIdx})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(st.values) {
			return nil, fmt.Errorf("tui: selection %d out of range", idx)
		}
		return st.values[idx], nil
	case promptMulti:
		indices, err := driver.MultiSelect(ctx, SelectConfig{Message: st.message, Help: st.help, Options: st.options, Defaults: st.defMulti})
		if err != nil {
			return nil, err
		}
		sort.Ints(indices)
		out := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(st.values) {
				out = append(out, st.values[idx])
			}
		}
		return out, nil
	case promptTextArea:
		return driver.TextArea(ctx, TextAreaConfig{Message: st.message, Help: st.help, Default: st.def})
	case promptNumber:
		raw, err := driver.Input(ctx, InputConfig{Message: st.message, Help: st.help, Default: st.def, Validator: validateNumber})
		if err != nil {
			return nil, err
		}
		return parseNumber(raw), nil
	default:
		return driver.Input(ctx, InputConfig{Message: st.message, Help: st.help, Default: st.def})
	}
}

func validateNumber(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
		return fmt.Errorf("enter a number")
	}
	return nil
}

func parseNumber(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if i, err := strconv.Atoi(trimmed); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}

func defaults(values []any, current any) (int, []int) {
	idx := -1
	var multi []int
	selected := map[string]bool{}
	switch typed := current.(type) {
	case []any:
		for _, item := range typed {
			selected[fmt.Sprint(item)] = true
		}
	case nil:
	default:
		selected[fmt.Sprint(typed)] = true
	}
	for i, v := range values {
		if selected[fmt.Sprint(v)] {
			if idx < 0 {
				idx = i
			}
			multi = append(multi, i)
		}
	}
	return idx, multi
}

func textOf(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(typed)
	}
}
