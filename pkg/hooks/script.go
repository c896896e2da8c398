package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// DefaultScriptTimeout bounds a single script hook run.
const DefaultScriptTimeout = 250 * time.Millisecond

// ErrScriptTimeout is returned when a script exceeds its time budget.
var ErrScriptTimeout = errors.New("hooks: script timed out")

// ScriptEngine compiles hook source shipped in init payloads. Each run gets
// a fresh goja runtime exposing only a "survey" object:
//
//	survey.id, survey.data, survey.mode, survey.locale
//	survey.setValue(name, value), survey.complete()
//
// The runtime has no module loader, timers or host access.
type ScriptEngine struct {
	timeout time.Duration
}

// ScriptOption configures a ScriptEngine.
type ScriptOption func(*ScriptEngine)

// WithScriptTimeout overrides DefaultScriptTimeout.
func WithScriptTimeout(d time.Duration) ScriptOption {
	return func(e *ScriptEngine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewScriptEngine builds an engine.
func NewScriptEngine(options ...ScriptOption) *ScriptEngine {
	e := &ScriptEngine{timeout: DefaultScriptTimeout}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Compile parses src once and returns a hook running it. Blank source
// yields a nil hook.
func (e *ScriptEngine) Compile(stage Stage, src string) (Func, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	program, err := goja.Compile(string(stage), src, true)
	if err != nil {
		return nil, fmt.Errorf("hooks: compile %s: %w", stage, err)
	}
	return func(ctx context.Context, hc Context) error {
		return e.run(ctx, program, hc)
	}, nil
}

func (e *ScriptEngine) run(ctx context.Context, program *goja.Program, hc Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vm := goja.New()

	surveyObj := vm.NewObject()
	_ = surveyObj.Set("id", hc.InstanceID)
	data := hc.Data
	if hc.Model != nil {
		if data == nil {
			data = hc.Model.Data()
		}
		_ = surveyObj.Set("mode", string(hc.Model.Mode()))
		_ = surveyObj.Set("locale", hc.Model.Locale())
		_ = surveyObj.Set("setValue", func(name string, value any) error {
			return hc.Model.SetValue(name, value)
		})
		_ = surveyObj.Set("complete", func() bool {
			return hc.Model.Complete()
		})
	}
	_ = surveyObj.Set("data", data)
	if err := vm.Set("survey", surveyObj); err != nil {
		return fmt.Errorf("hooks: bind survey object: %w", err)
	}

	timer := time.AfterFunc(e.timeout, func() {
		vm.Interrupt(ErrScriptTimeout)
	})
	defer timer.Stop()

	_, err := vm.RunProgram(program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return ErrScriptTimeout
		}
		return fmt.Errorf("hooks: run script: %w", err)
	}
	return nil
}
