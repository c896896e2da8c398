// Package hooks provides the extension points a widget instance runs around
// its lifecycle: before the first render, after it, and on completion.
//
// Hooks are Go callbacks registered when the runtime is built. Hosts that
// need to ship hook code inside an init payload must opt in to a
// ScriptEngine; without one, script strings are ignored.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-surveysync/pkg/survey"
)

// Stage names a lifecycle point.
type Stage string

const (
	StagePreRender  Stage = "pre_render"
	StagePostRender Stage = "post_render"
	StageComplete   Stage = "complete"
)

// Context is what a hook sees. Model is the live model; hooks run on the
// loop goroutine and may mutate it.
type Context struct {
	InstanceID string
	Model      *survey.Model
	// Data is the snapshot passed to completion hooks.
	Data map[string]any
}

// Func is one hook.
type Func func(ctx context.Context, hc Context) error

// Hooks groups the callbacks for every stage. Nil entries are skipped.
type Hooks struct {
	PreRender  Func
	PostRender Func
	Complete   Func
}

// For returns the hook registered for stage.
func (h Hooks) For(stage Stage) Func {
	switch stage {
	case StagePreRender:
		return h.PreRender
	case StagePostRender:
		return h.PostRender
	case StageComplete:
		return h.Complete
	default:
		return nil
	}
}

// Chain runs fns in order and joins their errors.
func Chain(fns ...Func) Func {
	var live []Func
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(ctx context.Context, hc Context) error {
		var errs []error
		for _, fn := range live {
			if err := fn(ctx, hc); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// Run invokes fn, converting panics into errors.
func Run(ctx context.Context, stage Stage, fn Func, hc Context) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hooks: %s panicked: %v", stage, r)
		}
	}()
	if err := fn(ctx, hc); err != nil {
		return fmt.Errorf("hooks: %s: %w", stage, err)
	}
	return nil
}
