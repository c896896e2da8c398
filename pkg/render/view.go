package render

import (
	"context"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/loop"
	"github.com/goliatone/go-surveysync/pkg/survey"
)

// Style is the resolved cosmetic configuration of an instance.
type Style struct {
	Theme   string
	Variant string
	// Vars are CSS custom properties keyed without the leading "--".
	Vars map[string]string
}

// View keeps one mount in step with one model generation. All methods are
// called on the loop goroutine.
type View interface {
	// Attach binds the view to model, renders into mount and subscribes to
	// model changes. A view is attached to at most one model at a time.
	Attach(ctx context.Context, mount *Mount, model *survey.Model) error
	// SetStyle applies a theme and re-renders if attached.
	SetStyle(style Style) error
	// Detach unsubscribes from the model and stops background work. The
	// mount content is left in place.
	Detach()
}

// ViewOptions carry runtime services into a new view.
type ViewOptions struct {
	InstanceID string
	Scheduler  loop.Scheduler
	Logger     logger.Logger
	Style      Style
}

// Renderer builds views of one kind.
type Renderer interface {
	Name() string
	NewView(opts ViewOptions) (View, error)
}

// DependencyChecker is implemented by renderers that rely on something
// outside the process (a terminal, a template set). Missing returns the
// names of unavailable dependencies.
type DependencyChecker interface {
	Missing() []string
}
