package binding

import (
	"context"

	"github.com/goliatone/go-surveysync/pkg/hooks"
	"github.com/goliatone/go-surveysync/pkg/render"
	"github.com/goliatone/go-surveysync/pkg/survey"
)

// Instance is one widget: a stable id, the current model generation and the
// view rendering it. Fields are owned by the loop goroutine.
type Instance struct {
	id       string
	live     bool
	viewName string

	model      *survey.Model
	generation int
	view       render.View
	mount      *render.Mount
	style      render.Style
	hooks      hooks.Hooks

	ctx       context.Context
	cancel    context.CancelFunc
	removes   []func()
	debounce  *debouncer
	rendered  bool
	destroyed bool
}

// ID returns the stable instance identifier.
func (i *Instance) ID() string {
	return i.id
}

// Live reports whether data_live events are emitted.
func (i *Instance) Live() bool {
	return i.live
}

// View returns the name of the renderer serving the instance.
func (i *Instance) View() string {
	return i.viewName
}

// Model returns the current model generation.
func (i *Instance) Model() *survey.Model {
	return i.model
}

// Generation counts model rebuilds; the first model is generation 1.
func (i *Instance) Generation() int {
	return i.generation
}

// Style returns the applied theme.
func (i *Instance) Style() render.Style {
	return i.style
}

// Rendered reports whether the deferred first render has happened.
func (i *Instance) Rendered() bool {
	return i.rendered
}

// Snapshot returns a copy of the current answers.
func (i *Instance) Snapshot() map[string]any {
	return i.model.Data()
}

// LivePending reports whether a data_live event is scheduled.
func (i *Instance) LivePending() bool {
	return i.debounce != nil && i.debounce.Pending()
}
