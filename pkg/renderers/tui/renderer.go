// Package tui renders widget instances in a terminal. A view walks the
// questions with interactive prompts on its own goroutine and posts each
// answer back to the loop as an organic edit; answering the last question
// completes the survey. In display mode the answers are printed instead.
package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-surveysync/pkg/render"
)

// Name is the registry name of this renderer.
const Name = "tui"

// Renderer builds terminal views.
type Renderer struct {
	driver PromptDriver
	custom bool
	out    io.Writer
	theme  Theme
}

var (
	_ render.Renderer          = (*Renderer)(nil)
	_ render.DependencyChecker = (*Renderer)(nil)
)

// New constructs a TUI renderer with defaults (survey driver on stdout).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// Missing reports the terminal as unavailable when the default driver would
// prompt on a non-interactive stdin.
func (r *Renderer) Missing() []string {
	if r.custom {
		return nil
	}
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return []string{"terminal"}
	}
	return nil
}

// NewView creates a detached view.
func (r *Renderer) NewView(opts render.ViewOptions) (render.View, error) {
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("tui renderer: scheduler is required")
	}
	return &view{
		renderer: r,
		id:       opts.InstanceID,
		sched:    opts.Scheduler,
		logger:   opts.Logger,
		style:    opts.Style,
	}, nil
}
