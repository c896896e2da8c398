// Package html renders widget instances as HTML fragments using pongo2
// templates. A view re-renders its mount after every model change.
package html

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/goliatone/go-surveysync/pkg/render"
)

// Name is the registry name of this renderer.
const Name = "html"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS   fs.FS
	completeText string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The
// bundle must provide templates/survey.tmpl and templates/question.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithCompleteText overrides the message shown once a survey is completed.
func WithCompleteText(text string) Option {
	return func(cfg *config) {
		cfg.completeText = text
	}
}

// Renderer builds HTML views.
type Renderer struct {
	engine       *Engine
	completeText string
}

var (
	_ render.Renderer          = (*Renderer)(nil)
	_ render.DependencyChecker = (*Renderer)(nil)
)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), completeText: "Thank you for completing the survey."}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine, err := NewEngine(cfg.templateFS, ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("html renderer: configure template engine: %w", err)
	}
	return &Renderer{engine: engine, completeText: cfg.completeText}, nil
}

func (r *Renderer) Name() string {
	return Name
}

// Missing reports the survey template as unavailable when it cannot be
// parsed.
func (r *Renderer) Missing() []string {
	if err := r.engine.Load(SurveyTemplate); err != nil {
		return []string{"template " + SurveyTemplate + ".tmpl"}
	}
	return nil
}

// NewView creates a detached view.
func (r *Renderer) NewView(opts render.ViewOptions) (render.View, error) {
	if opts.InstanceID == "" {
		return nil, fmt.Errorf("html renderer: instance id is required")
	}
	return &view{
		renderer: r,
		id:       opts.InstanceID,
		logger:   opts.Logger,
		style:    opts.Style,
	}, nil
}
