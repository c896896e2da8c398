// Package surveysync hosts survey widget instances on an event loop and keeps
// them synchronized with a host over a message channel.
//
// Most programs use NewService, which wires a loop, a binding runtime,
// renderers, themes and transports from configuration. Programs that drive
// the runtime themselves start from NewRuntime.
package surveysync

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/goliatone/go-surveysync/pkg/binding"
	"github.com/goliatone/go-surveysync/pkg/loop"
	"github.com/goliatone/go-surveysync/pkg/protocol"
	"github.com/goliatone/go-surveysync/pkg/render"
	"github.com/goliatone/go-surveysync/pkg/renderers/html"
	"github.com/goliatone/go-surveysync/pkg/renderers/tui"
	"github.com/goliatone/go-surveysync/pkg/survey"
)

// Runtime aliases binding.Runtime for callers of the top-level package.
type Runtime = binding.Runtime

// InitConfig aliases the init payload.
type InitConfig = protocol.InitConfig

// Command aliases a host command.
type Command = protocol.Command

// Event aliases an event sent to the host.
type Event = protocol.Event

// DefaultRenderers registers the html view, which is the default, and the
// terminal view.
func DefaultRenderers(tuiOptions ...tui.Option) (*render.Registry, error) {
	registry := render.NewRegistry()
	htmlRenderer, err := html.New()
	if err != nil {
		return nil, fmt.Errorf("surveysync: html renderer: %w", err)
	}
	if err := registry.Register(htmlRenderer); err != nil {
		return nil, err
	}
	tuiRenderer, err := tui.New(tuiOptions...)
	if err != nil {
		return nil, fmt.Errorf("surveysync: tui renderer: %w", err)
	}
	if err := registry.Register(tuiRenderer); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewRuntime builds a runtime on sched with the default renderers. Options
// are applied after the defaults and may replace them.
func NewRuntime(sched loop.Scheduler, options ...binding.Option) (*Runtime, error) {
	registry, err := DefaultRenderers()
	if err != nil {
		return nil, err
	}
	opts := append([]binding.Option{binding.WithRenderers(registry)}, options...)
	return binding.New(sched, opts...)
}

// EmbeddedTemplates exposes the html view templates so callers can copy or
// override them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// SchemaFromOpenAPIFile reads an OpenAPI document and derives a survey
// schema from the request body of operationID.
func SchemaFromOpenAPIFile(ctx context.Context, path, operationID string) (survey.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return survey.Schema{}, fmt.Errorf("surveysync: read openapi document: %w", err)
	}
	return survey.FromOpenAPI(ctx, raw, operationID)
}
