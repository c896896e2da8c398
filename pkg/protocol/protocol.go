package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind names a command in the dispatch table.
type Kind string

const (
	KindData     Kind = "data"
	KindMode     Kind = "mode"
	KindSchema   Kind = "schema"
	KindLocale   Kind = "locale"
	KindClear    Kind = "clear"
	KindComplete Kind = "complete"
	KindFocus    Kind = "focus"
	KindTheme    Kind = "theme"
)

// Kinds lists every command kind in dispatch-table order.
var Kinds = []Kind{KindData, KindMode, KindSchema, KindLocale, KindClear, KindComplete, KindFocus, KindTheme}

// Valid reports whether k is a known command kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ErrInvalidMessage reports a payload that cannot be decoded.
var ErrInvalidMessage = errors.New("protocol: invalid message")

// InitConfig is the payload that creates (or recreates) a widget instance.
type InitConfig struct {
	ElementID      string            `json:"element_id,omitempty"`
	Schema         any               `json:"schema,omitempty"`
	Data           map[string]any    `json:"data,omitempty"`
	ReadOnly       bool              `json:"read_only,omitempty"`
	Locale         string            `json:"locale,omitempty"`
	Theme          string            `json:"theme,omitempty"`
	ThemeVars      map[string]string `json:"theme_vars,omitempty"`
	Live           bool              `json:"live,omitempty"`
	View           string            `json:"view,omitempty"`
	CompleteHook   string            `json:"complete_hook,omitempty"`
	PreRenderHook  string            `json:"pre_render_hook,omitempty"`
	PostRenderHook string            `json:"post_render_hook,omitempty"`
}

// Command mutates one instance. Only the fields relevant to Kind are read.
type Command struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Data      map[string]any    `json:"data,omitempty"`
	Merge     bool              `json:"merge,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Schema    any               `json:"schema,omitempty"`
	Locale    string            `json:"locale,omitempty"`
	Theme     string            `json:"theme,omitempty"`
	ThemeVars map[string]string `json:"theme_vars,omitempty"`
}

// Validate checks the command carries a target and a known kind.
func (c Command) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: command without id", ErrInvalidMessage)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown command kind %q", ErrInvalidMessage, c.Kind)
	}
	return nil
}

// Update is the combined message older hosts send: several properties of one
// instance at once. Present fields are applied as individual commands.
type Update struct {
	ID        string            `json:"id"`
	Schema    any               `json:"schema,omitempty"`
	Data      map[string]any    `json:"data,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Locale    string            `json:"locale,omitempty"`
	Theme     string            `json:"theme,omitempty"`
	ThemeVars map[string]string `json:"theme_vars,omitempty"`
}

// Commands decomposes the update in schema, data, mode, locale, theme order.
func (u Update) Commands() []Command {
	var out []Command
	if u.Schema != nil {
		out = append(out, Command{ID: u.ID, Kind: KindSchema, Schema: u.Schema})
	}
	if u.Data != nil {
		out = append(out, Command{ID: u.ID, Kind: KindData, Data: u.Data})
	}
	if u.Mode != "" {
		out = append(out, Command{ID: u.ID, Kind: KindMode, Mode: u.Mode})
	}
	if u.Locale != "" {
		out = append(out, Command{ID: u.ID, Kind: KindLocale, Locale: u.Locale})
	}
	if u.Theme != "" || len(u.ThemeVars) > 0 {
		out = append(out, Command{ID: u.ID, Kind: KindTheme, Theme: u.Theme, ThemeVars: u.ThemeVars})
	}
	return out
}

// EventKind names a view-to-host event.
type EventKind string

const (
	EventDataLive  EventKind = "data_live"
	EventDataFinal EventKind = "data_final"
)

// Event carries a full data snapshot of one instance to the host.
type Event struct {
	ID    string         `json:"id"`
	Kind  EventKind      `json:"kind"`
	Input string         `json:"input"`
	Data  map[string]any `json:"data"`
	At    time.Time      `json:"at"`
}

// InputName returns the host input an event of kind targets for instance id.
func InputName(id string, kind EventKind) string {
	if kind == EventDataLive {
		return id + "_data_live"
	}
	return id + "_data"
}

// NewEvent builds an event stamped with at.
func NewEvent(id string, kind EventKind, data map[string]any, at time.Time) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{ID: id, Kind: kind, Input: InputName(id, kind), Data: data, At: at}
}

// EventSink receives events leaving the runtime. Emit is called on the loop
// goroutine and should not block for long.
type EventSink interface {
	Emit(ctx context.Context, event Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event Event) error

// Emit calls f.
func (f EventSinkFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// MarshalEvent encodes an event for the wire.
func MarshalEvent(event Event) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal event: %w", err)
	}
	return raw, nil
}
