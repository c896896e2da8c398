package survey

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goliatone/go-surveysync/pkg/visibility"
)

// Mode is the interaction mode of a model.
type Mode string

const (
	ModeEdit    Mode = "edit"
	ModeDisplay Mode = "display"
)

// ParseMode validates a mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeEdit:
		return ModeEdit, nil
	case ModeDisplay:
		return ModeDisplay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// State is the completion state of a model.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// ChangeKind classifies notifications delivered through OnChanged.
type ChangeKind string

const (
	ChangeValue  ChangeKind = "value"
	ChangeData   ChangeKind = "data"
	ChangeMode   ChangeKind = "mode"
	ChangeLocale ChangeKind = "locale"
	ChangeClear  ChangeKind = "clear"
	ChangeState  ChangeKind = "state"
)

// Change describes any model mutation. Views subscribe to it to refresh.
type Change struct {
	Kind ChangeKind
	Name string
}

// ValueChange describes an organic edit of one answer.
type ValueChange struct {
	Name  string
	Value any
}

// Model is the form model owned by one widget instance.
type Model struct {
	schema    Schema
	questions map[string]Question
	visibleIf map[string]visibility.Condition
	data      map[string]any
	mode      Mode
	locale    string
	state     State
	focused   string

	// OnValueChanged fires for organic edits only (SetValue).
	OnValueChanged Handlers[ValueChange]
	// OnComplete fires once per transition into StateCompleted with the
	// answers at that moment.
	OnComplete Handlers[map[string]any]
	// OnChanged fires after every mutation, host or organic.
	OnChanged Handlers[Change]
	// OnFocus fires when focus moves to a question.
	OnFocus Handlers[string]
}

// New builds an empty, editable, running model for schema.
func New(schema Schema) *Model {
	m := &Model{
		schema:    schema,
		questions: make(map[string]Question),
		visibleIf: make(map[string]visibility.Condition),
		data:      make(map[string]any),
		mode:      ModeEdit,
		state:     StateRunning,
	}
	for _, q := range schema.Questions() {
		if cond, err := visibility.Compile(q.VisibleIf); err == nil && cond != nil {
			m.visibleIf[q.Name] = cond
		}
		if !q.HasValue() {
			continue
		}
		if _, dup := m.questions[q.Name]; !dup {
			m.questions[q.Name] = q
		}
	}
	return m
}

// Schema returns the structure the model was built from.
func (m *Model) Schema() Schema {
	return m.schema
}

// Question looks up a value-bearing question by name.
func (m *Model) Question(name string) (Question, bool) {
	q, ok := m.questions[name]
	return q, ok
}

// Data returns a deep copy of the current answers.
func (m *Model) Data() map[string]any {
	return cloneValues(m.data)
}

// Value returns the answer stored under name.
func (m *Model) Value(name string) (any, bool) {
	v, ok := m.data[name]
	return deepCopy(v), ok
}

// SetData replaces every answer with data restricted to the defined
// questions. Names that were dropped are returned sorted. Host data never
// fires OnValueChanged.
func (m *Model) SetData(data map[string]any) []string {
	next, dropped := m.restrict(data)
	m.data = next
	m.OnChanged.fire(Change{Kind: ChangeData})
	return dropped
}

// MergeData overlays data on the current answers.
func (m *Model) MergeData(data map[string]any) []string {
	overlay, dropped := m.restrict(data)
	for k, v := range overlay {
		m.data[k] = v
	}
	m.OnChanged.fire(Change{Kind: ChangeData})
	return dropped
}

func (m *Model) restrict(data map[string]any) (map[string]any, []string) {
	out := make(map[string]any, len(data))
	var dropped []string
	for k, v := range data {
		if _, ok := m.questions[k]; !ok {
			dropped = append(dropped, k)
			continue
		}
		out[k] = deepCopy(v)
	}
	sort.Strings(dropped)
	return out, dropped
}

// SetValue records an organic edit. Empty values clear the answer. Setting
// the current value again is a no-op and fires nothing.
func (m *Model) SetValue(name string, value any) error {
	if m.mode == ModeDisplay {
		return fmt.Errorf("%w: model is in display mode", ErrReadOnly)
	}
	q, ok := m.questions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, name)
	}
	if q.ReadOnly {
		return fmt.Errorf("%w: question %q", ErrReadOnly, name)
	}

	current, had := m.data[name]
	if isEmptyValue(value) {
		if !had {
			return nil
		}
		delete(m.data, name)
	} else {
		if had && reflect.DeepEqual(current, value) {
			return nil
		}
		m.data[name] = deepCopy(value)
	}

	m.OnValueChanged.fire(ValueChange{Name: name, Value: deepCopy(value)})
	m.OnChanged.fire(Change{Kind: ChangeValue, Name: name})
	return nil
}

// Mode returns the interaction mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// SetMode switches between edit and display.
func (m *Model) SetMode(mode Mode) error {
	parsed, err := ParseMode(string(mode))
	if err != nil {
		return err
	}
	if parsed == m.mode {
		return nil
	}
	m.mode = parsed
	m.OnChanged.fire(Change{Kind: ChangeMode})
	return nil
}

// Locale returns the active locale tag; empty means the schema default.
func (m *Model) Locale() string {
	return m.locale
}

// SetLocale activates a locale. Blank selects the default texts.
func (m *Model) SetLocale(tag string) error {
	normalized, err := NormalizeLocale(tag)
	if err != nil {
		return err
	}
	if normalized == m.locale {
		return nil
	}
	m.locale = normalized
	m.OnChanged.fire(Change{Kind: ChangeLocale})
	return nil
}

// Clear drops every answer and resets completion. Mode is unchanged.
func (m *Model) Clear() {
	m.data = make(map[string]any)
	m.state = StateRunning
	m.focused = ""
	m.OnChanged.fire(Change{Kind: ChangeClear})
}

// State returns the completion state.
func (m *Model) State() State {
	return m.state
}

// IsCompleted reports whether the model reached StateCompleted.
func (m *Model) IsCompleted() bool {
	return m.state == StateCompleted
}

// Complete moves the model into StateCompleted without checking required
// answers. It reports false when the model was already completed.
func (m *Model) Complete() bool {
	if m.state == StateCompleted {
		return false
	}
	m.state = StateCompleted
	m.OnComplete.fire(m.Data())
	m.OnChanged.fire(Change{Kind: ChangeState})
	return true
}

// FocusFirstQuestion moves focus to the first visible, editable question.
// It reports false when nothing can take focus.
func (m *Model) FocusFirstQuestion() (string, bool) {
	if m.mode == ModeDisplay || m.state == StateCompleted {
		return "", false
	}
	for _, q := range m.schema.Questions() {
		if !q.HasValue() || q.ReadOnly || !m.IsVisible(q) {
			continue
		}
		m.focused = q.Name
		m.OnFocus.fire(q.Name)
		return q.Name, true
	}
	return "", false
}

// IsVisible reports whether q is shown for the current answers. Hidden
// questions never are; visibleIf conditions are evaluated against the data.
func (m *Model) IsVisible(q Question) bool {
	if q.Hidden {
		return false
	}
	cond, ok := m.visibleIf[q.Name]
	return !ok || cond.Eval(m.data)
}

// Focused returns the name of the question holding focus, if any.
func (m *Model) Focused() string {
	return m.focused
}

// Title resolves the survey title for the active locale.
func (m *Model) Title() string {
	return m.schema.Title.For(m.locale)
}

// Text resolves a localized string for the active locale, falling back to
// fallback when nothing matches.
func (m *Model) Text(s LocalizedString, fallback string) string {
	if text := s.For(m.locale); text != "" {
		return text
	}
	return fallback
}

// Regenerate builds a new model generation for schema carrying over the
// answers still defined, the mode, the locale and the completion state.
// Listeners are not carried over. Dropped answer names are returned sorted.
func (m *Model) Regenerate(schema Schema) (*Model, []string) {
	next := New(schema)
	next.mode = m.mode
	next.locale = m.locale
	next.state = m.state
	next.data, _ = next.restrict(m.data)

	var dropped []string
	for k := range m.data {
		if _, ok := next.questions[k]; !ok {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)
	return next, dropped
}
