package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-surveysync/pkg/visibility"
)

// Question types that do not carry an answer value.
const (
	TypePanel = "panel"
	TypeHTML  = "html"
	TypeImage = "image"
)

// DefaultQuestionType applies when an element omits "type".
const DefaultQuestionType = "text"

// Schema is the parsed question/page structure.
type Schema struct {
	Title LocalizedString `json:"title,omitempty"`
	Pages []Page          `json:"pages"`
}

// Page groups top-level elements.
type Page struct {
	Name     string          `json:"name,omitempty"`
	Title    LocalizedString `json:"title,omitempty"`
	Elements []Question      `json:"elements"`
}

// Question is one element. Panels nest further elements and carry no value.
type Question struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Title        LocalizedString `json:"title,omitempty"`
	Description  LocalizedString `json:"description,omitempty"`
	InputType    string          `json:"inputType,omitempty"`
	IsRequired   bool            `json:"isRequired,omitempty"`
	ReadOnly     bool            `json:"readOnly,omitempty"`
	Hidden       bool            `json:"-"`
	VisibleIf    string          `json:"visibleIf,omitempty"`
	Choices      []Choice        `json:"choices,omitempty"`
	DefaultValue any             `json:"defaultValue,omitempty"`
	RateMin      int             `json:"rateMin,omitempty"`
	RateMax      int             `json:"rateMax,omitempty"`
	Elements     []Question      `json:"elements,omitempty"`
}

// Choice is one selectable option.
type Choice struct {
	Value any             `json:"value"`
	Text  LocalizedString `json:"text,omitempty"`
}

// HasValue reports whether answers are stored under the question's name.
func (q Question) HasValue() bool {
	switch q.Type {
	case TypePanel, TypeHTML, TypeImage:
		return false
	}
	return q.Name != ""
}

// ParseSchema accepts a structured schema (map, Schema, or any JSON
// marshalable value) or a serialized one (JSON or YAML string/bytes). Nil and
// blank input yield an empty schema.
func ParseSchema(src any) (Schema, error) {
	switch typed := src.(type) {
	case nil:
		return Schema{}, nil
	case Schema:
		if err := checkConditions(typed); err != nil {
			return Schema{}, err
		}
		return typed, nil
	case *Schema:
		if typed == nil {
			return Schema{}, nil
		}
		return ParseSchema(*typed)
	case string:
		return parseSerialized([]byte(typed))
	case []byte:
		return parseSerialized(typed)
	case json.RawMessage:
		return parseSerialized(typed)
	case map[string]any:
		return decodeDocument(typed)
	default:
		raw, err := json.Marshal(typed)
		if err != nil {
			return Schema{}, fmt.Errorf("%w: %v", ErrMalformedSchema, err)
		}
		return parseSerialized(raw)
	}
}

func parseSerialized(raw []byte) (Schema, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Schema{}, nil
	}

	var doc any
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Schema{}, fmt.Errorf("%w: parse json: %v", ErrMalformedSchema, err)
		}
	} else if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return Schema{}, fmt.Errorf("%w: parse yaml: %v", ErrMalformedSchema, err)
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return Schema{}, fmt.Errorf("%w: document must be an object, got %T", ErrMalformedSchema, doc)
	}
	return decodeDocument(root)
}

func decodeDocument(root map[string]any) (Schema, error) {
	if err := ValidateDocument(root); err != nil {
		return Schema{}, err
	}

	schema := Schema{Title: localizedFrom(root["title"])}
	if pages, ok := root["pages"].([]any); ok {
		for i, raw := range pages {
			obj, _ := raw.(map[string]any)
			page := Page{
				Name:  stringFrom(obj["name"]),
				Title: localizedFrom(obj["title"]),
			}
			if page.Name == "" {
				page.Name = fmt.Sprintf("page%d", i+1)
			}
			page.Elements = append(decodeElements(obj["elements"]), decodeElements(obj["questions"])...)
			schema.Pages = append(schema.Pages, page)
		}
	}

	loose := append(decodeElements(root["elements"]), decodeElements(root["questions"])...)
	if len(loose) > 0 {
		schema.Pages = append(schema.Pages, Page{
			Name:     fmt.Sprintf("page%d", len(schema.Pages)+1),
			Elements: loose,
		})
	}
	if err := checkConditions(schema); err != nil {
		return Schema{}, err
	}
	return schema, nil
}

// checkConditions rejects schemas carrying a visibleIf that does not compile.
func checkConditions(schema Schema) error {
	for _, q := range schema.Questions() {
		if _, err := visibility.Compile(q.VisibleIf); err != nil {
			return fmt.Errorf("%w: %q visibleIf: %v", ErrMalformedSchema, q.Name, err)
		}
	}
	return nil
}

func decodeElements(raw any) []Question {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Question, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, decodeQuestion(obj))
	}
	return out
}

func decodeQuestion(obj map[string]any) Question {
	q := Question{
		Name:         strings.TrimSpace(stringFrom(obj["name"])),
		Type:         strings.ToLower(strings.TrimSpace(stringFrom(obj["type"]))),
		Title:        localizedFrom(obj["title"]),
		Description:  localizedFrom(obj["description"]),
		InputType:    stringFrom(obj["inputType"]),
		IsRequired:   boolFrom(obj["isRequired"]),
		ReadOnly:     boolFrom(obj["readOnly"]),
		DefaultValue: obj["defaultValue"],
		RateMin:      intFrom(obj["rateMin"], 1),
		RateMax:      intFrom(obj["rateMax"], 5),
		VisibleIf:    strings.TrimSpace(stringFrom(obj["visibleIf"])),
	}
	if q.Type == "" {
		q.Type = DefaultQuestionType
	}
	if visible, ok := obj["visible"].(bool); ok && !visible {
		q.Hidden = true
	}
	if choices, ok := obj["choices"].([]any); ok {
		for _, c := range choices {
			q.Choices = append(q.Choices, choiceFrom(c))
		}
	}
	q.Elements = append(decodeElements(obj["elements"]), decodeElements(obj["questions"])...)
	return q
}

func choiceFrom(raw any) Choice {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Choice{Value: raw}
	}
	value, ok := obj["value"]
	if !ok {
		value = obj["text"]
	}
	return Choice{Value: value, Text: localizedFrom(obj["text"])}
}

// Questions flattens the schema in document order, descending into panels.
// Panels themselves are included so views can render their titles.
func (s Schema) Questions() []Question {
	var out []Question
	var walk func([]Question)
	walk = func(items []Question) {
		for _, q := range items {
			out = append(out, q)
			if len(q.Elements) > 0 {
				walk(q.Elements)
			}
		}
	}
	for _, page := range s.Pages {
		walk(page.Elements)
	}
	return out
}

// ValueNames lists the names answers may be stored under, without duplicates.
func (s Schema) ValueNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, q := range s.Questions() {
		if !q.HasValue() {
			continue
		}
		if _, dup := seen[q.Name]; dup {
			continue
		}
		seen[q.Name] = struct{}{}
		names = append(names, q.Name)
	}
	return names
}

func stringFrom(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func boolFrom(v any) bool {
	b, _ := v.(bool)
	return b
}

func intFrom(v any, fallback int) int {
	switch typed := v.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	default:
		return fallback
	}
}
