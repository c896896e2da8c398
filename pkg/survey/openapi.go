package survey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrOperationNotFound is returned by FromOpenAPI when no operation matches.
var ErrOperationNotFound = errors.New("survey: openapi operation not found")

// FromOpenAPI builds a survey schema from the JSON request body of the
// operation identified by operationID. Required properties are marked
// required; enums become choices.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string) (Schema, error) {
	if len(raw) == 0 {
		return Schema{}, errors.New("survey: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return Schema{}, fmt.Errorf("survey: load openapi: %w", err)
	}

	op := findOperation(doc, operationID)
	if op == nil {
		return Schema{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(op.RequestBody)
	if body == nil {
		return Schema{}, fmt.Errorf("%w: operation %q has no request body schema", ErrMalformedSchema, operationID)
	}

	page := Page{Name: "page1", Elements: questionsFromProperties(body)}
	schema := Schema{Pages: []Page{page}}
	if title := firstNonEmpty(op.Summary, body.Title); title != "" {
		schema.Title = LocalizedString{DefaultLocaleKey: title}
	}
	return schema, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			if id == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	content := ref.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func questionsFromProperties(obj *openapi3.Schema) []Question {
	if obj == nil || len(obj.Properties) == 0 {
		return nil
	}
	required := make(map[string]bool, len(obj.Required))
	for _, name := range obj.Required {
		required[name] = true
	}
	names := make([]string, 0, len(obj.Properties))
	for name := range obj.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Question, 0, len(names))
	for _, name := range names {
		ref := obj.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		q := questionFromProperty(name, ref.Value)
		q.IsRequired = required[name]
		out = append(out, q)
	}
	return out
}

func questionFromProperty(name string, prop *openapi3.Schema) Question {
	q := Question{
		Name:         name,
		Type:         DefaultQuestionType,
		DefaultValue: prop.Default,
		ReadOnly:     prop.ReadOnly,
		RateMin:      1,
		RateMax:      5,
	}
	if title := firstNonEmpty(prop.Title, prop.Description); title != "" {
		q.Title = LocalizedString{DefaultLocaleKey: title}
	}
	if prop.Title != "" && prop.Description != "" {
		q.Description = LocalizedString{DefaultLocaleKey: prop.Description}
	}

	switch {
	case prop.Type.Is(openapi3.TypeObject):
		q.Type = TypePanel
		q.Elements = questionsFromProperties(prop)
	case prop.Type.Is(openapi3.TypeBoolean):
		q.Type = "boolean"
	case prop.Type.Is(openapi3.TypeArray):
		q.Type = "checkbox"
		if prop.Items != nil && prop.Items.Value != nil {
			q.Choices = choicesFromEnum(prop.Items.Value.Enum)
		}
		if len(q.Choices) == 0 {
			q.Type = "comment"
		}
	case len(prop.Enum) > 0:
		q.Type = "dropdown"
		q.Choices = choicesFromEnum(prop.Enum)
	case prop.Type.Is(openapi3.TypeInteger), prop.Type.Is(openapi3.TypeNumber):
		q.InputType = "number"
	case prop.Type.Is(openapi3.TypeString):
		switch prop.Format {
		case "email", "date", "date-time", "password":
			q.InputType = strings.ReplaceAll(prop.Format, "date-time", "datetime-local")
		}
		if prop.MaxLength != nil && *prop.MaxLength > 255 {
			q.Type = "comment"
		}
	}
	return q
}

func choicesFromEnum(values []any) []Choice {
	out := make([]Choice, 0, len(values))
	for _, v := range values {
		out = append(out, Choice{Value: v, Text: LocalizedString{DefaultLocaleKey: fmt.Sprint(v)}})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
