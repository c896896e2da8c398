package survey

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the structural contract a survey document must meet
// before it is decoded. It checks shape only; question semantics are left to
// the model.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "properties": {
    "title": {"$ref": "#/definitions/localizable"},
    "pages": {"type": "array", "items": {"$ref": "#/definitions/page"}},
    "elements": {"$ref": "#/definitions/elements"},
    "questions": {"$ref": "#/definitions/elements"}
  },
  "definitions": {
    "localizable": {
      "oneOf": [
        {"type": "string"},
        {"type": "object", "additionalProperties": {"type": "string"}}
      ]
    },
    "elements": {"type": "array", "items": {"$ref": "#/definitions/element"}},
    "page": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "title": {"$ref": "#/definitions/localizable"},
        "elements": {"$ref": "#/definitions/elements"},
        "questions": {"$ref": "#/definitions/elements"}
      }
    },
    "element": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "type": {"type": "string"},
        "title": {"$ref": "#/definitions/localizable"},
        "description": {"$ref": "#/definitions/localizable"},
        "isRequired": {"type": "boolean"},
        "readOnly": {"type": "boolean"},
        "visible": {"type": "boolean"},
        "visibleIf": {"type": "string"},
        "choices": {"type": "array"},
        "elements": {"$ref": "#/definitions/elements"}
      }
    }
  }
}`

var (
	documentSchemaOnce sync.Once
	documentSchemaComp *gojsonschema.Schema
	documentSchemaErr  error
)

func compiledDocumentSchema() (*gojsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		documentSchemaComp, documentSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return documentSchemaComp, documentSchemaErr
}

// Issue is one structural problem found in a survey document.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates structural issues. It unwraps to
// ErrMalformedSchema.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedSchema, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedSchema
}

// ValidateDocument checks a decoded document against the structural contract.
func ValidateDocument(doc map[string]any) error {
	compiled, err := compiledDocumentSchema()
	if err != nil {
		return fmt.Errorf("survey: compile document schema: %w", err)
	}
	result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSchema, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Issues = append(verr.Issues, Issue{Field: re.Field(), Message: re.Description()})
	}
	return verr
}
