package survey

import (
	"context"
	"errors"
	"testing"
)

const petstore = `{
  "openapi": "3.0.3",
  "info": {"title": "pets", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "post": {
        "operationId": "createPet",
        "summary": "Create a pet",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string", "title": "Name"},
                  "kind": {"type": "string", "enum": ["cat", "dog"]},
                  "vaccinated": {"type": "boolean"},
                  "age": {"type": "integer"}
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

func TestFromOpenAPI(t *testing.T) {
	schema, err := FromOpenAPI(context.Background(), []byte(petstore), "createPet")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if schema.Title.For("") != "Create a pet" {
		t.Fatalf("unexpected title %q", schema.Title.For(""))
	}
	byName := map[string]Question{}
	for _, q := range schema.Questions() {
		byName[q.Name] = q
	}
	if !byName["name"].IsRequired {
		t.Fatalf("expected name to be required")
	}
	if byName["kind"].Type != "dropdown" || len(byName["kind"].Choices) != 2 {
		t.Fatalf("unexpected kind question: %+v", byName["kind"])
	}
	if byName["vaccinated"].Type != "boolean" {
		t.Fatalf("unexpected vaccinated type %q", byName["vaccinated"].Type)
	}
	if byName["age"].InputType != "number" {
		t.Fatalf("unexpected age input type %q", byName["age"].InputType)
	}
}

func TestFromOpenAPIUnknownOperation(t *testing.T) {
	_, err := FromOpenAPI(context.Background(), []byte(petstore), "deletePet")
	if !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}
