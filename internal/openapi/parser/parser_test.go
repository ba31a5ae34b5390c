package parser

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

const petstoreDocument = `{
  "openapi": "3.0.0",
  "info": { "title": "Pets", "version": "1.0.0" },
  "paths": {
    "/pets": {
      "post": {
        "operationId": "createPet",
        "summary": "Create a pet",
        "x-formstate": { "submitLabel": "Create" },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": { "type": "string", "minLength": 2, "maxLength": 40 },
                  "age": { "type": "integer", "minimum": 1, "maximum": 30 },
                  "bio": { "type": "string", "x-formstate-widget": "textarea" }
                }
              }
            }
          }
        },
        "responses": {
          "201": {
            "description": "created",
            "content": {
              "application/json": {
                "schema": { "type": "object", "properties": { "id": { "type": "string" } } }
              }
            }
          },
          "204": { "description": "empty" }
        }
      },
      "get": {
        "deprecated": true,
        "responses": {
          "200": {
            "description": "ok",
            "content": {
              "application/json": {
                "schema": { "type": "array", "items": { "type": "string" } }
              }
            }
          }
        }
      }
    }
  }
}`

func TestOperationsExtractsRequestAndResponses(t *testing.T) {
	t.Parallel()

	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("petstore.json"), []byte(petstoreDocument))
	parser := New(pkgopenapi.NewParserOptions())

	operations, err := parser.Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}
	if len(operations) != 2 {
		t.Fatalf("operations length = %d, want 2", len(operations))
	}

	op, ok := operations["createPet"]
	if !ok {
		t.Fatalf("operation createPet not found, have %v", keys(operations))
	}
	if op.Method != "POST" || op.Path != "/pets" {
		t.Fatalf("operation routing = %s %s, want POST /pets", op.Method, op.Path)
	}
	if op.Summary != "Create a pet" {
		t.Fatalf("summary = %q", op.Summary)
	}

	ext, ok := op.Extensions["x-formstate"].(map[string]any)
	if !ok || ext["submitLabel"] != "Create" {
		t.Fatalf("operation extensions = %#v", op.Extensions)
	}

	req := op.RequestBody
	if req.Type != "object" {
		t.Fatalf("request type = %q, want object", req.Type)
	}
	name := req.Properties["name"]
	if name.MinLength == nil || *name.MinLength != 2 || name.MaxLength == nil || *name.MaxLength != 40 {
		t.Fatalf("name length bounds = %+v", name)
	}
	age := req.Properties["age"]
	if age.Minimum == nil || *age.Minimum != 1 || age.Maximum == nil || *age.Maximum != 30 {
		t.Fatalf("age bounds = %+v", age)
	}
	bio := req.Properties["bio"]
	if bio.Extensions["x-formstate-widget"] != "textarea" {
		t.Fatalf("bio extensions = %#v", bio.Extensions)
	}

	if !op.HasResponse("201") {
		t.Fatal("201 response schema missing")
	}
	if op.HasResponse("204") {
		t.Fatal("content-free 204 response should be skipped")
	}
}

func TestOperationsDefaultsOperationID(t *testing.T) {
	t.Parallel()

	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("petstore.json"), []byte(petstoreDocument))
	parser := New(pkgopenapi.NewParserOptions())

	operations, err := parser.Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}

	op, ok := operations["get:/pets"]
	if !ok {
		t.Fatalf("fallback id get:/pets not found, have %v", keys(operations))
	}
	if !op.Deprecated {
		t.Fatal("deprecated flag lost in conversion")
	}
}

func TestOperationsRequiresPaths(t *testing.T) {
	t.Parallel()

	const componentsOnly = `{
  "openapi": "3.0.0",
  "info": { "title": "Empty", "version": "1.0.0" },
  "paths": {},
  "components": { "schemas": { "Pet": { "type": "object" } } }
}`

	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("empty.json"), []byte(componentsOnly))

	if _, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc); err == nil {
		t.Fatal("expected error for document without paths")
	}

	operations, err := New(pkgopenapi.NewParserOptions(pkgopenapi.WithPartialDocuments(true))).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("partial document rejected: %v", err)
	}
	if len(operations) != 0 {
		t.Fatalf("operations length = %d, want 0", len(operations))
	}
}

func TestOperationsRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), pkgopenapi.Document{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestConvertSchemaHandlesRecursiveReferences(t *testing.T) {
	t.Parallel()

	const document = `{
  "openapi": "3.0.0",
  "info": { "title": "Cycle", "version": "1.0.0" },
  "paths": {},
  "components": {
    "schemas": {
      "PublishingHouse": {
        "type": "object",
        "properties": {
          "headquarters": { "$ref": "#/components/schemas/Headquarters" }
        }
      },
      "Headquarters": {
        "type": "object",
        "properties": {
          "publisher": { "$ref": "#/components/schemas/PublishingHouse" }
        }
      }
    }
  }
}`

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(document))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	publishing := doc.Components.Schemas["PublishingHouse"]
	if publishing == nil {
		t.Fatalf("schema PublishingHouse not found")
	}
	converted := convertSchema(publishing)
	headquarters, ok := converted.Properties["headquarters"]
	if !ok {
		t.Fatalf("expected headquarters property on PublishingHouse schema")
	}
	if headquarters.Ref == "" {
		t.Fatalf("expected headquarters property to retain reference when resolving cycles")
	}
	publisher, ok := headquarters.Properties["publisher"]
	if !ok {
		t.Fatalf("expected publisher property below headquarters")
	}
	if publisher.Ref == "" {
		t.Fatalf("expected cycle back to PublishingHouse to degrade to a ref")
	}
	if len(publisher.Properties) != 0 {
		t.Fatalf("cycle cut should not expand properties, got %d", len(publisher.Properties))
	}
}

func TestConvertSchemaMergesAllOfSchemas(t *testing.T) {
	t.Parallel()

	const document = `{
  "openapi": "3.0.0",
  "info": { "title": "AllOf", "version": "1.0.0" },
  "paths": {
    "/users": {
      "post": {
        "operationId": "createUser",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "allOf": [
                  {"$ref": "#/components/schemas/BaseUser"},
                  {
                    "type": "object",
                    "required": ["email"],
                    "properties": {
                      "email": {"type": "string", "format": "email"}
                    }
                  }
                ]
              }
            }
          }
        },
        "responses": {
          "200": {"description": "ok"}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "BaseUser": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "age": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile("inline.json"), []byte(document))
	if err != nil {
		t.Fatalf("construct document: %v", err)
	}

	parser := New(pkgopenapi.NewParserOptions())
	operations, err := parser.Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}

	op, ok := operations["createUser"]
	if !ok {
		t.Fatalf("operation createUser not found")
	}

	req := op.RequestBody
	if req.Type != "object" {
		t.Fatalf("request schema type = %q, want object", req.Type)
	}
	if len(req.Properties) != 3 {
		t.Fatalf("properties length = %d, want 3", len(req.Properties))
	}
	if _, ok := req.Properties["name"]; !ok {
		t.Fatalf("expected name property from allOf ref")
	}
	if email, ok := req.Properties["email"]; !ok || email.Format != "email" {
		t.Fatalf("expected email property with format email, got %+v", email)
	}
	if age, ok := req.Properties["age"]; !ok || age.Minimum == nil || *age.Minimum != 1 {
		t.Fatalf("expected age property with minimum 1, got %+v", age)
	}

	required := make(map[string]struct{}, len(req.Required))
	for _, name := range req.Required {
		required[name] = struct{}{}
	}
	if _, ok := required["name"]; !ok {
		t.Fatalf("required set missing name")
	}
	if _, ok := required["email"]; !ok {
		t.Fatalf("required set missing email")
	}
}

func TestExtractExtensionsFiltersNamespace(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"x-formstate":        map[string]any{"widget": "textarea"},
		"x-formstate-secret": true,
		"x-internal":         "dropped",
		"x-formstate-empty":  nil,
	}

	got := extractExtensions(raw)
	if _, ok := got["x-internal"]; ok {
		t.Fatal("foreign extension key leaked through")
	}
	grouped, ok := got["x-formstate"].(map[string]any)
	if !ok || grouped["widget"] != "textarea" {
		t.Fatalf("grouped namespace = %#v", got["x-formstate"])
	}
	if got["x-formstate-secret"] != true {
		t.Fatalf("flattened key = %#v", got["x-formstate-secret"])
	}
}

func keys(operations map[string]pkgopenapi.Operation) []string {
	out := make([]string, 0, len(operations))
	for key := range operations {
		out = append(out, key)
	}
	return out
}
