package smelt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
)

func strPtr(s string) *string { return &s }

func TestFromJSONSchemaObject(t *testing.T) {
	obj := BuildObjectSchema(map[string]*oas3.Schema{
		"width": {Type: oas3.NewTypeFromString(oas3.SchemaTypeInteger)},
		"name":  {Type: oas3.NewTypeFromString(oas3.SchemaTypeString)},
		"when": {
			Type:   oas3.NewTypeFromString(oas3.SchemaTypeString),
			Format: strPtr("date-time"),
		},
	}, []string{"width"})

	raw, err := FromJSONSchema(obj)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"type": "typed-dict",
		"fields": map[string]any{
			"width": map[string]any{"schema": "int"},
			"name":  map[string]any{"schema": "str", "default": nil},
			"when":  map[string]any{"schema": "datetime", "default": nil},
		},
	}
	if diff := cmp.Diff(want, any(raw)); diff != "" {
		t.Errorf("raw tree mismatch (-want +got):\n%s", diff)
	}

	// the mapped tree must compile and validate
	v, err := New(raw)
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Validate(map[string]any{"width": "3", "when": "2022-06-08T12:13:14"})
	if err != nil {
		t.Fatal(err)
	}
	m := out.(map[string]any)
	if m["width"] != int64(3) {
		t.Errorf("width = %v", m["width"])
	}
	if m["name"] != nil {
		t.Errorf("name default = %v, want nil", m["name"])
	}
}

func TestFromJSONSchemaArrayAndUnion(t *testing.T) {
	arr := &oas3.Schema{
		Type: oas3.NewTypeFromString(oas3.SchemaTypeArray),
		Items: oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{
			AnyOf: []*oas3.JSONSchema[oas3.Referenceable]{
				oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeInteger)}),
				oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeNull)}),
			},
		}),
	}

	raw, err := FromJSONSchema(arr)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"type": "list",
		"items_schema": map[string]any{
			"type":    "union",
			"choices": []any{"int", "none"},
		},
	}
	if diff := cmp.Diff(want, any(raw)); diff != "" {
		t.Errorf("raw tree mismatch (-want +got):\n%s", diff)
	}

	v, err := New(raw)
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Validate([]any{1, nil, "2"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{int64(1), nil, int64(2)}, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSONSchemaNullable(t *testing.T) {
	nullable := true
	s := &oas3.Schema{
		Type:     oas3.NewTypeFromString(oas3.SchemaTypeBoolean),
		Nullable: &nullable,
	}
	raw, err := FromJSONSchema(s)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"type": "nullable", "schema": "bool"}
	if diff := cmp.Diff(want, any(raw)); diff != "" {
		t.Errorf("raw tree mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphJSONSchemaScalars(t *testing.T) {
	g, err := Build(map[string]any{
		"type": "typed-dict",
		"fields": map[string]any{
			"width": "int",
			"name":  map[string]any{"schema": "str", "default": "anon"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"width": map[string]any{"type": "integer"},
			"name":  map[string]any{"type": "string", "default": "anon"},
		},
		"required": []string{"width"},
	}
	if diff := cmp.Diff(want, g.JSONSchema()); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphJSONSchemaRecursive(t *testing.T) {
	g, err := Build(branchSchema())
	if err != nil {
		t.Fatal(err)
	}

	// the export must terminate and route the cycle through $defs
	out := g.JSONSchema()
	if out["$ref"] != "#/$defs/Branch" {
		t.Errorf("root $ref = %v", out["$ref"])
	}
	defs, ok := out["$defs"].(map[string]any)
	if !ok {
		t.Fatalf("$defs missing: %v", out)
	}
	branch, ok := defs["Branch"].(map[string]any)
	if !ok {
		t.Fatalf("Branch def missing: %v", defs)
	}
	props := branch["properties"].(map[string]any)
	sub := props["sub_branch"].(map[string]any)
	choices := sub["anyOf"].([]any)
	found := false
	for _, c := range choices {
		if m, ok := c.(map[string]any); ok && m["$ref"] == "#/$defs/Branch" {
			found = true
		}
	}
	if !found {
		t.Errorf("sub_branch does not reference the Branch def: %v", sub)
	}
}
