package smelt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadSchemaYAML(t *testing.T) {
	doc := []byte(`
type: typed-dict
fields:
  width: int
  name:
    schema: str
    default: anon
  tags:
    type: list
    items_schema: str
    max_items: 4
`)
	raw, err := LoadSchemaYAML(doc)
	if err != nil {
		t.Fatal(err)
	}

	v, err := New(raw)
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Validate(map[string]any{"width": "7", "tags": []any{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"width": int64(7),
		"name":  "anon",
		"tags":  []any{"a", "b"},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSchemaYAMLJSONDocument(t *testing.T) {
	// JSON is a YAML subset; the loader takes either
	doc := []byte(`{"type": "list", "items_schema": {"type": "int"}}`)
	raw, err := LoadSchemaYAML(doc)
	if err != nil {
		t.Fatal(err)
	}
	v, err := New(raw)
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Validate([]any{1, "2"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{int64(1), int64(2)}, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSchemaYAMLInvalid(t *testing.T) {
	_, err := LoadSchemaYAML([]byte("{unclosed"))
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
	if _, ok := err.(*SchemaError); !ok {
		t.Errorf("error type = %T, want *SchemaError", err)
	}
}

func TestNormalizeKeys(t *testing.T) {
	in := map[any]any{
		"a": []any{map[any]any{1: "x"}},
		2:   "b",
	}
	got := normalizeKeys(in)
	want := map[string]any{
		"a": []any{map[string]any{"1": "x"}},
		"2": "b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalizeKeys mismatch (-want +got):\n%s", diff)
	}
}
