package smelt

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// A raw schema tree is a plain nested structure: maps with a "type" tag
// plus kind-specific attributes, sequences for choices/positions, and a
// bare string as shorthand for a bare scalar kind ("int" means
// {"type": "int"}). LoadSchemaYAML reads one from YAML or JSON text.
func LoadSchemaYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, schemaErrorf("invalid schema document: %v", err)
	}
	return normalizeKeys(v), nil
}

// normalizeKeys rewrites any map[any]any produced by a YAML decoder
// into map[string]any so the builder sees one mapping shape.
func normalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeKeys(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeKeys(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeKeys(e)
		}
		return out
	default:
		return v
	}
}

// rawNode views one raw tree node as a mapping, after expanding the
// bare-string shorthand.
func rawNode(v any) (map[string]any, error) {
	switch t := v.(type) {
	case string:
		return map[string]any{"type": t}, nil
	case map[string]any:
		return t, nil
	case map[any]any:
		m, _ := normalizeKeys(t).(map[string]any)
		return m, nil
	default:
		return nil, schemaErrorf("schema node must be a mapping or type name, got %T", v)
	}
}

func rawString(m map[string]any, key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, schemaErrorf("schema attribute %q must be a string, got %T", key, v)
	}
	return s, true, nil
}

func rawBool(m map[string]any, key string) (bool, error) {
	v, ok := m[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, schemaErrorf("schema attribute %q must be a bool, got %T", key, v)
	}
	return b, nil
}

// rawInt accepts int, int64 and whole float64 so JSON- and
// YAML-decoded trees both work. Returns -1 when the key is absent.
func rawInt(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return -1, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return -1, schemaErrorf("schema attribute %q must be an integer, got %v", key, v)
}

func rawSeq(m map[string]any, key string) ([]any, bool, error) {
	v, ok := m[key]
	if !ok {
		return nil, false, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, false, schemaErrorf("schema attribute %q must be a sequence, got %T", key, v)
	}
	return s, true, nil
}
