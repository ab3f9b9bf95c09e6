package smelt

import (
	"sort"

	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// FromJSONSchema converts an OAS3/JSON Schema into a raw smelt schema
// tree suitable for Build. Only the structural subset the engine
// understands is mapped: objects become typed-dicts (or dicts when only
// additionalProperties is constrained), arrays become lists or fixed
// tuples, anyOf becomes a union, nullable wraps, and string/date-time
// becomes datetime. Optional object properties get a null default so
// their absence validates.
func FromJSONSchema(s *oas3.Schema) (map[string]any, error) {
	raw := fromSchema(s)
	m, err := rawNode(raw)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func fromSchema(s *oas3.Schema) any {
	if s == nil {
		return "any"
	}

	var out any
	switch {
	case len(s.AnyOf) > 0:
		choices := make([]any, 0, len(s.AnyOf))
		for _, branch := range s.AnyOf {
			choices = append(choices, fromSchema(jsonSchemaLeft(branch)))
		}
		out = map[string]any{"type": "union", "choices": choices}

	default:
		switch schemaType(s) {
		case "string":
			if s.Format != nil && *s.Format == "date-time" {
				out = "datetime"
			} else {
				out = "str"
			}
		case "integer":
			out = "int"
		case "number":
			out = "float"
		case "boolean":
			out = "bool"
		case "null":
			out = "none"
		case "object":
			out = fromObjectSchema(s)
		case "array":
			out = fromArraySchema(s)
		default:
			out = "any"
		}
	}

	if s.Nullable != nil && *s.Nullable {
		out = map[string]any{"type": "nullable", "schema": out}
	}
	return out
}

func fromObjectSchema(s *oas3.Schema) any {
	if s.Properties == nil {
		values := any("any")
		if s.AdditionalProperties != nil {
			values = fromSchema(jsonSchemaLeft(s.AdditionalProperties))
		}
		return map[string]any{"type": "dict", "values_schema": values}
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	fields := make(map[string]any)
	for name, js := range s.Properties.All() {
		field := map[string]any{"schema": fromSchema(jsonSchemaLeft(js))}
		if !required[name] {
			field["default"] = nil
		}
		fields[name] = field
	}
	return map[string]any{"type": "typed-dict", "fields": fields}
}

func fromArraySchema(s *oas3.Schema) any {
	if len(s.PrefixItems) > 0 {
		items := make([]any, 0, len(s.PrefixItems))
		for _, js := range s.PrefixItems {
			items = append(items, fromSchema(jsonSchemaLeft(js)))
		}
		return map[string]any{"type": "tuple-fix-len", "items_schema": items}
	}
	items := any("any")
	if s.Items != nil {
		items = fromSchema(jsonSchemaLeft(s.Items))
	}
	return map[string]any{"type": "list", "items_schema": items}
}

// jsonSchemaLeft unwraps the inline side of a JSONSchema wrapper.
// Unresolved $refs come back nil and map to "any".
func jsonSchemaLeft(js *oas3.JSONSchema[oas3.Referenceable]) *oas3.Schema {
	if js == nil {
		return nil
	}
	if resolved := js.GetResolvedSchema(); resolved != nil {
		if s := resolved.GetLeft(); s != nil {
			return s
		}
	}
	return js.GetLeft()
}

// schemaType returns the single declared type of a schema, or "" when
// the schema is untyped or declares several.
func schemaType(s *oas3.Schema) string {
	if s == nil {
		return ""
	}
	types := s.GetType()
	if len(types) != 1 {
		return ""
	}
	return string(types[0])
}

// BuildObjectSchema assembles an oas3 object schema from a property
// map. Keys are sorted so construction is deterministic.
func BuildObjectSchema(props map[string]*oas3.Schema, required []string) *oas3.Schema {
	propMap := sequencedmap.New[string, *oas3.JSONSchema[oas3.Referenceable]]()
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		propMap.Set(name, oas3.NewJSONSchemaFromSchema[oas3.Referenceable](props[name]))
	}
	sort.Strings(required)

	return &oas3.Schema{
		Type:       oas3.NewTypeFromString(oas3.SchemaTypeObject),
		Properties: propMap,
		Required:   required,
	}
}

// JSONSchema renders the compiled graph as a plain JSON-Schema-shaped
// mapping. Named nodes are materialized once under $defs and appear as
// {"$ref": "#/$defs/<name>"} everywhere they occur, which is what keeps
// the rendering finite for cyclic graphs.
func (g *Graph) JSONSchema() map[string]any {
	e := &schemaExporter{g: g, defs: map[string]any{}, building: map[string]bool{}}
	root := e.render(g.root)
	if len(e.defs) > 0 {
		root["$defs"] = e.defs
	}
	return root
}

type schemaExporter struct {
	g        *Graph
	defs     map[string]any
	building map[string]bool
}

func (e *schemaExporter) render(h int) map[string]any {
	n := &e.g.nodes[h]
	if n.ref == "" {
		return e.renderBody(h)
	}
	// the building flag breaks ref cycles: a def under construction is
	// already addressable by name
	if !e.building[n.ref] {
		e.building[n.ref] = true
		e.defs[n.ref] = e.renderBody(h)
	}
	return map[string]any{"$ref": "#/$defs/" + n.ref}
}

func (e *schemaExporter) renderBody(h int) map[string]any {
	n := &e.g.nodes[h]
	switch n.kind {
	case KindAny:
		return map[string]any{}
	case KindNone:
		return map[string]any{"type": "null"}
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindInt:
		return map[string]any{"type": "integer"}
	case KindFloat:
		return map[string]any{"type": "number"}
	case KindStr:
		return map[string]any{"type": "string"}
	case KindDatetime:
		return map[string]any{"type": "string", "format": "date-time"}

	case KindNullable:
		return map[string]any{"anyOf": []any{
			e.render(n.inner),
			map[string]any{"type": "null"},
		}}

	case KindUnion:
		choices := make([]any, 0, len(n.children))
		for _, c := range n.children {
			choices = append(choices, e.render(c))
		}
		return map[string]any{"anyOf": choices}

	case KindList:
		out := map[string]any{"type": "array", "items": e.render(n.inner)}
		if n.minItems >= 0 {
			out["minItems"] = n.minItems
		}
		if n.maxItems >= 0 {
			out["maxItems"] = n.maxItems
		}
		return out

	case KindTuple:
		items := make([]any, 0, len(n.children))
		for _, c := range n.children {
			items = append(items, e.render(c))
		}
		return map[string]any{
			"type":        "array",
			"prefixItems": items,
			"minItems":    len(items),
			"maxItems":    len(items),
		}

	case KindTypedDict:
		props := make(map[string]any, len(n.fields))
		required := make([]string, 0)
		for _, f := range n.fields {
			fs := e.render(f.Schema)
			if f.HasDefault {
				fs["default"] = f.Default
			} else {
				required = append(required, f.Name)
			}
			props[f.Name] = fs
		}
		out := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			out["required"] = required
		}
		return out

	case KindDict:
		out := map[string]any{
			"type":                 "object",
			"additionalProperties": e.render(n.inner),
		}
		if e.g.nodes[n.keys].kind != KindAny {
			out["propertyNames"] = e.render(n.keys)
		}
		if n.minItems >= 0 {
			out["minProperties"] = n.minItems
		}
		if n.maxItems >= 0 {
			out["maxProperties"] = n.maxItems
		}
		return out

	case KindModelClass:
		out := e.renderBody(n.inner)
		if n.className != "" {
			out["title"] = n.className
		}
		return out

	case KindRef:
		return e.render(n.inner)

	default:
		return map[string]any{}
	}
}
