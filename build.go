package smelt

import "sort"

// fieldSpec is one declared field of a typed-dict node. A field with no
// default is required.
type fieldSpec struct {
	Name       string
	Schema     int
	HasDefault bool
	Default    any
}

// node is one compiled schema node. Child links are arena indices, so a
// recursive-ref node never owns its target: it holds only a non-owning
// handle resolved at build time. -1 means "no link".
type node struct {
	kind NodeKind
	ref  string // declared ref name, addressable by recursive-ref nodes

	inner    int // nullable/list item, model-class body, dict values, ref target
	keys     int // dict keys schema
	children []int
	labels   []string // union branch labels, parallel to children

	fields          []fieldSpec
	minItems        int
	maxItems        int
	className       string
	returnFieldsSet bool
	refName         string // recursive-ref target name
}

// Graph is the compiled validator graph: immutable after Build, safe to
// share across concurrent validation calls without locking.
type Graph struct {
	nodes []node
	root  int
}

// Root returns the handle of the graph's root node.
func (g *Graph) Root() int { return g.root }

// Len returns the number of compiled nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Build compiles a raw schema tree into a Graph. Compilation is
// two-phase: the collection pass walks the whole tree, appending every
// node to the arena and recording each declared ref name against its
// index; the resolution pass then binds every recursive-ref node to its
// target. Because resolution only starts after the full tree has been
// collected, forward references, sibling-scope references and mutual
// recursion between named nodes all resolve identically.
func Build(raw any) (*Graph, error) {
	b := &builder{refs: make(map[string]int)}
	root, err := b.compile(raw)
	if err != nil {
		return nil, err
	}
	if err := b.resolve(); err != nil {
		return nil, err
	}
	return &Graph{nodes: b.nodes, root: root}, nil
}

type builder struct {
	nodes []node
	refs  map[string]int
}

// compile appends the node for raw (and, recursively, all of its
// children) to the arena and returns its index.
func (b *builder) compile(raw any) (int, error) {
	m, err := rawNode(raw)
	if err != nil {
		return -1, err
	}
	typ, ok, err := rawString(m, "type")
	if err != nil {
		return -1, err
	}
	if !ok {
		return -1, schemaErrorf("schema node is missing the \"type\" attribute")
	}
	kind, ok := kindFromType(typ)
	if !ok {
		return -1, schemaErrorf("unknown schema type %q", typ)
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{kind: kind, inner: -1, keys: -1, minItems: -1, maxItems: -1})

	refName, hasRef, err := rawString(m, "ref")
	if err != nil {
		return -1, err
	}
	if hasRef {
		if prev, dup := b.refs[refName]; dup {
			return -1, schemaErrorf("duplicate ref %q declared (nodes %d and %d)", refName, prev, idx)
		}
		b.refs[refName] = idx
		b.nodes[idx].ref = refName
	}

	n := node{kind: kind, ref: b.nodes[idx].ref, inner: -1, keys: -1, minItems: -1, maxItems: -1}

	switch kind {
	case KindAny, KindNone, KindBool, KindInt, KindFloat, KindStr, KindDatetime:
		// scalar kinds carry no attributes beyond an optional ref

	case KindNullable:
		inner, ok := m["schema"]
		if !ok {
			return -1, schemaErrorf("nullable node requires a \"schema\" attribute")
		}
		if n.inner, err = b.compile(inner); err != nil {
			return -1, err
		}

	case KindUnion:
		choices, ok, err := rawSeq(m, "choices")
		if err != nil {
			return -1, err
		}
		if !ok || len(choices) == 0 {
			return -1, schemaErrorf("union node requires a non-empty \"choices\" sequence")
		}
		for _, c := range choices {
			h, err := b.compile(c)
			if err != nil {
				return -1, err
			}
			n.children = append(n.children, h)
			// A recursive-ref choice gets no label of its own: the
			// reference-traversal marker serves as that branch's segment.
			if b.nodes[h].kind == KindRef {
				n.labels = append(n.labels, "")
			} else {
				n.labels = append(n.labels, b.nodes[h].kind.String())
			}
		}

	case KindList:
		item, ok := m["items_schema"]
		if !ok {
			item = "any"
		}
		if n.inner, err = b.compile(item); err != nil {
			return -1, err
		}
		if n.minItems, err = rawInt(m, "min_items"); err != nil {
			return -1, err
		}
		if n.maxItems, err = rawInt(m, "max_items"); err != nil {
			return -1, err
		}

	case KindTuple:
		items, ok, err := rawSeq(m, "items_schema")
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, schemaErrorf("tuple-fix-len node requires an \"items_schema\" sequence")
		}
		for _, it := range items {
			h, err := b.compile(it)
			if err != nil {
				return -1, err
			}
			n.children = append(n.children, h)
		}

	case KindTypedDict:
		if n.fields, err = b.compileFields(m); err != nil {
			return -1, err
		}
		if n.returnFieldsSet, err = rawBool(m, "return_fields_set"); err != nil {
			return -1, err
		}

	case KindDict:
		keys, ok := m["keys_schema"]
		if !ok {
			keys = "any"
		}
		if n.keys, err = b.compile(keys); err != nil {
			return -1, err
		}
		values, ok := m["values_schema"]
		if !ok {
			values = "any"
		}
		if n.inner, err = b.compile(values); err != nil {
			return -1, err
		}
		if n.minItems, err = rawInt(m, "min_items"); err != nil {
			return -1, err
		}
		if n.maxItems, err = rawInt(m, "max_items"); err != nil {
			return -1, err
		}

	case KindModelClass:
		if n.className, _, err = rawString(m, "class_name"); err != nil {
			return -1, err
		}
		inner, ok := m["schema"]
		if !ok {
			return -1, schemaErrorf("model-class node requires a \"schema\" attribute")
		}
		if n.inner, err = b.compile(inner); err != nil {
			return -1, err
		}
		if b.nodes[n.inner].kind != KindTypedDict {
			return -1, schemaErrorf("model-class schema must be a typed-dict, got %s", b.nodes[n.inner].kind)
		}
		// the constructor needs the fields-set regardless of what the
		// inner typed-dict declared
		b.nodes[n.inner].returnFieldsSet = true

	case KindRef:
		target, ok, err := rawString(m, "schema_ref")
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, schemaErrorf("recursive-ref node requires a \"schema_ref\" attribute")
		}
		n.refName = target
	}

	b.nodes[idx] = n
	return idx, nil
}

// compileFields compiles a typed-dict "fields" mapping. Field order in
// the compiled node is sorted by name so error ordering is
// deterministic regardless of map iteration order.
func (b *builder) compileFields(m map[string]any) ([]fieldSpec, error) {
	rawFields, ok := m["fields"]
	if !ok {
		return nil, schemaErrorf("typed-dict node requires a \"fields\" attribute")
	}
	fm, err := rawNode(rawFields)
	if err != nil {
		return nil, schemaErrorf("typed-dict \"fields\" must be a mapping, got %T", rawFields)
	}

	names := make([]string, 0, len(fm))
	for name := range fm {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]fieldSpec, 0, len(names))
	for _, name := range names {
		spec, err := rawNode(fm[name])
		if err != nil {
			return nil, schemaErrorf("field %q must be a mapping or type name", name)
		}
		var f fieldSpec
		f.Name = name

		// a bare type name is shorthand for {"schema": <name>}
		schema, ok := spec["schema"]
		if !ok {
			if _, isType := spec["type"]; isType {
				schema = spec
			} else {
				return nil, schemaErrorf("field %q is missing its \"schema\" attribute", name)
			}
		}
		if f.Schema, err = b.compile(schema); err != nil {
			return nil, err
		}
		if def, ok := spec["default"]; ok {
			f.HasDefault = true
			f.Default = normalizeKeys(def)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// resolve is the resolution pass: it binds every recursive-ref node to
// the arena index its name was collected under, failing fast when the
// name was never declared anywhere in the tree.
func (b *builder) resolve() error {
	for i := range b.nodes {
		if b.nodes[i].kind != KindRef {
			continue
		}
		target, ok := b.refs[b.nodes[i].refName]
		if !ok {
			return schemaErrorf("recursive reference error: ref '%s' not found", b.nodes[i].refName)
		}
		b.nodes[i].inner = target
	}
	return nil
}
