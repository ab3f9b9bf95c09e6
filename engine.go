package smelt

import (
	"fmt"
	"sort"
)

// Options configures a Validator. The zero value is usable; unset
// collaborators fall back to the defaults.
type Options struct {
	// Coercer handles scalar kinds. Defaults to LaxCoercer.
	Coercer Coercer
	// Constructor builds model-class outputs. Defaults to the
	// *Instance constructor.
	Constructor Constructor
	// Title names the schema in validation error reports.
	Title string

	// Logging configuration. Leave LogLevel empty to disable tracing.
	Logger   Logger
	LogLevel string
}

// DefaultOptions returns the default Validator configuration.
func DefaultOptions() Options {
	return Options{
		Coercer:     LaxCoercer{},
		Constructor: DefaultConstructor(),
		Title:       "schema",
	}
}

// Validator pairs a compiled graph with its collaborators. The graph is
// never mutated after construction, so one Validator may serve any
// number of concurrent Validate calls; every call gets its own guard,
// accumulator and path state.
type Validator struct {
	graph  *Graph
	opts   Options
	logger Logger
}

// New builds a validator for the given raw schema tree with default
// options. It fails with a *SchemaError if the tree is malformed or
// contains an unresolvable reference.
func New(raw any) (*Validator, error) {
	return NewWithOptions(raw, DefaultOptions())
}

// NewWithOptions builds a validator with explicit options.
func NewWithOptions(raw any, opts Options) (*Validator, error) {
	graph, err := Build(raw)
	if err != nil {
		return nil, err
	}
	if opts.Coercer == nil {
		opts.Coercer = LaxCoercer{}
	}
	if opts.Constructor == nil {
		opts.Constructor = DefaultConstructor()
	}
	if opts.Title == "" {
		opts.Title = "schema"
	}
	logger := opts.Logger
	if logger == nil {
		if opts.LogLevel != "" {
			logger = NewLogger(ParseLogLevel(opts.LogLevel), nil)
		} else {
			logger = newNoopLogger()
		}
	}
	return &Validator{graph: graph, opts: opts, logger: logger}, nil
}

// Graph exposes the compiled validator graph.
func (v *Validator) Graph() *Graph { return v.graph }

// Validate converts input according to the compiled schema. On failure
// it returns a *ValidationError carrying every located error collected
// during the attempt.
func (v *Validator) Validate(input any) (any, error) {
	r := &run{
		g:      v.graph,
		opts:   &v.opts,
		guard:  make(recursionGuard),
		logger: v.logger,
	}
	// The root input is already "being descended into": seeding its
	// identity makes a self-referential root fail at the first
	// reference edge, locating the cycle at the referencing field.
	if id, ok := identify(input); ok {
		r.guard.push(id)
	}
	r.logger.With(map[string]any{
		"nodes": len(v.graph.nodes),
		"input": valuePreview(input, 1),
	}).Debugf("validation start")

	out, errs := r.validateNode(v.graph.root, input, nil)
	if len(errs) > 0 {
		r.logger.With(map[string]any{"errors": len(errs)}).Debugf("validation failed")
		return nil, &ValidationError{Title: v.opts.Title, Errors: errs}
	}
	return out, nil
}

// run is the per-call mutable state: one guard, one logger handle, and
// the path threaded through validateNode. Never shared across calls.
type run struct {
	g      *Graph
	opts   *Options
	guard  recursionGuard
	logger Logger
}

// validateNode performs recursive-descent validation of input against
// the node at handle h. A nil error slice means success; a non-empty
// one carries every located error from this subtree.
func (r *run) validateNode(h int, input any, path []LocItem) (any, []LineError) {
	n := &r.g.nodes[h]

	if n.kind.isScalar() {
		out, cerr := r.opts.Coercer.Coerce(n.kind, input)
		if cerr != nil {
			return nil, []LineError{r.lineError(cerr.Kind, path, cerr.Message, input)}
		}
		return out, nil
	}

	switch n.kind {
	case KindNullable:
		if input == nil {
			return nil, nil
		}
		// the nullable wrapper itself contributes no path segment
		return r.validateNode(n.inner, input, path)

	case KindUnion:
		return r.validateUnion(n, input, path)

	case KindList:
		return r.validateList(n, input, path)

	case KindTuple:
		return r.validateTuple(n, input, path)

	case KindTypedDict:
		return r.validateTypedDict(n, input, path)

	case KindDict:
		return r.validateDict(n, input, path)

	case KindModelClass:
		out, errs := r.validateNode(n.inner, input, path)
		if errs != nil {
			return nil, errs
		}
		fo := out.(FieldsOutput)
		return r.opts.Constructor.Construct(n.className, fo.Fields, fo.FieldsSet), nil

	case KindRef:
		return r.validateRef(n, input, path)

	default:
		panic(fmt.Sprintf("validateNode: unhandled kind %s", n.kind))
	}
}

// validateUnion tries each choice in declared order; the first success
// wins. When every choice fails, the report concatenates all choices'
// errors, each prefixed with that choice's branch label.
func (r *run) validateUnion(n *node, input any, path []LocItem) (any, []LineError) {
	var collected []LineError
	for i, choice := range n.children {
		branchPath := path
		if n.labels[i] != "" {
			branchPath = extendPath(path, KeyLoc(n.labels[i]))
		}
		out, errs := r.validateNode(choice, input, branchPath)
		if errs == nil {
			return out, nil
		}
		collected = append(collected, errs...)
	}
	return nil, collected
}

func (r *run) validateList(n *node, input any, path []LocItem) (any, []LineError) {
	seq, ok := asSequence(input)
	if !ok {
		return nil, []LineError{r.lineError(ErrListType, path, "Value must be a valid list/array", input)}
	}
	if errs := r.checkLength(n, len(seq), path, input); errs != nil {
		return nil, errs
	}
	out := make([]any, len(seq))
	var collected []LineError
	for i, item := range seq {
		v, errs := r.validateNode(n.inner, item, extendPath(path, IndexLoc(i)))
		if errs != nil {
			collected = append(collected, errs...)
			continue
		}
		out[i] = v
	}
	if collected != nil {
		return nil, collected
	}
	return out, nil
}

func (r *run) validateTuple(n *node, input any, path []LocItem) (any, []LineError) {
	seq, ok := asSequence(input)
	if !ok {
		return nil, []LineError{r.lineError(ErrTupleType, path, "Value must be a valid tuple", input)}
	}
	if len(seq) != len(n.children) {
		msg := fmt.Sprintf("Tuple must have exactly %d item(s)", len(n.children))
		return nil, []LineError{r.lineError(ErrWrongTupleLength, path, msg, input)}
	}
	out := make([]any, len(seq))
	var collected []LineError
	for i, child := range n.children {
		v, errs := r.validateNode(child, seq[i], extendPath(path, IndexLoc(i)))
		if errs != nil {
			collected = append(collected, errs...)
			continue
		}
		out[i] = v
	}
	if collected != nil {
		return nil, collected
	}
	return out, nil
}

func (r *run) validateTypedDict(n *node, input any, path []LocItem) (any, []LineError) {
	m, ok := asMapping(input)
	if !ok {
		return nil, []LineError{r.lineError(ErrDictType, path, "Value must be a valid dictionary", input)}
	}
	out := make(map[string]any, len(n.fields))
	fieldsSet := make([]string, 0, len(n.fields))
	var collected []LineError
	for _, f := range n.fields {
		raw, present := m[f.Name]
		if !present {
			if f.HasDefault {
				// defaults are trusted: used verbatim, never validated,
				// and excluded from the fields-set
				out[f.Name] = f.Default
				continue
			}
			collected = append(collected, r.lineError(ErrMissingField, extendPath(path, KeyLoc(f.Name)), "Field required", input))
			continue
		}
		v, errs := r.validateNode(f.Schema, raw, extendPath(path, KeyLoc(f.Name)))
		if errs != nil {
			collected = append(collected, errs...)
			continue
		}
		out[f.Name] = v
		fieldsSet = append(fieldsSet, f.Name)
	}
	if collected != nil {
		return nil, collected
	}
	if n.returnFieldsSet {
		return FieldsOutput{Fields: out, FieldsSet: fieldsSet}, nil
	}
	return out, nil
}

// validateDict checks a homogeneous mapping against its keys and values
// schemas. Key errors carry the literal "[key]" marker after the key
// itself; entries are visited in sorted key order so error ordering is
// deterministic.
func (r *run) validateDict(n *node, input any, path []LocItem) (any, []LineError) {
	m, ok := asMapping(input)
	if !ok {
		return nil, []LineError{r.lineError(ErrDictType, path, "Value must be a valid dictionary", input)}
	}
	if errs := r.checkLength(n, len(m), path, input); errs != nil {
		return nil, errs
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	var collected []LineError
	for _, k := range keys {
		keyOut, keyErrs := r.validateNode(n.keys, k, extendPath(extendPath(path, KeyLoc(k)), KeyLoc("[key]")))
		collected = append(collected, keyErrs...)
		valOut, valErrs := r.validateNode(n.inner, m[k], extendPath(path, KeyLoc(k)))
		collected = append(collected, valErrs...)
		if keyErrs == nil && valErrs == nil {
			out[outputKey(keyOut)] = valOut
		}
	}
	if collected != nil {
		return nil, collected
	}
	return out, nil
}

// validateRef is the only place the recursion guard is consulted. The
// guard check uses the current input's identity and happens before the
// traversal marker is appended, so a detected cycle is located at the
// path of the referencing edge itself.
func (r *run) validateRef(n *node, input any, path []LocItem) (any, []LineError) {
	id, identifiable := identify(input)
	if identifiable {
		if r.guard.contains(id) {
			r.logger.With(map[string]any{
				"ref":   n.refName,
				"loc":   Loc(path).String(),
				"input": valuePreview(input, 1),
			}).Debugf("cycle detected")
			return nil, []LineError{r.lineError(ErrRecursionLoop, path, "Recursion error - cyclic reference detected", input)}
		}
		r.guard.push(id)
		defer r.guard.pop(id)
	}
	return r.validateNode(n.inner, input, extendPath(path, KeyLoc(n.kind.String())))
}

func (r *run) checkLength(n *node, have int, path []LocItem, input any) []LineError {
	if n.minItems >= 0 && have < n.minItems {
		msg := fmt.Sprintf("Input must have at least %d item(s)", n.minItems)
		return []LineError{r.lineError(ErrTooShort, path, msg, input)}
	}
	if n.maxItems >= 0 && have > n.maxItems {
		msg := fmt.Sprintf("Input must have at most %d item(s)", n.maxItems)
		return []LineError{r.lineError(ErrTooLong, path, msg, input)}
	}
	return nil
}

// lineError records one located error. The path is copied: in-flight
// path slices are reused across siblings and must not alias the report.
func (r *run) lineError(kind ErrorKind, path []LocItem, msg string, input any) LineError {
	loc := make(Loc, len(path))
	copy(loc, path)
	return LineError{
		Kind:    kind,
		Loc:     loc,
		Message: msg,
		Input:   input,
	}
}

// extendPath copies on extend so sibling branches never observe each
// other's segments through a shared backing array.
func extendPath(path []LocItem, item LocItem) []LocItem {
	p := make([]LocItem, len(path), len(path)+1)
	copy(p, path)
	return append(p, item)
}

func asSequence(input any) ([]any, bool) {
	s, ok := input.([]any)
	return s, ok
}

// asMapping accepts the two mapping shapes YAML and JSON decoders
// produce.
func asMapping(input any) (map[string]any, bool) {
	switch m := input.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// outputKey renders a coerced dict key for the output map. Keys that
// coerce to strings keep the coerced value; other canonical scalar
// outputs are stringified.
func outputKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
