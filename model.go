package smelt

// FieldsOutput is the output of a typed-dict node compiled with
// return_fields_set: the validated field map plus the names of the
// fields that were explicitly present in the input (defaulted fields
// are excluded). FieldsSet is sorted.
type FieldsOutput struct {
	Fields    map[string]any
	FieldsSet []string
}

// Set reports whether name was explicitly supplied in the input.
func (o FieldsOutput) Set(name string) bool {
	for _, n := range o.FieldsSet {
		if n == name {
			return true
		}
	}
	return false
}

// Constructor is the model-class collaborator: it builds the output
// instance for a model-class node from an already-validated field map.
// It is assumed infallible; validation failures never reach it.
// Implementations must be safe for concurrent use.
type Constructor interface {
	Construct(className string, fields map[string]any, fieldsSet []string) any
}

// Instance is the output of the default constructor: a generic model
// object exposing the validated fields and the fields-set.
type Instance struct {
	Class     string
	fields    map[string]any
	fieldsSet []string
}

// Get returns the named field's validated (or defaulted) value.
func (m *Instance) Get(name string) (any, bool) {
	v, ok := m.fields[name]
	return v, ok
}

// Fields returns the full validated field map.
func (m *Instance) Fields() map[string]any { return m.fields }

// FieldsSet returns the sorted names of the explicitly-supplied fields.
func (m *Instance) FieldsSet() []string { return m.fieldsSet }

// Set reports whether name was explicitly supplied in the input.
func (m *Instance) Set(name string) bool {
	return FieldsOutput{FieldsSet: m.fieldsSet}.Set(name)
}

type instanceConstructor struct{}

func (instanceConstructor) Construct(className string, fields map[string]any, fieldsSet []string) any {
	return &Instance{Class: className, fields: fields, fieldsSet: fieldsSet}
}

// DefaultConstructor returns the constructor used when Options does not
// supply one. It produces *Instance values.
func DefaultConstructor() Constructor { return instanceConstructor{} }
