package smelt

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind is the taxonomy tag carried by every located validation error.
type ErrorKind string

const (
	ErrNoneRequired     ErrorKind = "none_required"
	ErrBoolType         ErrorKind = "bool_type"
	ErrBoolParsing      ErrorKind = "bool_parsing"
	ErrIntType          ErrorKind = "int_type"
	ErrIntParsing       ErrorKind = "int_parsing"
	ErrIntFromFloat     ErrorKind = "int_from_float"
	ErrFloatType        ErrorKind = "float_type"
	ErrFloatParsing     ErrorKind = "float_parsing"
	ErrStrType          ErrorKind = "str_type"
	ErrDatetimeType     ErrorKind = "datetime_type"
	ErrDatetimeParsing  ErrorKind = "datetime_parsing"
	ErrListType         ErrorKind = "list_type"
	ErrTupleType        ErrorKind = "tuple_type"
	ErrWrongTupleLength ErrorKind = "wrong_tuple_length"
	ErrDictType         ErrorKind = "dict_type"
	ErrMissingField     ErrorKind = "missing_field"
	ErrTooShort         ErrorKind = "too_short"
	ErrTooLong          ErrorKind = "too_long"
	ErrRecursionLoop    ErrorKind = "recursion_loop"
)

// LocItem is one segment of an error location: a field name, a union
// branch label, the reference-traversal marker, or a sequence index.
type LocItem struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeyLoc returns a string path segment.
func KeyLoc(k string) LocItem { return LocItem{Key: k} }

// IndexLoc returns a numeric path segment.
func IndexLoc(i int) LocItem { return LocItem{Index: i, IsIndex: true} }

func (li LocItem) String() string {
	if li.IsIndex {
		return strconv.Itoa(li.Index)
	}
	return li.Key
}

// Loc is the ordered path from the validation root to the failing value.
type Loc []LocItem

func (l Loc) String() string {
	parts := make([]string, len(l))
	for i, li := range l {
		if li.IsIndex {
			parts[i] = strconv.Itoa(li.Index)
		} else {
			parts[i] = strconv.Quote(li.Key)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// LineError is a single located validation failure. It is immutable
// once recorded; the accumulator never rewrites entries in place.
type LineError struct {
	Kind    ErrorKind
	Loc     Loc
	Message string
	Input   any
}

func (e LineError) String() string {
	return fmt.Sprintf("%s\n  %s (kind=%s)", e.Loc, e.Message, e.Kind)
}

// ValidationError is the structured report returned by a failed
// validation call: one or more line errors, never zero.
type ValidationError struct {
	Title  string
	Errors []LineError
}

func (e *ValidationError) Error() string {
	noun := "errors"
	if len(e.Errors) == 1 {
		noun = "error"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation %s for %s", len(e.Errors), noun, e.Title)
	for _, le := range e.Errors {
		b.WriteByte('\n')
		b.WriteString(le.String())
	}
	return b.String()
}

// SchemaError reports a malformed or unresolvable raw schema tree.
// It is produced synchronously at build time; no partially built graph
// accompanies it.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string { return e.msg }

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}
