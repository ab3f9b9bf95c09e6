package smelt

// NodeKind identifies one schema node kind. The set is closed: the
// builder and the engine both switch exhaustively over it.
type NodeKind int

const (
	KindInvalid NodeKind = iota
	KindAny
	KindNone
	KindBool
	KindInt
	KindFloat
	KindStr
	KindDatetime
	KindNullable
	KindUnion
	KindList
	KindTuple
	KindTypedDict
	KindDict
	KindModelClass
	KindRef
)

// String returns the kind's wire name, as used in raw schema trees
// and union branch labels.
func (k NodeKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindAny:
		return "any"
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindDatetime:
		return "datetime"
	case KindNullable:
		return "nullable"
	case KindUnion:
		return "union"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple-fix-len"
	case KindTypedDict:
		return "typed-dict"
	case KindDict:
		return "dict"
	case KindModelClass:
		return "model-class"
	case KindRef:
		return "recursive-ref"
	default:
		panic(k)
	}
}

// kindFromType maps a raw tree "type" tag to its NodeKind.
func kindFromType(s string) (NodeKind, bool) {
	switch s {
	case "any":
		return KindAny, true
	case "none":
		return KindNone, true
	case "bool":
		return KindBool, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "str":
		return KindStr, true
	case "datetime":
		return KindDatetime, true
	case "nullable":
		return KindNullable, true
	case "union":
		return KindUnion, true
	case "list":
		return KindList, true
	case "tuple-fix-len":
		return KindTuple, true
	case "typed-dict":
		return KindTypedDict, true
	case "dict":
		return KindDict, true
	case "model-class":
		return KindModelClass, true
	case "recursive-ref":
		return KindRef, true
	default:
		return KindInvalid, false
	}
}

// isScalar reports whether the kind is handled by the scalar coercion
// collaborator rather than by the composite dispatch.
func (k NodeKind) isScalar() bool {
	switch k {
	case KindAny, KindNone, KindBool, KindInt, KindFloat, KindStr, KindDatetime:
		return true
	default:
		return false
	}
}
