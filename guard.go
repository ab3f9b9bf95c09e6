package smelt

import "reflect"

// inputID identifies one container input value for cycle detection.
// Maps and pointers are identified by address; slices by address and
// length, since two distinct slices may share a backing array.
type inputID struct {
	ptr uintptr
	len int
}

// identify returns the identity of a container input. Scalars (and nil)
// have no identity: they cannot participate in a cycle, so the guard
// never tracks them.
func identify(v any) (inputID, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Func:
		return inputID{ptr: rv.Pointer()}, true
	case reflect.Slice:
		return inputID{ptr: rv.Pointer(), len: rv.Len()}, true
	default:
		return inputID{}, false
	}
}

// recursionGuard is the per-call set of input identities currently
// being descended into through reference edges. Membership follows a
// strict push/pop discipline tied to recursive-ref traversal only;
// plain composite descent never consults it, so a value shared at two
// independent positions validates independently.
type recursionGuard map[inputID]struct{}

func (g recursionGuard) contains(id inputID) bool {
	_, ok := g[id]
	return ok
}

func (g recursionGuard) push(id inputID) { g[id] = struct{}{} }

func (g recursionGuard) pop(id inputID) { delete(g, id) }
