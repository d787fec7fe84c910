package recz

import (
	"reflect"
)

// CheckStyle controls how a filler's type check treats an incoming value.
type CheckStyle int

const (
	// CheckDefault defers to the owning schema's default style at bind time.
	// A bound filler never carries CheckDefault.
	CheckDefault CheckStyle = iota

	// Check accepts exact matches and assignable values (the loose mode),
	// falling back on the coercion chain otherwise.
	Check

	// CheckStrict accepts only values whose dynamic type is exactly the
	// declared type, falling back on the coercion chain otherwise.
	CheckStrict

	// CheckHollow disables type checking entirely; every value passes.
	// Hollow fillers cannot carry coercers.
	CheckHollow
)

// String returns the style name for spans and error messages.
func (s CheckStyle) String() string {
	switch s {
	case CheckDefault:
		return "default"
	case Check:
		return "check"
	case CheckStrict:
		return "strict"
	case CheckHollow:
		return "hollow"
	default:
		return "unknown"
	}
}

// Tie-break priorities (tcp) for union resolution. A successful fill is
// ranked by how its value passed type checking; higher ranks win. Declared
// priorities via Alternative.WithTCP replace these defaults.
const (
	TCPHollow  = 0 // passed because the filler is hollow
	TCPCoerced = 1 // passed through the coercion chain
	TCPLoose   = 2 // assignable but not exact
	TCPExact   = 3 // exact dynamic type match
)

// typeMatch reports how a value matched the declared type.
type typeMatch int

const (
	noMatch typeMatch = iota
	matchInexact
	matchExact
)

// matchType checks v's dynamic type against the declared type t.
// A nil value matches nilable declared types inexactly: there is no dynamic
// type to compare exactly.
func matchType(t reflect.Type, v any) typeMatch {
	if v == nil {
		if t == nil || nilable(t.Kind()) {
			return matchInexact
		}
		return noMatch
	}
	vt := reflect.TypeOf(v)
	if vt == t {
		return matchExact
	}
	if t != nil && vt.AssignableTo(t) {
		return matchInexact
	}
	return noMatch
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

// sequence reports whether a value is an ordered container a list filler can
// recurse into.
func sequence(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv, true
	default:
		return reflect.Value{}, false
	}
}

// typeName describes a declared type for error messages.
func typeName(t reflect.Type) string {
	if t == nil {
		return "any"
	}
	return t.String()
}
