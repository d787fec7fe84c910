package recz

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// errNotWhole is the cause when Whole claims a real number that carries a
// fractional part.
var errNotWhole = errors.New("value has a fractional part")

// originDependent is implemented by builtin coercers whose behavior targets
// the declared type. Bind specializes them against the filler's type, so the
// same token value can be declared once and reused across fields; for union
// alternatives the broadcast copy specializes against each branch's type.
type originDependent interface {
	forOrigin(t reflect.Type) Coercer
}

// coercerFunc adapts a pair of functions into a Coercer.
type coercerFunc struct {
	name       Name
	applicable func(any) bool
	coerce     func(any) (any, error)
}

func (c coercerFunc) Name() Name { return c.name }

func (c coercerFunc) Applicable(v any) bool {
	if c.applicable == nil {
		return true
	}
	return c.applicable(v)
}

func (c coercerFunc) Coerce(v any) (any, error) { return c.coerce(v) }

// CoerceFunc creates a coercer from an arbitrary function. The coercer
// claims every input; return an error to abort the fill.
//
// Example:
//
//	trimmed := recz.CoerceFunc("from_csv", func(v any) (any, error) {
//	    s, ok := v.(string)
//	    if !ok {
//	        return nil, fmt.Errorf("want string, got %T", v)
//	    }
//	    return strings.Split(s, ","), nil
//	})
func CoerceFunc(name Name, fn func(any) (any, error)) Coercer {
	return coercerFunc{name: name, coerce: fn}
}

// CoerceFuncIf creates a coercer with an explicit applicability predicate.
// Inputs the predicate declines pass to the next coercer in the chain.
func CoerceFuncIf(name Name, applicable func(any) bool, fn func(any) (any, error)) Coercer {
	return coercerFunc{name: name, applicable: applicable, coerce: fn}
}

// parseCoercer converts string inputs to the declared scalar type using
// strconv.
type parseCoercer struct {
	typ reflect.Type
}

// Parse creates a coercer that parses string inputs into the declared scalar
// type: integers, unsigned integers, floats, complex numbers, and booleans.
// Non-string inputs pass to the next coercer; unparseable strings abort the
// fill.
func Parse() Coercer { return parseCoercer{} }

func (p parseCoercer) forOrigin(t reflect.Type) Coercer { return parseCoercer{typ: t} }

func (p parseCoercer) Name() Name { return "parse" }

func (p parseCoercer) Applicable(v any) bool {
	_, ok := v.(string)
	return ok
}

func (p parseCoercer) Coerce(v any) (any, error) {
	s := v.(string)
	if p.typ == nil {
		return nil, errors.New("no declared type to parse into")
	}
	switch p.typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, p.typ.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(p.typ).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, p.typ.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(p.typ).Interface(), nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, p.typ.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(p.typ).Interface(), nil
	case reflect.Complex64, reflect.Complex128:
		n, err := strconv.ParseComplex(s, p.typ.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(p.typ).Interface(), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		return b, nil
	case reflect.String:
		return s, nil
	default:
		return nil, fmt.Errorf("cannot parse into %s", p.typ)
	}
}

// convertCoercer converts inputs to the declared type using Go conversion
// rules.
type convertCoercer struct {
	typ reflect.Type
}

// Convert creates a coercer that applies a Go type conversion to the
// declared type. It claims any input convertible to the declared type, so
// place it after more specific coercers in the chain. Note that Go
// conversions truncate floats and reinterpret integers as strings; use
// Parse or Whole when that matters.
func Convert() Coercer { return convertCoercer{} }

func (c convertCoercer) forOrigin(t reflect.Type) Coercer { return convertCoercer{typ: t} }

func (c convertCoercer) Name() Name { return "convert" }

func (c convertCoercer) Applicable(v any) bool {
	if v == nil || c.typ == nil {
		return false
	}
	return reflect.TypeOf(v).ConvertibleTo(c.typ)
}

func (c convertCoercer) Coerce(v any) (any, error) {
	return reflect.ValueOf(v).Convert(c.typ).Interface(), nil
}

// wholeCoercer converts reals with no fractional part to the declared
// integer type.
type wholeCoercer struct {
	typ reflect.Type
}

// Whole creates a coercer that accepts real numbers carrying a whole value
// (3.0, complex numbers with a zero imaginary part) and converts them to the
// declared integer type. A claimed number with a fractional part aborts the
// fill.
func Whole() Coercer { return wholeCoercer{} }

func (w wholeCoercer) forOrigin(t reflect.Type) Coercer { return wholeCoercer{typ: t} }

func (w wholeCoercer) Name() Name { return "whole" }

func (w wholeCoercer) Applicable(v any) bool {
	switch v.(type) {
	case float32, float64, complex64, complex128:
		return true
	default:
		return false
	}
}

func (w wholeCoercer) Coerce(v any) (any, error) {
	var f float64
	switch n := v.(type) {
	case float32:
		f = float64(n)
	case float64:
		f = n
	case complex64:
		if imag(n) != 0 {
			return nil, fmt.Errorf("%w: non-zero imaginary part", errNotWhole)
		}
		f = float64(real(n))
	case complex128:
		if imag(n) != 0 {
			return nil, fmt.Errorf("%w: non-zero imaginary part", errNotWhole)
		}
		f = real(n)
	}
	if math.Mod(f, 1) != 0 {
		return nil, fmt.Errorf("%w: %v", errNotWhole, v)
	}
	if w.typ == nil {
		return nil, errors.New("no declared type to convert into")
	}
	return reflect.ValueOf(f).Convert(w.typ).Interface(), nil
}

// BoolFromInt creates a coercer that converts the integers 0 and 1 to false
// and true. Any other claimed integer aborts the fill.
func BoolFromInt() Coercer {
	return coercerFunc{
		name: "bool_from_int",
		applicable: func(v any) bool {
			if v == nil {
				return false
			}
			switch reflect.TypeOf(v).Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return true
			default:
				return false
			}
		},
		coerce: func(v any) (any, error) {
			n := reflect.ValueOf(v)
			var u uint64
			if n.CanInt() {
				i := n.Int()
				if i < 0 {
					return nil, fmt.Errorf("cannot interpret %d as bool", i)
				}
				u = uint64(i)
			} else {
				u = n.Uint()
			}
			switch u {
			case 0:
				return false, nil
			case 1:
				return true, nil
			default:
				return nil, fmt.Errorf("cannot interpret %d as bool", u)
			}
		},
	}
}

// falsishCoercer replaces zero-valued inputs with the declared type's zero
// value.
type falsishCoercer struct {
	typ reflect.Type
}

// Falsish creates a coercer that claims nil and zero-valued inputs and
// produces the declared type's zero value, ignoring the input. Useful to
// accept nil where an empty container is stored.
func Falsish() Coercer { return falsishCoercer{} }

func (fc falsishCoercer) forOrigin(t reflect.Type) Coercer { return falsishCoercer{typ: t} }

func (fc falsishCoercer) Name() Name { return "falsish" }

func (fc falsishCoercer) Applicable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

func (fc falsishCoercer) Coerce(_ any) (any, error) {
	if fc.typ == nil {
		return nil, errors.New("no declared type to construct")
	}
	return reflect.Zero(fc.typ).Interface(), nil
}

// ToBytes creates a coercer that converts a non-negative integer to its
// minimal big-endian byte representation. Negative claimed integers abort
// the fill.
func ToBytes() Coercer {
	return coercerFunc{
		name: "to_bytes",
		applicable: func(v any) bool {
			if v == nil {
				return false
			}
			rv := reflect.ValueOf(v)
			return rv.CanInt() || rv.CanUint()
		},
		coerce: func(v any) (any, error) {
			rv := reflect.ValueOf(v)
			var u uint64
			if rv.CanInt() {
				i := rv.Int()
				if i < 0 {
					return nil, fmt.Errorf("cannot encode negative integer %d", i)
				}
				u = uint64(i)
			} else {
				u = rv.Uint()
			}
			if u == 0 {
				return []byte{0}, nil
			}
			var out []byte
			for u > 0 {
				out = append([]byte{byte(u & 0xff)}, out...)
				u >>= 8
			}
			return out, nil
		},
	}
}

// MapValues creates a coercer backed by a lookup table. It claims inputs
// present as keys and produces the mapped value. Keys must be comparable.
func MapValues(values map[any]any) Coercer {
	return coercerFunc{
		name: "map_values",
		applicable: func(v any) bool {
			if v == nil || !reflect.TypeOf(v).Comparable() {
				return false
			}
			_, ok := values[v]
			return ok
		},
		coerce: func(v any) (any, error) {
			return values[v], nil
		},
	}
}

// MapFactories creates a coercer backed by a table of factories. It claims
// inputs present as keys and produces the factory's result, invoking the
// factory on every claimed input.
func MapFactories(factories map[any]func() any) Coercer {
	return coercerFunc{
		name: "map_factories",
		applicable: func(v any) bool {
			if v == nil || !reflect.TypeOf(v).Comparable() {
				return false
			}
			_, ok := factories[v]
			return ok
		},
		coerce: func(v any) (any, error) {
			return factories[v](), nil
		},
	}
}

// composeCoercer chains coercers right to left.
type composeCoercer struct {
	inner []Coercer
}

// Compose creates a coercer that applies its inner coercers right to left:
// Compose(a, b) produces a(b(v)). The rightmost coercer decides
// applicability; any inner failure aborts the fill.
func Compose(inner ...Coercer) Coercer { return composeCoercer{inner: inner} }

func (cc composeCoercer) forOrigin(t reflect.Type) Coercer {
	out := composeCoercer{inner: make([]Coercer, len(cc.inner))}
	for i, c := range cc.inner {
		if od, ok := c.(originDependent); ok {
			out.inner[i] = od.forOrigin(t)
		} else {
			out.inner[i] = c
		}
	}
	return out
}

func (cc composeCoercer) Name() Name {
	names := make([]string, len(cc.inner))
	for i, c := range cc.inner {
		names[i] = c.Name()
	}
	return "compose(" + strings.Join(names, ",") + ")"
}

func (cc composeCoercer) Applicable(v any) bool {
	if len(cc.inner) == 0 {
		return false
	}
	return cc.inner[len(cc.inner)-1].Applicable(v)
}

func (cc composeCoercer) Coerce(v any) (any, error) {
	for i := len(cc.inner) - 1; i >= 0; i-- {
		out, err := cc.inner[i].Coerce(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cc.inner[i].Name(), err)
		}
		v = out
	}
	return v, nil
}
