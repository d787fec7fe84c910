package recz

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
)

// ErrAssertFailed is the default cause of an AssertFunc rejection.
var ErrAssertFailed = errors.New("assertion failed")

// validatorFunc adapts a function into a Validator.
type validatorFunc struct {
	name Name
	fn   func(any) (any, error)
}

func (v validatorFunc) Name() Name { return v.name }

func (v validatorFunc) Validate(x any) (any, error) { return v.fn(x) }

// ValidateFunc creates a validator from an arbitrary function. The function
// may both check and rewrite the value; its output feeds the next validator
// in the chain.
//
// Example:
//
//	normalize := recz.ValidateFunc("normalize_host", func(v any) (any, error) {
//	    return strings.ToLower(v.(string)), nil
//	})
func ValidateFunc(name Name, fn func(any) (any, error)) Validator {
	return validatorFunc{name: name, fn: fn}
}

// AssertFunc creates a validator from a boolean predicate: a false result
// rejects the value with ErrAssertFailed, a true result passes the value
// through unchanged.
func AssertFunc(name Name, pred func(any) bool) Validator {
	return validatorFunc{
		name: name,
		fn: func(v any) (any, error) {
			if !pred(v) {
				return nil, ErrAssertFailed
			}
			return v, nil
		},
	}
}

// Clamp creates a validator that constrains a value to [lo, hi], moving it
// to the nearest bound when it falls outside. The declared type must match T.
func Clamp[T cmp.Ordered](lo, hi T) Validator {
	return validatorFunc{
		name: "clamp",
		fn: func(v any) (any, error) {
			n, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", lo, v)
			}
			if n < lo {
				return lo, nil
			}
			if n > hi {
				return hi, nil
			}
			return n, nil
		},
	}
}

// Cyclic creates a validator that wraps an integer value into [min, max) as
// though the domain were cyclic. Useful for angles and times of day. An
// empty domain (min >= max) panics at construction.
func Cyclic[T ~int | ~int8 | ~int16 | ~int32 | ~int64](min, max T) Validator {
	if min >= max {
		panic(fmt.Sprintf("recz.Cyclic: empty domain [%v, %v)", min, max))
	}
	return validatorFunc{
		name: "cyclic",
		fn: func(v any) (any, error) {
			n, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", min, v)
			}
			if min <= n && n < max {
				return n, nil
			}
			d := (n - min) % (max - min)
			if d < 0 {
				d += max - min
			}
			return min + d, nil
		},
	}
}

// CyclicFloat is Cyclic for floating point domains, wrapping via math.Mod.
// An empty domain (min >= max) panics at construction.
func CyclicFloat[T ~float32 | ~float64](min, max T) Validator {
	if min >= max {
		panic(fmt.Sprintf("recz.CyclicFloat: empty domain [%v, %v)", min, max))
	}
	return validatorFunc{
		name: "cyclic",
		fn: func(v any) (any, error) {
			n, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", min, v)
			}
			if min <= n && n < max {
				return n, nil
			}
			d := T(math.Mod(float64(n-min), float64(max-min)))
			if d < 0 {
				d += max - min
			}
			return min + d, nil
		},
	}
}

// Within creates a validator that rejects values outside [lo, hi). The
// lower bound is inclusive, the upper exclusive.
func Within[T cmp.Ordered](lo, hi T) Validator {
	return validatorFunc{
		name: "within",
		fn: func(v any) (any, error) {
			n, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", lo, v)
			}
			if n < lo || n >= hi {
				return nil, fmt.Errorf("%v is outside [%v, %v)", n, lo, hi)
			}
			return n, nil
		},
	}
}

// FullMatch creates a validator that rejects strings not fully matching the
// pattern. The pattern is compiled once at construction; an invalid pattern
// panics, matching regexp.MustCompile.
func FullMatch(pattern string) Validator {
	re := regexp.MustCompile(pattern)
	return validatorFunc{
		name: "full_match",
		fn: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("want string, got %T", v)
			}
			m := re.FindStringIndex(s)
			if m == nil || m[0] != 0 || m[1] != len(s) {
				return nil, fmt.Errorf("%q does not match %q", s, pattern)
			}
			return s, nil
		},
	}
}

// Truth creates a validator that rejects zero values: empty strings, zero
// numbers, nil and empty containers, false.
func Truth() Validator {
	return validatorFunc{
		name: "truth",
		fn: func(v any) (any, error) {
			if !truthy(v) {
				return nil, errors.New("value is falsish")
			}
			return v, nil
		},
	}
}

// truthy mirrors boolean evaluation of the usual falsish values: nil, zero
// numbers, false, empty strings and empty containers.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	default:
		return !rv.IsZero()
	}
}
