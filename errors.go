package recz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Construction and lifecycle errors.
var (
	// ErrFillerNotBound is returned when Fill is called on a filler that has
	// not been bound to an owner yet.
	ErrFillerNotBound = errors.New("filler is not bound")

	// ErrFillerBound is returned when a filler is bound twice.
	ErrFillerBound = errors.New("filler is already bound")

	// ErrNoSubFiller is returned when a sub-filler key does not address any
	// nested filler (wrong union tag, or an element key on a scalar filler).
	ErrNoSubFiller = errors.New("no sub-filler for key")

	// ErrHollowCoercers is returned at bind time when a hollow filler carries
	// coercion tokens. A hollow filler never type-checks, so its coercion
	// chain could never run.
	ErrHollowCoercers = errors.New("hollow filler cannot carry coercers")

	// ErrStrictInterface is returned at bind time when strict checking is
	// requested for an interface type. No value has an interface as its
	// exact dynamic type, so a strict interface check can never pass.
	ErrStrictInterface = errors.New("cannot strict-check an interface type")

	// ErrHollowUnion is returned at bind time when a non-hollow union is
	// declared over alternatives that are all hollow.
	ErrHollowUnion = errors.New("non-hollow union cannot have only hollow alternatives")

	// ErrHollowElem is returned at bind time when a hollow list filler is
	// declared over a non-hollow element filler.
	ErrHollowElem = errors.New("hollow list cannot have a non-hollow element filler")

	// ErrSchemaBound is returned when fields are added to a schema after Bind.
	ErrSchemaBound = errors.New("schema is already bound")

	// ErrSchemaNotBound is returned when a schema is used before Bind.
	ErrSchemaNotBound = errors.New("schema is not bound")

	// ErrDuplicateField is returned when a field name is defined twice on the
	// same schema.
	ErrDuplicateField = errors.New("field already defined")

	// ErrNoDefault is returned by MakeDefault on a field without a default.
	ErrNoDefault = errors.New("field has no default")

	// ErrUnknownKey is returned by Schema.Fill when the input mapping carries
	// a key that matches no declared field.
	ErrUnknownKey = errors.New("unknown key")
)

// pathed is implemented by every fill error so enclosing fillers and fields
// can attach location context as failures propagate outward.
type pathed interface {
	prepend(seg Name)
	setField(name Name)
}

// prependPath attaches a path segment (field name, element index, union tag)
// to a fill error. Non-fill errors pass through unchanged.
func prependPath(err error, seg Name) error {
	if p, ok := err.(pathed); ok { //nolint:errorlint // location is attached to the outermost fill error only
		p.prepend(seg)
	}
	return err
}

// setErrField stamps the owning field name on a fill error.
func setErrField(err error, name Name) error {
	if p, ok := err.(pathed); ok { //nolint:errorlint
		p.setField(name)
	}
	return err
}

func joinPath(path []Name) string {
	if len(path) == 0 {
		return "<value>"
	}
	return strings.Join(path, ".")
}

// TypeMismatchError reports that a value failed type checking and no coercer
// in the chain was applicable to it.
type TypeMismatchError struct {
	Field    Name   // owning field, if filled through one
	Path     []Name // location inside a composite value
	Expected string // declared type description
	Value    any    // the offending input
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: value of type %T does not match %s and no coercer applies",
		joinPath(e.Path), e.Value, e.Expected)
}

func (e *TypeMismatchError) prepend(seg Name)   { e.Path = append([]Name{seg}, e.Path...) }
func (e *TypeMismatchError) setField(name Name) { e.Field = name }

// CoercionError reports that a coercer claimed applicability but failed, or
// produced a value that does not match the declared type. It aborts the whole
// fill: once a coercer claims an input, no later coercer is consulted.
type CoercionError struct {
	Field   Name
	Path    []Name
	Coercer Name // identity of the offending coercer
	Err     error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: coercer %q failed: %v", joinPath(e.Path), e.Coercer, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CoercionError) Unwrap() error { return e.Err }

func (e *CoercionError) prepend(seg Name)   { e.Path = append([]Name{seg}, e.Path...) }
func (e *CoercionError) setField(name Name) { e.Field = name }

// ValidationError reports that a validator in the chain rejected the value.
type ValidationError struct {
	Field     Name
	Path      []Name
	Validator Name // identity of the rejecting validator
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validator %q rejected value: %v", joinPath(e.Path), e.Validator, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) prepend(seg Name)   { e.Path = append([]Name{seg}, e.Path...) }
func (e *ValidationError) setField(name Name) { e.Field = name }

// AmbiguousUnionError reports that multiple union alternatives accepted a
// value at the same tie-break priority but disagree on the result.
// Alternatives and Values are parallel slices of the conflicting candidates.
type AmbiguousUnionError struct {
	Field        Name
	Path         []Name
	TCP          int // the shared tie-break priority
	Alternatives []Name
	Values       []any
}

func (e *AmbiguousUnionError) Error() string {
	return fmt.Sprintf("%s: alternatives %v matched at priority %d with conflicting values",
		joinPath(e.Path), e.Alternatives, e.TCP)
}

// Detail renders the conflicting candidate values for diagnostics.
func (e *AmbiguousUnionError) Detail() string {
	var b strings.Builder
	for i, alt := range e.Alternatives {
		fmt.Fprintf(&b, "%s: %s", alt, spew.Sdump(e.Values[i]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *AmbiguousUnionError) prepend(seg Name)   { e.Path = append([]Name{seg}, e.Path...) }
func (e *AmbiguousUnionError) setField(name Name) { e.Field = name }

// NoUnionMatchError reports that no union alternative accepted a value.
// Causes holds each alternative's failure, tagged with its alternative name.
type NoUnionMatchError struct {
	Field  Name
	Path   []Name
	Value  any
	Causes []error
}

func (e *NoUnionMatchError) Error() string {
	return fmt.Sprintf("%s: no union alternative accepted value of type %T", joinPath(e.Path), e.Value)
}

// Unwrap exposes the per-alternative failures to errors.Is and errors.As.
func (e *NoUnionMatchError) Unwrap() []error { return e.Causes }

func (e *NoUnionMatchError) prepend(seg Name)   { e.Path = append([]Name{seg}, e.Path...) }
func (e *NoUnionMatchError) setField(name Name) { e.Field = name }

// FrozenFieldError reports an attempt to extend a field's pipeline after its
// owning schema finished binding.
type FrozenFieldError struct {
	Field Name
	Owner Name
}

func (e *FrozenFieldError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("field %q is frozen", e.Field)
	}
	return fmt.Sprintf("field %q is frozen (bound to %q)", e.Field, e.Owner)
}

// MissingFieldError reports a required field absent from an input mapping
// with no default to fall back on.
type MissingFieldError struct {
	Field Name
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field %q is missing and has no default", e.Field)
}

// SelectCollisionError reports a selection conflict: either a construction
// invariant violation (a removed key reused as a rename source or add target,
// duplicate rename sources or targets) or a rename whose target key is
// already occupied at apply time.
type SelectCollisionError struct {
	Key    string
	Reason string
}

func (e *SelectCollisionError) Error() string {
	return fmt.Sprintf("select collision on key %q: %s", e.Key, e.Reason)
}
