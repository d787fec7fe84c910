package recz

// Name is a type alias for field, token, and schema names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    FieldHost Name = "host"
//	    FieldPort Name = "port"
//	)
type Name = string

// ElemKey addresses the element sub-filler of a list filler when extending a
// field's pipeline. Union alternatives are addressed by their declared tag.
const ElemKey Name = "elem"

// Coercer is the contract for coercion tokens: pipeline steps that attempt to
// produce a type-correct value from one that failed the type check.
//
// The two operations are consulted in a fixed order. Applicable is asked
// first; an inapplicable coercer is skipped and the chain continues. Once a
// coercer claims an input, Coerce is invoked and its outcome is final: a
// returned error aborts the whole fill as a CoercionError, and a success ends
// the chain. There is no backtracking past a claimed input.
//
// Coerced output is re-checked against the declared type; a wrong-typed
// result is a CoercionError as well.
type Coercer interface {
	// Name identifies the coercer in errors and events.
	Name() Name

	// Applicable reports whether the coercer claims this input.
	Applicable(v any) bool

	// Coerce attempts to produce a type-correct replacement value.
	Coerce(v any) (any, error)
}

// Validator is the contract for validation tokens: pipeline steps that check
// or rewrite an already type-correct value.
//
// Validators run strictly in declaration order; each receives the previous
// validator's output. Returning an error rejects the value and aborts the
// fill as a ValidationError.
type Validator interface {
	// Name identifies the validator in errors and events.
	Name() Name

	// Validate checks the value, returning it (possibly transformed) or an
	// error describing the rejection.
	Validate(v any) (any, error)
}
