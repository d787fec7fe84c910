package recz

import (
	"reflect"
)

// Tag marks a field as belonging to a category. Tags are plain comparable
// strings; FieldDict.FilterByTag selects fields by them.
type Tag string

// Field binds a filler to a name inside one owning record schema, along with
// a set of tags and an optional default.
//
// A field is created at definition time and may have its pipeline extended
// (additional coercers and validators, including on nested sub-fillers) up
// until the owning schema binds. After binding the field is frozen: every
// extension attempt fails with FrozenFieldError. The owner reference is a
// name only, set once at binding and never used for ownership.
type Field struct {
	name       Name
	owner      Name
	filler     *Filler
	tags       map[Tag]struct{}
	def        any
	defFactory func() any
	hasDefault bool
}

// FieldOption configures a field at definition time.
type FieldOption func(*Field)

// WithDefault sets a static default value for the field.
func WithDefault(v any) FieldOption {
	return func(f *Field) {
		f.def = v
		f.hasDefault = true
	}
}

// WithDefaultFactory sets a factory invoked whenever a default value is
// needed. Use a factory when defaults are mutable (slices, maps) so
// instances do not share state.
func WithDefaultFactory(fn func() any) FieldOption {
	return func(f *Field) {
		f.defFactory = fn
		f.hasDefault = true
	}
}

// WithTags adds category tags to the field.
func WithTags(tags ...Tag) FieldOption {
	return func(f *Field) {
		for _, t := range tags {
			f.tags[t] = struct{}{}
		}
	}
}

// NewField creates a field over a filler. Fields are normally declared
// through Schema.Field; NewField exists for building FieldDicts directly.
func NewField(name Name, filler *Filler, opts ...FieldOption) *Field {
	f := &Field{
		name:   name,
		filler: filler,
		tags:   make(map[Tag]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the field's name.
func (f *Field) Name() Name { return f.name }

// Owner returns the name of the owning schema, or the empty string before
// binding.
func (f *Field) Owner() Name { return f.owner }

// Filler returns the field's filler.
func (f *Field) Filler() *Filler { return f.filler }

// HasTag reports whether the field carries the tag.
func (f *Field) HasTag(t Tag) bool {
	_, ok := f.tags[t]
	return ok
}

// AddCoercer appends a coercion token to the field's pipeline. An optional
// sub-key addresses a nested filler: ElemKey for a list's element filler, a
// union alternative's tag for that branch. With no sub-key the token
// attaches to the outermost filler.
//
// Extension is only legal before the owning schema binds; afterwards the
// call fails with FrozenFieldError.
func (f *Field) AddCoercer(c Coercer, at ...Name) error {
	sub, err := f.subFiller(at)
	if err != nil {
		return err
	}
	if err := sub.Coerce(c); err != nil {
		return f.frozen()
	}
	return nil
}

// AddValidator appends a validation token to the field's pipeline. Sub-key
// addressing and freezing behave as in AddCoercer.
func (f *Field) AddValidator(v Validator, at ...Name) error {
	sub, err := f.subFiller(at)
	if err != nil {
		return err
	}
	if err := sub.Validate(v); err != nil {
		return f.frozen()
	}
	return nil
}

// AddAssertValidator appends a predicate as a validator: a false result
// rejects the value, a true result passes it through unchanged.
func (f *Field) AddAssertValidator(name Name, pred func(any) bool, at ...Name) error {
	return f.AddValidator(AssertFunc(name, pred), at...)
}

func (f *Field) subFiller(at []Name) (*Filler, error) {
	sub := f.filler
	for _, key := range at {
		next, err := sub.SubFiller(key)
		if err != nil {
			return nil, err
		}
		sub = next
	}
	return sub, nil
}

func (f *Field) frozen() error {
	return &FrozenFieldError{Field: f.name, Owner: f.owner}
}

// HasDefault reports whether the field has a default value or factory.
func (f *Field) HasDefault() bool { return f.hasDefault }

// MakeDefault produces a default value for the field, invoking the factory
// when one is set. It fails with ErrNoDefault on fields without a default.
func (f *Field) MakeDefault() (any, error) {
	if !f.hasDefault {
		return nil, ErrNoDefault
	}
	if f.defFactory != nil {
		return f.defFactory(), nil
	}
	return f.def, nil
}

// IsDefault reports whether a value equals the field's static default.
// Fields with a factory default always report false: the factory may
// produce a different value each call.
func (f *Field) IsDefault(v any) bool {
	if !f.hasDefault || f.defFactory != nil {
		return false
	}
	return reflect.DeepEqual(f.def, v)
}

// bind freezes the field under an owning schema.
func (f *Field) bind(owner Name, def CheckStyle) error {
	if err := f.filler.bind(owner, def); err != nil {
		return err
	}
	f.owner = owner
	return nil
}
