package recz

import (
	"context"
)

// Factory is a callable that builds a value of type T from a mapping.
type Factory[T any] func(context.Context, map[string]any) (T, error)

// Exporter is a callable that renders a value of type T as a mapping.
type Exporter[T any] func(context.Context, T) (map[string]any, error)

// BoundFactory wraps a Factory with an effective Select applied to the input
// mapping before the underlying callable runs.
//
// Bound wrappers are immutable values: Select returns a new independent
// wrapper closing over a derived selection and never touches the underlying
// callable or any previously returned wrapper.
type BoundFactory[T any] struct {
	name Name
	fn   Factory[T]
	sel  Select
}

// NewFactory wraps a factory callable with the identity selection.
func NewFactory[T any](name Name, fn Factory[T]) BoundFactory[T] {
	return BoundFactory[T]{name: name, fn: fn}
}

// Name returns the wrapper's name.
func (b BoundFactory[T]) Name() Name { return b.name }

// Selection returns the wrapper's effective selection.
func (b BoundFactory[T]) Selection() Select { return b.sel }

// Select returns a new wrapper whose effective selection is the receiver's
// merged with the given selections, in order. Chaining is equivalent to
// merging: b.Select(s1).Select(s2) and b.Select(s1.Merge(s2)) behave
// identically, because the whole effective selection applies before the
// underlying callable runs.
func (b BoundFactory[T]) Select(sels ...Select) BoundFactory[T] {
	return BoundFactory[T]{name: b.name, fn: b.fn, sel: b.sel.Merge(sels...)}
}

// SelectWith merges a base selection plus inline override directives onto
// the wrapper. The directives form an inline Select merged on top of base,
// so they win per affected key.
func (b BoundFactory[T]) SelectWith(base Select, opts ...SelectOption) (BoundFactory[T], error) {
	inline, err := NewSelect(opts...)
	if err != nil {
		return b, err
	}
	return b.Select(base.Merge(inline)), nil
}

// Call applies the effective selection to the input mapping and invokes the
// underlying factory on the result.
func (b BoundFactory[T]) Call(ctx context.Context, m map[string]any) (T, error) {
	selected, err := b.sel.Apply(m)
	if err != nil {
		var zero T
		return zero, err
	}
	return b.fn(ctx, selected)
}

// BoundExporter wraps an Exporter with an effective Select applied to the
// produced mapping after the underlying callable runs.
//
// As with BoundFactory, wrappers are immutable values and Select chaining is
// implemented as merging: e.Select(s1).Select(s2) behaves exactly like
// e.Select(s1.Merge(s2)), in the export direction too.
type BoundExporter[T any] struct {
	name Name
	fn   Exporter[T]
	sel  Select
}

// NewExporter wraps an exporter callable with the identity selection.
func NewExporter[T any](name Name, fn Exporter[T]) BoundExporter[T] {
	return BoundExporter[T]{name: name, fn: fn}
}

// Name returns the wrapper's name.
func (b BoundExporter[T]) Name() Name { return b.name }

// Selection returns the wrapper's effective selection.
func (b BoundExporter[T]) Selection() Select { return b.sel }

// Select returns a new wrapper whose effective selection is the receiver's
// merged with the given selections, in order.
func (b BoundExporter[T]) Select(sels ...Select) BoundExporter[T] {
	return BoundExporter[T]{name: b.name, fn: b.fn, sel: b.sel.Merge(sels...)}
}

// SelectWith merges a base selection plus inline override directives onto
// the wrapper, the directives winning per affected key.
func (b BoundExporter[T]) SelectWith(base Select, opts ...SelectOption) (BoundExporter[T], error) {
	inline, err := NewSelect(opts...)
	if err != nil {
		return b, err
	}
	return b.Select(base.Merge(inline)), nil
}

// ExportWith is selection sugar for the export direction: it accepts only
// add and rename directives (extra computed or static keys, key spelling
// changes) and fails with SelectCollisionError when handed removals.
func (b BoundExporter[T]) ExportWith(opts ...SelectOption) (BoundExporter[T], error) {
	sel, err := NewSelect(opts...)
	if err != nil {
		return b, err
	}
	if len(sel.removes) > 0 {
		return b, &SelectCollisionError{
			Key:    sel.removes[0],
			Reason: "ExportWith accepts only add and rename directives",
		}
	}
	return b.Select(sel), nil
}

// Call invokes the underlying exporter and applies the effective selection
// to the produced mapping.
func (b BoundExporter[T]) Call(ctx context.Context, v T) (map[string]any, error) {
	m, err := b.fn(ctx, v)
	if err != nil {
		return nil, err
	}
	return b.sel.Apply(m)
}
