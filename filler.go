package recz

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for fillers.
const (
	// Metrics.
	FillerFillsTotal     = metricz.Key("filler.fills.total")
	FillerSuccessesTotal = metricz.Key("filler.successes.total")
	FillerFailuresTotal  = metricz.Key("filler.failures.total")
	FillerCoercionsTotal = metricz.Key("filler.coercions.total")
	FillerDurationMs     = metricz.Key("filler.duration.ms")

	// Spans.
	FillerFillSpan = tracez.Key("filler.fill")

	// Tags.
	FillerTagStyle   = tracez.Tag("filler.style")
	FillerTagType    = tracez.Tag("filler.type")
	FillerTagSuccess = tracez.Tag("filler.success")
	FillerTagError   = tracez.Tag("filler.error")

	// Hook event keys.
	FillerEventFilled = hookz.Key("filler.filled")
)

// FillEvent is emitted via hooks after every top-level Fill, successful or
// not. FillID correlates the event with log lines and nested diagnostics.
type FillEvent struct {
	FillID    uuid.UUID     // Correlation ID for this fill
	Field     Name          // Owning field name, empty for bare fillers
	Input     any           // The raw input value
	Output    any           // The accepted value, nil on failure
	TCP       int           // Tie-break rank the value passed with
	Success   bool          // Whether the fill succeeded
	Err       error         // The failure, nil on success
	Duration  time.Duration // How long the fill took
	Timestamp time.Time     // When the fill completed
}

// Filler owns one field's input-processing pipeline: a type check over a
// declared type, an ordered coercion chain consulted when the check fails,
// optional recursion into composite values (list elements, union
// alternatives), and an ordered validation chain run on the type-correct
// result.
//
// A filler is assembled at definition time and frozen by Bind; after binding
// it is immutable and safe to share across concurrent callers. The assembly
// window itself is single-threaded by caller contract.
//
// Fill order is fixed: type check, then coercion fallback, then sub-filler
// recursion, then validation. Failures surface as typed errors
// (TypeMismatchError, CoercionError, AmbiguousUnionError, NoUnionMatchError,
// ValidationError) carrying the path to the failing location.
type Filler struct {
	style      CheckStyle
	typ        reflect.Type
	coercers   []Coercer
	validators []Validator
	elem       *Filler       // list element filler, nil otherwise
	alts       []Alternative // union alternatives, nil otherwise
	owner      Name
	bound      bool
	clock      clockz.Clock
	metrics    *metricz.Registry
	tracer     *tracez.Tracer
	hooks      *hookz.Hooks[FillEvent]
}

// FillerOption configures a filler at construction time.
type FillerOption func(*Filler)

// WithStyle sets the type checking style. Fillers default to CheckDefault,
// which resolves to the owning schema's style at bind time.
func WithStyle(s CheckStyle) FillerOption {
	return func(f *Filler) { f.style = s }
}

// WithCoercers appends coercion tokens to the chain, in order.
func WithCoercers(cs ...Coercer) FillerOption {
	return func(f *Filler) { f.coercers = append(f.coercers, cs...) }
}

// WithValidators appends validation tokens to the chain, in order.
func WithValidators(vs ...Validator) FillerOption {
	return func(f *Filler) { f.validators = append(f.validators, vs...) }
}

func newFiller(typ reflect.Type, opts ...FillerOption) *Filler {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(FillerFillsTotal)
	metrics.Counter(FillerSuccessesTotal)
	metrics.Counter(FillerFailuresTotal)
	metrics.Counter(FillerCoercionsTotal)
	metrics.Gauge(FillerDurationMs)

	f := &Filler{
		typ:     typ,
		style:   CheckDefault,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[FillEvent](),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// For creates a filler for the declared type T.
//
// Example:
//
//	port := recz.For[int](recz.WithCoercers(recz.Parse()))
func For[T any](opts ...FillerOption) *Filler {
	return newFiller(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// ForType creates a filler for a declared reflect.Type. Use For when the
// type is known at compile time.
func ForType(t reflect.Type, opts ...FillerOption) *Filler {
	return newFiller(t, opts...)
}

// NewHollow creates a filler that accepts input of any type. Hollow fillers
// cannot carry coercers but may carry validators.
func NewHollow(opts ...FillerOption) *Filler {
	f := newFiller(nil, opts...)
	f.style = CheckHollow
	return f
}

// ListOf creates a filler for an ordered container of elem's declared type.
// Every element of an incoming value is filled through elem, preserving
// order and length; an element failure carries its index in the error path.
func ListOf(elem *Filler, opts ...FillerOption) *Filler {
	var t reflect.Type
	if elem.typ != nil {
		t = reflect.SliceOf(elem.typ)
	} else {
		t = reflect.TypeOf([]any(nil))
	}
	f := newFiller(t, opts...)
	f.elem = elem
	return f
}

// OneOf creates a filler for a union of tagged alternatives. Every
// alternative is attempted against the input; candidates are ranked by
// tie-break priority and the winner's value is used. See Alternative for the
// resolution rules.
func OneOf(alts ...Alternative) *Filler {
	f := newFiller(nil)
	f.alts = alts
	return f
}

// Alternative is one tagged branch of a union filler. A successful fill
// through an alternative produces a candidate ranked by how the value passed
// type checking (TCPExact, TCPLoose, TCPCoerced, TCPHollow), unless the
// alternative declares an explicit priority with WithTCP.
//
// Resolution: the candidates with the strictly highest priority win. A single
// winner is used directly. Multiple winners that agree on the value (deep
// equality) succeed as well; winners that disagree are an
// AmbiguousUnionError, and zero candidates is a NoUnionMatchError.
type Alternative struct {
	tag    Name
	filler *Filler
	tcp    int
	tcpSet bool
}

// Alt declares a union alternative with the given tag.
func Alt(tag Name, f *Filler) Alternative {
	return Alternative{tag: tag, filler: f}
}

// WithTCP declares an explicit tie-break priority for the alternative,
// replacing the default rank derived from how the value passed type checking.
func (a Alternative) WithTCP(p int) Alternative {
	a.tcp = p
	a.tcpSet = true
	return a
}

// Tag returns the alternative's tag.
func (a Alternative) Tag() Name { return a.tag }

// Coerce appends coercion tokens to the chain. It fails with ErrFillerBound
// once the filler is bound.
func (f *Filler) Coerce(cs ...Coercer) error {
	if f.bound {
		return ErrFillerBound
	}
	f.coercers = append(f.coercers, cs...)
	return nil
}

// Validate appends validation tokens to the chain. It fails with
// ErrFillerBound once the filler is bound.
func (f *Filler) Validate(vs ...Validator) error {
	if f.bound {
		return ErrFillerBound
	}
	f.validators = append(f.validators, vs...)
	return nil
}

// WithClock sets a custom clock for testing.
func (f *Filler) WithClock(clock clockz.Clock) *Filler {
	f.clock = clock
	return f
}

// getClock returns the clock to use.
func (f *Filler) getClock() clockz.Clock {
	if f.clock == nil {
		return clockz.RealClock
	}
	return f.clock
}

// SubFiller returns the nested filler addressed by key: ElemKey for a list's
// element filler, an alternative's tag for a union branch. The empty key
// addresses the filler itself.
func (f *Filler) SubFiller(key Name) (*Filler, error) {
	if key == "" {
		return f, nil
	}
	if f.elem != nil && key == ElemKey {
		return f.elem, nil
	}
	for _, alt := range f.alts {
		if alt.tag == key {
			return alt.filler, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSubFiller, key)
}

// Style returns the type checking style. Before binding this may be
// CheckDefault; after binding it is always resolved.
func (f *Filler) Style() CheckStyle { return f.style }

// Type returns the declared type, nil for hollow and union fillers.
func (f *Filler) Type() reflect.Type { return f.typ }

// Owner returns the name of the owner the filler is bound to, or the empty
// string before binding.
func (f *Filler) Owner() Name { return f.owner }

// IsHollow reports whether the filler accepts input of any type. Only valid
// after binding, when default styles have been resolved.
func (f *Filler) IsHollow() bool { return f.style == CheckHollow }

// Bind freezes the filler and associates it with an owner. CheckDefault
// styles resolve to Check. After binding no new tokens can be applied, and
// the filler becomes safe to share across concurrent callers.
func (f *Filler) Bind(owner Name) error {
	return f.bind(owner, Check)
}

func (f *Filler) bind(owner Name, def CheckStyle) error {
	if f.bound {
		return fmt.Errorf("%w (owner %q)", ErrFillerBound, f.owner)
	}
	if f.style == CheckDefault {
		f.style = def
	}
	if f.style == CheckHollow && len(f.coercers) > 0 {
		return ErrHollowCoercers
	}
	if f.style == CheckStrict && f.typ != nil && f.typ.Kind() == reflect.Interface {
		return ErrStrictInterface
	}

	switch {
	case f.elem != nil:
		if err := f.elem.bind(owner, def); err != nil {
			return err
		}
		if f.style == CheckHollow && !f.elem.IsHollow() {
			return ErrHollowElem
		}
	case f.alts != nil:
		// Coercers on the union itself have no type to target; they are
		// broadcast into every alternative before binding it.
		for _, alt := range f.alts {
			if !alt.filler.bound {
				alt.filler.coercers = append(alt.filler.coercers, f.coercers...)
			}
			if err := alt.filler.bind(owner, def); err != nil {
				return err
			}
		}
		f.coercers = nil
		if f.style == CheckHollow {
			for _, alt := range f.alts {
				if !alt.filler.IsHollow() {
					f.style = Check
					break
				}
			}
		} else {
			hollow := true
			for _, alt := range f.alts {
				if !alt.filler.IsHollow() {
					hollow = false
					break
				}
			}
			if hollow {
				return ErrHollowUnion
			}
		}
	}

	// Specialize origin-dependent builtin tokens against the declared type.
	// Union coercers were broadcast above and specialize per alternative.
	if f.alts == nil {
		for i, c := range f.coercers {
			if od, ok := c.(originDependent); ok {
				f.coercers[i] = od.forOrigin(f.typ)
			}
		}
	}

	f.owner = owner
	f.bound = true
	return nil
}

// Fill runs the pipeline on a raw value and returns the accepted value.
// The context carries trace and hook propagation only; fills never block,
// suspend, or observe cancellation.
//
// Fill is pure with respect to its input: failures are typed errors carrying
// the location of the failure inside composite values, nothing is retried,
// and nothing is swallowed.
func (f *Filler) Fill(ctx context.Context, v any) (out any, err error) {
	if !f.bound {
		return nil, ErrFillerNotBound
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f.metrics.Counter(FillerFillsTotal).Inc()
	clock := f.getClock()
	start := clock.Now()

	ctx, span := f.tracer.StartSpan(ctx, FillerFillSpan)
	span.SetTag(FillerTagStyle, f.style.String())
	span.SetTag(FillerTagType, typeName(f.typ))

	out, tcp, err := f.fill(v)

	elapsed := clock.Since(start)
	f.metrics.Gauge(FillerDurationMs).Set(float64(elapsed.Milliseconds()))
	if err == nil {
		span.SetTag(FillerTagSuccess, "true")
		f.metrics.Counter(FillerSuccessesTotal).Inc()
		if tcp == TCPCoerced {
			f.metrics.Counter(FillerCoercionsTotal).Inc()
		}
	} else {
		span.SetTag(FillerTagSuccess, "false")
		span.SetTag(FillerTagError, err.Error())
		f.metrics.Counter(FillerFailuresTotal).Inc()
		out = nil
	}
	span.Finish()

	_ = f.hooks.Emit(ctx, FillerEventFilled, FillEvent{ //nolint:errcheck
		FillID:    uuid.New(),
		Input:     v,
		Output:    out,
		TCP:       tcp,
		Success:   err == nil,
		Err:       err,
		Duration:  elapsed,
		Timestamp: clock.Now(),
	})

	return out, err
}

// OnFilled registers a handler for fill completion events.
func (f *Filler) OnFilled(handler func(context.Context, FillEvent) error) error {
	_, err := f.hooks.Hook(FillerEventFilled, handler)
	return err
}

// Metrics returns the filler's metrics registry.
func (f *Filler) Metrics() *metricz.Registry { return f.metrics }

// Close gracefully shuts down the filler's hook system.
func (f *Filler) Close() error {
	f.hooks.Close()
	return nil
}

// fill is the pure pipeline core: no metrics, no spans, no events. It
// returns the accepted value and the tie-break rank the value passed with.
func (f *Filler) fill(v any) (any, int, error) {
	if f.alts != nil && f.style != CheckHollow {
		return f.fillUnion(v)
	}

	check := f.typeMatch
	if f.elem != nil {
		check = f.listMatch
	}
	out, tcp, err := f.resolve(v, check)
	if err != nil {
		return nil, tcp, err
	}

	if f.elem != nil && f.style != CheckHollow {
		out, err = f.fillElements(out)
		if err != nil {
			return nil, tcp, err
		}
	}

	out, err = f.runValidators(out)
	if err != nil {
		return nil, tcp, err
	}
	return out, tcp, nil
}

// typeMatch checks a value against the declared scalar type.
func (f *Filler) typeMatch(v any) typeMatch {
	return matchType(f.typ, v)
}

// listMatch checks a value against the declared container type: the exact
// declared slice type is an exact match, any other slice or array is inexact.
// Element types are the element filler's concern, not the outer check's.
func (f *Filler) listMatch(v any) typeMatch {
	if v != nil && reflect.TypeOf(v) == f.typ {
		return matchExact
	}
	if _, ok := sequence(v); ok {
		return matchInexact
	}
	return noMatch
}

// resolve runs the type check and, on failure, the coercion chain. The
// returned rank records how the value passed.
func (f *Filler) resolve(v any, check func(any) typeMatch) (any, int, error) {
	if f.style == CheckHollow {
		return v, TCPHollow, nil
	}

	switch check(v) {
	case matchExact:
		return v, TCPExact, nil
	case matchInexact:
		if f.style == Check {
			return v, TCPLoose, nil
		}
	}

	// Type check failed: consult the coercion chain in order. The first
	// applicable coercer claims the input; its outcome is final.
	for _, c := range f.coercers {
		if !c.Applicable(v) {
			continue
		}
		out, err := c.Coerce(v)
		if err != nil {
			return nil, 0, &CoercionError{Coercer: c.Name(), Err: err}
		}
		m := check(out)
		if m == noMatch || (m == matchInexact && f.style != Check) {
			return nil, 0, &CoercionError{
				Coercer: c.Name(),
				Err:     fmt.Errorf("returned value of type %T, want %s", out, typeName(f.typ)),
			}
		}
		return out, TCPCoerced, nil
	}

	return nil, 0, &TypeMismatchError{Expected: typeName(f.typ), Value: v}
}

// fillElements recurses into an accepted container, filling every element
// through the element filler and rebuilding the declared slice type.
func (f *Filler) fillElements(v any) (any, error) {
	rv, ok := sequence(v)
	if !ok {
		// resolve already guaranteed a sequence
		return nil, &TypeMismatchError{Expected: typeName(f.typ), Value: v}
	}

	n := rv.Len()
	out := reflect.MakeSlice(f.typ, n, n)
	for i := 0; i < n; i++ {
		ev, _, err := f.elem.fill(rv.Index(i).Interface())
		if err != nil {
			return nil, prependPath(err, fmt.Sprintf("[%d]", i))
		}
		if ev != nil {
			ert := reflect.TypeOf(ev)
			if !ert.AssignableTo(f.typ.Elem()) {
				err := &TypeMismatchError{Expected: typeName(f.typ.Elem()), Value: ev}
				return nil, prependPath(err, fmt.Sprintf("[%d]", i))
			}
			out.Index(i).Set(reflect.ValueOf(ev))
		}
	}
	return out.Interface(), nil
}

// fillUnion attempts every alternative and resolves the candidates by
// tie-break priority.
func (f *Filler) fillUnion(v any) (any, int, error) {
	type candidate struct {
		tag   Name
		value any
		tcp   int
	}

	var cands []candidate
	var causes []error
	for _, alt := range f.alts {
		out, tcp, err := alt.filler.fill(v)
		if err != nil {
			causes = append(causes, prependPath(err, alt.tag))
			continue
		}
		if alt.tcpSet {
			tcp = alt.tcp
		}
		cands = append(cands, candidate{tag: alt.tag, value: out, tcp: tcp})
	}
	if len(cands) == 0 {
		return nil, 0, &NoUnionMatchError{Value: v, Causes: causes}
	}

	best := cands[0].tcp
	for _, c := range cands[1:] {
		if c.tcp > best {
			best = c.tcp
		}
	}
	var winners []candidate
	for _, c := range cands {
		if c.tcp == best {
			winners = append(winners, c)
		}
	}

	// Multiple winners at the same priority are fine as long as they agree
	// on the value.
	for _, w := range winners[1:] {
		if !reflect.DeepEqual(w.value, winners[0].value) {
			amb := &AmbiguousUnionError{TCP: best}
			for _, c := range winners {
				amb.Alternatives = append(amb.Alternatives, c.tag)
				amb.Values = append(amb.Values, c.value)
			}
			return nil, 0, amb
		}
	}

	out, err := f.runValidators(winners[0].value)
	if err != nil {
		return nil, 0, err
	}
	return out, best, nil
}

// runValidators feeds the value through the validation chain in order.
func (f *Filler) runValidators(v any) (any, error) {
	for _, val := range f.validators {
		out, err := val.Validate(v)
		if err != nil {
			return nil, &ValidationError{Validator: val.Name(), Err: err}
		}
		v = out
	}
	return v, nil
}
