package recz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for schemas.
const (
	// Metrics.
	SchemaFillsTotal     = metricz.Key("schema.fills.total")
	SchemaSuccessesTotal = metricz.Key("schema.successes.total")
	SchemaFailuresTotal  = metricz.Key("schema.failures.total")
	SchemaFieldsTotal    = metricz.Key("schema.fields.total")
	SchemaDurationMs     = metricz.Key("schema.duration.ms")

	// Spans.
	SchemaFillSpan  = tracez.Key("schema.fill")
	SchemaFieldSpan = tracez.Key("schema.field")

	// Tags.
	SchemaTagName      = tracez.Tag("schema.name")
	SchemaTagFieldName = tracez.Tag("schema.field_name")
	SchemaTagSuccess   = tracez.Tag("schema.success")
	SchemaTagError     = tracez.Tag("schema.error")

	// Hook event keys.
	SchemaEventFilled = hookz.Key("schema.filled")
)

// SchemaEvent is emitted via hooks after every schema fill.
type SchemaEvent struct {
	FillID    uuid.UUID     // Correlation ID for this fill
	Schema    Name          // Schema name
	Fields    int           // Number of declared fields
	Defaulted int           // Number of fields that took their default
	Success   bool          // Whether the fill succeeded
	Err       error         // The failure, nil on success
	Duration  time.Duration // How long the fill took
	Timestamp time.Time     // When the fill completed
}

// Schema is the record-type definition front end: it assembles named fields
// over fillers, binds them (freezing every pipeline), and fills input
// mappings field by field.
//
// Definition is single-threaded by caller contract. After Bind the schema
// and everything it owns are immutable and safe to share across concurrent
// callers.
type Schema struct {
	name    Name
	style   CheckStyle
	fields  *FieldDict
	bound   bool
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[SchemaEvent]
}

// SchemaOption configures a schema at construction time.
type SchemaOption func(*Schema)

// WithDefaultStyle sets the type checking style that fillers declared with
// CheckDefault resolve to at bind time. Schemas default to Check (loose).
func WithDefaultStyle(style CheckStyle) SchemaOption {
	return func(s *Schema) { s.style = style }
}

// NewSchema creates an empty schema.
//
// Example:
//
//	const ServerSchema = recz.Name("server")
//	schema := recz.NewSchema(ServerSchema)
//	schema.Field("host", recz.For[string]())
//	schema.Field("port", recz.For[int](recz.WithCoercers(recz.Parse())))
//	if err := schema.Bind(); err != nil {
//	    ...
//	}
func NewSchema(name Name, opts ...SchemaOption) *Schema {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(SchemaFillsTotal)
	metrics.Counter(SchemaSuccessesTotal)
	metrics.Counter(SchemaFailuresTotal)
	metrics.Gauge(SchemaFieldsTotal)
	metrics.Gauge(SchemaDurationMs)

	s := &Schema{
		name:    name,
		style:   CheckDefault,
		fields:  NewFieldDict(),
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[SchemaEvent](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the schema's name.
func (s *Schema) Name() Name { return s.name }

// Bound reports whether the schema has finished binding.
func (s *Schema) Bound() bool { return s.bound }

// Fields returns the schema's field dictionary. Treat it as read-only after
// Bind.
func (s *Schema) Fields() *FieldDict { return s.fields }

// Field declares a field with the given filler. It fails with ErrSchemaBound
// after Bind and with ErrDuplicateField on a repeated name. The returned
// Field can be extended (AddCoercer, AddValidator) until binding.
func (s *Schema) Field(name Name, filler *Filler, opts ...FieldOption) (*Field, error) {
	if s.bound {
		return nil, ErrSchemaBound
	}
	if _, dup := s.fields.Get(name); dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	f := NewField(name, filler, opts...)
	s.fields.Set(f)
	return f, nil
}

// Bind finalizes the schema: every field's filler is bound (resolving
// CheckDefault styles to the schema's default) and frozen. Binding twice
// fails with ErrSchemaBound.
func (s *Schema) Bind() error {
	if s.bound {
		return ErrSchemaBound
	}
	def := s.style
	if def == CheckDefault {
		def = Check
	}
	var bindErr error
	s.fields.Range(func(f *Field) bool {
		if err := f.bind(s.name, def); err != nil {
			bindErr = fmt.Errorf("field %q: %w", f.Name(), err)
			return false
		}
		return true
	})
	if bindErr != nil {
		return bindErr
	}
	s.bound = true
	s.metrics.Gauge(SchemaFieldsTotal).Set(float64(s.fields.Len()))
	return nil
}

// WithClock sets a custom clock for testing.
func (s *Schema) WithClock(clock clockz.Clock) *Schema {
	s.clock = clock
	return s
}

// getClock returns the clock to use.
func (s *Schema) getClock() clockz.Clock {
	if s.clock == nil {
		return clockz.RealClock
	}
	return s.clock
}

// Fill runs every field's pipeline against the input mapping and returns the
// accepted values keyed by field name. Keys absent from the input take the
// field's default; absent keys without a default fail with
// MissingFieldError. Keys that match no declared field fail with
// ErrUnknownKey.
//
// Field failures carry the field name and the location inside composite
// values; nothing is retried or swallowed.
func (s *Schema) Fill(ctx context.Context, m map[string]any) (map[string]any, error) {
	if !s.bound {
		return nil, ErrSchemaNotBound
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.metrics.Counter(SchemaFillsTotal).Inc()
	clock := s.getClock()
	start := clock.Now()

	ctx, span := s.tracer.StartSpan(ctx, SchemaFillSpan)
	span.SetTag(SchemaTagName, s.name)

	out, defaulted, err := s.fill(ctx, m)

	elapsed := clock.Since(start)
	s.metrics.Gauge(SchemaDurationMs).Set(float64(elapsed.Milliseconds()))
	if err == nil {
		span.SetTag(SchemaTagSuccess, "true")
		s.metrics.Counter(SchemaSuccessesTotal).Inc()
	} else {
		span.SetTag(SchemaTagSuccess, "false")
		span.SetTag(SchemaTagError, err.Error())
		s.metrics.Counter(SchemaFailuresTotal).Inc()
		out = nil
	}
	span.Finish()

	_ = s.hooks.Emit(ctx, SchemaEventFilled, SchemaEvent{ //nolint:errcheck
		FillID:    uuid.New(),
		Schema:    s.name,
		Fields:    s.fields.Len(),
		Defaulted: defaulted,
		Success:   err == nil,
		Err:       err,
		Duration:  elapsed,
		Timestamp: clock.Now(),
	})

	return out, err
}

func (s *Schema) fill(ctx context.Context, m map[string]any) (map[string]any, int, error) {
	for k := range m {
		if _, ok := s.fields.Get(k); !ok {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownKey, k)
		}
	}

	out := make(map[string]any, s.fields.Len())
	defaulted := 0
	var fillErr error
	s.fields.Range(func(f *Field) bool {
		raw, present := m[f.Name()]
		if !present {
			if !f.HasDefault() {
				fillErr = &MissingFieldError{Field: f.Name()}
				return false
			}
			def, err := f.MakeDefault()
			if err != nil {
				fillErr = err
				return false
			}
			out[f.Name()] = def
			defaulted++
			return true
		}

		fieldCtx, fieldSpan := s.tracer.StartSpan(ctx, SchemaFieldSpan)
		fieldSpan.SetTag(SchemaTagFieldName, f.Name())
		value, err := f.Filler().Fill(fieldCtx, raw)
		fieldSpan.Finish()
		if err != nil {
			fillErr = setErrField(prependPath(err, f.Name()), f.Name())
			return false
		}
		out[f.Name()] = value
		return true
	})
	if fillErr != nil {
		return nil, defaulted, fillErr
	}
	return out, defaulted, nil
}

// ExportOption configures Export.
type ExportOption func(*exportConfig)

type exportConfig struct {
	omitDefaults bool
}

// WithoutDefaults omits fields whose value equals their static default from
// exported mappings.
func WithoutDefaults() ExportOption {
	return func(c *exportConfig) { c.omitDefaults = true }
}

// Export renders filled values as a mapping, applying the omit-defaults
// policy when requested. Keys that match no declared field are ignored;
// declared fields absent from values are skipped.
func (s *Schema) Export(values map[string]any, opts ...ExportOption) map[string]any {
	var cfg exportConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make(map[string]any, len(values))
	s.fields.Range(func(f *Field) bool {
		v, ok := values[f.Name()]
		if !ok {
			return true
		}
		if cfg.omitDefaults && f.IsDefault(v) {
			return true
		}
		out[f.Name()] = v
		return true
	})
	return out
}

// Factory returns the schema's Fill as a selectable factory: selections
// reshape the input mapping before field pipelines run.
func (s *Schema) Factory() BoundFactory[map[string]any] {
	return NewFactory(s.name, s.Fill)
}

// Exporter returns the schema's Export as a selectable exporter: selections
// reshape the produced mapping.
func (s *Schema) Exporter(opts ...ExportOption) BoundExporter[map[string]any] {
	return NewExporter(s.name, func(_ context.Context, values map[string]any) (map[string]any, error) {
		return s.Export(values, opts...), nil
	})
}

// OnFilled registers a handler for schema fill completion events.
func (s *Schema) OnFilled(handler func(context.Context, SchemaEvent) error) error {
	_, err := s.hooks.Hook(SchemaEventFilled, handler)
	return err
}

// Metrics returns the schema's metrics registry.
func (s *Schema) Metrics() *metricz.Registry { return s.metrics }

// Close gracefully shuts down the schema's hook system.
func (s *Schema) Close() error {
	s.hooks.Close()
	return nil
}
