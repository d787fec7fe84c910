// Package recz provides a type-safe library for filling, validating, and
// reshaping record fields from loosely typed mappings in Go.
//
// # Overview
//
// recz turns raw mapping data (decoded JSON, YAML, TOML, or anything shaped
// like map[string]any) into checked, coerced, validated values. It addresses
// common challenges in configuration and data intake code such as scattered
// type assertions, ad hoc string parsing, repetitive validation, and error
// messages that do not say where in a nested structure the bad value was.
//
// # Core Concepts
//
// The library is built around a small set of cooperating pieces:
//
//   - Filler: a per-value pipeline of type check, coercion, and validation
//   - Field: a named filler with optional defaults and tags
//   - Schema: an ordered dictionary of fields filled as a unit
//   - Select: an immutable remove/rename/add transformation over mapping keys
//
// A fill proceeds in three stages. The type check compares the input against
// the declared type and classifies the match. Coercion runs only when the
// check rejects the input: registered coercers are consulted in order, the
// first applicable one claims the value, and its output is checked again.
// Validation runs last and may normalize the accepted value. Processing is
// fail-fast: the first stage that rejects a value ends the fill.
//
// # Composite Fillers
//
// Fillers recurse into composite values:
//
//   - ListOf: checks the outer sequence, then fills every element
//   - OneOf: tries tagged alternatives and keeps the best-priority result
//
// Union fills are deterministic. Every alternative is attempted, each result
// carries a type-check priority (exact beats loose beats coerced beats
// hollow), and the highest priority wins. Ties are accepted only when the
// tied results agree on the value; disagreement is reported as an
// AmbiguousUnionError rather than resolved by declaration order.
//
// # Selections
//
// Select values describe key-level reshaping applied around fills and
// exports: remove keys, rename keys, add keys with constants or factories.
// Selections are immutable, validate their directives at construction, and
// merge with later directives overriding earlier ones per affected key.
// BoundFactory and BoundExporter attach selections to the functions that
// consume or produce mappings.
//
// # Usage Example
//
// Here's a simple example of defining and filling a schema:
//
//	const ServerSchema = recz.Name("server")
//
//	schema := recz.NewSchema(ServerSchema)
//	schema.Field("host", recz.For[string](), recz.WithDefault("localhost"))
//	schema.Field("port", recz.For[int](
//	    recz.WithCoercers(recz.Parse()),
//	    recz.WithValidators(recz.Within[int](1, 65536)),
//	))
//	schema.Field("retries", recz.ListOf(recz.For[int](recz.WithCoercers(recz.Whole()))))
//	if err := schema.Bind(); err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := recz.LoadYAML(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	values, err := schema.Fill(context.Background(), doc)
//
// Failures name the field and the location inside composite values:
//
//	var cerr *recz.CoercionError
//	if errors.As(err, &cerr) {
//	    log.Printf("field %s: %v", cerr.Field, cerr)
//	}
//
// # Observability
//
// Fillers and schemas expose metrics, spans, and completion hooks:
//
//	schema.OnFilled(func(_ context.Context, e recz.SchemaEvent) error {
//	    log.Printf("fill %s ok=%v in %v", e.Schema, e.Success, e.Duration)
//	    return nil
//	})
//
// # Concurrency
//
// Definition and binding are single-threaded by caller contract. Once bound,
// fillers, fields, schemas, and selections are immutable: concurrent fills,
// exports, and selection applications are safe without synchronization.
//
// # Best Practices
//
// When using recz:
//
//  1. Register coercers in priority order; the first applicable one wins
//  2. Keep validators pure and name them for the constraint they enforce
//  3. Give every union alternative a distinct, meaningful tag
//  4. Use WithDefaultFactory for mutable defaults to avoid shared state
//  5. Prefer schema-level defaults over coercers that invent values
//  6. Bind once during startup and treat bound objects as read-only
package recz
