package recz

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const serverSchema Name = "server"

// newServerSchema builds a small bound schema used across subtests.
func newServerSchema(t *testing.T) *Schema {
	t.Helper()
	s := NewSchema(serverSchema)
	if _, err := s.Field("host", For[string](), WithDefault("localhost")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Field("port", For[int](
		WithCoercers(Parse(), Whole()),
		WithValidators(Within[int](1, 65536)),
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Field("retries", ListOf(For[int](WithCoercers(Whole()))),
		WithDefaultFactory(func() any { return []int{} })); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Bind(); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	return s
}

func TestSchemaDefinition(t *testing.T) {
	t.Run("Duplicate Field Names Fail", func(t *testing.T) {
		s := NewSchema(serverSchema)
		if _, err := s.Field("host", For[string]()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := s.Field("host", For[string]())
		if !errors.Is(err, ErrDuplicateField) {
			t.Errorf("expected ErrDuplicateField, got %v", err)
		}
	})

	t.Run("Fields Rejected After Bind", func(t *testing.T) {
		s := NewSchema(serverSchema)
		if err := s.Bind(); err != nil {
			t.Fatalf("bind failed: %v", err)
		}

		_, err := s.Field("late", For[int]())
		if !errors.Is(err, ErrSchemaBound) {
			t.Errorf("expected ErrSchemaBound, got %v", err)
		}
		if err := s.Bind(); !errors.Is(err, ErrSchemaBound) {
			t.Errorf("expected ErrSchemaBound on rebind, got %v", err)
		}
	})

	t.Run("Fill Before Bind Fails", func(t *testing.T) {
		s := NewSchema(serverSchema)

		_, err := s.Fill(context.Background(), map[string]any{})
		if !errors.Is(err, ErrSchemaNotBound) {
			t.Errorf("expected ErrSchemaNotBound, got %v", err)
		}
	})

	t.Run("Binding Freezes Every Field", func(t *testing.T) {
		s := NewSchema(serverSchema)
		f, err := s.Field("port", For[int]())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Bind(); err != nil {
			t.Fatalf("bind failed: %v", err)
		}

		var frozen *FrozenFieldError
		if err := f.AddCoercer(Parse()); !errors.As(err, &frozen) {
			t.Fatalf("expected FrozenFieldError, got %v", err)
		}
		if frozen.Owner != serverSchema {
			t.Errorf("expected owner %q, got %q", serverSchema, frozen.Owner)
		}
	})

	t.Run("Bind Reports The Offending Field", func(t *testing.T) {
		s := NewSchema(serverSchema)
		if _, err := s.Field("bad", NewHollow(WithCoercers(Parse()))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := s.Bind()
		if !errors.Is(err, ErrHollowCoercers) {
			t.Fatalf("expected ErrHollowCoercers, got %v", err)
		}
		if s.Bound() {
			t.Error("expected the schema to stay unbound after a failed bind")
		}
	})

	t.Run("Default Style Propagates To Fields", func(t *testing.T) {
		s := NewSchema(serverSchema, WithDefaultStyle(CheckStrict))
		f, err := s.Field("port", For[int]())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Bind(); err != nil {
			t.Fatalf("bind failed: %v", err)
		}

		if f.Filler().Style() != CheckStrict {
			t.Errorf("expected CheckStrict, got %v", f.Filler().Style())
		}
	})
}

func TestSchemaFill(t *testing.T) {
	t.Run("Fills Every Field", func(t *testing.T) {
		s := newServerSchema(t)

		out, err := s.Fill(context.Background(), map[string]any{
			"host":    "example.com",
			"port":    "8080",
			"retries": []any{1.0, 2.0},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]any{
			"host":    "example.com",
			"port":    8080,
			"retries": []int{1, 2},
		}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("expected %v, got %v", want, out)
		}
	})

	t.Run("Absent Keys Take Defaults", func(t *testing.T) {
		s := newServerSchema(t)

		out, err := s.Fill(context.Background(), map[string]any{"port": 80})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out["host"] != "localhost" {
			t.Errorf("expected the default host, got %v", out["host"])
		}
		if !reflect.DeepEqual(out["retries"], []int{}) {
			t.Errorf("expected the factory default, got %v", out["retries"])
		}
	})

	t.Run("Missing Required Field Fails", func(t *testing.T) {
		s := newServerSchema(t)

		_, err := s.Fill(context.Background(), map[string]any{"host": "h"})
		var missing *MissingFieldError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingFieldError, got %v", err)
		}
		if missing.Field != "port" {
			t.Errorf("expected field 'port', got %q", missing.Field)
		}
	})

	t.Run("Unknown Keys Fail", func(t *testing.T) {
		s := newServerSchema(t)

		_, err := s.Fill(context.Background(), map[string]any{"port": 80, "prot": 81})
		if !errors.Is(err, ErrUnknownKey) {
			t.Errorf("expected ErrUnknownKey, got %v", err)
		}
	})

	t.Run("Field Failures Carry The Field Name", func(t *testing.T) {
		s := newServerSchema(t)

		_, err := s.Fill(context.Background(), map[string]any{
			"port":    80,
			"retries": []any{1.0, 2.5},
		})
		var cerr *CoercionError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected CoercionError, got %v", err)
		}
		if cerr.Field != "retries" {
			t.Errorf("expected field 'retries', got %q", cerr.Field)
		}
		if !reflect.DeepEqual(cerr.Path, []Name{"retries", "[1]"}) {
			t.Errorf("expected path retries.[1], got %v", cerr.Path)
		}
	})

	t.Run("Concurrent Fills After Bind Are Safe", func(t *testing.T) {
		s := newServerSchema(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Fill(context.Background(), map[string]any{"port": "443"}); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}

func TestSchemaExport(t *testing.T) {
	t.Run("Exports Declared Fields Only", func(t *testing.T) {
		s := newServerSchema(t)

		out := s.Export(map[string]any{"host": "h", "stray": 1})
		if !reflect.DeepEqual(out, map[string]any{"host": "h"}) {
			t.Errorf("expected stray keys dropped, got %v", out)
		}
	})

	t.Run("WithoutDefaults Omits Default Values", func(t *testing.T) {
		s := newServerSchema(t)

		out := s.Export(map[string]any{
			"host": "localhost",
			"port": 80,
		}, WithoutDefaults())
		if _, ok := out["host"]; ok {
			t.Error("expected the default host omitted")
		}
		if out["port"] != 80 {
			t.Errorf("expected port kept, got %v", out["port"])
		}
	})

	t.Run("Factory Defaults Are Always Exported", func(t *testing.T) {
		s := newServerSchema(t)

		out := s.Export(map[string]any{"retries": []int{}}, WithoutDefaults())
		if _, ok := out["retries"]; !ok {
			t.Error("expected factory-defaulted field kept")
		}
	})
}

func TestSchemaSelectable(t *testing.T) {
	t.Run("Factory Reshapes Input Before Filling", func(t *testing.T) {
		s := newServerSchema(t)
		factory := s.Factory().Select(MustSelect(
			Rename("PORT", "port"),
			Remove("env"),
		))

		out, err := factory.Call(context.Background(), map[string]any{
			"PORT": "9000",
			"env":  "prod",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out["port"] != 9000 {
			t.Errorf("expected 9000, got %v", out["port"])
		}
	})

	t.Run("Exporter Reshapes Output After Export", func(t *testing.T) {
		s := newServerSchema(t)
		exporter, err := s.Exporter().ExportWith(
			Rename("host", "hostname"),
			Add("schema", string(serverSchema)),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := exporter.Call(context.Background(), map[string]any{"host": "h", "port": 80})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]any{"hostname": "h", "port": 80, "schema": "server"}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("expected %v, got %v", want, out)
		}
	})
}

func TestSchemaObservability(t *testing.T) {
	t.Run("Fill Counts", func(t *testing.T) {
		s := newServerSchema(t)

		s.Fill(context.Background(), map[string]any{"port": 80}) //nolint:errcheck
		s.Fill(context.Background(), map[string]any{})           //nolint:errcheck

		if got := s.Metrics().Counter(SchemaFillsTotal).Value(); got != 2 {
			t.Errorf("expected 2 fills, got %v", got)
		}
		if got := s.Metrics().Counter(SchemaSuccessesTotal).Value(); got != 1 {
			t.Errorf("expected 1 success, got %v", got)
		}
		if got := s.Metrics().Counter(SchemaFailuresTotal).Value(); got != 1 {
			t.Errorf("expected 1 failure, got %v", got)
		}
		if got := s.Metrics().Gauge(SchemaFieldsTotal).Value(); got != 3 {
			t.Errorf("expected 3 fields, got %v", got)
		}
	})

	t.Run("Filled Events Report Defaulted Fields", func(t *testing.T) {
		s := newServerSchema(t)
		defer s.Close()

		var events atomic.Int32
		var mu sync.Mutex
		var last SchemaEvent
		if err := s.OnFilled(func(_ context.Context, e SchemaEvent) error {
			mu.Lock()
			last = e
			mu.Unlock()
			events.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s.Fill(context.Background(), map[string]any{"port": 80}) //nolint:errcheck

		// Wait for async hook
		time.Sleep(10 * time.Millisecond)

		if events.Load() != 1 {
			t.Fatalf("expected 1 event, got %d", events.Load())
		}
		mu.Lock()
		defer mu.Unlock()
		if !last.Success {
			t.Error("expected a success event")
		}
		if last.Schema != serverSchema {
			t.Errorf("expected schema %q, got %q", serverSchema, last.Schema)
		}
		if last.Defaulted != 2 {
			t.Errorf("expected 2 defaulted fields, got %d", last.Defaulted)
		}
	})
}
