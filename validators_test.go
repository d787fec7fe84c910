package recz

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFunc(t *testing.T) {
	t.Run("May Rewrite The Value", func(t *testing.T) {
		v := ValidateFunc("lower", func(x any) (any, error) {
			return strings.ToLower(x.(string)), nil
		})

		out, err := v.Validate("HELLO")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "hello" {
			t.Errorf("expected 'hello', got %v", out)
		}
	})
}

func TestAssertFunc(t *testing.T) {
	t.Run("False Rejects With Sentinel", func(t *testing.T) {
		v := AssertFunc("even", func(x any) bool { return x.(int)%2 == 0 })

		if _, err := v.Validate(4); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		_, err := v.Validate(3)
		if !errors.Is(err, ErrAssertFailed) {
			t.Errorf("expected ErrAssertFailed, got %v", err)
		}
	})

	t.Run("True Passes Value Through Unchanged", func(t *testing.T) {
		v := AssertFunc("any", func(any) bool { return true })

		out, err := v.Validate("same")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "same" {
			t.Errorf("expected 'same', got %v", out)
		}
	})
}

func TestClamp(t *testing.T) {
	t.Run("Moves Outliers To The Nearest Bound", func(t *testing.T) {
		v := Clamp(0, 10)

		cases := []struct{ in, want int }{
			{-5, 0},
			{5, 5},
			{15, 10},
			{0, 0},
			{10, 10},
		}
		for _, tc := range cases {
			out, err := v.Validate(tc.in)
			if err != nil {
				t.Fatalf("unexpected error for %d: %v", tc.in, err)
			}
			if out != tc.want {
				t.Errorf("expected %d for %d, got %v", tc.want, tc.in, out)
			}
		}
	})

	t.Run("Rejects Wrong Type", func(t *testing.T) {
		v := Clamp(0.0, 1.0)

		if _, err := v.Validate("x"); err == nil {
			t.Error("expected error for non-float input")
		}
	})
}

func TestCyclic(t *testing.T) {
	t.Run("Wraps Integers Into The Domain", func(t *testing.T) {
		v := Cyclic(0, 360)

		cases := []struct{ in, want int }{
			{90, 90},
			{360, 0},
			{370, 10},
			{-10, 350},
			{725, 5},
		}
		for _, tc := range cases {
			out, err := v.Validate(tc.in)
			if err != nil {
				t.Fatalf("unexpected error for %d: %v", tc.in, err)
			}
			if out != tc.want {
				t.Errorf("expected %d for %d, got %v", tc.want, tc.in, out)
			}
		}
	})

	t.Run("Wraps Floats Into The Domain", func(t *testing.T) {
		v := CyclicFloat(0.0, 24.0)

		out, err := v.Validate(25.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != 1.5 {
			t.Errorf("expected 1.5, got %v", out)
		}

		out, err = v.Validate(-1.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != 23.0 {
			t.Errorf("expected 23.0, got %v", out)
		}
	})

	t.Run("Empty Domain Panics At Construction", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for an empty domain")
			}
		}()
		Cyclic(5, 5)
	})

	t.Run("Empty Float Domain Panics At Construction", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for an empty domain")
			}
		}()
		CyclicFloat(3.0, 2.0)
	})
}

func TestWithin(t *testing.T) {
	t.Run("Lower Bound Inclusive Upper Exclusive", func(t *testing.T) {
		v := Within(1, 100)

		if _, err := v.Validate(1); err != nil {
			t.Errorf("unexpected error at the lower bound: %v", err)
		}
		if _, err := v.Validate(99); err != nil {
			t.Errorf("unexpected error below the upper bound: %v", err)
		}
		if _, err := v.Validate(100); err == nil {
			t.Error("expected rejection at the upper bound")
		}
		if _, err := v.Validate(0); err == nil {
			t.Error("expected rejection below the lower bound")
		}
	})
}

func TestFullMatch(t *testing.T) {
	t.Run("Requires The Whole String To Match", func(t *testing.T) {
		v := FullMatch(`[a-z]+`)

		if _, err := v.Validate("hello"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := v.Validate("hello1"); err == nil {
			t.Error("expected rejection for a partial match")
		}
		if _, err := v.Validate(""); err == nil {
			t.Error("expected rejection for an empty string")
		}
	})

	t.Run("Rejects Non Strings", func(t *testing.T) {
		v := FullMatch(`.*`)

		if _, err := v.Validate(42); err == nil {
			t.Error("expected error for non-string input")
		}
	})
}

func TestTruth(t *testing.T) {
	t.Run("Rejects Falsish Values", func(t *testing.T) {
		v := Truth()

		for _, bad := range []any{nil, 0, "", false, []int{}, map[string]int{}} {
			if _, err := v.Validate(bad); err == nil {
				t.Errorf("expected rejection for %#v", bad)
			}
		}
		for _, good := range []any{1, "x", true, []int{0}, map[string]int{"k": 0}} {
			if _, err := v.Validate(good); err != nil {
				t.Errorf("unexpected error for %#v: %v", good, err)
			}
		}
	})
}
