package integrators

import (
	"errors"
	"testing"

	"github.com/san-kum/timemarch/internal/dynamo"
)

func TestParseScheme(t *testing.T) {
	tests := []struct {
		name string
		want Scheme
	}{
		{"forward-euler", ForwardEuler},
		{"Forward Euler", ForwardEuler},
		{"euler", ForwardEuler},
		{"Backward Euler", BackwardEuler},
		{"be", BackwardEuler},
		{"Crank Nicolson", CrankNicolson},
		{"crank_nicolson", CrankNicolson},
		{" CN ", CrankNicolson},
		{"trapezoidal", CrankNicolson},
	}

	for _, tt := range tests {
		got, err := ParseScheme(tt.name)
		if err != nil {
			t.Errorf("ParseScheme(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScheme(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseScheme_Unknown(t *testing.T) {
	for _, name := range []string{"", "rk4", "leapfrog"} {
		if _, err := ParseScheme(name); !errors.Is(err, dynamo.ErrUnknownScheme) {
			t.Errorf("ParseScheme(%q): expected ErrUnknownScheme, got %v", name, err)
		}
	}
}

func TestSelect(t *testing.T) {
	for _, s := range Schemes() {
		exec, err := Select(s)
		if err != nil {
			t.Fatalf("Select(%v) failed: %v", s, err)
		}
		if exec.Scheme() != s {
			t.Errorf("Select(%v) returned executor for %v", s, exec.Scheme())
		}
	}

	if _, err := Select(Scheme(42)); !errors.Is(err, dynamo.ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}
	if _, err := SelectByName("rk45"); !errors.Is(err, dynamo.ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}
}

func TestScheme_Properties(t *testing.T) {
	if ForwardEuler.Implicit() || !BackwardEuler.Implicit() || !CrankNicolson.Implicit() {
		t.Error("unexpected Implicit() values")
	}
	if CrankNicolson.Order() != 2 || BackwardEuler.Order() != 1 {
		t.Error("unexpected Order() values")
	}
	if Scheme(-1).Valid() || Scheme(-1).String() != "Scheme(-1)" {
		t.Errorf("invalid scheme stringified as %q", Scheme(-1).String())
	}
	for _, s := range Schemes() {
		back, err := ParseScheme(s.String())
		if err != nil || back != s {
			t.Errorf("String/Parse mismatch for %v", s)
		}
	}
}

func TestOptions_PanicOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for WithSolver(nil)")
		}
	}()
	WithSolver(nil)
}
