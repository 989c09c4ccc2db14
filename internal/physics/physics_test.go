package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/timemarch/internal/dynamo"
)

func TestDecay_Derive(t *testing.T) {
	d := NewDecay(2)
	dx, err := d.Derive(dynamo.State{9, 1, 3, 9})
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	want := dynamo.State{0, -2, -6, 0}
	for i := range want {
		if dx[i] != want[i] {
			t.Errorf("dx[%d] = %v, want %v", i, dx[i], want[i])
		}
	}

	if got := d.Exact(1, 0.5); math.Abs(got-math.Exp(-1)) > 1e-15 {
		t.Errorf("Exact = %v", got)
	}
}

func TestSystems_RejectShortState(t *testing.T) {
	systems := map[string]dynamo.System{
		"decay":     NewDecay(1),
		"heat":      NewHeat(1, 0.1),
		"advection": NewAdvection(1, 0.1),
		"burgers":   NewBurgers(0.1, 0.1),
	}
	for name, sys := range systems {
		if _, err := sys.Derive(dynamo.State{0, 0}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
			t.Errorf("%s: expected ErrDimensionMismatch, got %v", name, err)
		}
	}
}

func TestHeat_UsesGhostCells(t *testing.T) {
	h := NewHeat(1, 1)
	dx, err := h.Derive(dynamo.State{1, 0, 0, 0, 1})
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if dx[1] != 1 || dx[2] != 0 || dx[3] != 1 {
		t.Errorf("unexpected laplacian %v", dx)
	}
	if dx[0] != 0 || dx[4] != 0 {
		t.Errorf("ghost derivatives should be zero, got %v", dx)
	}
}

func TestHeat_StableDt(t *testing.T) {
	h := NewHeat(0.5, 0.1)
	if got := h.StableDt(); math.Abs(got-0.01) > 1e-15 {
		t.Errorf("StableDt = %v, want 0.01", got)
	}
}

func TestAdvection_Upwind(t *testing.T) {
	a := NewAdvection(1, 1)
	dx, _ := a.Derive(dynamo.State{0, 1, 1, 0})
	if dx[1] != -1 || dx[2] != 0 {
		t.Errorf("positive speed upwind: %v", dx)
	}

	a.Speed = -1
	dx, _ = a.Derive(dynamo.State{0, 1, 1, 0})
	if dx[1] != 0 || dx[2] != -1 {
		t.Errorf("negative speed upwind: %v", dx)
	}
}

func TestBurgers_ConstantStateIsSteady(t *testing.T) {
	b := NewBurgers(0.1, 0.1)
	dx, _ := b.Derive(dynamo.State{2, 2, 2, 2, 2})
	for i, v := range dx {
		if v != 0 {
			t.Errorf("dx[%d] = %v, want 0", i, v)
		}
	}
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		bc          dynamo.Boundary
		left, right float64
	}{
		{"dirichlet", Dirichlet{Left: 1, Right: -1}, 1, -1},
		{"neumann", Neumann{Left: 1, Right: 2, Dx: 0.5}, 2.5, 5},
		{"periodic", Periodic{}, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := dynamo.State{99, 2, 3, 4, 99}
			if err := tt.bc.Apply(x); err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			if x[0] != tt.left || x[4] != tt.right {
				t.Errorf("ghosts = (%v, %v), want (%v, %v)", x[0], x[4], tt.left, tt.right)
			}
			if x[1] != 2 || x[2] != 3 || x[3] != 4 {
				t.Errorf("interior modified: %v", x)
			}
		})
	}
}

func TestBoundaries_RejectShortState(t *testing.T) {
	for _, bc := range []dynamo.Boundary{Dirichlet{}, Neumann{}, Periodic{}} {
		if err := bc.Apply(dynamo.State{0, 0}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
			t.Errorf("%T: expected ErrDimensionMismatch, got %v", bc, err)
		}
	}
}

func TestCounting(t *testing.T) {
	c := NewCounting(Dirichlet{})
	x := dynamo.State{1, 1, 1}
	for i := 0; i < 3; i++ {
		if err := c.Apply(x); err != nil {
			t.Fatal(err)
		}
	}
	if c.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", c.Calls())
	}
	if x[0] != 0 || x[2] != 0 {
		t.Errorf("wrapped boundary not applied: %v", x)
	}
}

func TestSetParam(t *testing.T) {
	h := NewHeat(1, 1)
	if err := h.SetParam("alpha", 3); err != nil || h.Diffusivity != 3 {
		t.Errorf("SetParam alpha: %v, diffusivity=%v", err, h.Diffusivity)
	}
	if err := h.SetParam("bogus", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}

	d := &Dirichlet{}
	if err := d.SetParam("right", 2); err != nil || d.Right != 2 {
		t.Errorf("SetParam right: %v", err)
	}
}

func TestProfile(t *testing.T) {
	for _, name := range ListProfiles() {
		s, err := Profile(name, 8, 1)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(s) != 8 || !s.IsValid() {
			t.Errorf("%s: bad profile %v", name, s)
		}
	}

	if _, err := Profile("nope", 8, 1); err == nil {
		t.Error("expected error for unknown profile")
	}
	if _, err := Profile("sine", 0, 1); err == nil {
		t.Error("expected error for empty profile")
	}

	c, _ := Profile("constant", 3, 2.5)
	for _, v := range c {
		if v != 2.5 {
			t.Errorf("constant profile value %v", v)
		}
	}

	h, _ := Profile("hat", 1, 1)
	if h[0] != 1 {
		t.Errorf("single-cell hat = %v", h)
	}
}
