package glyph

import (
	"math"
	"testing"

	"golang.org/x/image/math/f64"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestMatrixIdentity(t *testing.T) {
	m := Translate(3, 4).Multiply(Scale(2, 5))
	if got := m.Multiply(Identity()); got != m {
		t.Errorf("m * I = %+v, want %+v", got, m)
	}
	if got := Identity().Multiply(m); got != m {
		t.Errorf("I * m = %+v, want %+v", got, m)
	}
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
}

func TestMatrixApply(t *testing.T) {
	tests := []struct {
		name   string
		m      Matrix
		x, y   float64
		wx, wy float64
	}{
		{"translate", Translate(3, -2), 1, 1, 4, -1},
		{"scale", Scale(2, 3), 1, 1, 2, 3},
		{"shear x", Shear(0.5, 0), 0, 2, 1, 2},
		{"rotate 90", Rotate(math.Pi / 2), 1, 0, 0, 1},
		{"translate then scale", Scale(2, 2).Multiply(Translate(1, 0)), 0, 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.m.Apply(tt.x, tt.y)
			if !near(x, tt.wx) || !near(y, tt.wy) {
				t.Errorf("Apply(%g, %g) = (%g, %g), want (%g, %g)", tt.x, tt.y, x, y, tt.wx, tt.wy)
			}
		})
	}
}

func TestMatrixNonCommutative(t *testing.T) {
	a := Shear(0.5, 0).Multiply(Scale(1, 2))
	b := Scale(1, 2).Multiply(Shear(0.5, 0))
	if a == b {
		t.Error("shear and scale should not commute")
	}
}

func TestMatrixDeterminant(t *testing.T) {
	if d := Scale(2, 3).Determinant(); !near(d, 6) {
		t.Errorf("det(Scale(2,3)) = %g, want 6", d)
	}
	if d := Rotate(0.3).Multiply(Shear(0.1, 0)).Determinant(); !near(d, 1) {
		t.Errorf("det(R·Sh) = %g, want 1", d)
	}
}

func TestMatrixAff3(t *testing.T) {
	m := Matrix{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	want := f64.Aff3{1, 2, 3, 4, 5, 6}
	if got := m.Aff3(); got != want {
		t.Errorf("Aff3() = %v, want %v", got, want)
	}
}
