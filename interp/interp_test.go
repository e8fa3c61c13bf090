package interp

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestInterp1D_IdempotentAtDataPoints(t *testing.T) {
	ip := New()
	if err := ip.Register1D(1, []float64{0, 0.5, 1.0}, []float64{4.68, 16.28, 27.25}); err != nil {
		t.Fatalf("Register1D failed: %v", err)
	}

	want := []float64{4.68, 16.28, 27.25}
	for i, x := range []float64{0, 0.5, 1.0} {
		y, err := ip.Interp1D(1, x)
		if err != nil {
			t.Fatalf("Interp1D(%v) failed: %v", x, err)
		}
		if math.Abs(y-want[i]) > epsilon {
			t.Errorf("Interp1D(%v) = %v, want %v", x, y, want[i])
		}
	}
}

func TestInterp1D_FuelLookup(t *testing.T) {
	// Fuel table (0->4.68, 0.5->16.28, 1.0->27.25), load ratio 0.171
	// must return 8.35 L/h (piecewise-linear).
	ip := New()
	if err := ip.Register1D(1, []float64{0, 0.5, 1.0}, []float64{4.68, 16.28, 27.25}); err != nil {
		t.Fatalf("Register1D failed: %v", err)
	}

	y, err := ip.Interp1D(1, 0.171)
	if err != nil {
		t.Fatalf("Interp1D failed: %v", err)
	}
	if math.Abs(y-8.35) > 0.01 {
		t.Errorf("Interp1D(0.171) = %.4f, want 8.35", y)
	}
}

func TestInterp1D_OutOfDomain(t *testing.T) {
	ip := New()
	if err := ip.Register1D(1, []float64{0, 1}, []float64{0, 10}); err != nil {
		t.Fatalf("Register1D failed: %v", err)
	}

	if _, err := ip.Interp1D(1, 1.5); err == nil {
		t.Errorf("Interp1D(1.5) expected an out-of-domain error, got nil")
	}
	if _, err := ip.Interp1D(1, -0.1); err == nil {
		t.Errorf("Interp1D(-0.1) expected an out-of-domain error, got nil")
	}
}

func TestInterp1D_UnknownKey(t *testing.T) {
	ip := New()
	if _, err := ip.Interp1D(99, 0); err == nil {
		t.Errorf("Interp1D with an unregistered key expected an error, got nil")
	}
}

func TestInterp2D_ReducesToAxis(t *testing.T) {
	// Bilinear interpolation at a grid column should equal the 1-D
	// interpolation along the other axis.
	ip := New()
	x := []float64{0, 1, 2}
	y := []float64{0, 1}
	z := [][]float64{
		{0, 10, 20},
		{5, 15, 25},
	}
	if err := ip.Register2D(1, x, y, z); err != nil {
		t.Fatalf("Register2D failed: %v", err)
	}

	if v, err := ip.Interp2D(1, 1, 0); err != nil {
		t.Fatalf("Interp2D failed: %v", err)
	} else if math.Abs(v-10) > epsilon {
		t.Errorf("Interp2D(1,0) = %v, want 10", v)
	}

	if v, err := ip.Interp2D(1, 1, 0.5); err != nil {
		t.Fatalf("Interp2D failed: %v", err)
	} else if math.Abs(v-12.5) > epsilon {
		t.Errorf("Interp2D(1,0.5) = %v, want 12.5", v)
	}
}

func TestInterp2D_IdempotentAtGridPoints(t *testing.T) {
	ip := New()
	x := []float64{0, 1, 2}
	y := []float64{0, 1}
	z := [][]float64{
		{0, 10, 20},
		{5, 15, 25},
	}
	if err := ip.Register2D(1, x, y, z); err != nil {
		t.Fatalf("Register2D failed: %v", err)
	}

	for i, yy := range y {
		for j, xx := range x {
			v, err := ip.Interp2D(1, xx, yy)
			if err != nil {
				t.Fatalf("Interp2D(%v,%v) failed: %v", xx, yy, err)
			}
			if math.Abs(v-z[i][j]) > epsilon {
				t.Errorf("Interp2D(%v,%v) = %v, want %v", xx, yy, v, z[i][j])
			}
		}
	}
}

func TestInterp2D_OutOfDomain(t *testing.T) {
	ip := New()
	x := []float64{0, 1}
	y := []float64{0, 1}
	z := [][]float64{{0, 1}, {1, 2}}
	if err := ip.Register2D(1, x, y, z); err != nil {
		t.Fatalf("Register2D failed: %v", err)
	}

	if _, err := ip.Interp2D(1, 2, 0); err == nil {
		t.Errorf("Interp2D(2,0) expected an out-of-domain error, got nil")
	}
	if _, err := ip.Interp2D(1, 0, 2); err == nil {
		t.Errorf("Interp2D(0,2) expected an out-of-domain error, got nil")
	}
}
