// Package interp implements the 1-D / 2-D table lookup the dispatch core
// uses for fuel curves, wind/tidal/wave performance tables, and similar
// piecewise-linear data.
package interp

import (
	"math"

	"github.com/devskill-org/microgrid-sim/errs"
)

// Table1D is a piecewise-linear x -> y lookup table. X must be strictly
// increasing.
type Table1D struct {
	X, Y []float64
	MinX float64
	MaxX float64
}

// Table2D is a bilinear lookup table over a grid of x columns and y rows.
// Z[i][j] is the value at (X[j], Y[i]).
type Table2D struct {
	X, Y     []float64
	Z        [][]float64
	MinX     float64
	MaxX     float64
	MinY     float64
	MaxY     float64
}

// Interpolator holds a registry of named lookup tables, keyed by an
// integer asset/resource key, in either 1-D or 2-D form.
type Interpolator struct {
	tables1D map[int]*Table1D
	tables2D map[int]*Table2D
}

// New returns an empty Interpolator.
func New() *Interpolator {
	return &Interpolator{
		tables1D: make(map[int]*Table1D),
		tables2D: make(map[int]*Table2D),
	}
}

// Register1D stores a 1-D table under key. x must be strictly increasing
// and the same length as y.
func (ip *Interpolator) Register1D(key int, x, y []float64) error {
	if len(x) != len(y) || len(x) < 2 {
		return &errs.InvalidConfigError{Field: "table1d", Message: "x and y must be equal length and have at least two points"}
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return &errs.InvalidConfigError{Field: "table1d", Message: "x must be strictly increasing"}
		}
	}
	ip.tables1D[key] = &Table1D{X: x, Y: y, MinX: x[0], MaxX: x[len(x)-1]}
	return nil
}

// Register2D stores a 2-D table under key. x (columns) and y (rows) must
// each be strictly increasing; z has len(y) rows of len(x) values.
func (ip *Interpolator) Register2D(key int, x, y []float64, z [][]float64) error {
	if len(x) < 2 || len(y) < 2 {
		return &errs.InvalidConfigError{Field: "table2d", Message: "x and y must each have at least two points"}
	}
	if len(z) != len(y) {
		return &errs.InvalidConfigError{Field: "table2d", Message: "z must have one row per y value"}
	}
	for _, row := range z {
		if len(row) != len(x) {
			return &errs.InvalidConfigError{Field: "table2d", Message: "every z row must have one value per x column"}
		}
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return &errs.InvalidConfigError{Field: "table2d", Message: "x must be strictly increasing"}
		}
	}
	for i := 1; i < len(y); i++ {
		if y[i] <= y[i-1] {
			return &errs.InvalidConfigError{Field: "table2d", Message: "y must be strictly increasing"}
		}
	}
	ip.tables2D[key] = &Table2D{X: x, Y: y, Z: z, MinX: x[0], MaxX: x[len(x)-1], MinY: y[0], MaxY: y[len(y)-1]}
	return nil
}

// Interp1D performs piecewise-linear interpolation against the table
// registered under key.
func (ip *Interpolator) Interp1D(key int, x float64) (float64, error) {
	t, ok := ip.tables1D[key]
	if !ok {
		return 0, &errs.OutOfDomainError{Key: "1d", Value: float64(key)}
	}
	if x < t.MinX || x > t.MaxX {
		return 0, &errs.OutOfDomainError{Key: "1d", Value: x, Min: t.MinX, Max: t.MaxX}
	}
	return interp1D(t.X, t.Y, x), nil
}

// Interp2D performs bilinear interpolation against the table registered
// under key: two horizontal linear interpolations at the bracketing y
// rows, then a vertical linear interpolation between those results.
func (ip *Interpolator) Interp2D(key int, x, y float64) (float64, error) {
	t, ok := ip.tables2D[key]
	if !ok {
		return 0, &errs.OutOfDomainError{Key: "2d", Value: x}
	}
	if x < t.MinX || x > t.MaxX {
		return 0, &errs.OutOfDomainError{Key: "2d.x", Value: x, Min: t.MinX, Max: t.MaxX}
	}
	if y < t.MinY || y > t.MaxY {
		return 0, &errs.OutOfDomainError{Key: "2d.y", Value: y, Min: t.MinY, Max: t.MaxY}
	}

	lo, hi := bracket(t.Y, y)
	rowLo := interp1D(t.X, t.Z[lo], x)
	if lo == hi {
		return rowLo, nil
	}
	rowHi := interp1D(t.X, t.Z[hi], x)

	frac := (y - t.Y[lo]) / (t.Y[hi] - t.Y[lo])
	return rowLo + frac*(rowHi-rowLo), nil
}

// bracket finds the pair of indices (lo, hi) such that v[lo] <= x <= v[hi]
// using a linear scan from the low end; ties resolve to the left bracket.
func bracket(v []float64, x float64) (int, int) {
	i := 0
	for i < len(v)-1 && v[i+1] < x {
		i++
	}
	if i == len(v)-1 {
		return i, i
	}
	return i, i + 1
}

// interp1D evaluates the piecewise-linear function defined by (x, y) at
// query point q, assuming q is already known to lie within [x[0], x[len-1]].
func interp1D(x, y []float64, q float64) float64 {
	lo, hi := bracket(x, q)
	if lo == hi {
		return y[lo]
	}
	if math.Abs(x[hi]-x[lo]) < 1e-15 {
		return y[lo]
	}
	frac := (q - x[lo]) / (x[hi] - x[lo])
	return y[lo] + frac*(y[hi]-y[lo])
}
