// Package grid holds the fixed, possibly non-uniform time grid the
// dispatch core is evaluated over.
package grid

import (
	"github.com/devskill-org/microgrid-sim/errs"
)

// Grid is an ordered, strictly increasing sequence of sample instants (in
// hours since the start of the run) with derived interval widths. The
// last interval repeats the previous width, since there is no sample
// beyond t_{N-1} to derive it from.
type Grid struct {
	Times []float64 // t_0 < t_1 < ... < t_{N-1}, hours
	Dt    []float64 // Δt_i, same length as Times
}

// New builds a Grid from strictly increasing sample instants.
func New(times []float64) (*Grid, error) {
	if len(times) < 2 {
		return nil, &errs.InvalidConfigError{Field: "times", Message: "grid must have at least two samples"}
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, &errs.InvalidConfigError{
				Field:   "times",
				Message: "time grid must be strictly increasing",
			}
		}
	}

	dt := make([]float64, len(times))
	for i := 0; i < len(times)-1; i++ {
		dt[i] = times[i+1] - times[i]
	}
	dt[len(times)-1] = dt[len(times)-2]

	return &Grid{Times: times, Dt: dt}, nil
}

// Len returns the number of steps N.
func (g *Grid) Len() int {
	return len(g.Times)
}

// YearsModeled returns t_{N-1} / 8760, the total span of the run in years.
func (g *Grid) YearsModeled() float64 {
	if len(g.Times) == 0 {
		return 0
	}
	return g.Times[len(g.Times)-1] / 8760.0
}

// SameInstants reports whether other has the same length and, within
// tolerance, the same sample instants as g. Used to validate resource
// series and load series against each other.
func (g *Grid) SameInstants(other []float64, tolerance float64) bool {
	if len(other) != len(g.Times) {
		return false
	}
	for i, t := range g.Times {
		d := t - other[i]
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			return false
		}
	}
	return true
}
