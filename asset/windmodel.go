package asset

import (
	"math"

	"github.com/devskill-org/microgrid-sim/interp"
)

// cubicTidal implements the cubic tidal power-model fraction of capacity:
// zero below 0.15*v_d and above 1.25*v_d, cubic ramp from 0.15*v_d to
// v_d, full output from v_d to 1.25*v_d.
func cubicTidal(v, vd float64) float64 {
	if vd <= 0 {
		return 0
	}
	switch {
	case v < 0.15*vd || v > 1.25*vd:
		return 0
	case v <= vd:
		ratio := v / vd
		return ratio * ratio * ratio
	default: // vd < v <= 1.25*vd
		return 1
	}
}

// exponentialTidalFraction implements the exponential tidal power-model
// fraction of capacity, piecewise in s = (v - v_d)/v_d.
func exponentialTidalFraction(v, vd float64) float64 {
	if vd <= 0 {
		return 0
	}
	s := (v - vd) / vd
	switch {
	case s >= -0.71 && s <= 0:
		return 1.69215*math.Exp(1.25909*s) - 0.69215
	case s > 0 && s <= 0.65:
		return 1
	default:
		return 0
	}
}

// exponentialWindFraction implements the exponential wind power-model
// fraction of capacity, piecewise in s = (v - v_d)/v_d.
func exponentialWindFraction(v, vd float64) float64 {
	if vd <= 0 {
		return 0
	}
	s := (v - vd) / vd
	switch {
	case s >= -0.76 && s <= 0:
		return 1.03273*math.Exp(-5.97588*s*s) - 0.03273
	case s > 0 && s <= 0.68:
		return 0.16154*math.Exp(-9.30254*s*s) + 0.83846
	default:
		return 0
	}
}

// lookupFraction evaluates a 1-D normalised wind/tidal performance table,
// returning zero outside the table's domain instead of propagating the
// OutOfDomain error, per spec: "zero outside the table domain."
func lookupFraction(table *interp.Interpolator, key int, v float64) float64 {
	if table == nil {
		return 0
	}
	frac, err := table.Interp1D(key, v)
	if err != nil {
		return 0
	}
	return frac
}

// lookupWaveFraction evaluates the 2-D normalised wave performance table
// (Hs by Te), returning zero outside the table's domain.
func lookupWaveFraction(table *interp.Interpolator, key int, hs, te float64) float64 {
	if table == nil {
		return 0
	}
	frac, err := table.Interp2D(key, hs, te)
	if err != nil {
		return 0
	}
	return frac
}
