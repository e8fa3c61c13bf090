package asset

import (
	"time"

	"github.com/devskill-org/microgrid-sim/errs"
	"github.com/devskill-org/microgrid-sim/interp"
)

// ModelTag selects which production-model family a Renewable asset uses.
type ModelTag int

const (
	ModelSimpleSolar ModelTag = iota
	ModelDetailedSolar
	ModelCubicTidal
	ModelExponentialTidal
	ModelExponentialWind
	ModelLookupWind
	ModelLookupTidal
	ModelLookupWave
)

// ResourceSample is the step-local exogenous input a production model
// consumes. Which fields are populated depends on the model: scalar
// models (tidal speed, wind speed, GHI) use Scalar; the wave lookup model
// uses Hs/Te; the detailed solar model additionally uses Time.
type ResourceSample struct {
	Scalar float64
	Hs, Te float64
	Time   time.Time
}

// SolarGeometry carries the site parameters the detailed solar model
// needs beyond the resource sample itself.
type SolarGeometry struct {
	Latitude     float64 // degrees
	Longitude    float64 // degrees
	TiltDeg      float64 // panel tilt from horizontal
	AzimuthDeg   float64 // panel azimuth, 0 = north, 180 = south
	GroundAlbedo float64
}

// Renewable is a production asset driven by an exogenous resource: solar,
// wind, tidal, or wave. Production is a pure function of step-local
// inputs plus the asset's attributes; it writes only ProductionKW[i] on
// ComputeProduction, with dispatch/curtailment split deferred to Commit.
type Renewable struct {
	Identity

	ResourceKey    string
	FirmnessFactor float64 // ∈ [0,1]
	Model          ModelTag
	Derating       float64 // simple/detailed solar derating factor
	DesignSpeed    float64 // v_d for tidal/wind cubic & exponential models
	Geometry       SolarGeometry
	LookupTable    *interp.Interpolator // normalised performance table for lookup models
	LookupKey      int
	Override       []float64 // optional normalised override series, production[i] = Override[i]*Capacity
}

// NewRenewable allocates a Renewable asset and its per-step vectors for n
// steps.
func NewRenewable(name string, capacityKW float64, n int) *Renewable {
	return &Renewable{Identity: Identity{Name: name, CapacityKW: capacityKW, Output: NewOutput(n)}}
}

// Reset zeroes the asset's output vectors.
func (r *Renewable) Reset() {
	r.Output.Reset()
}

// ComputeProduction evaluates the configured production model at step i
// and records the result (capped at capacity, floored at zero) without
// splitting it against load yet. An unrecognised model tag is a fatal
// configuration error, not a silent zero.
func (r *Renewable) ComputeProduction(i int, sample ResourceSample) (float64, error) {
	var p float64
	if r.Override != nil {
		p = r.Override[i] * r.CapacityKW
	} else {
		switch r.Model {
		case ModelSimpleSolar:
			p = simpleSolar(r.Derating, sample.Scalar, r.CapacityKW)
		case ModelDetailedSolar:
			p = detailedSolar(r, sample)
		case ModelCubicTidal:
			p = cubicTidal(sample.Scalar, r.DesignSpeed) * r.CapacityKW
		case ModelExponentialTidal:
			p = exponentialTidalFraction(sample.Scalar, r.DesignSpeed) * r.CapacityKW
		case ModelExponentialWind:
			p = exponentialWindFraction(sample.Scalar, r.DesignSpeed) * r.CapacityKW
		case ModelLookupWind, ModelLookupTidal:
			p = lookupFraction(r.LookupTable, r.LookupKey, sample.Scalar) * r.CapacityKW
		case ModelLookupWave:
			p = lookupWaveFraction(r.LookupTable, r.LookupKey, sample.Hs, sample.Te) * r.CapacityKW
		default:
			return 0, &errs.UnknownKindError{Kind: "renewable model tag"}
		}
	}

	p = clamp(p, 0, r.CapacityKW)
	r.Output.SetProduction(i, p)
	return p, nil
}

// Commit splits the production already computed at step i against the
// residual load, recording dispatch and curtailment.
func (r *Renewable) Commit(i int, load float64) float64 {
	r.Output.IsRunning[i] = r.Output.ProductionKW[i] > 0
	return r.Output.SplitAgainst(i, load)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
