// Package report turns the per-step output vectors every asset records
// during a run into the persisted summary/time-series layout spec'd for
// a completed simulation.
package report

import (
	"github.com/devskill-org/microgrid-sim/asset"
	"github.com/devskill-org/microgrid-sim/grid"
)

// ExtraColumn is an additional named per-step series a particular asset
// kind contributes beyond the common asset.Output fields — fuel burned
// for combustion, SOC/SOH for storage, turbine flow/spill for
// non-combustion.
type ExtraColumn struct {
	Header string
	Values []float64
}

// AssetRecord bundles one asset's identity and output for reporting.
// Built by sim.Model after a run, one per asset instance.
type AssetRecord struct {
	Kind       asset.Kind
	Name       string
	CapacityKW float64
	Index      int // ordinal among assets of the same kind, for directory naming
	SunkCost   bool
	Output     *asset.Output
	Extra      []ExtraColumn
}

// Summary is the set of aggregate statistics computed over one asset's
// lifetime in a run, reported in its summary_results.md.
type Summary struct {
	TotalProductionKWh  float64
	TotalDispatchKWh    float64
	TotalStorageKWh     float64
	TotalCurtailmentKWh float64
	RunningHours        float64
	CapacityFactor      float64 // TotalProductionKWh / (CapacityKW * YearsModeled * 8760)
	TotalFuelCostEUR    float64
	TotalOMCostEUR      float64
	TotalCapitalCostEUR float64
	Starts              int
}

// Recorder accumulates the per-asset records and fleet-wide missed-load
// accounting for a completed run, ready to be persisted by WriteResults.
type Recorder struct {
	Grid   *grid.Grid
	Assets []AssetRecord
	Missed MissedAccounting
}

// MissedAccounting is the fleet-wide per-step shortfall vectors the
// dispatcher records each step.
type MissedAccounting struct {
	LoadKW    []float64
	FirmKW    []float64
	ReserveKW []float64
}

// NewRecorder creates an empty Recorder bound to g.
func NewRecorder(g *grid.Grid) *Recorder {
	return &Recorder{Grid: g}
}

// Add registers one asset's output vectors for reporting.
func (r *Recorder) Add(rec AssetRecord) {
	r.Assets = append(r.Assets, rec)
}

// Summarize computes the aggregate Summary for one asset record, energy
// totals weighted by the run's Δt vector.
func (r *Recorder) Summarize(rec AssetRecord) Summary {
	var s Summary
	out := rec.Output
	for i, dt := range r.Grid.Dt {
		s.TotalProductionKWh += out.ProductionKW[i] * dt
		s.TotalDispatchKWh += out.DispatchKW[i] * dt
		s.TotalStorageKWh += out.StorageKW[i] * dt
		s.TotalCurtailmentKWh += out.CurtailmentKW[i] * dt
		if out.IsRunning[i] {
			s.RunningHours += dt
		}
		s.TotalFuelCostEUR += out.FuelCostKW[i]
		s.TotalOMCostEUR += out.OMCostKW[i]
		s.TotalCapitalCostEUR += out.CapitalCostKW[i]
		if out.CapitalCostKW[i] > 0 {
			s.Starts++
		}
	}

	denom := rec.CapacityKW * r.Grid.YearsModeled() * 8760.0
	if denom > 0 {
		s.CapacityFactor = s.TotalProductionKWh / denom
	}
	return s
}

// TotalMissedLoadKWh sums the fleet-wide missed-load vector over the run.
func (r *Recorder) TotalMissedLoadKWh() float64 {
	return weightedSum(r.Missed.LoadKW, r.Grid.Dt)
}

// TotalMissedFirmKWh sums the fleet-wide missed-firm-dispatch vector.
func (r *Recorder) TotalMissedFirmKWh() float64 {
	return weightedSum(r.Missed.FirmKW, r.Grid.Dt)
}

// TotalMissedReserveKWh sums the fleet-wide missed-spinning-reserve vector.
func (r *Recorder) TotalMissedReserveKWh() float64 {
	return weightedSum(r.Missed.ReserveKW, r.Grid.Dt)
}

func weightedSum(values, dt []float64) float64 {
	var total float64
	for i, v := range values {
		total += v * dt[i]
	}
	return total
}
