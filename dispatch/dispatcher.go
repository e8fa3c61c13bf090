// Package dispatch implements the per-step dispatch pipeline: given a
// load and a step-local set of resource samples, it decides how much
// each asset produces, dispatches, curtails, or stores, in a fixed
// seven-stage order (renewable precompute, non-combustion, storage
// discharge, combustion, renewable commit, storage charge, accounting).
package dispatch

import (
	"log"

	"github.com/devskill-org/microgrid-sim/asset"
)

// missedLoadEpsilon is the tolerance above which residual load is
// recorded as missed, guarding against floating-point noise at an
// exact match.
const missedLoadEpsilon = 1e-6

// Dispatcher owns the fleet and per-step accounting vectors and drives
// the dispatch pipeline one step at a time.
type Dispatcher struct {
	Combustion    []*asset.Combustion
	Renewable     []*asset.Renewable
	NonCombustion []*asset.NonCombustion
	Storage       []*asset.Storage

	LoadReserveRatio  float64 // φ
	FirmDispatchRatio float64 // φ_firm
	CycleCharging     bool

	subset *SubsetTable

	MissedLoadKW    []float64
	MissedFirmKW    []float64
	MissedReserveKW []float64

	dischargedThisStep []bool
}

// New builds a Dispatcher for n steps, pre-computing the combustion
// subset table from the given assets' capacities.
func New(
	combustion []*asset.Combustion,
	renewable []*asset.Renewable,
	nonCombustion []*asset.NonCombustion,
	storage []*asset.Storage,
	n int,
	logger *log.Logger,
) (*Dispatcher, error) {
	capacities := make([]float64, len(combustion))
	for j, c := range combustion {
		capacities[j] = c.CapacityKW
	}
	subset, err := NewSubsetTable(capacities, logger)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		Combustion:         combustion,
		Renewable:          renewable,
		NonCombustion:      nonCombustion,
		Storage:            storage,
		subset:             subset,
		MissedLoadKW:       make([]float64, n),
		MissedFirmKW:       make([]float64, n),
		MissedReserveKW:    make([]float64, n),
		dischargedThisStep: make([]bool, len(storage)),
	}, nil
}

// Step runs the seven-stage dispatch pipeline for step i. renewableSamples
// and inflow must be aligned with d.Renewable and d.NonCombustion
// respectively.
func (d *Dispatcher) Step(i int, dt, load float64, renewableSamples []asset.ResourceSample, inflow []float64) error {
	renewableTotal, reserveNeed, err := d.precomputeRenewables(i, load, renewableSamples)
	if err != nil {
		return err
	}

	residual := load - renewableTotal
	firmNeed := d.FirmDispatchRatio * load

	residual, reserveNeed, firmNeed = d.dispatchNonCombustion(i, dt, residual, reserveNeed, firmNeed, inflow)
	residual, reserveNeed, firmNeed = d.dispatchStorageDischarge(i, dt, residual, reserveNeed, firmNeed)
	residual, reserveNeed, firmNeed = d.dispatchCombustion(i, dt, residual, reserveNeed, firmNeed)

	// Stages 2-4 ran against the load net of renewable production; the
	// renewables now commit against what is left of the gross load.
	residual += renewableTotal
	for _, r := range d.Renewable {
		residual -= r.Commit(i, residual)
	}

	d.chargeStorage(i, dt)

	if residual > missedLoadEpsilon {
		d.MissedLoadKW[i] = residual
	}
	d.MissedFirmKW[i] = firmNeed
	d.MissedReserveKW[i] = reserveNeed

	for j := range d.dischargedThisStep {
		d.dischargedThisStep[j] = false
	}

	return nil
}

// precomputeRenewables is pipeline stage 1.
func (d *Dispatcher) precomputeRenewables(i int, load float64, samples []asset.ResourceSample) (renewableTotal, reserveNeed float64, err error) {
	var firmnessDeficit float64
	for j, r := range d.Renewable {
		p, err := r.ComputeProduction(i, samples[j])
		if err != nil {
			return 0, 0, err
		}
		renewableTotal += p
		firmnessDeficit += (1 - r.FirmnessFactor) * p
	}

	reserveNeed = d.LoadReserveRatio*load + firmnessDeficit
	if reserveNeed > load {
		reserveNeed = load
	}
	return renewableTotal, reserveNeed, nil
}

// dispatchNonCombustion is pipeline stage 2.
func (d *Dispatcher) dispatchNonCombustion(i int, dt, residual, reserveNeed, firmNeed float64, inflow []float64) (float64, float64, float64) {
	available := make([]float64, len(d.NonCombustion))
	var total float64
	for j, n := range d.NonCombustion {
		available[j] = n.Request(dt, n.CapacityKW, inflow[j])
		total += available[j]
	}

	target := minOf(total, maxOf(firmNeed, minOf(residual, total)))
	reserveNeed = nonNegative(reserveNeed - nonNegative(total-target))

	for j, n := range d.NonCombustion {
		share := proportionalShare(available[j], total, target)
		residual = n.Commit(i, dt, share, inflow[j], residual)
	}

	firmNeed = nonNegative(firmNeed - target)
	return residual, reserveNeed, firmNeed
}

// dispatchStorageDischarge is pipeline stage 3.
func (d *Dispatcher) dispatchStorageDischarge(i int, dt, residual, reserveNeed, firmNeed float64) (float64, float64, float64) {
	available := make([]float64, len(d.Storage))
	var total float64
	for j, s := range d.Storage {
		s.BeginStage()
		available[j] = s.AvailableKW(dt)
		total += available[j]
	}

	target := minOf(total, maxOf(firmNeed, minOf(residual, total)))
	reserveNeed = nonNegative(reserveNeed - nonNegative(total-target))

	for j, s := range d.Storage {
		share := proportionalShare(available[j], total, target)
		if share <= 0 {
			continue
		}
		residual = s.CommitDischarge(i, dt, share, residual)
		d.dischargedThisStep[j] = true
	}

	firmNeed = nonNegative(firmNeed - target)
	return residual, reserveNeed, firmNeed
}

// dispatchCombustion is pipeline stage 4.
func (d *Dispatcher) dispatchCombustion(i int, dt, residual, reserveNeed, firmNeed float64) (float64, float64, float64) {
	required := maxOf(residual, maxOf(reserveNeed, firmNeed))
	key, mask := d.subset.Lookup(required)

	target := minOf(key, maxOf(firmNeed, minOf(residual, key)))
	reserveNeed = nonNegative(reserveNeed - nonNegative(key-target))

	anyBatteryAvailableToCharge := false
	for j := range d.Storage {
		if !d.dischargedThisStep[j] {
			anyBatteryAvailableToCharge = true
			break
		}
	}

	for j, c := range d.Combustion {
		running := IsRunning(mask, j)
		var pReq float64
		if running {
			pReq = proportionalShare(c.CapacityKW, key, target)
			if d.CycleCharging && anyBatteryAvailableToCharge && pReq > 0 {
				setpoint := c.CycleChargingSetpoint * c.CapacityKW
				if pReq < setpoint {
					pReq = setpoint
				}
			}
		}
		offer := c.Request(i, pReq)
		residual = c.Commit(i, dt, offer, residual)
	}

	firmNeed = nonNegative(firmNeed - target)
	return residual, reserveNeed, firmNeed
}

// chargeStorage is pipeline stage 6: batteries not discharged this step
// absorb curtailment in the order combustion, non-combustion, renewable.
func (d *Dispatcher) chargeStorage(i int, dt float64) {
	chargeAccum := make([]float64, len(d.Storage))
	for j, s := range d.Storage {
		if d.dischargedThisStep[j] {
			continue
		}
		s.BeginStage()
	}

	absorb := func(out *asset.Output) {
		curtailment := out.CurtailmentKW[i]
		if curtailment <= 0 {
			return
		}
		for j, s := range d.Storage {
			if d.dischargedThisStep[j] || curtailment <= 0 {
				continue
			}
			take := minOf(curtailment, s.AcceptableKW(dt))
			if take <= 0 {
				continue
			}
			s.Reserve(take)
			chargeAccum[j] += take
			curtailment -= take
			out.StorageKW[i] += take
		}
		out.CurtailmentKW[i] = curtailment
	}

	for _, c := range d.Combustion {
		absorb(&c.Output)
	}
	for _, n := range d.NonCombustion {
		absorb(&n.Output)
	}
	for _, r := range d.Renewable {
		absorb(&r.Output)
	}

	for j, s := range d.Storage {
		if d.dischargedThisStep[j] || chargeAccum[j] <= 0 {
			continue
		}
		s.CommitCharge(i, dt, chargeAccum[j])
	}
}

func proportionalShare(available, total, target float64) float64 {
	if total <= 0 {
		return 0
	}
	return available * target / total
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
