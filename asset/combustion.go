package asset

import (
	"github.com/devskill-org/microgrid-sim/interp"
)

// EmissionIntensities holds the six emission species tracked per litre of
// fuel burned, in kg/L.
type EmissionIntensities struct {
	CO2 float64
	CO  float64
	NOx float64
	SOx float64
	CH4 float64
	PM  float64
}

// Emissions is the per-step struct-of-arrays for each tracked species, kg.
type Emissions struct {
	CO2 []float64
	CO  []float64
	NOx []float64
	SOx []float64
	CH4 []float64
	PM  []float64
}

func newEmissions(n int) Emissions {
	return Emissions{
		CO2: make([]float64, n),
		CO:  make([]float64, n),
		NOx: make([]float64, n),
		SOx: make([]float64, n),
		CH4: make([]float64, n),
		PM:  make([]float64, n),
	}
}

// Combustion is a fuel-burning generator: linear or table fuel law,
// minimum load ratio, minimum runtime commitment, and emissions
// accounting.
type Combustion struct {
	Identity

	MinLoadRatio          float64   // ρ_min ∈ [0,1]
	MinRuntimeHrs         float64   // τ_min ≥ 0
	CycleChargingSetpoint float64   // fraction of capacity
	Override              []float64 // optional normalised series, production[i] = Override[i]*Capacity

	// Fuel law: either linear (FuelA·P + FuelB·C)·Δt, or a lookup table
	// keyed on load ratio P/C when FuelTable is non-nil.
	FuelA     float64
	FuelB     float64
	FuelTable *interp.Interpolator
	FuelKey   int

	FuelCostPerL      float64
	OMCostPerKWh      float64
	OMCostIdlePerHour float64
	Intensities       EmissionIntensities

	ReplaceRunningHrs float64
	CapitalCost       float64

	FuelLitersKW []float64 // per-step litres consumed
	Em           Emissions

	// Mutable state, reset at step 0 and on replacement.
	isRunning         bool
	runtimeSinceStart float64
	runningHours      float64
	startCount        int
}

// NewCombustion allocates a Combustion asset and its per-step vectors for
// n steps.
func NewCombustion(name string, capacityKW float64, n int) *Combustion {
	return &Combustion{
		Identity:     Identity{Name: name, CapacityKW: capacityKW, Output: NewOutput(n)},
		FuelLitersKW: make([]float64, n),
		Em:           newEmissions(n),
	}
}

// Reset returns the asset to its step-0 state: off, zero accumulators,
// zeroed output vectors.
func (c *Combustion) Reset() {
	c.Output.Reset()
	for i := range c.FuelLitersKW {
		c.FuelLitersKW[i] = 0
	}
	c.isRunning = false
	c.runtimeSinceStart = 0
	c.runningHours = 0
	c.startCount = 0
}

// IsRunning reports the current on/off state.
func (c *Combustion) IsRunning() bool { return c.isRunning }

// Request returns the power this asset would offer toward P_req at step
// i, clamped to [MinLoadRatio·Capacity, Capacity], or zero if P_req <= 0.
// If an override series is configured, it returns Override[i]*Capacity
// unconditionally, bypassing those constraints.
func (c *Combustion) Request(i int, pReq float64) float64 {
	if c.Override != nil {
		return c.Override[i] * c.CapacityKW
	}
	if pReq <= 0 {
		return 0
	}
	offer := pReq
	min := c.MinLoadRatio * c.CapacityKW
	if offer < min {
		offer = min
	}
	if offer > c.CapacityKW {
		offer = c.CapacityKW
	}
	return offer
}

// Commit applies power P at step i against load, advances the on/off
// state machine, accrues fuel/emissions/O&M costs, and returns the
// residual load after this asset's dispatch.
func (c *Combustion) Commit(i int, dt, p, load float64) float64 {
	c.advanceState(dt, p)

	if c.isRunning {
		c.runningHours += dt
		if c.ReplaceRunningHrs > 0 && c.runningHours >= c.ReplaceRunningHrs {
			c.replace(i)
		}
	}

	c.Output.IsRunning[i] = c.isRunning
	dispatch := c.Output.recordSplit(i, p, load)
	c.Output.StorageKW[i] = 0

	liters := c.fuelLiters(p, dt)
	c.FuelLitersKW[i] = liters
	c.Em.CO2[i] = liters * c.Intensities.CO2
	c.Em.CO[i] = liters * c.Intensities.CO
	c.Em.NOx[i] = liters * c.Intensities.NOx
	c.Em.SOx[i] = liters * c.Intensities.SOx
	c.Em.CH4[i] = liters * c.Intensities.CH4
	c.Em.PM[i] = liters * c.Intensities.PM

	c.Output.FuelCostKW[i] = liters * c.FuelCostPerL
	if c.isRunning {
		if p > 0 {
			c.Output.OMCostKW[i] = p * dt * c.OMCostPerKWh
		} else {
			c.Output.OMCostKW[i] = c.OMCostIdlePerHour * dt
		}
	}

	return load - dispatch
}

// advanceState runs the Off->On / On->Off transitions: a positive commit
// starts the unit (resetting the since-start runtime clock); a zero
// commit stops it only once the minimum runtime has elapsed.
func (c *Combustion) advanceState(dt, p float64) {
	if p > 0 && !c.isRunning {
		c.isRunning = true
		c.runtimeSinceStart = 0
		c.startCount++
	} else if p <= 0 && c.isRunning && c.runtimeSinceStart >= c.MinRuntimeHrs {
		c.isRunning = false
	}

	if c.isRunning {
		c.runtimeSinceStart += dt
	}
}

func (c *Combustion) fuelLiters(p, dt float64) float64 {
	if p <= 0 {
		return 0
	}
	if c.FuelTable != nil {
		ratio := p / c.CapacityKW
		litersPerHr, err := c.FuelTable.Interp1D(c.FuelKey, ratio)
		if err != nil {
			return 0
		}
		return litersPerHr * dt
	}
	return (c.FuelA*p + c.FuelB*c.CapacityKW) * dt
}

func (c *Combustion) replace(i int) {
	c.runningHours = 0
	c.startCount = 0
	c.Output.CapitalCostKW[i] += c.CapitalCost
}
