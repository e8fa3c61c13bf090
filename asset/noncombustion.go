package asset

const (
	gravity        = 9.81   // m/s^2
	waterDensity   = 1000.0 // kg/m^3, default fluid density
	hoursToSeconds = 3600.0
)

// NonCombustion is a hydro-like dispatchable producer with reservoir
// state: it chooses a turbine flow to approximate a requested power,
// subject to flow bounds and the water actually available in the
// reservoir this step.
type NonCombustion struct {
	Identity

	VMax        float64 // m^3
	V           float64 // m^3, current stored volume
	FlowMin     float64 // m^3/hr
	FlowMax     float64 // m^3/hr
	HeadM       float64 // net head, m
	Density     float64 // kg/m^3; defaults to waterDensity if zero
	Efficiency  float64 // turbine efficiency η
	TurbineType string

	InitV float64 // reservoir volume restored on Reset

	TurbineFlow  []float64 // m^3/hr
	SpillRate    []float64 // m^3/hr
	StoredVolume []float64 // m^3
}

// NewNonCombustion allocates a NonCombustion asset and its per-step
// vectors for n steps.
func NewNonCombustion(name string, capacityKW float64, n int) *NonCombustion {
	return &NonCombustion{
		Identity:     Identity{Name: name, CapacityKW: capacityKW, Output: NewOutput(n)},
		TurbineFlow:  make([]float64, n),
		SpillRate:    make([]float64, n),
		StoredVolume: make([]float64, n),
	}
}

// Reset restores the reservoir to its initial volume and zeroes the
// output vectors.
func (n *NonCombustion) Reset() {
	n.Output.Reset()
	for i := range n.TurbineFlow {
		n.TurbineFlow[i] = 0
		n.SpillRate[i] = 0
		n.StoredVolume[i] = 0
	}
	n.V = n.InitV
}

func (n *NonCombustion) density() float64 {
	if n.Density <= 0 {
		return waterDensity
	}
	return n.Density
}

// Request returns the power this asset would offer toward P_req over a
// step of length dt with the given inflow rate, by choosing the turbine flow that
// gets closest to P_req subject to flow and reservoir bounds.
func (n *NonCombustion) Request(dt, pReq, inflow float64) float64 {
	if pReq <= 0 {
		return 0
	}
	flow := n.clampFlow(n.flowForPower(pReq), dt, inflow)
	return n.powerForFlow(flow)
}

// Commit applies power p at step i, recomputing the turbine flow needed
// to deliver it (clamped identically to Request, since the dispatcher
// may have allocated a different power than what was offered), updates
// the reservoir, and records the dispatch/curtailment split.
func (n *NonCombustion) Commit(i int, dt, p, inflow, load float64) float64 {
	flow := n.clampFlow(n.flowForPower(p), dt, inflow)
	actualP := n.powerForFlow(flow)

	newV := n.V + (inflow-flow)*dt
	spill := 0.0
	if newV > n.VMax {
		spill = (newV - n.VMax) / dt
		newV = n.VMax
	}
	if newV < 0 {
		newV = 0
	}
	n.V = newV

	n.TurbineFlow[i] = flow
	n.SpillRate[i] = spill
	n.StoredVolume[i] = n.V

	n.Output.IsRunning[i] = flow > 0
	dispatch := n.Output.recordSplit(i, actualP, load)
	n.Output.StorageKW[i] = 0
	return load - dispatch
}

// flowForPower inverts P = η·ρ·g·Q·H/1000 (Q in m^3/s) for Q, then
// converts to m^3/hr.
func (n *NonCombustion) flowForPower(p float64) float64 {
	if p <= 0 || n.HeadM <= 0 || n.Efficiency <= 0 {
		return 0
	}
	qM3s := p * 1000 / (n.Efficiency * n.density() * gravity * n.HeadM)
	return qM3s * hoursToSeconds
}

// powerForFlow evaluates P = η·ρ·g·Q·H/1000 for a flow given in m^3/hr.
func (n *NonCombustion) powerForFlow(flowM3hr float64) float64 {
	if flowM3hr <= 0 {
		return 0
	}
	qM3s := flowM3hr / hoursToSeconds
	return n.Efficiency * n.density() * gravity * qM3s * n.HeadM / 1000
}

// clampFlow bounds a desired flow to [FlowMin, FlowMax] and to what the
// reservoir can actually sustain this step without going negative.
func (n *NonCombustion) clampFlow(flow, dt, inflow float64) float64 {
	if flow <= 0 {
		return 0
	}
	available := n.V/dt + inflow
	hi := n.FlowMax
	if available < hi {
		hi = available
	}
	if hi < n.FlowMin {
		return 0
	}
	return clamp(flow, n.FlowMin, hi)
}
