package asset

// Storage is a battery asset with SOC bounds, charge/discharge
// efficiency, a depleted-state hysteresis latch, and degradation
// kinetics that age its usable capacity over time.
type Storage struct {
	Identity

	EMaxKWh         float64
	PMaxKW          float64
	SOCMin          float64
	SOCMax          float64
	SOCHyst         float64
	ChargeEff       float64 // η_c
	DischargeEff    float64 // η_d
	InitSOC         float64
	ReplacementCost float64
	Degradation     DegradationParams

	C          float64 // current charge, kWh
	SOH        float64
	EDyn       float64 // SOH * EMaxKWh
	isDepleted bool
	staged     float64 // power already committed this stage

	SOC       []float64
	SOHSeries []float64
}

// NewStorage allocates a Storage asset and its per-step vectors for n
// steps.
func NewStorage(name string, capacityKWh, capacityKW float64, n int) *Storage {
	return &Storage{
		Identity:  Identity{Name: name, CapacityKW: capacityKW, Output: NewOutput(n)},
		EMaxKWh:   capacityKWh,
		SOC:       make([]float64, n),
		SOHSeries: make([]float64, n),
	}
}

// Reset restores the battery to its initial SOC and SOH and zeroes the
// output vectors.
func (s *Storage) Reset() {
	s.Output.Reset()
	for i := range s.SOC {
		s.SOC[i] = 0
		s.SOHSeries[i] = 0
	}
	s.SOH = 1
	s.EDyn = s.EMaxKWh
	s.C = s.InitSOC * s.EMaxKWh
	s.isDepleted = false
	s.staged = 0
}

// BeginStage clears the per-step staged-power accumulator; the
// dispatcher calls this once before each stage (discharge, then
// charge) that may query this asset more than once.
func (s *Storage) BeginStage() {
	s.staged = 0
}

// Reserve stages power p against this step's headroom without
// committing it, so a later AvailableKW/AcceptableKW call in the same
// stage reflects it. Used while accumulating charge from multiple
// curtailing producers before a single CommitCharge.
func (s *Storage) Reserve(p float64) {
	s.staged += p
}

func (s *Storage) soc() float64 {
	return s.C / s.EMaxKWh
}

// AvailableKW returns the power this battery can deliver this step,
// zero while depleted.
func (s *Storage) AvailableKW(dt float64) float64 {
	if s.isDepleted {
		return 0
	}
	headroom := s.PMaxKW - s.staged
	if headroom <= 0 {
		return 0
	}
	v := (s.C - s.SOCMin*s.EMaxKWh) * s.DischargeEff / dt
	return clamp(v, 0, headroom)
}

// AcceptableKW returns the power this battery can accept this step.
func (s *Storage) AcceptableKW(dt float64) float64 {
	headroom := s.PMaxKW - s.staged
	if headroom <= 0 {
		return 0
	}
	socCap := s.SOCMax
	if socCap > 1 {
		socCap = 1
	}
	v := (s.EDyn*socCap - s.C) / (s.ChargeEff * dt)
	return clamp(v, 0, headroom)
}

// CommitCharge applies charge power pIn at step i, updating charge
// level, the depleted latch, and degradation.
func (s *Storage) CommitCharge(i int, dt, pIn float64) {
	s.staged += pIn
	s.C = clamp(s.C+s.ChargeEff*pIn*dt, 0, s.EDyn)

	if s.soc() >= s.SOCHyst {
		s.isDepleted = false
	}

	s.applyDegradation(i, pIn, dt)

	s.Output.ProductionKW[i] = pIn
	s.Output.DispatchKW[i] = 0
	s.Output.CurtailmentKW[i] = 0
	s.Output.StorageKW[i] = pIn
	s.Output.IsRunning[i] = pIn > 0
	s.SOC[i] = s.soc()
	s.SOHSeries[i] = s.SOH
}

// CommitDischarge applies discharge power pOut at step i against load,
// returning the residual load, and symmetrically updates charge level,
// the depleted latch, and degradation.
func (s *Storage) CommitDischarge(i int, dt, pOut, load float64) (loadPrime float64) {
	s.staged += pOut
	s.C = clamp(s.C-pOut*dt/s.DischargeEff, 0, s.EDyn)

	if s.soc() <= s.SOCMin {
		s.isDepleted = true
	}

	s.applyDegradation(i, pOut, dt)

	dispatch := s.Output.recordSplit(i, pOut, load)
	s.Output.StorageKW[i] = 0
	s.Output.IsRunning[i] = pOut > 0
	s.SOC[i] = s.soc()
	s.SOHSeries[i] = s.SOH
	return load - dispatch
}

func (s *Storage) applyDegradation(i int, p, dt float64) {
	if s.PMaxKW <= 0 {
		return
	}
	cRate := p / s.PMaxKW
	s.SOH = s.Degradation.step(s.SOH, s.soc(), cRate, dt)
	s.EDyn = s.SOH * s.EMaxKWh

	if s.SOH <= s.Degradation.ReplaceSOH {
		s.SOH = 1
		s.EDyn = s.EMaxKWh
		s.C = s.InitSOC * s.EMaxKWh
		s.isDepleted = false
		s.Output.CapitalCostKW[i] += s.ReplacementCost
	}
}
