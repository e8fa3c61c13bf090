package asset

import "math"

// DegradationParams carries the calendar/cycling-aging coefficients for
// a Storage asset's degradation kinetics. Values are per-battery
// configuration, not fixed constants.
type DegradationParams struct {
	Alpha        float64 // acceleration coefficient α
	Beta         float64 // acceleration exponent β
	BHatCal      float64 // B̂, pre-exponential calendar factor, 1/sqrt(hr)
	RCal         float64 // r_cal
	EaCal0       float64 // E_a0, J/mol
	ACal         float64 // a_cal, J/mol
	SCal         float64 // s_cal
	GasConstant  float64 // R, J/(mol·K)
	TemperatureK float64 // T, K
	ReplaceSOH   float64 // replace when SOH falls to or below this
}

// step advances SOH by one commit given the instantaneous C-rate and
// SOC, returning the updated SOH.
func (d DegradationParams) step(soh, soc, cRate, dt float64) float64 {
	accel := 1 + d.Alpha*math.Pow(math.Abs(cRate), d.Beta)
	bCal := d.BHatCal * math.Exp(d.RCal*soc)
	eaCal := d.EaCal0 - d.ACal*(math.Exp(d.SCal*soc)-1)
	dsohdt := accel * bCal * bCal * math.Exp(-2*eaCal/(d.GasConstant*d.TemperatureK)) / (2 * soh)
	soh -= dsohdt * dt
	if soh < 0 {
		soh = 0
	}
	return soh
}
