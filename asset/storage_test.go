package asset

import (
	"math"
	"testing"
)

func TestStorage_DepletedHysteresis(t *testing.T) {
	// Init SOC 0.5, SOC_min 0.15, SOC_hyst 0.5. Discharge to SOC 0.14:
	// is_depleted latches true. Subsequent charge to SOC 0.49 must still
	// report available_kW = 0; on reaching SOC 0.50 the latch clears.
	s := NewStorage("battery", 100, 50, 20)
	s.PMaxKW = 50
	s.SOCMin = 0.15
	s.SOCMax = 1
	s.SOCHyst = 0.5
	s.ChargeEff = 1
	s.DischargeEff = 1
	s.InitSOC = 0.5
	s.Degradation = DegradationParams{Alpha: 0, Beta: 1, GasConstant: 1, TemperatureK: 1, ReplaceSOH: 0}
	s.Reset()

	// Discharge 36 kWh over 1h: SOC 0.5 -> 0.14.
	load := s.CommitDischarge(0, 1, 36, 36)
	if load != 0 {
		t.Fatalf("residual load = %v, want 0", load)
	}
	if math.Abs(s.soc()-0.14) > 1e-9 {
		t.Fatalf("SOC after discharge = %v, want 0.14", s.soc())
	}
	if !s.isDepleted {
		t.Fatalf("expected is_depleted latched true at SOC 0.14")
	}
	s.BeginStage()
	if got := s.AvailableKW(1); got != 0 {
		t.Errorf("AvailableKW while depleted = %v, want 0", got)
	}

	// Charge 35 kWh: SOC 0.14 -> 0.49, still depleted.
	s.BeginStage()
	s.CommitCharge(1, 1, 35)
	if math.Abs(s.soc()-0.49) > 1e-9 {
		t.Fatalf("SOC after charge = %v, want 0.49", s.soc())
	}
	if !s.isDepleted {
		t.Fatalf("expected is_depleted still latched at SOC 0.49")
	}
	s.BeginStage()
	if got := s.AvailableKW(1); got != 0 {
		t.Errorf("AvailableKW at SOC 0.49 = %v, want 0", got)
	}

	// Charge 1 more kWh: SOC 0.49 -> 0.50, latch clears.
	s.BeginStage()
	s.CommitCharge(2, 1, 1)
	if !(math.Abs(s.soc()-0.50) < 1e-9) {
		t.Fatalf("SOC after charge = %v, want 0.50", s.soc())
	}
	if s.isDepleted {
		t.Errorf("expected is_depleted to clear at SOC 0.50")
	}
}

func TestStorage_ChargeClampedToEDyn(t *testing.T) {
	s := NewStorage("battery", 10, 10, 1)
	s.PMaxKW = 10
	s.SOCMax = 1
	s.ChargeEff = 1
	s.DischargeEff = 1
	s.Degradation = DegradationParams{Alpha: 0, Beta: 1, GasConstant: 1, TemperatureK: 1, ReplaceSOH: 0}
	s.Reset()
	s.C = 9

	s.CommitCharge(0, 1, 5)
	if s.C > s.EDyn {
		t.Errorf("C = %v exceeds EDyn = %v", s.C, s.EDyn)
	}
}
