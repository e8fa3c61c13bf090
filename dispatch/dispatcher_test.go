package dispatch

import (
	"testing"

	"github.com/devskill-org/microgrid-sim/asset"
)

func TestDispatcher_S5_EvenSplitAcrossEqualDiesels(t *testing.T) {
	// Two 150 kW diesels, load 200, dt 1h: required capacity 200 selects
	// the 300 kW (both-running) key, each diesel dispatches 100 kW.
	c1 := asset.NewCombustion("diesel-1", 150, 1)
	c2 := asset.NewCombustion("diesel-2", 150, 1)

	d, err := New([]*asset.Combustion{c1, c2}, nil, nil, nil, 1, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := d.Step(0, 1, 200, nil, nil); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if got := c1.Output.ProductionKW[0]; got != 100 {
		t.Errorf("diesel-1 production = %v, want 100", got)
	}
	if got := c2.Output.ProductionKW[0]; got != 100 {
		t.Errorf("diesel-2 production = %v, want 100", got)
	}
	if got := d.MissedLoadKW[0]; got != 0 {
		t.Errorf("missed_load = %v, want 0", got)
	}
}

func TestDispatcher_S6_CycleChargingRaisesToSetpoint(t *testing.T) {
	// Two 150 kW diesels with a 0.6 cycle-charging setpoint (90 kW).
	// Forcing reserveNeed=300 selects the dual-unit 300 kW key even
	// though the dispatch target is only 100 kW; cycle charging then
	// raises each diesel's naive 50 kW share to the 90 kW setpoint.
	c1 := asset.NewCombustion("diesel-1", 150, 1)
	c1.CycleChargingSetpoint = 0.6
	c2 := asset.NewCombustion("diesel-2", 150, 1)
	c2.CycleChargingSetpoint = 0.6

	battery := asset.NewStorage("battery", 100, 50, 1)

	d, err := New([]*asset.Combustion{c1, c2}, nil, nil, []*asset.Storage{battery}, 1, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.CycleCharging = true

	residual, reserveNeed, firmNeed := d.dispatchCombustion(0, 1, 100, 300, 0)

	if got := c1.Output.ProductionKW[0]; got != 90 {
		t.Errorf("diesel-1 production = %v, want 90 (cycle-charging setpoint)", got)
	}
	if got := c2.Output.ProductionKW[0]; got != 90 {
		t.Errorf("diesel-2 production = %v, want 90 (cycle-charging setpoint)", got)
	}
	if residual != 0 {
		t.Errorf("residual = %v, want 0", residual)
	}
	if reserveNeed != 0 {
		t.Errorf("reserveNeed = %v, want 0 (180 kW of selected capacity covers it)", reserveNeed)
	}
	if firmNeed != 0 {
		t.Errorf("firmNeed = %v, want 0", firmNeed)
	}
}

func TestDispatcher_S7_ReserveMissedWhenNoHeadroom(t *testing.T) {
	// One 300 kW diesel, load 500, load_reserve_ratio 0.1: required
	// reserve is 50 kW, but the diesel runs flat out to serve load and
	// has zero spare headroom, so all 50 kW of reserve is missed.
	diesel := asset.NewCombustion("diesel", 300, 1)

	d, err := New([]*asset.Combustion{diesel}, nil, nil, nil, 1, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.LoadReserveRatio = 0.1

	if err := d.Step(0, 1, 500, nil, nil); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if got := diesel.Output.ProductionKW[0]; got != 300 {
		t.Errorf("diesel production = %v, want 300", got)
	}
	if got := d.MissedLoadKW[0]; got != 200 {
		t.Errorf("missed_load = %v, want 200", got)
	}
	if got := d.MissedReserveKW[0]; got != 50 {
		t.Errorf("missed_reserve = %v, want 50 (no headroom left after serving load)", got)
	}
	if got := d.MissedFirmKW[0]; got != 0 {
		t.Errorf("missed_firm = %v, want 0", got)
	}
}

func TestDispatcher_MissedAccountingNeverNegative(t *testing.T) {
	// Ample combustion capacity relative to load: nothing should be
	// missed, and none of the three missed-* vectors may go negative.
	diesel := asset.NewCombustion("diesel", 1000, 1)

	d, err := New([]*asset.Combustion{diesel}, nil, nil, nil, 1, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.LoadReserveRatio = 0.2
	d.FirmDispatchRatio = 0.1

	if err := d.Step(0, 1, 100, nil, nil); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if d.MissedLoadKW[0] < 0 {
		t.Errorf("missed_load = %v, must be >= 0", d.MissedLoadKW[0])
	}
	if d.MissedFirmKW[0] < 0 {
		t.Errorf("missed_firm = %v, must be >= 0", d.MissedFirmKW[0])
	}
	if d.MissedReserveKW[0] < 0 {
		t.Errorf("missed_reserve = %v, must be >= 0", d.MissedReserveKW[0])
	}
	if d.MissedLoadKW[0] != 0 {
		t.Errorf("missed_load = %v, want 0 (ample capacity)", d.MissedLoadKW[0])
	}
}

func TestDispatcher_StorageDischargeNeverLeavesNegativeResidual(t *testing.T) {
	// Invariant 5: load' = load - dispatched >= 0 after commit_discharge.
	battery := asset.NewStorage("battery", 100, 80, 1)
	battery.PMaxKW = 80
	battery.SOCMin = 0
	battery.SOCMax = 1
	battery.ChargeEff = 1
	battery.DischargeEff = 1
	battery.InitSOC = 1
	battery.Reset()

	d, err := New(nil, nil, nil, []*asset.Storage{battery}, 1, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := d.Step(0, 1, 30, nil, nil); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if got := battery.Output.DispatchKW[0]; got != 30 {
		t.Errorf("battery dispatch = %v, want 30", got)
	}
	if d.MissedLoadKW[0] != 0 {
		t.Errorf("missed_load = %v, want 0", d.MissedLoadKW[0])
	}
}

func TestDispatcher_FullFleetSmoke(t *testing.T) {
	// One step exercising all four asset families together through the
	// full seven-stage pipeline.
	diesel := asset.NewCombustion("diesel", 200, 1)

	solar := asset.NewRenewable("solar", 50, 1)
	solar.Model = asset.ModelSimpleSolar
	solar.Derating = 1
	solar.FirmnessFactor = 0

	hydro := asset.NewNonCombustion("hydro", 40, 1)
	hydro.HeadM = 20
	hydro.Efficiency = 0.9
	hydro.FlowMax = 1e6
	hydro.VMax = 1e6
	hydro.InitV = 1e6
	hydro.V = 1e6

	battery := asset.NewStorage("battery", 100, 50, 1)
	battery.SOCMin = 0.1
	battery.SOCMax = 1
	battery.SOCHyst = 0.5
	battery.ChargeEff = 0.95
	battery.DischargeEff = 0.95
	battery.InitSOC = 0.2

	d, err := New(
		[]*asset.Combustion{diesel},
		[]*asset.Renewable{solar},
		[]*asset.NonCombustion{hydro},
		[]*asset.Storage{battery},
		1, nil,
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	battery.Reset()
	hydro.Reset()

	samples := []asset.ResourceSample{{Scalar: 800}}
	inflow := []float64{0}

	if err := d.Step(0, 1, 250, samples, inflow); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	total := solar.Output.DispatchKW[0] + hydro.Output.DispatchKW[0] +
		battery.Output.DispatchKW[0] + diesel.Output.ProductionKW[0]
	if total+d.MissedLoadKW[0] < 250-1e-6 || total+d.MissedLoadKW[0] > 250+1e-6 {
		t.Errorf("dispatched+missed = %v, want 250 (load balance)", total+d.MissedLoadKW[0])
	}
}
