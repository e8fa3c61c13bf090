package sim

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/devskill-org/microgrid-sim/fleet"
)

func writeCSV(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestModel_EndToEnd_DieselOnly(t *testing.T) {
	dir := t.TempDir()
	loadPath := writeCSV(t, dir, "load.csv", "t_hours,load_kw\n0,100\n1,100\n2,100\n")

	m, err := NewFromLoadCSV(loadPath, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFromLoadCSV failed: %v", err)
	}

	if err := m.AddDiesel(fleet.CombustionSpec{Name: "diesel-1", CapacityKW: 200}); err != nil {
		t.Fatalf("AddDiesel failed: %v", err)
	}

	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, v := range m.Dispatcher.MissedLoadKW {
		if v > 1e-6 {
			t.Errorf("MissedLoadKW[%d] = %v, want 0", i, v)
		}
	}

	s := m.Recorder.Summarize(m.Recorder.Assets[0])
	if math.Abs(s.TotalProductionKWh-300) > 1e-6 {
		t.Errorf("total production = %v, want 300", s.TotalProductionKWh)
	}

	resultsDir := filepath.Join(dir, "results")
	if err := m.WriteResults(resultsDir, -1); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(resultsDir, "COMBUSTION_200kW_idx0", "summary_results.md")); err != nil {
		t.Errorf("summary_results.md not written: %v", err)
	}
}

func TestModel_SolarOffsetsDieselDispatch(t *testing.T) {
	dir := t.TempDir()
	loadPath := writeCSV(t, dir, "load.csv", "t_hours,load_kw\n0,100\n1,100\n")
	ghiPath := writeCSV(t, dir, "ghi.csv", "t_hours,ghi_kw_m2\n0,0\n1,1\n")

	m, err := NewFromLoadCSV(loadPath, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFromLoadCSV failed: %v", err)
	}
	if err := m.AddResource("scalar", ghiPath, "ghi"); err != nil {
		t.Fatalf("AddResource failed: %v", err)
	}
	if err := m.AddSolar(fleet.RenewableSpec{Name: "solar-1", CapacityKW: 50, ResourceKey: "ghi", Derating: 1}); err != nil {
		t.Fatalf("AddSolar failed: %v", err)
	}
	if err := m.AddDiesel(fleet.CombustionSpec{Name: "diesel-1", CapacityKW: 200}); err != nil {
		t.Fatalf("AddDiesel failed: %v", err)
	}

	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	diesel := m.Combustion[0]
	if diesel.Output.ProductionKW[0] != 100 {
		t.Errorf("step 0 diesel production = %v, want 100 (no solar)", diesel.Output.ProductionKW[0])
	}
	if diesel.Output.ProductionKW[1] != 50 {
		t.Errorf("step 1 diesel production = %v, want 50 (50kW of solar covering the rest)", diesel.Output.ProductionKW[1])
	}

	solar := m.Renewable[0]
	if solar.Output.ProductionKW[1] != 50 {
		t.Errorf("step 1 solar production = %v, want 50 (capped at capacity)", solar.Output.ProductionKW[1])
	}
}

func TestModel_Reset_RestoresStepZeroState(t *testing.T) {
	dir := t.TempDir()
	loadPath := writeCSV(t, dir, "load.csv", "t_hours,load_kw\n0,50\n1,50\n")

	m, err := NewFromLoadCSV(loadPath, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFromLoadCSV failed: %v", err)
	}
	if err := m.AddLiIon(fleet.StorageSpec{
		Name: "battery-1", CapacityKWh: 100, CapacityKW: 50,
		SOCMin: 0, SOCMax: 1, ChargeEff: 1, DischargeEff: 1, InitSOC: 1,
	}); err != nil {
		t.Fatalf("AddLiIon failed: %v", err)
	}

	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	battery := m.Storage[0]
	if battery.SOC[1] >= 1 {
		t.Fatalf("expected the battery to have discharged by step 1, SOC = %v", battery.SOC[1])
	}

	m.Reset()
	if battery.SOC[0] != 0 || battery.SOC[1] != 0 {
		t.Errorf("Reset should zero the per-step SOC series, got %v", battery.SOC)
	}
	if m.Recorder != nil {
		t.Errorf("Reset should clear the recorder")
	}
}
