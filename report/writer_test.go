package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devskill-org/microgrid-sim/asset"
	"github.com/devskill-org/microgrid-sim/grid"
)

func TestRecorder_WriteResults_SummaryAndTimeSeries(t *testing.T) {
	g, err := grid.New([]float64{0, 1, 2})
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}

	out := asset.NewOutput(3)
	out.ProductionKW = []float64{100, 100, 0}
	out.DispatchKW = []float64{100, 80, 0}
	out.CurtailmentKW = []float64{0, 20, 0}
	out.IsRunning = []bool{true, true, false}

	rec := NewRecorder(g)
	rec.Add(AssetRecord{Kind: asset.KindCombustion, Name: "diesel-1", CapacityKW: 100, Index: 0, Output: &out})
	rec.Missed = MissedAccounting{
		LoadKW:    []float64{0, 0, 0},
		FirmKW:    []float64{0, 0, 0},
		ReserveKW: []float64{0, 0, 0},
	}

	dir := t.TempDir()
	if err := rec.WriteResults(dir, -1); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}

	assetDir := filepath.Join(dir, "COMBUSTION_100kW_idx0")
	if _, err := os.Stat(filepath.Join(assetDir, "summary_results.md")); err != nil {
		t.Errorf("summary_results.md not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(assetDir, "time_series_results.csv")); err != nil {
		t.Errorf("time_series_results.csv not written: %v", err)
	}

	s := rec.Summarize(rec.Assets[0])
	if s.TotalProductionKWh != 200 {
		t.Errorf("total production = %v, want 200", s.TotalProductionKWh)
	}
	if s.RunningHours != 2 {
		t.Errorf("running hours = %v, want 2", s.RunningHours)
	}
}

func TestRecorder_WriteResults_SummaryOnlySkipsTimeSeries(t *testing.T) {
	g, err := grid.New([]float64{0, 1})
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}

	out := asset.NewOutput(2)
	rec := NewRecorder(g)
	rec.Add(AssetRecord{Kind: asset.KindStorage, Name: "battery-1", CapacityKW: 50, Index: 0, Output: &out})

	dir := t.TempDir()
	if err := rec.WriteResults(dir, 0); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}

	assetDir := filepath.Join(dir, "STORAGE_50kW_idx0")
	if _, err := os.Stat(filepath.Join(assetDir, "time_series_results.csv")); !os.IsNotExist(err) {
		t.Errorf("time_series_results.csv should not exist for maxLines=0, got err=%v", err)
	}
}
