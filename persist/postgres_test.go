package persist

import (
	"context"
	"os"
	"testing"

	"github.com/devskill-org/microgrid-sim/asset"
	"github.com/devskill-org/microgrid-sim/grid"
	"github.com/devskill-org/microgrid-sim/report"
)

func TestStore_SaveSummariesAndTimeSeries_RoundTrip(t *testing.T) {
	connString := os.Getenv("TEST_POSTGRES_CONN")
	if connString == "" {
		t.Skip("Skipping test: TEST_POSTGRES_CONN not set")
	}

	s, err := Open(connString)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	g, err := grid.New([]float64{0, 1, 2})
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}

	out := asset.NewOutput(3)
	out.ProductionKW = []float64{100, 100, 0}
	out.DispatchKW = []float64{100, 100, 0}
	out.IsRunning = []bool{true, true, false}

	rec := report.NewRecorder(g)
	rec.Add(report.AssetRecord{Kind: asset.KindCombustion, Name: "diesel-1", CapacityKW: 100, Index: 0, Output: &out})

	ctx := context.Background()
	runID := "test-run-1"

	if err := s.SaveSummaries(ctx, runID, rec); err != nil {
		t.Fatalf("SaveSummaries failed: %v", err)
	}
	if err := s.SaveTimeSeries(ctx, runID, rec); err != nil {
		t.Fatalf("SaveTimeSeries failed: %v", err)
	}

	var productionKWh float64
	err = s.db.QueryRowContext(ctx, `SELECT production_kwh FROM run_summaries WHERE run_id = $1 AND asset_index = 0`, runID).Scan(&productionKWh)
	if err != nil {
		t.Fatalf("failed to query summary row: %v", err)
	}
	if productionKWh != 200 {
		t.Errorf("production_kwh = %v, want 200", productionKWh)
	}

	var rowCount int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_timeseries WHERE run_id = $1`, runID).Scan(&rowCount)
	if err != nil {
		t.Fatalf("failed to count time series rows: %v", err)
	}
	if rowCount != 3 {
		t.Errorf("time series row count = %d, want 3", rowCount)
	}

	// Re-saving the same run must replace, not duplicate, rows.
	if err := s.SaveSummaries(ctx, runID, rec); err != nil {
		t.Fatalf("second SaveSummaries failed: %v", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_summaries WHERE run_id = $1`, runID).Scan(&rowCount)
	if err != nil {
		t.Fatalf("failed to count summary rows: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("summary row count after re-save = %d, want 1", rowCount)
	}
}
