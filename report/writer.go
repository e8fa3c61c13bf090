package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/devskill-org/microgrid-sim/asset"
)

// WriteResults persists every asset record under root, one directory
// per asset: <TYPE>_<kW>kW_idx<n>/summary_results.md and
// time_series_results.csv. maxLines < 0 writes every row, 0 writes the
// summary only, and a positive value truncates the time series to that
// many rows.
func (r *Recorder) WriteResults(root string, maxLines int) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory %q: %w", root, err)
	}

	for _, rec := range r.Assets {
		dir := filepath.Join(root, assetDirName(rec))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create asset results directory %q: %w", dir, err)
		}

		if err := r.writeSummary(dir, rec); err != nil {
			return err
		}

		if maxLines != 0 {
			if err := r.writeTimeSeries(dir, rec, maxLines); err != nil {
				return err
			}
		}
	}

	return nil
}

func assetDirName(rec AssetRecord) string {
	return fmt.Sprintf("%s_%gkW_idx%d", strings.ToUpper(rec.Kind.String()), rec.CapacityKW, rec.Index)
}

func (r *Recorder) writeSummary(dir string, rec AssetRecord) error {
	f, err := os.Create(filepath.Join(dir, "summary_results.md"))
	if err != nil {
		return fmt.Errorf("failed to create summary_results.md: %w", err)
	}
	defer f.Close()

	s := r.Summarize(rec)

	fmt.Fprintf(f, "# %s\n\n", rec.Name)
	fmt.Fprintln(f, "## ATTRIBUTES")
	fmt.Fprintln(f, "--------------------------------------------------")
	fmt.Fprintf(f, "Kind:                  %s\n", rec.Kind)
	fmt.Fprintf(f, "Capacity:              %g kW\n", rec.CapacityKW)
	fmt.Fprintf(f, "Sunk cost:             %v\n", rec.SunkCost)
	fmt.Fprintln(f)
	fmt.Fprintln(f, "## AGGREGATES")
	fmt.Fprintln(f, "--------------------------------------------------")
	fmt.Fprintf(f, "Total production:      %.3f kWh\n", s.TotalProductionKWh)
	fmt.Fprintf(f, "Total dispatch:        %.3f kWh\n", s.TotalDispatchKWh)
	fmt.Fprintf(f, "Total storage:         %.3f kWh\n", s.TotalStorageKWh)
	fmt.Fprintf(f, "Total curtailment:     %.3f kWh\n", s.TotalCurtailmentKWh)
	fmt.Fprintf(f, "Running hours:         %.3f h\n", s.RunningHours)
	fmt.Fprintf(f, "Capacity factor:       %.4f\n", s.CapacityFactor)
	fmt.Fprintf(f, "Starts (capital cost): %d\n", s.Starts)
	fmt.Fprintf(f, "Total fuel cost:       %.2f EUR\n", s.TotalFuelCostEUR)
	fmt.Fprintf(f, "Total O&M cost:        %.2f EUR\n", s.TotalOMCostEUR)
	fmt.Fprintf(f, "Total capital cost:    %.2f EUR\n", s.TotalCapitalCostEUR)

	return nil
}

func (r *Recorder) writeTimeSeries(dir string, rec AssetRecord, maxLines int) error {
	f, err := os.Create(filepath.Join(dir, "time_series_results.csv"))
	if err != nil {
		return fmt.Errorf("failed to create time_series_results.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"t_hours", "production_kW", "dispatch_kW", "storage_kW", "curtailment_kW", "is_running"}
	for _, col := range rec.Extra {
		header = append(header, col.Header)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write time series header: %w", err)
	}

	n := len(r.Grid.Times)
	if maxLines > 0 && maxLines < n {
		n = maxLines
	}

	out := rec.Output
	row := make([]string, len(header))
	for i := 0; i < n; i++ {
		row[0] = strconv.FormatFloat(r.Grid.Times[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(out.ProductionKW[i], 'g', -1, 64)
		row[2] = strconv.FormatFloat(out.DispatchKW[i], 'g', -1, 64)
		row[3] = strconv.FormatFloat(out.StorageKW[i], 'g', -1, 64)
		row[4] = strconv.FormatFloat(out.CurtailmentKW[i], 'g', -1, 64)
		row[5] = strconv.FormatBool(out.IsRunning[i])
		for j, col := range rec.Extra {
			row[6+j] = strconv.FormatFloat(col.Values[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write time series row %d: %w", i, err)
		}
	}

	return nil
}

// ExtraColumnsFor builds the per-kind extra columns a given asset
// instance contributes to its time-series CSV.
func ExtraColumnsFor(kind asset.Kind, a any) []ExtraColumn {
	switch v := a.(type) {
	case *asset.Combustion:
		return []ExtraColumn{{Header: "fuel_liters", Values: v.FuelLitersKW}}
	case *asset.Storage:
		return []ExtraColumn{
			{Header: "soc", Values: v.SOC},
			{Header: "soh", Values: v.SOHSeries},
		}
	case *asset.NonCombustion:
		return []ExtraColumn{
			{Header: "turbine_flow_m3hr", Values: v.TurbineFlow},
			{Header: "spill_rate_m3hr", Values: v.SpillRate},
			{Header: "stored_volume_m3", Values: v.StoredVolume},
		}
	default:
		return nil
	}
}
