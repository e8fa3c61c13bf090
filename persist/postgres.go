// Package persist writes completed run summaries and time-series rows to
// an optional Postgres sink, activated when sim.Config.PostgresConnString
// is set.
package persist

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/devskill-org/microgrid-sim/report"
)

// Store wraps a Postgres connection pool for run persistence.
type Store struct {
	db *sql.DB
}

// Open connects to the Postgres instance at connString and verifies the
// schema exists, creating it if necessary.
func Open(connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("persist: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_summaries (
			run_id        TEXT NOT NULL,
			asset_kind    TEXT NOT NULL,
			asset_name    TEXT NOT NULL,
			asset_index   INTEGER NOT NULL,
			capacity_kw   DOUBLE PRECISION NOT NULL,
			production_kwh     DOUBLE PRECISION NOT NULL,
			dispatch_kwh       DOUBLE PRECISION NOT NULL,
			storage_kwh        DOUBLE PRECISION NOT NULL,
			curtailment_kwh    DOUBLE PRECISION NOT NULL,
			running_hours      DOUBLE PRECISION NOT NULL,
			capacity_factor    DOUBLE PRECISION NOT NULL,
			starts             INTEGER NOT NULL,
			fuel_cost_eur      DOUBLE PRECISION NOT NULL,
			om_cost_eur        DOUBLE PRECISION NOT NULL,
			capital_cost_eur   DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, asset_kind, asset_index)
		)
	`)
	if err != nil {
		return fmt.Errorf("persist: failed to create run_summaries table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_timeseries (
			run_id        TEXT NOT NULL,
			asset_kind    TEXT NOT NULL,
			asset_index   INTEGER NOT NULL,
			t_hours       DOUBLE PRECISION NOT NULL,
			production_kw   DOUBLE PRECISION NOT NULL,
			dispatch_kw     DOUBLE PRECISION NOT NULL,
			storage_kw      DOUBLE PRECISION NOT NULL,
			curtailment_kw  DOUBLE PRECISION NOT NULL,
			is_running      BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, asset_kind, asset_index, t_hours)
		)
	`)
	if err != nil {
		return fmt.Errorf("persist: failed to create run_timeseries table: %w", err)
	}
	return nil
}

// SaveSummaries upserts one row per asset record's Summary for runID,
// replacing any existing rows for that run.
func (s *Store) SaveSummaries(ctx context.Context, runID string, rec *report.Recorder) error {
	if len(rec.Assets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_summaries WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("persist: failed to clear existing summaries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_summaries (
			run_id, asset_kind, asset_name, asset_index, capacity_kw,
			production_kwh, dispatch_kwh, storage_kwh, curtailment_kwh,
			running_hours, capacity_factor, starts,
			fuel_cost_eur, om_cost_eur, capital_cost_eur
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (run_id, asset_kind, asset_index) DO UPDATE SET
			asset_name = EXCLUDED.asset_name,
			capacity_kw = EXCLUDED.capacity_kw,
			production_kwh = EXCLUDED.production_kwh,
			dispatch_kwh = EXCLUDED.dispatch_kwh,
			storage_kwh = EXCLUDED.storage_kwh,
			curtailment_kwh = EXCLUDED.curtailment_kwh,
			running_hours = EXCLUDED.running_hours,
			capacity_factor = EXCLUDED.capacity_factor,
			starts = EXCLUDED.starts,
			fuel_cost_eur = EXCLUDED.fuel_cost_eur,
			om_cost_eur = EXCLUDED.om_cost_eur,
			capital_cost_eur = EXCLUDED.capital_cost_eur
	`)
	if err != nil {
		return fmt.Errorf("persist: failed to prepare summary upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range rec.Assets {
		sum := rec.Summarize(a)
		_, err := stmt.ExecContext(ctx,
			runID, a.Kind.String(), a.Name, a.Index, a.CapacityKW,
			sum.TotalProductionKWh, sum.TotalDispatchKWh, sum.TotalStorageKWh, sum.TotalCurtailmentKWh,
			sum.RunningHours, sum.CapacityFactor, sum.Starts,
			sum.TotalFuelCostEUR, sum.TotalOMCostEUR, sum.TotalCapitalCostEUR,
		)
		if err != nil {
			return fmt.Errorf("persist: failed to insert summary for asset %q: %w", a.Name, err)
		}
	}

	return tx.Commit()
}

// SaveTimeSeries upserts the per-step output rows for every asset record
// in rec, replacing any existing rows for that run.
func (s *Store) SaveTimeSeries(ctx context.Context, runID string, rec *report.Recorder) error {
	if len(rec.Assets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_timeseries WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("persist: failed to clear existing time series: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_timeseries (
			run_id, asset_kind, asset_index, t_hours,
			production_kw, dispatch_kw, storage_kw, curtailment_kw, is_running
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id, asset_kind, asset_index, t_hours) DO UPDATE SET
			production_kw = EXCLUDED.production_kw,
			dispatch_kw = EXCLUDED.dispatch_kw,
			storage_kw = EXCLUDED.storage_kw,
			curtailment_kw = EXCLUDED.curtailment_kw,
			is_running = EXCLUDED.is_running
	`)
	if err != nil {
		return fmt.Errorf("persist: failed to prepare time series upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range rec.Assets {
		out := a.Output
		for i, t := range rec.Grid.Times {
			_, err := stmt.ExecContext(ctx,
				runID, a.Kind.String(), a.Index, t,
				out.ProductionKW[i], out.DispatchKW[i], out.StorageKW[i], out.CurtailmentKW[i], out.IsRunning[i],
			)
			if err != nil {
				return fmt.Errorf("persist: failed to insert time series row %d for asset %q: %w", i, a.Name, err)
			}
		}
	}

	return tx.Commit()
}
