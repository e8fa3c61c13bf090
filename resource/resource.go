// Package resource implements the keyed registry of exogenous time series
// (solar irradiance, wind/tidal speed, hydro inflow, wave height/period)
// that renewable and non-combustion assets read from.
package resource

import (
	"github.com/devskill-org/microgrid-sim/errs"
	"github.com/devskill-org/microgrid-sim/grid"
)

// sameInstantTolerance is the floating-point tolerance used to compare a
// registered series' sample instants against the run's time grid.
const sameInstantTolerance = 1e-6

// Store holds per-key exogenous series, each validated against a shared
// time grid at registration. After the run starts, the store is read-only
// and may be shared freely across goroutines each driving their own Model.
type Store struct {
	g        *grid.Grid
	series1D map[string][]float64
	series2D map[string]Series2D
}

// Series2D is a two-parameter-per-step resource series, used for wave
// resources: each step carries both a significant wave height (Hs) and an
// energy period (Te), which together key a 2-D performance table lookup.
type Series2D struct {
	Hs []float64
	Te []float64
}

// NewStore creates an empty Store bound to the run's time grid.
func NewStore(g *grid.Grid) *Store {
	return &Store{
		g:        g,
		series1D: make(map[string][]float64),
		series2D: make(map[string]Series2D),
	}
}

// Register1D stores a scalar exogenous series (solar GHI, tidal/wind
// speed, hydro inflow) under key. times must match the store's time grid
// sample instants within tolerance, and key must not already be
// registered on either dimension.
func (s *Store) Register1D(key string, times, values []float64) error {
	if err := s.checkDuplicate(key); err != nil {
		return err
	}
	if err := s.checkGrid(key, times, len(values)); err != nil {
		return err
	}
	s.series1D[key] = values
	return nil
}

// Register2D stores a two-parameter wave resource series (Hs, Te) under
// key, validated the same way as Register1D.
func (s *Store) Register2D(key string, times, hs, te []float64) error {
	if err := s.checkDuplicate(key); err != nil {
		return err
	}
	if err := s.checkGrid(key, times, len(hs)); err != nil {
		return err
	}
	if len(hs) != len(te) {
		return &errs.GridMismatchError{Key: key, Message: "Hs and Te series must have equal length"}
	}
	s.series2D[key] = Series2D{Hs: hs, Te: te}
	return nil
}

func (s *Store) checkDuplicate(key string) error {
	if _, ok := s.series1D[key]; ok {
		return &errs.GridMismatchError{Key: key, Message: "duplicate resource key"}
	}
	if _, ok := s.series2D[key]; ok {
		return &errs.GridMismatchError{Key: key, Message: "duplicate resource key"}
	}
	return nil
}

func (s *Store) checkGrid(key string, times []float64, valuesLen int) error {
	if len(times) != valuesLen {
		return &errs.GridMismatchError{Key: key, Message: "time and value series length mismatch"}
	}
	if !s.g.SameInstants(times, sameInstantTolerance) {
		return &errs.GridMismatchError{Key: key, Message: "sample instants do not match the electrical load grid"}
	}
	return nil
}

// At1D returns the i'th sample of the 1-D series registered under key.
func (s *Store) At1D(key string, i int) (float64, error) {
	series, ok := s.series1D[key]
	if !ok {
		return 0, &errs.OutOfDomainError{Key: key}
	}
	if i < 0 || i >= len(series) {
		return 0, &errs.OutOfDomainError{Key: key, Value: float64(i)}
	}
	return series[i], nil
}

// At2D returns the i'th (Hs, Te) sample of the wave series registered
// under key.
func (s *Store) At2D(key string, i int) (hs, te float64, err error) {
	series, ok := s.series2D[key]
	if !ok {
		return 0, 0, &errs.OutOfDomainError{Key: key}
	}
	if i < 0 || i >= len(series.Hs) {
		return 0, 0, &errs.OutOfDomainError{Key: key, Value: float64(i)}
	}
	return series.Hs[i], series.Te[i], nil
}
