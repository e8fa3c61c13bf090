package sim

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/devskill-org/microgrid-sim/asset"
	"github.com/devskill-org/microgrid-sim/dispatch"
	"github.com/devskill-org/microgrid-sim/errs"
	"github.com/devskill-org/microgrid-sim/fleet"
	"github.com/devskill-org/microgrid-sim/grid"
	"github.com/devskill-org/microgrid-sim/interp"
	"github.com/devskill-org/microgrid-sim/report"
	"github.com/devskill-org/microgrid-sim/resource"
)

// Model wires a fixed time grid, a resource store, and a fleet of assets
// into one runnable simulation. Assets are added with the Add* methods,
// the electrical load is set with SetLoad, and Run drives the dispatcher
// across every step.
type Model struct {
	Grid      *grid.Grid
	Config    *Config
	Logger    *log.Logger
	Resources *resource.Store
	Load      []float64
	Epoch     time.Time // wall-clock instant of Grid.Times[0], used by the detailed solar model

	Combustion    []*asset.Combustion
	Renewable     []*asset.Renewable
	NonCombustion []*asset.NonCombustion
	Storage       []*asset.Storage

	inflowKeys []string // aligned with NonCombustion, resource key for each reservoir's inflow series

	Dispatcher *dispatch.Dispatcher
	Recorder   *report.Recorder

	// OnStep, if set, is called after each completed step with the
	// 0-based step index and the total step count. Used by webapi to
	// report run progress; nil is a no-op.
	OnStep func(i, n int)
}

// New builds an empty Model over the given time grid (hours since run
// start). A nil config uses DefaultConfig, and a nil logger writes to
// stderr.
func New(times []float64, config *Config, logger *log.Logger) (*Model, error) {
	g, err := grid.New(times)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid config: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "sim: ", log.LstdFlags)
	}

	return &Model{
		Grid:      g,
		Config:    config,
		Logger:    logger,
		Resources: resource.NewStore(g),
	}, nil
}

// NewFromLoadCSV builds a Model whose time grid and electrical load are
// both taken from a two-column load CSV (time [hrs], load [kW]).
func NewFromLoadCSV(path string, config *Config, logger *log.Logger) (*Model, error) {
	times, values, err := resource.LoadCSV1D(path)
	if err != nil {
		return nil, err
	}
	m, err := New(times, config, logger)
	if err != nil {
		return nil, err
	}
	if err := m.SetLoad(values); err != nil {
		return nil, err
	}
	return m, nil
}

// SetLoad assigns the electrical load series, which must be sampled at
// every grid instant.
func (m *Model) SetLoad(load []float64) error {
	if len(load) != m.Grid.Len() {
		return fmt.Errorf("sim: load series length %d does not match grid length %d", len(load), m.Grid.Len())
	}
	m.Load = load
	return nil
}

// AddResource loads a resource CSV and registers it under key. kind is
// "scalar" for solar/tidal/wind/hydro-inflow series, or "wave" for the
// paired Hs/Te wave series.
func (m *Model) AddResource(kind, path, key string) error {
	switch kind {
	case "scalar":
		times, values, err := resource.LoadCSV1D(path)
		if err != nil {
			return err
		}
		return m.Resources.Register1D(key, times, values)
	case "wave":
		times, hs, te, err := resource.LoadWaveCSV(path)
		if err != nil {
			return err
		}
		return m.Resources.Register2D(key, times, hs, te)
	default:
		return &errs.UnknownKindError{Kind: "resource kind: " + kind}
	}
}

// AddDiesel adds a combustion asset built from spec.
func (m *Model) AddDiesel(spec fleet.CombustionSpec) error {
	n := m.Grid.Len()
	c := asset.NewCombustion(spec.Name, spec.CapacityKW, n)
	c.SunkCost = spec.SunkCost
	c.MinLoadRatio = spec.MinLoadRatio
	c.MinRuntimeHrs = spec.MinRuntimeHrs
	c.CycleChargingSetpoint = spec.CycleChargingSetpoint
	c.FuelA = spec.FuelA
	c.FuelB = spec.FuelB
	c.FuelCostPerL = spec.FuelCostPerL
	c.OMCostPerKWh = spec.OMCostPerKWh
	c.OMCostIdlePerHour = spec.OMCostIdlePerHour
	c.Intensities = asset.EmissionIntensities{
		CO2: spec.Intensities.CO2,
		CO:  spec.Intensities.CO,
		NOx: spec.Intensities.NOx,
		SOx: spec.Intensities.SOx,
		CH4: spec.Intensities.CH4,
		PM:  spec.Intensities.PM,
	}
	c.ReplaceRunningHrs = spec.ReplaceRunningHrs
	c.CapitalCost = spec.CapitalCost

	if spec.FuelTablePath != "" {
		x, y, err := interp.LoadTable1DCSV(spec.FuelTablePath)
		if err != nil {
			return fmt.Errorf("diesel %q: %w", spec.Name, err)
		}
		table := interp.New()
		if err := table.Register1D(0, x, y); err != nil {
			return fmt.Errorf("diesel %q: %w", spec.Name, err)
		}
		c.FuelTable = table
		c.FuelKey = 0
	}

	m.Combustion = append(m.Combustion, c)
	m.Logger.Printf("added diesel %q: %g kW", spec.Name, spec.CapacityKW)
	return nil
}

// AddSolar adds a renewable asset defaulted to the simple solar model
// when spec.Model is unset.
func (m *Model) AddSolar(spec fleet.RenewableSpec) error {
	if spec.Model == "" {
		spec.Model = "simple_solar"
	}
	_, err := m.addRenewable(spec)
	return err
}

// AddWind adds a renewable asset defaulted to the exponential wind model
// when spec.Model is unset.
func (m *Model) AddWind(spec fleet.RenewableSpec) error {
	if spec.Model == "" {
		spec.Model = "exponential_wind"
	}
	_, err := m.addRenewable(spec)
	return err
}

// AddTidal adds a renewable asset defaulted to the cubic tidal model
// when spec.Model is unset.
func (m *Model) AddTidal(spec fleet.RenewableSpec) error {
	if spec.Model == "" {
		spec.Model = "cubic_tidal"
	}
	_, err := m.addRenewable(spec)
	return err
}

// AddWave adds a renewable asset using the 2-D wave lookup model; spec
// must carry a LookupTablePath.
func (m *Model) AddWave(spec fleet.RenewableSpec) error {
	spec.Model = "lookup_wave"
	if spec.LookupTablePath == "" {
		return fmt.Errorf("wave asset %q: lookup_table_path is required", spec.Name)
	}
	_, err := m.addRenewable(spec)
	return err
}

func (m *Model) addRenewable(spec fleet.RenewableSpec) (*asset.Renewable, error) {
	modelTag, err := parseRenewableModel(spec.Model)
	if err != nil {
		return nil, err
	}

	n := m.Grid.Len()
	r := asset.NewRenewable(spec.Name, spec.CapacityKW, n)
	r.SunkCost = spec.SunkCost
	r.ResourceKey = spec.ResourceKey
	r.FirmnessFactor = spec.FirmnessFactor
	r.Model = modelTag
	r.Derating = spec.Derating
	r.DesignSpeed = spec.DesignSpeed
	r.Geometry = asset.SolarGeometry{
		Latitude:     spec.Geometry.Latitude,
		Longitude:    spec.Geometry.Longitude,
		TiltDeg:      spec.Geometry.TiltDeg,
		AzimuthDeg:   spec.Geometry.AzimuthDeg,
		GroundAlbedo: spec.Geometry.GroundAlbedo,
	}

	if spec.LookupTablePath != "" {
		table := interp.New()
		if modelTag == asset.ModelLookupWave {
			x, y, z, err := interp.LoadTable2DCSV(spec.LookupTablePath)
			if err != nil {
				return nil, fmt.Errorf("renewable %q: %w", spec.Name, err)
			}
			if err := table.Register2D(0, x, y, z); err != nil {
				return nil, fmt.Errorf("renewable %q: %w", spec.Name, err)
			}
		} else {
			x, y, err := interp.LoadTable1DCSV(spec.LookupTablePath)
			if err != nil {
				return nil, fmt.Errorf("renewable %q: %w", spec.Name, err)
			}
			if err := table.Register1D(0, x, y); err != nil {
				return nil, fmt.Errorf("renewable %q: %w", spec.Name, err)
			}
		}
		r.LookupTable = table
		r.LookupKey = 0
	}

	m.Renewable = append(m.Renewable, r)
	m.Logger.Printf("added renewable %q: %g kW, model %s", spec.Name, spec.CapacityKW, spec.Model)
	return r, nil
}

func parseRenewableModel(s string) (asset.ModelTag, error) {
	switch s {
	case "simple_solar":
		return asset.ModelSimpleSolar, nil
	case "detailed_solar":
		return asset.ModelDetailedSolar, nil
	case "cubic_tidal":
		return asset.ModelCubicTidal, nil
	case "exponential_tidal":
		return asset.ModelExponentialTidal, nil
	case "exponential_wind":
		return asset.ModelExponentialWind, nil
	case "lookup_wind":
		return asset.ModelLookupWind, nil
	case "lookup_tidal":
		return asset.ModelLookupTidal, nil
	case "lookup_wave":
		return asset.ModelLookupWave, nil
	default:
		return 0, &errs.UnknownKindError{Kind: "renewable model: " + s}
	}
}

// AddHydro adds a non-combustion (reservoir) asset built from spec.
func (m *Model) AddHydro(spec fleet.NonCombustionSpec) error {
	n := m.Grid.Len()
	a := asset.NewNonCombustion(spec.Name, spec.CapacityKW, n)
	a.SunkCost = spec.SunkCost
	a.VMax = spec.VMax
	a.InitV = spec.InitV
	a.V = spec.InitV
	a.FlowMin = spec.FlowMin
	a.FlowMax = spec.FlowMax
	a.HeadM = spec.HeadM
	a.Density = spec.Density
	a.Efficiency = spec.Efficiency
	a.TurbineType = spec.TurbineType

	m.NonCombustion = append(m.NonCombustion, a)
	m.inflowKeys = append(m.inflowKeys, spec.InflowKey)
	m.Logger.Printf("added hydro %q: %g kW", spec.Name, spec.CapacityKW)
	return nil
}

// AddLiIon adds a storage asset built from spec.
func (m *Model) AddLiIon(spec fleet.StorageSpec) error {
	n := m.Grid.Len()
	s := asset.NewStorage(spec.Name, spec.CapacityKWh, spec.CapacityKW, n)
	s.SunkCost = spec.SunkCost
	s.PMaxKW = spec.CapacityKW
	s.SOCMin = spec.SOCMin
	s.SOCMax = spec.SOCMax
	s.SOCHyst = spec.SOCHyst
	s.ChargeEff = spec.ChargeEff
	s.DischargeEff = spec.DischargeEff
	s.InitSOC = spec.InitSOC
	s.ReplacementCost = spec.ReplacementCost
	s.Degradation = asset.DegradationParams{
		Alpha:        spec.Degradation.Alpha,
		Beta:         spec.Degradation.Beta,
		BHatCal:      spec.Degradation.BHatCal,
		RCal:         spec.Degradation.RCal,
		EaCal0:       spec.Degradation.EaCal0,
		ACal:         spec.Degradation.ACal,
		SCal:         spec.Degradation.SCal,
		GasConstant:  spec.Degradation.GasConstant,
		TemperatureK: spec.Degradation.TemperatureK,
		ReplaceSOH:   spec.Degradation.ReplaceSOH,
	}
	s.Reset() // seeds C/SOH/EDyn from InitSOC

	m.Storage = append(m.Storage, s)
	m.Logger.Printf("added storage %q: %g kWh / %g kW", spec.Name, spec.CapacityKWh, spec.CapacityKW)
	return nil
}

// LoadFleet adds every asset in manifest.
func (m *Model) LoadFleet(manifest *fleet.Manifest) error {
	for _, spec := range manifest.Combustion {
		if err := m.AddDiesel(spec); err != nil {
			return err
		}
	}
	for _, spec := range manifest.Renewable {
		if _, err := m.addRenewable(spec); err != nil {
			return err
		}
	}
	for _, spec := range manifest.NonCombustion {
		if err := m.AddHydro(spec); err != nil {
			return err
		}
	}
	for _, spec := range manifest.Storage {
		if err := m.AddLiIon(spec); err != nil {
			return err
		}
	}
	return nil
}

// Run builds the dispatcher from the current fleet and drives it across
// every grid step, then builds the Recorder from the results. SetLoad
// must have been called first.
func (m *Model) Run() error {
	n := m.Grid.Len()
	if len(m.Load) != n {
		return fmt.Errorf("sim: load series length %d does not match grid length %d, call SetLoad first", len(m.Load), n)
	}

	d, err := dispatch.New(m.Combustion, m.Renewable, m.NonCombustion, m.Storage, n, m.Logger)
	if err != nil {
		return fmt.Errorf("sim: failed to build dispatcher: %w", err)
	}
	d.LoadReserveRatio = m.Config.LoadReserveRatio
	d.FirmDispatchRatio = m.Config.FirmDispatchRatio
	d.CycleCharging = m.Config.CycleCharging
	m.Dispatcher = d

	samples := make([]asset.ResourceSample, len(m.Renewable))
	inflow := make([]float64, len(m.NonCombustion))

	for i := 0; i < n; i++ {
		for j, r := range m.Renewable {
			s, err := m.sampleRenewable(r, i)
			if err != nil {
				return fmt.Errorf("sim: step %d: %w", i, err)
			}
			samples[j] = s
		}
		for j := range m.NonCombustion {
			v, err := m.Resources.At1D(m.inflowKeys[j], i)
			if err != nil {
				return fmt.Errorf("sim: step %d: %w", i, err)
			}
			inflow[j] = v
		}

		if err := d.Step(i, m.Grid.Dt[i], m.Load[i], samples, inflow); err != nil {
			return fmt.Errorf("sim: step %d: %w", i, err)
		}
		if m.OnStep != nil {
			m.OnStep(i, n)
		}
	}

	m.buildRecorder(d)
	return nil
}

func (m *Model) sampleRenewable(r *asset.Renewable, i int) (asset.ResourceSample, error) {
	if r.Model == asset.ModelLookupWave {
		hs, te, err := m.Resources.At2D(r.ResourceKey, i)
		if err != nil {
			return asset.ResourceSample{}, err
		}
		return asset.ResourceSample{Hs: hs, Te: te}, nil
	}

	v, err := m.Resources.At1D(r.ResourceKey, i)
	if err != nil {
		return asset.ResourceSample{}, err
	}
	sample := asset.ResourceSample{Scalar: v}
	if r.Model == asset.ModelDetailedSolar {
		sample.Time = m.Epoch.Add(time.Duration(m.Grid.Times[i] * float64(time.Hour)))
	}
	return sample, nil
}

func (m *Model) buildRecorder(d *dispatch.Dispatcher) {
	rec := report.NewRecorder(m.Grid)
	rec.Missed = report.MissedAccounting{
		LoadKW:    d.MissedLoadKW,
		FirmKW:    d.MissedFirmKW,
		ReserveKW: d.MissedReserveKW,
	}

	for idx, c := range m.Combustion {
		rec.Add(report.AssetRecord{
			Kind: asset.KindCombustion, Name: c.Name, CapacityKW: c.CapacityKW,
			Index: idx, SunkCost: c.SunkCost, Output: &c.Output,
			Extra: report.ExtraColumnsFor(asset.KindCombustion, c),
		})
	}
	for idx, r := range m.Renewable {
		rec.Add(report.AssetRecord{
			Kind: asset.KindRenewable, Name: r.Name, CapacityKW: r.CapacityKW,
			Index: idx, SunkCost: r.SunkCost, Output: &r.Output,
			Extra: report.ExtraColumnsFor(asset.KindRenewable, r),
		})
	}
	for idx, n := range m.NonCombustion {
		rec.Add(report.AssetRecord{
			Kind: asset.KindNonCombustion, Name: n.Name, CapacityKW: n.CapacityKW,
			Index: idx, SunkCost: n.SunkCost, Output: &n.Output,
			Extra: report.ExtraColumnsFor(asset.KindNonCombustion, n),
		})
	}
	for idx, s := range m.Storage {
		rec.Add(report.AssetRecord{
			Kind: asset.KindStorage, Name: s.Name, CapacityKW: s.CapacityKW,
			Index: idx, SunkCost: s.SunkCost, Output: &s.Output,
			Extra: report.ExtraColumnsFor(asset.KindStorage, s),
		})
	}

	m.Recorder = rec
}

// WriteResults persists the last Run's results under path. maxLines is
// forwarded to report.Recorder.WriteResults.
func (m *Model) WriteResults(path string, maxLines int) error {
	if m.Recorder == nil {
		return fmt.Errorf("sim: no results to write, call Run first")
	}
	return m.Recorder.WriteResults(path, maxLines)
}

// Reset restores every asset to its step-0 state, ready to Run again.
func (m *Model) Reset() {
	for _, c := range m.Combustion {
		c.Reset()
	}
	for _, r := range m.Renewable {
		r.Reset()
	}
	for _, n := range m.NonCombustion {
		n.Reset()
	}
	for _, s := range m.Storage {
		s.Reset()
	}
	m.Dispatcher = nil
	m.Recorder = nil
}

// Clear empties the fleet entirely, leaving the grid and resources intact.
func (m *Model) Clear() {
	m.Combustion = nil
	m.Renewable = nil
	m.NonCombustion = nil
	m.Storage = nil
	m.inflowKeys = nil
	m.Dispatcher = nil
	m.Recorder = nil
}
