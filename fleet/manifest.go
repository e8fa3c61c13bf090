// Package fleet decodes the YAML asset-fleet manifest: the declarative
// list of combustion, renewable, non-combustion, and storage assets a
// run is built from, independent of the runtime Config in sim.
package fleet

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level YAML document: one list per asset family.
type Manifest struct {
	Combustion    []CombustionSpec    `yaml:"combustion"`
	Renewable     []RenewableSpec     `yaml:"renewable"`
	NonCombustion []NonCombustionSpec `yaml:"non_combustion"`
	Storage       []StorageSpec       `yaml:"storage"`
}

// CombustionSpec mirrors the configurable fields of asset.Combustion.
type CombustionSpec struct {
	Name                  string  `yaml:"name"`
	CapacityKW            float64 `yaml:"capacity_kw"`
	MinLoadRatio          float64 `yaml:"min_load_ratio"`
	MinRuntimeHrs         float64 `yaml:"min_runtime_hrs"`
	CycleChargingSetpoint float64 `yaml:"cycle_charging_setpoint"`
	FuelA                 float64 `yaml:"fuel_a"`
	FuelB                 float64 `yaml:"fuel_b"`
	FuelTablePath         string  `yaml:"fuel_table_path"`
	FuelCostPerL          float64 `yaml:"fuel_cost_per_l"`
	OMCostPerKWh          float64 `yaml:"om_cost_per_kwh"`
	OMCostIdlePerHour     float64 `yaml:"om_cost_idle_per_hour"`
	Intensities           struct {
		CO2 float64 `yaml:"co2"`
		CO  float64 `yaml:"co"`
		NOx float64 `yaml:"nox"`
		SOx float64 `yaml:"sox"`
		CH4 float64 `yaml:"ch4"`
		PM  float64 `yaml:"pm"`
	} `yaml:"intensities"`
	ReplaceRunningHrs float64 `yaml:"replace_running_hrs"`
	CapitalCost       float64 `yaml:"capital_cost"`
	SunkCost          bool    `yaml:"sunk_cost"`
}

// RenewableSpec mirrors the configurable fields of asset.Renewable.
type RenewableSpec struct {
	Name           string  `yaml:"name"`
	CapacityKW     float64 `yaml:"capacity_kw"`
	ResourceKey    string  `yaml:"resource_key"`
	FirmnessFactor float64 `yaml:"firmness_factor"`
	Model          string  `yaml:"model"` // "simple_solar", "detailed_solar", "cubic_tidal", "exponential_tidal", "exponential_wind", "lookup_wind", "lookup_tidal", "lookup_wave"
	Derating       float64 `yaml:"derating"`
	DesignSpeed    float64 `yaml:"design_speed"`
	Geometry       struct {
		Latitude     float64 `yaml:"latitude"`
		Longitude    float64 `yaml:"longitude"`
		TiltDeg      float64 `yaml:"tilt_deg"`
		AzimuthDeg   float64 `yaml:"azimuth_deg"`
		GroundAlbedo float64 `yaml:"ground_albedo"`
	} `yaml:"geometry"`
	LookupTablePath string `yaml:"lookup_table_path"`
	SunkCost        bool   `yaml:"sunk_cost"`
}

// NonCombustionSpec mirrors the configurable fields of asset.NonCombustion.
type NonCombustionSpec struct {
	Name        string  `yaml:"name"`
	CapacityKW  float64 `yaml:"capacity_kw"`
	VMax        float64 `yaml:"v_max"`
	InitV       float64 `yaml:"init_v"`
	FlowMin     float64 `yaml:"flow_min"`
	FlowMax     float64 `yaml:"flow_max"`
	HeadM       float64 `yaml:"head_m"`
	Density     float64 `yaml:"density"`
	Efficiency  float64 `yaml:"efficiency"`
	TurbineType string  `yaml:"turbine_type"`
	InflowKey   string  `yaml:"inflow_key"`
	SunkCost    bool    `yaml:"sunk_cost"`
}

// StorageSpec mirrors the configurable fields of asset.Storage and its
// embedded asset.DegradationParams.
type StorageSpec struct {
	Name            string  `yaml:"name"`
	CapacityKWh     float64 `yaml:"capacity_kwh"`
	CapacityKW      float64 `yaml:"capacity_kw"`
	SOCMin          float64 `yaml:"soc_min"`
	SOCMax          float64 `yaml:"soc_max"`
	SOCHyst         float64 `yaml:"soc_hyst"`
	ChargeEff       float64 `yaml:"charge_eff"`
	DischargeEff    float64 `yaml:"discharge_eff"`
	InitSOC         float64 `yaml:"init_soc"`
	ReplacementCost float64 `yaml:"replacement_cost"`
	SunkCost        bool    `yaml:"sunk_cost"`
	Degradation     struct {
		Alpha        float64 `yaml:"alpha"`
		Beta         float64 `yaml:"beta"`
		BHatCal      float64 `yaml:"b_hat_cal"`
		RCal         float64 `yaml:"r_cal"`
		EaCal0       float64 `yaml:"ea_cal0"`
		ACal         float64 `yaml:"a_cal"`
		SCal         float64 `yaml:"s_cal"`
		GasConstant  float64 `yaml:"gas_constant"`
		TemperatureK float64 `yaml:"temperature_k"`
		ReplaceSOH   float64 `yaml:"replace_soh"`
	} `yaml:"degradation"`
}

// Load reads and decodes a fleet manifest from path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fleet manifest: %w", err)
	}
	defer f.Close()

	return LoadFromReader(f)
}

// LoadFromReader decodes a fleet manifest from r.
func LoadFromReader(r io.Reader) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode fleet manifest YAML: %w", err)
	}
	return &m, nil
}

// Save writes the manifest to path as YAML.
func (m *Manifest) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create fleet manifest: %w", err)
	}
	defer f.Close()
	return m.SaveToWriter(f)
}

// SaveToWriter encodes the manifest as YAML to w.
func (m *Manifest) SaveToWriter(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode fleet manifest YAML: %w", err)
	}
	return nil
}
