// Package sim exposes the public dispatch-simulation API: Config for the
// run's runtime knobs and Model for building a fleet and executing it.
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Config holds the runtime knobs for a simulation run: dispatch ratios,
// numeric tolerances, reporting, and the optional Postgres/web surfaces.
// The asset fleet itself is not part of Config — see the fleet package.
type Config struct {
	LoadReserveRatio  float64 `json:"load_reserve_ratio"`  // φ, fraction of load held as spinning reserve
	FirmDispatchRatio float64 `json:"firm_dispatch_ratio"` // φ_firm, fraction of load required from firm capacity
	CycleCharging     bool    `json:"cycle_charging"`      // raise combustion dispatch to the cycle-charging setpoint when batteries can absorb it

	FloatTolerance float64 `json:"float_tolerance"` // validated to be > 0; the resource store compares instants with its own fixed 1e-6 and does not read this field

	ResultsDir     string `json:"results_dir"`
	ReportMaxLines int    `json:"report_max_lines"` // < 0 all rows, 0 summary only, > 0 truncate

	PostgresConnString string `json:"postgres_conn_string"` // empty disables the optional Postgres sink

	HealthCheckPort           int           `json:"health_check_port"`           // validated range 0-65535; not read: the web API runs only under -serve, on -port
	ProgressBroadcastInterval time.Duration `json:"progress_broadcast_interval"` // validated to be > 0; not read: the websocket stream pushes once a second
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LoadReserveRatio:          0.1,
		FirmDispatchRatio:         0.0,
		CycleCharging:             false,
		FloatTolerance:            1e-6,
		ResultsDir:                "./results",
		ReportMaxLines:            -1,
		PostgresConnString:        "",
		HealthCheckPort:           0,
		ProgressBroadcastInterval: 5 * time.Second,
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file.
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	return c.SaveConfigToWriter(file)
}

// SaveConfigToWriter saves the configuration to an io.Writer.
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.LoadReserveRatio < 0 || c.LoadReserveRatio > 1 {
		return fmt.Errorf("load_reserve_ratio must be between 0 and 1, got: %f", c.LoadReserveRatio)
	}

	if c.FirmDispatchRatio < 0 || c.FirmDispatchRatio > 1 {
		return fmt.Errorf("firm_dispatch_ratio must be between 0 and 1, got: %f", c.FirmDispatchRatio)
	}

	if c.FloatTolerance <= 0 {
		return fmt.Errorf("float_tolerance must be greater than 0, got: %f", c.FloatTolerance)
	}

	if c.ResultsDir == "" {
		return fmt.Errorf("results_dir cannot be empty")
	}

	if c.HealthCheckPort < 0 || c.HealthCheckPort > 65535 {
		return fmt.Errorf("health_check_port must be between 0 and 65535, got: %d", c.HealthCheckPort)
	}

	if c.ProgressBroadcastInterval <= 0 {
		return fmt.Errorf("progress_broadcast_interval must be greater than 0, got: %s", c.ProgressBroadcastInterval)
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling to handle durations.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		ProgressBroadcastInterval string `json:"progress_broadcast_interval"`
	}{
		Alias:                     (*Alias)(c),
		ProgressBroadcastInterval: c.ProgressBroadcastInterval.String(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling to handle durations.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		ProgressBroadcastInterval string `json:"progress_broadcast_interval"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.ProgressBroadcastInterval != "" {
		d, err := time.ParseDuration(aux.ProgressBroadcastInterval)
		if err != nil {
			return fmt.Errorf("invalid progress_broadcast_interval: %w", err)
		}
		c.ProgressBroadcastInterval = d
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
