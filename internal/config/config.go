// Package config assembles the run configuration from built-in
// defaults, an optional YAML file, and command-line overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults carried over from the original plugin deployment.
const (
	DefaultDiagTool  = "/usr/lunapci/bin/lunadiag"
	DefaultSlot      = 1
	DefaultTimeLimit = 3 * time.Second
)

// Config is the immutable run configuration handed to the engine.
type Config struct {
	DiagTool       string
	Slot           int
	TimeLimit      time.Duration
	ProbeIDs       []int // empty means the whole catalog
	StorageWarnPct float64
	StorageCritPct float64
	HistoryPath    string // empty disables the verdict history
}

// Error reports an invalid configuration. It is fatal before any probe
// runs and the CLI maps it to the UNKNOWN verdict.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Setting, e.Reason)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DiagTool:       DefaultDiagTool,
		Slot:           DefaultSlot,
		TimeLimit:      DefaultTimeLimit,
		StorageWarnPct: 85.0,
		StorageCritPct: 95.0,
	}
}

type fileConfig struct {
	DiagTool         string  `yaml:"diag_tool"`
	Slot             int     `yaml:"slot"`
	TimeLimitSeconds int     `yaml:"time_limit_seconds"`
	Probes           []int   `yaml:"probes"`
	StorageWarnPct   float64 `yaml:"storage_warn_pct"`
	StorageCritPct   float64 `yaml:"storage_crit_pct"`
	HistoryPath      string  `yaml:"history_path"`
}

// Load reads a YAML configuration file and overlays it on the
// defaults. Absent keys keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg := Default()
	if fc.DiagTool != "" {
		cfg.DiagTool = fc.DiagTool
	}
	if fc.Slot != 0 {
		cfg.Slot = fc.Slot
	}
	if fc.TimeLimitSeconds != 0 {
		cfg.TimeLimit = time.Duration(fc.TimeLimitSeconds) * time.Second
	}
	if len(fc.Probes) != 0 {
		cfg.ProbeIDs = fc.Probes
	}
	if fc.StorageWarnPct != 0 {
		cfg.StorageWarnPct = fc.StorageWarnPct
	}
	if fc.StorageCritPct != 0 {
		cfg.StorageCritPct = fc.StorageCritPct
	}
	if fc.HistoryPath != "" {
		cfg.HistoryPath = fc.HistoryPath
	}
	return cfg, nil
}

// Validate checks the configuration invariants that do not depend on
// the catalog. Unknown probe ids are caught by the engine before any
// process is spawned.
func (c *Config) Validate() error {
	if c.DiagTool == "" {
		return &Error{Setting: "diag_tool", Reason: "must not be empty"}
	}
	if c.Slot < 1 {
		return &Error{Setting: "slot", Reason: fmt.Sprintf("must be >= 1, got %d", c.Slot)}
	}
	if c.TimeLimit <= 0 {
		return &Error{Setting: "time_limit_seconds", Reason: "must be > 0"}
	}
	if c.StorageWarnPct <= 0 || c.StorageCritPct <= 0 {
		return &Error{Setting: "storage thresholds", Reason: "must be > 0"}
	}
	if c.StorageCritPct < c.StorageWarnPct {
		return &Error{
			Setting: "storage thresholds",
			Reason: fmt.Sprintf("critical %.1f%% below warning %.1f%%",
				c.StorageCritPct, c.StorageWarnPct),
		}
	}
	seen := make(map[int]bool, len(c.ProbeIDs))
	for _, id := range c.ProbeIDs {
		if seen[id] {
			return &Error{Setting: "probes", Reason: fmt.Sprintf("duplicate probe id %d", id)}
		}
		seen[id] = true
	}
	return nil
}
