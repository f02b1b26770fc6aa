package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the structural parameters of a simulation run: trace
// path, fetch width, and the sizing of the renaming/scheduling
// resources. Only FetchWidth, SchedQPerFU, NumPRegs, NumALU, NumMUL
// and NumLSU are restricted to the domains the CLI allows; TracePath
// only has to be non-empty, and MissesEnabled is unrestricted.
type Config struct {
	TracePath     string `yaml:"tracePath"`
	FetchWidth    int    `yaml:"fetchWidth"`
	SchedQPerFU   int    `yaml:"schedQPerFU"`
	NumPRegs      int    `yaml:"numPRegs"`
	NumALU        int    `yaml:"numALU"`
	NumMUL        int    `yaml:"numMUL"`
	NumLSU        int    `yaml:"numLSU"`
	MissesEnabled bool   `yaml:"missesEnabled"`
}

// NumROBEntries is the reorder buffer capacity implied by NumPRegs:
// the 32 architectural registers plus the P renaming registers.
func (c *Config) NumROBEntries() int {
	return 32 + c.NumPRegs
}

// LoadConfig loads a baseline configuration from a YAML file. It is
// intended to be layered underneath explicit CLI flags: callers load
// a baseline with LoadConfig, then overwrite whichever fields the
// user passed on the command line.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against the domains the
// simulator's structural resources are allowed to take.
func Validate(cfg *Config) error {
	if cfg.TracePath == "" {
		return fmt.Errorf("trace path must be provided")
	}

	if !oneOf(cfg.FetchWidth, 2, 4, 8) {
		return fmt.Errorf("invalid fetch width: %d", cfg.FetchWidth)
	}
	if !oneOf(cfg.SchedQPerFU, 2, 4, 8) {
		return fmt.Errorf("invalid schedq-per-fu: %d", cfg.SchedQPerFU)
	}
	if !oneOf(cfg.NumPRegs, 64, 96, 128) {
		return fmt.Errorf("invalid number of physical registers: %d", cfg.NumPRegs)
	}
	if !oneOf(cfg.NumALU, 1, 2, 3) {
		return fmt.Errorf("invalid number of ALU FUs: %d", cfg.NumALU)
	}
	if !oneOf(cfg.NumMUL, 1, 2) {
		return fmt.Errorf("invalid number of MUL FUs: %d", cfg.NumMUL)
	}
	if !oneOf(cfg.NumLSU, 1, 2, 3) {
		return fmt.Errorf("invalid number of LSU FUs: %d", cfg.NumLSU)
	}

	return nil
}

func oneOf(v int, choices ...int) bool {
	for _, c := range choices {
		if v == c {
			return true
		}
	}
	return false
}

// DefaultConfig returns the simulator's built-in default configuration,
// matching the original driver's hardcoded defaults.
func DefaultConfig() *Config {
	return &Config{
		FetchWidth:    2,
		SchedQPerFU:   2,
		NumPRegs:      64,
		NumALU:        2,
		NumMUL:        1,
		NumLSU:        2,
		MissesEnabled: true,
	}
}
