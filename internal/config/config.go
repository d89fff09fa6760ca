package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alexanderramin/slotwise/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// PlanningConfig tunes slot search and duration resolution.
type PlanningConfig struct {
	HorizonDays        int    `yaml:"horizon_days"`
	ProbeStepMin       int    `yaml:"probe_step_min"`
	MaxProbes          int    `yaml:"max_probes"`
	BracketPolicy      string `yaml:"bracket_policy"`
	AllowRotation      bool   `yaml:"allow_rotation"`
	IncludeSetupFinish bool   `yaml:"include_setup_finish"`
}

// Config holds all runtime configuration for slotwise.
type Config struct {
	DBPath      string         `yaml:"db_path"`
	Timezone    string         `yaml:"timezone"`
	LogUseCases bool           `yaml:"log_use_cases"`
	Planning    PlanningConfig `yaml:"planning"`
}

// DefaultConfig returns the built-in defaults. DBPath is left empty and
// resolved against the home directory by LoadConfig.
func DefaultConfig() Config {
	return Config{
		Timezone: "Local",
		Planning: PlanningConfig{
			HorizonDays:   30,
			ProbeStepMin:  30,
			MaxProbes:     100,
			BracketPolicy: string(scheduler.BracketSmallestFit),
		},
	}
}

// LoadConfig starts from defaults, overlays the YAML file named by
// SLOTWISE_CONFIG (if any) and then SLOTWISE_* environment variables.
// Invalid values are ignored and the previous value kept.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("SLOTWISE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".slotwise", "slotwise.db")
	}
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	fileCfg := *c
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	*c = fileCfg
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SLOTWISE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SLOTWISE_TZ"); v != "" {
		if _, err := time.LoadLocation(v); err == nil {
			c.Timezone = v
		}
	}
	if v := os.Getenv("SLOTWISE_LOG_USE_CASES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogUseCases = b
		}
	}
	applyIntEnv(&c.Planning.HorizonDays, "SLOTWISE_HORIZON_DAYS")
	applyIntEnv(&c.Planning.ProbeStepMin, "SLOTWISE_PROBE_STEP_MIN")
	applyIntEnv(&c.Planning.MaxProbes, "SLOTWISE_MAX_PROBES")
	if v := os.Getenv("SLOTWISE_BRACKET_POLICY"); v != "" && scheduler.ValidBracketPolicies[scheduler.BracketPolicy(v)] {
		c.Planning.BracketPolicy = v
	}
	if v := os.Getenv("SLOTWISE_ALLOW_ROTATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Planning.AllowRotation = b
		}
	}
	if v := os.Getenv("SLOTWISE_INCLUDE_SETUP_FINISH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Planning.IncludeSetupFinish = b
		}
	}
}

// sanitize restores defaults for values a config file set out of range.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Planning.HorizonDays <= 0 {
		c.Planning.HorizonDays = def.Planning.HorizonDays
	}
	if c.Planning.ProbeStepMin <= 0 {
		c.Planning.ProbeStepMin = def.Planning.ProbeStepMin
	}
	if c.Planning.MaxProbes <= 0 {
		c.Planning.MaxProbes = def.Planning.MaxProbes
	}
	if !scheduler.ValidBracketPolicies[scheduler.BracketPolicy(c.Planning.BracketPolicy)] {
		c.Planning.BracketPolicy = def.Planning.BracketPolicy
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		c.Timezone = def.Timezone
	}
}

func applyIntEnv(dst *int, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	*dst = n
}

// Location resolves the configured timezone, falling back to time.Local.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SearchConfig projects the planning settings onto the slot search.
func (c Config) SearchConfig() scheduler.SearchConfig {
	return scheduler.SearchConfig{
		Horizon:   time.Duration(c.Planning.HorizonDays) * 24 * time.Hour,
		ProbeStep: time.Duration(c.Planning.ProbeStepMin) * time.Minute,
		MaxProbes: c.Planning.MaxProbes,
		Location:  c.Location(),
	}
}

// RatePolicy projects the planning settings onto duration resolution.
func (c Config) RatePolicy() scheduler.RatePolicy {
	return scheduler.RatePolicy{
		Brackets:           scheduler.BracketPolicy(c.Planning.BracketPolicy),
		AllowRotation:      c.Planning.AllowRotation,
		IncludeSetupFinish: c.Planning.IncludeSetupFinish,
	}
}
