package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/billcheck/internal/engine"
	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/validate"
)

// DefaultVersions is the version set used when no config file overrides it.
// Bumping any field invalidates every cached analysis.
var DefaultVersions = model.Versions{
	Engine: "2.3.0",
	Prompt: "extract-v5",
	Model:  "vision-extract-2025-06",
	Schema: "4",
}

// Tuning holds the numeric knobs of the engine and cache.
type Tuning struct {
	MedicareMultiplier float64       `yaml:"medicare_multiplier"`
	DefaultCoinsurance float64       `yaml:"default_coinsurance"`
	SafetyCeiling      float64       `yaml:"safety_ceiling"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
}

// Config holds all runtime configuration for a billcheck run.
type Config struct {
	DSN              string
	StatementTimeout string
	BillPath         string
	FlagsPath        string
	BaselinesPath    string
	FeeSchedulePath  string
	State            string
	OutputPath       string
	LogFormat        string // "text" or "json"
	LogLevel         string
	Bypass           bool
	DryRun           bool

	Versions      model.Versions
	Tuning        Tuning
	HardCitations []string
	SoftCitations []string
	CodeTypes     []string
}

// Default returns a Config with every tunable at its standard value.
func Default() Config {
	return Config{
		StatementTimeout: "30s",
		LogFormat:        "text",
		LogLevel:         "info",
		OutputPath:       "-",
		Versions:         DefaultVersions,
		Tuning: Tuning{
			MedicareMultiplier: engine.DefaultMedicareMultiplier,
			DefaultCoinsurance: engine.DefaultCoinsurance,
			SafetyCeiling:      validate.DefaultSafetyCeiling,
			CacheTTL:           7 * 24 * time.Hour,
		},
	}
}

// yamlConfig is the on-disk YAML structure. Absent fields keep their
// current values.
type yamlConfig struct {
	Versions  *model.Versions `yaml:"versions"`
	Tuning    *yamlTuning     `yaml:"tuning"`
	Citations struct {
		Hard []string `yaml:"hard"`
		Soft []string `yaml:"soft"`
	} `yaml:"citations"`
	State     string   `yaml:"state"`
	CodeTypes []string `yaml:"code_types"`
}

type yamlTuning struct {
	MedicareMultiplier *float64 `yaml:"medicare_multiplier"`
	DefaultCoinsurance *float64 `yaml:"default_coinsurance"`
	SafetyCeiling      *float64 `yaml:"safety_ceiling"`
	CacheTTL           string   `yaml:"cache_ttl"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if yc.Versions != nil {
		c.Versions = *yc.Versions
	}
	if t := yc.Tuning; t != nil {
		if t.MedicareMultiplier != nil {
			c.Tuning.MedicareMultiplier = *t.MedicareMultiplier
		}
		if t.DefaultCoinsurance != nil {
			c.Tuning.DefaultCoinsurance = *t.DefaultCoinsurance
		}
		if t.SafetyCeiling != nil {
			c.Tuning.SafetyCeiling = *t.SafetyCeiling
		}
		if t.CacheTTL != "" {
			ttl, err := time.ParseDuration(t.CacheTTL)
			if err != nil {
				return fmt.Errorf("parse tuning.cache_ttl: %w", err)
			}
			c.Tuning.CacheTTL = ttl
		}
	}
	if yc.Citations.Hard != nil {
		c.HardCitations = yc.Citations.Hard
	}
	if yc.Citations.Soft != nil {
		c.SoftCitations = yc.Citations.Soft
	}
	if yc.State != "" && c.State == "" {
		c.State = yc.State
	}
	c.CodeTypes = yc.CodeTypes
	return c.validateCodeTypes()
}

// validateCodeTypes checks that every entry in CodeTypes is a known code type name.
// If CodeTypes is empty, it defaults to all AllCodeTypes names.
func (c *Config) validateCodeTypes() error {
	if len(c.CodeTypes) == 0 {
		c.CodeTypes = model.CodeTypeNames()
		return nil
	}
	for _, name := range c.CodeTypes {
		if _, ok := model.CodeTypeByName(name); !ok {
			return fmt.Errorf("unknown code type %q in config", name)
		}
	}
	return nil
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.BillPath == "" {
		return fmt.Errorf("--bill is required")
	}
	inputs := []struct{ flag, path string }{
		{"--bill", c.BillPath},
		{"--flags", c.FlagsPath},
		{"--baselines", c.BaselinesPath},
		{"--fee-schedule", c.FeeSchedulePath},
	}
	for _, in := range inputs {
		if in.path == "" || in.path == "-" {
			continue
		}
		if _, err := os.Stat(in.path); err != nil {
			return fmt.Errorf("%s file not accessible: %w", in.flag, err)
		}
	}
	v := c.Versions
	if v.Engine == "" || v.Prompt == "" || v.Model == "" || v.Schema == "" {
		return fmt.Errorf("all four versions (engine, prompt, model, schema) must be set, got %+v", v)
	}
	t := c.Tuning
	if t.MedicareMultiplier <= 0 {
		return fmt.Errorf("medicare_multiplier must be positive, got %v", t.MedicareMultiplier)
	}
	if t.DefaultCoinsurance <= 0 || t.DefaultCoinsurance > 1 {
		return fmt.Errorf("default_coinsurance must be in (0, 1], got %v", t.DefaultCoinsurance)
	}
	if t.SafetyCeiling <= 0 || t.SafetyCeiling > 1 {
		return fmt.Errorf("safety_ceiling must be in (0, 1], got %v", t.SafetyCeiling)
	}
	if t.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", t.CacheTTL)
	}
	return nil
}

// EngineConfig returns the immutable engine configuration for this run.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Versions:           c.Versions,
		MedicareMultiplier: c.Tuning.MedicareMultiplier,
		DefaultCoinsurance: c.Tuning.DefaultCoinsurance,
		HardCitations:      c.HardCitations,
		SoftCitations:      c.SoftCitations,
	}
}
