package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, `
versions:
  engine: "3.0.0"
  prompt: p9
  model: m9
  schema: "5"
tuning:
  medicare_multiplier: 1.25
  cache_ttl: 48h
citations:
  hard: ["NSA-EMERGENCY"]
state: NY
code_types:
  - CPT
  - REV
`)
	c := Default()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Versions.Engine != "3.0.0" || c.Versions.Schema != "5" {
		t.Errorf("versions = %+v", c.Versions)
	}
	if c.Tuning.MedicareMultiplier != 1.25 || c.Tuning.CacheTTL != 48*time.Hour {
		t.Errorf("tuning = %+v", c.Tuning)
	}
	if c.Tuning.DefaultCoinsurance != 0.20 || c.Tuning.SafetyCeiling != 0.90 {
		t.Errorf("unset tuning fields should keep defaults: %+v", c.Tuning)
	}
	if len(c.HardCitations) != 1 || c.SoftCitations != nil {
		t.Errorf("citations hard=%v soft=%v", c.HardCitations, c.SoftCitations)
	}
	if c.State != "NY" {
		t.Errorf("state = %q", c.State)
	}
	if len(c.CodeTypes) != 2 || c.CodeTypes[0] != "CPT" || c.CodeTypes[1] != "REV" {
		t.Errorf("unexpected code types: %v", c.CodeTypes)
	}

	ec := c.EngineConfig()
	if ec.Versions != c.Versions || ec.MedicareMultiplier != 1.25 {
		t.Errorf("engine config = %+v", ec)
	}
}

func TestLoadFromFile_UnknownCodeType(t *testing.T) {
	path := writeConfig(t, "code_types:\n  - CPT\n  - BOGUS\n")
	c := Default()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for unknown code type")
	}
}

func TestLoadFromFile_EmptyDefaults(t *testing.T) {
	path := writeConfig(t, "code_types: []\n")
	c := Default()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(c.CodeTypes) != 5 {
		t.Errorf("expected 5 default code types, got %d: %v", len(c.CodeTypes), c.CodeTypes)
	}
	if c.Versions != DefaultVersions {
		t.Errorf("versions should stay default, got %+v", c.Versions)
	}
}

func TestLoadFromFile_BadTTL(t *testing.T) {
	path := writeConfig(t, "tuning:\n  cache_ttl: a week\n")
	c := Default()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for bad cache_ttl")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	bill := writeConfig(t, "{}")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"no bill", func(c *Config) { c.BillPath = "" }, "--bill is required"},
		{"missing flags file", func(c *Config) { c.FlagsPath = "/nonexistent/flags.json" }, "--flags"},
		{"empty version", func(c *Config) { c.Versions.Model = "" }, "versions"},
		{"bad coinsurance", func(c *Config) { c.Tuning.DefaultCoinsurance = 1.5 }, "default_coinsurance"},
		{"bad ceiling", func(c *Config) { c.Tuning.SafetyCeiling = 0 }, "safety_ceiling"},
		{"bad ttl", func(c *Config) { c.Tuning.CacheTTL = 0 }, "cache_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.BillPath = bill
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
