package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Storage.Driver != "json" || cfg.Storage.Dir == "" {
		t.Errorf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Performance.GoodThreshold != 2.0 || cfg.Performance.PoorThreshold != 3.0 {
		t.Errorf("unexpected thresholds %+v", cfg.Performance)
	}
	if cfg.Scan.Timeout != 90*time.Second {
		t.Errorf("scan timeout = %v", cfg.Scan.Timeout)
	}
	if cfg.Narrative.Provider != "rules" {
		t.Errorf("narrative provider = %q", cfg.Narrative.Provider)
	}
	if cfg.ThreatIntel.Enabled {
		t.Error("threat intel should be off by default")
	}
	if cfg.Server.ScanRateLimit >= cfg.Server.RateLimit || cfg.Server.ScanRateBurst <= 0 {
		t.Errorf("scans should be limited tighter than reads: %+v", cfg.Server)
	}
}

func TestConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardianweb.yaml")
	yaml := `
performance:
  good_threshold: 1.5
  poor_threshold: 4
context:
  known_sites:
    - domain: example.org
      allowed_missing_headers: [Content-Security-Policy]
      note: Partner site
scan:
  timeout: 2m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GUARDIANWEB_SERVER_ADDR", ":9999")
	t.Setenv("GUARDIANWEB_THREAT_INTEL_VIRUSTOTAL_API_KEY", "vt")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Performance.GoodThreshold != 1.5 || cfg.Performance.PoorThreshold != 4 {
		t.Errorf("thresholds = %+v", cfg.Performance)
	}
	if len(cfg.Context.KnownSites) != 1 || cfg.Context.KnownSites[0].Domain != "example.org" {
		t.Errorf("known sites = %+v", cfg.Context.KnownSites)
	}
	if cfg.Scan.Timeout != 2*time.Minute {
		t.Errorf("scan timeout = %v", cfg.Scan.Timeout)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.ThreatIntel.VirusTotalAPIKey != "vt" {
		t.Errorf("virustotal key not bound from env")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"inverted thresholds", func(c *Config) { c.Performance.PoorThreshold = 1 }, "performance thresholds"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn"},
		{"s3 without bucket", func(c *Config) { c.Screenshot.Store = "s3" }, "bucket"},
		{"zero scan timeout", func(c *Config) { c.Scan.Timeout = 0 }, "scan.timeout"},
		{"negative scan rate", func(c *Config) { c.Server.ScanRateLimit = -1 }, "rate limits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
