// Package config loads GuardianWeb settings from defaults, the YAML config
// file and GUARDIANWEB_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ARYAN-095/GuardianWeb/internal/analyzer"
	"github.com/ARYAN-095/GuardianWeb/internal/fetcher"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/artifacts"
	"github.com/ARYAN-095/GuardianWeb/internal/narrative"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
	"github.com/ARYAN-095/GuardianWeb/internal/threatintel"
)

// EnvPrefix prefixes environment overrides, e.g. GUARDIANWEB_SERVER_ADDR
const EnvPrefix = "GUARDIANWEB"

// Config is the full application configuration
type Config struct {
	Fetcher         fetcher.Config        `mapstructure:"fetcher"`
	Screenshot      ScreenshotConfig      `mapstructure:"screenshot"`
	Performance     PerformanceConfig     `mapstructure:"performance"`
	Context         ContextConfig         `mapstructure:"context"`
	RiskModel       RiskModelConfig       `mapstructure:"risk_model"`
	Narrative       narrative.Config      `mapstructure:"narrative"`
	ThreatIntel     threatintel.Config    `mapstructure:"threat_intel"`
	Storage         StorageConfig         `mapstructure:"storage"`
	Scan            ScanConfig            `mapstructure:"scan"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
	Logger          LoggerConfig          `mapstructure:"logger"`
	Server          ServerConfig          `mapstructure:"server"`
}

// ScreenshotConfig controls full-scan page captures
type ScreenshotConfig struct {
	Enabled  bool               `mapstructure:"enabled"`
	Dir      string             `mapstructure:"dir"`
	Timeout  time.Duration      `mapstructure:"timeout"`
	Required bool               `mapstructure:"required"`
	Store    string             `mapstructure:"store"`
	ExecPath string             `mapstructure:"exec_path"`
	S3       artifacts.S3Config `mapstructure:"s3"`
}

// PerformanceConfig holds load time thresholds in seconds
type PerformanceConfig struct {
	GoodThreshold float64 `mapstructure:"good_threshold"`
	PoorThreshold float64 `mapstructure:"poor_threshold"`
}

// ContextConfig overrides the known-site exception table
type ContextConfig struct {
	KnownSites []analyzer.KnownSite `mapstructure:"known_sites"`
}

// RiskModelConfig points at a model definition; empty uses the built-in model
type RiskModelConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
	DSN    string `mapstructure:"dsn"`
}

// ScanConfig bounds a whole scan
type ScanConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RecommendationsConfig points at a YAML rule file; empty uses built-in rules
type RecommendationsConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// LoggerConfig configures zap and file rotation
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
	File        string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AuthToken       string        `mapstructure:"auth_token"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	ScanRateLimit   float64       `mapstructure:"scan_rate_limit"`
	ScanRateBurst   int           `mapstructure:"scan_rate_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	// -- Fetcher --
	v.SetDefault("fetcher.timeout", fetcher.DefaultTimeout)
	v.SetDefault("fetcher.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("fetcher.max_body_bytes", fetcher.DefaultMaxBodyBytes)
	v.SetDefault("fetcher.insecure_skip_verify", false)

	// -- Screenshot --
	v.SetDefault("screenshot.enabled", true)
	v.SetDefault("screenshot.dir", "./data/screenshots")
	v.SetDefault("screenshot.timeout", fetcher.DefaultCaptureTimeout)
	v.SetDefault("screenshot.required", false)
	v.SetDefault("screenshot.store", "local")

	// -- Analyzers --
	v.SetDefault("performance.good_threshold", analyzer.DefaultGoodThreshold)
	v.SetDefault("performance.poor_threshold", analyzer.DefaultPoorThreshold)

	// -- Narrative --
	v.SetDefault("narrative.provider", "rules")
	v.SetDefault("narrative.model", narrative.DefaultGeminiModel)
	v.SetDefault("narrative.item_timeout", constants.DefaultNarrativeItemTimeout)
	v.SetDefault("narrative.concurrency", 4)

	// -- Threat intel --
	v.SetDefault("threat_intel.enabled", false)
	v.SetDefault("threat_intel.timeout", threatintel.DefaultTimeout)

	// -- Storage --
	v.SetDefault("storage.driver", "json")
	v.SetDefault("storage.dir", "./data/scans")

	// -- Scan --
	v.SetDefault("scan.timeout", constants.DefaultScanTimeout)

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "guardianweb")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit", 1.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.scan_rate_limit", 0.2)
	v.SetDefault("server.scan_rate_burst", 3)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
}

// BindEnv enables GUARDIANWEB_* overrides for every key
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// secrets without defaults are not seen by AutomaticEnv during Unmarshal
	_ = v.BindEnv("narrative.api_key")
	_ = v.BindEnv("narrative.endpoint")
	_ = v.BindEnv("threat_intel.virustotal_api_key")
	_ = v.BindEnv("threat_intel.abuseipdb_api_key")
	_ = v.BindEnv("storage.dsn")
	_ = v.BindEnv("server.auth_token")
	_ = v.BindEnv("risk_model.path")
	_ = v.BindEnv("recommendations.rules_file")
	_ = v.BindEnv("logger.file")
}

// NewConfigFromViper unmarshals and validates a configuration
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with only defaults applied
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Validate checks required fields and sane values
func (c *Config) Validate() error {
	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be positive")
	}
	if c.Performance.GoodThreshold <= 0 || c.Performance.PoorThreshold <= c.Performance.GoodThreshold {
		return fmt.Errorf("performance thresholds must satisfy 0 < good_threshold < poor_threshold")
	}
	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be positive")
	}
	switch c.Storage.Driver {
	case "json":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the json driver")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Screenshot.Enabled {
		switch c.Screenshot.Store {
		case "local":
			if c.Screenshot.Dir == "" {
				return fmt.Errorf("screenshot.dir is required for the local store")
			}
		case "s3":
			if c.Screenshot.S3.Bucket == "" {
				return fmt.Errorf("screenshot.s3.bucket is required for the s3 store")
			}
		default:
			return fmt.Errorf("unknown screenshot.store %q", c.Screenshot.Store)
		}
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 || c.Server.ScanRateLimit < 0 || c.Server.ScanRateBurst < 0 {
		return fmt.Errorf("server rate limits must not be negative")
	}
	return nil
}
