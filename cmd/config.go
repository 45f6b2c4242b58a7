package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ARYAN-095/GuardianWeb/internal/config"
)

const configName = ".guardianweb"

// flagKeys maps command-line flags onto configuration keys. A flag only
// overrides the file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"log-level":       "logger.level",
	"log-format":      "logger.format",
	"storage-dir":     "storage.dir",
	"timeout":         "scan.timeout",
	"screenshot":      "screenshot.enabled",
	"narrative":       "narrative.provider",
	"addr":            "server.addr",
	"auth-token":      "server.auth_token",
	"cors-origins":    "server.cors_origins",
	"rate-limit":      "server.rate_limit",
	"rate-burst":      "server.rate_burst",
	"scan-rate-limit": "server.scan_rate_limit",
	"scan-rate-burst": "server.scan_rate_burst",
	"threat-intel":    "threat_intel.enabled",
	"model":           "risk_model.path",
	"rules":           "recommendations.rules_file",
	"shutdown-wait":   "server.shutdown_timeout",
}

// activeConfigFile is the config file actually read, if any
var activeConfigFile string

// activeSettings is the merged view used by "config show"
var activeSettings map[string]interface{}

// loadConfig merges defaults, the config file, GUARDIANWEB_* variables and
// explicitly set flags, in increasing order of precedence.
func loadConfig(flags *pflag.FlagSet, path string) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	activeConfigFile = v.ConfigFileUsed()

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return nil, err
	}
	if err := expandPaths(cfg); err != nil {
		return nil, err
	}
	activeSettings = v.AllSettings()
	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// expandPaths resolves a leading ~ in every configured filesystem path
func expandPaths(cfg *config.Config) error {
	for _, p := range []*string{
		&cfg.Storage.Dir,
		&cfg.Screenshot.Dir,
		&cfg.RiskModel.Path,
		&cfg.Recommendations.RulesFile,
		&cfg.Logger.File,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(redactSecrets(activeSettings))
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		if activeConfigFile != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", activeConfigFile)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Run: func(cmd *cobra.Command, args []string) {
		if activeConfigFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), colorWarn("no config file found, using defaults"))
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), activeConfigFile)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

var secretMarkers = []string{"api_key", "token", "dsn", "password", "secret"}

// redactSecrets returns a copy of settings with credential values masked
func redactSecrets(settings map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = redactSecrets(val)
		default:
			if isSecretKey(k) && fmt.Sprint(val) != "" {
				out[k] = "********"
				continue
			}
			out[k] = val
		}
	}
	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range secretMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
