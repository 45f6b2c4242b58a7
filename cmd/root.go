package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/config"
	"github.com/ARYAN-095/GuardianWeb/internal/observability"
)

var (
	cfgFile string
	noColor bool
	appCfg  *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "guardianweb",
	Short:         "Website health scanner for security, performance, SEO and accessibility",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configureColor(noColor)

		cfg, err := loadConfig(cmd.Flags(), cfgFile)
		if err != nil {
			return err
		}
		appCfg = cfg

		observability.InitializeLogger(cfg.Logger)
		logger = observability.GetLogger()
		logger.Debug("configuration loaded",
			zap.String("config_file", activeConfigFile),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("narrative", cfg.Narrative.Provider))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		observability.Sync()
	},
}

// Execute runs the root command and exits with a status derived from the error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorError("Error:"), err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.guardianweb.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console or json)")
	rootCmd.PersistentFlags().String("storage-dir", "", "directory for JSON scan records")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
