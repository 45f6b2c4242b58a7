package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	scanapp "github.com/ARYAN-095/GuardianWeb/internal/application/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze <url>",
	Aliases: []string{"scan"},
	Short:   "Scan a website and store the report",
	Long: `Fetch the target, run every analyzer, score the result with the health model
and store the report. The new scan is compared with the previous one for the
same URL.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &UsageError{Err: errors.New("analyze requires exactly one URL")}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := getAppContext(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if !asJSON {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Scanning %s...\n", colorInfo("→"), args[0])
		}
		rec, err := app.Scans.Analyze(ctx, args[0])
		var perr *scanapp.PersistError
		if err != nil && !errors.As(err, &perr) {
			return err
		}
		if perr != nil {
			// the report is still shown when only saving failed
			rec = perr.Record
			fmt.Fprintf(cmd.ErrOrStderr(), "%s report could not be saved: %v\n", colorWarn("!"), perr.Err)
		}

		if asJSON {
			if jerr := printJSON(cmd.OutOrStdout(), codec.Encode(rec)); jerr != nil {
				return jerr
			}
		} else {
			printReport(cmd.OutOrStdout(), rec)
		}
		return err
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the report as JSON")
	analyzeCmd.Flags().Duration("timeout", 0, "overall scan deadline (e.g. 45s)")
	analyzeCmd.Flags().Bool("screenshot", true, "capture a screenshot of the page")
	analyzeCmd.Flags().String("narrative", "", "summary provider: rules, gemini or http")
	analyzeCmd.Flags().Bool("threat-intel", false, "query reputation feeds for the target")
	analyzeCmd.Flags().String("model", "", "path to a risk model definition")
	analyzeCmd.Flags().String("rules", "", "path to a recommendation rules file")
}
