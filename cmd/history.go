package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

var historyCmd = &cobra.Command{
	Use:   "history <url>",
	Short: "List stored scans for a URL, newest first",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &UsageError{Err: errors.New("history requires exactly one URL")}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		if limit < 0 {
			return &UsageError{Err: fmt.Errorf("--limit must not be negative")}
		}

		app, err := getAppContext(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		records, err := app.Scans.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), recordsToDocuments(records))
		}
		if len(records) == 0 {
			return &NoScansError{Target: args[0]}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colorInfo("Scan history for"), colorBold(records[0].URL()))
		return printHistoryTable(cmd.OutOrStdout(), records)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <scan-id | url>",
	Short: "Show a stored scan report",
	Long: `Show a stored report by scan ID. With --latest the argument is a URL and
the most recent scan of that URL is shown.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &UsageError{Err: errors.New("show requires a scan ID or, with --latest, a URL")}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		latest, _ := cmd.Flags().GetBool("latest")
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := getAppContext(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		var rec *scan.ScanRecord
		if latest {
			rec, err = app.Scans.LatestScan(cmd.Context(), args[0])
			if errors.Is(err, sharedErrors.ErrScanNotFound) {
				return &NoScansError{Target: args[0]}
			}
		} else {
			rec, err = app.Scans.ScanByID(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), codec.Encode(rec))
		}
		printReport(cmd.OutOrStdout(), rec)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", constants.DefaultHistoryLimit, "maximum number of scans to list")
	historyCmd.Flags().Bool("json", false, "print the scans as JSON")

	showCmd.Flags().Bool("latest", false, "treat the argument as a URL and show its latest scan")
	showCmd.Flags().Bool("json", false, "print the report as JSON")
}
