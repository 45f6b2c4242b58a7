package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
)

// printJSON writes the API representation of a record
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func recordsToDocuments(records []*scan.ScanRecord) []codec.Document {
	docs := make([]codec.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, codec.Encode(rec))
	}
	return docs
}

func formatScore(rec *scan.ScanRecord) string {
	score, ok := rec.RiskScore()
	if !ok {
		return colorWarn("unscored")
	}
	return fmt.Sprintf("%s/100 (%s)", colorBold(fmt.Sprintf("%d", score)), formatRiskLevel(rec.RiskLevel()))
}

// printReport renders a scan for the terminal
func printReport(w io.Writer, rec *scan.ScanRecord) {
	fmt.Fprintf(w, "%s %s\n", colorInfo("Scan report for"), colorBold(rec.URL()))
	if rec.ScanID() != "" {
		fmt.Fprintf(w, "Scan ID:       %s\n", rec.ScanID())
	}
	fmt.Fprintf(w, "Scanned at:    %s\n", rec.CreatedAt().Format(time.RFC3339))
	fmt.Fprintf(w, "Health score:  %s\n", formatScore(rec))
	fmt.Fprintf(w, "HTTP status:   %d in %.2fs\n", rec.StatusCode(), rec.ResponseTime())
	stats := rec.Stats()
	fmt.Fprintf(w, "Page:          %.1f KB, %d images, %d scripts, %d stylesheets, %d forms\n",
		stats.PageSizeKB, stats.ImageCount, stats.ScriptCount, stats.StylesheetCount, stats.FormCount)
	if stats.Truncated {
		fmt.Fprintf(w, "               %s\n", colorWarn("document exceeded the size cap; only its prefix was analyzed"))
	}

	if summary := rec.Summary(); summary != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", colorInfo("Summary"), summary)
	}

	printFindings(w, rec.Consolidated())

	if fixes := rec.Fixes(); len(fixes) > 0 {
		fmt.Fprintf(w, "\n%s\n", colorInfo("Suggested fixes"))
		for _, fix := range fixes {
			fmt.Fprintf(w, "  - %s\n    %s\n", fix.Message, fix.Fix)
		}
	}

	if recs := rec.Recommendations(); len(recs) > 0 {
		fmt.Fprintf(w, "\n%s\n", colorInfo("Recommendations"))
		for _, r := range recs {
			for i, line := range strings.Split(r, "\n") {
				prefix := "    "
				if i == 0 {
					prefix = "  - "
				}
				fmt.Fprintf(w, "%s%s\n", prefix, line)
			}
		}
	}

	if headers := rec.Headers(); headers != nil {
		fmt.Fprintf(w, "\n%s grade %s (%d/100)\n", colorInfo("Security headers:"), colorBold(headers.Grade), headers.Score)
		for _, warning := range headers.Warnings {
			fmt.Fprintf(w, "  %s %s\n", colorWarn("!"), warning)
		}
	}

	if seo := rec.SEO(); seo != nil {
		fmt.Fprintf(w, "\n%s\n", colorInfo("SEO"))
		fmt.Fprintf(w, "  Title:       %s\n", orDash(seo.Title))
		fmt.Fprintf(w, "  Description: %s\n", orDash(seo.MetaDescription))
		fmt.Fprintf(w, "  Canonical:   %s\n", orDash(seo.Canonical))
		fmt.Fprintf(w, "  H1 tags:     %d\n", seo.H1Count)
	}

	if threat := rec.Threat(); threat != nil {
		fmt.Fprintf(w, "\n%s %s (score %d", colorInfo("Threat intel:"), threat.Category, threat.CombinedScore)
		if len(threat.Sources) > 0 {
			fmt.Fprintf(w, ", sources: %s", strings.Join(threat.Sources, ", "))
		}
		fmt.Fprintln(w, ")")
	}

	if cmp := rec.Comparison(); cmp != nil {
		fmt.Fprintf(w, "\n%s score change %s\n", colorInfo("Since last scan:"), formatScoreChange(cmp.RiskScoreChange))
		printIssueList(w, "New", cmp.NewIssues, colorError)
		printIssueList(w, "Resolved", cmp.ResolvedIssues, colorSuccess)
		printIssueList(w, "Persistent", cmp.PersistentIssues, colorWarn)
	}

	if shot := rec.ScreenshotURL(); shot != "" {
		fmt.Fprintf(w, "\nScreenshot: %s\n", shot)
	}
	if capErr := rec.CaptureError(); capErr != "" {
		fmt.Fprintf(w, "\n%s %s\n", colorWarn("Screenshot unavailable:"), capErr)
	}
}

func printFindings(w io.Writer, findings scan.Consolidated) {
	if findings.Len() == 0 {
		fmt.Fprintf(w, "\n%s\n", colorSuccess("No issues found."))
		return
	}

	fmt.Fprintf(w, "\n%s (%d)\n", colorInfo("Issues"), findings.Total())
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tTYPE\tMESSAGE")
	for _, f := range findings.Findings() {
		msg := f.Message()
		if note := f.ContextNote(); note != "" {
			msg = fmt.Sprintf("%s (%s)", msg, note)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", formatSeverity(f.Severity()), f.Type(), msg)
	}
	_ = tw.Flush()
}

func printIssueList(w io.Writer, label string, issues []string, paint func(a ...interface{}) string) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", label)
	for _, issue := range issues {
		fmt.Fprintf(w, "    %s %s\n", paint("*"), issue)
	}
}

// printHistoryTable lists scans newest first
func printHistoryTable(w io.Writer, records []*scan.ScanRecord) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCAN ID\tDATE\tSCORE\tLEVEL\tISSUES")
	for _, rec := range records {
		score := "-"
		if s, ok := rec.RiskScore(); ok {
			score = fmt.Sprintf("%d", s)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			orDash(rec.ScanID()),
			rec.CreatedAt().Format("2006-01-02 15:04:05"),
			score,
			formatRiskLevel(rec.RiskLevel()),
			rec.Consolidated().Total(),
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
