package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
	colorDanger  = color.New(color.FgHiRed, color.Bold).SprintFunc()
)

// isTerminal is swapped in tests
var isTerminal = func(fd int) bool { return term.IsTerminal(fd) }

// configureColor turns ANSI output off when asked to or when stdout is not a terminal
func configureColor(disable bool) {
	if disable || !isTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

func formatSeverity(s scan.Severity) string {
	label := string(s)
	switch s {
	case scan.SeverityCritical:
		return colorDanger(label)
	case scan.SeverityHigh:
		return colorError(label)
	case scan.SeverityMedium:
		return colorWarn(label)
	default:
		return colorInfo(label)
	}
}

func formatRiskLevel(l scan.RiskLevel) string {
	label := string(l)
	switch l {
	case scan.RiskLow:
		return colorSuccess(label)
	case scan.RiskMedium:
		return colorWarn(label)
	case scan.RiskHigh:
		return colorError(label)
	case scan.RiskCritical:
		return colorDanger(label)
	default:
		return label
	}
}

// formatScoreChange colors a health delta. Positive means the site improved.
func formatScoreChange(delta int) string {
	switch {
	case delta > 0:
		return colorSuccess(fmt.Sprintf("+%d", delta))
	case delta < 0:
		return colorError(fmt.Sprintf("%d", delta))
	default:
		return "0"
	}
}
