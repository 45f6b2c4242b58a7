package cmd

import (
	"testing"

	"github.com/fatih/color"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

func disableColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})
}

func TestFormatSeverity(t *testing.T) {
	disableColor(t)

	for _, s := range []scan.Severity{scan.SeverityLow, scan.SeverityMedium, scan.SeverityHigh, scan.SeverityCritical} {
		if got := formatSeverity(s); got != string(s) {
			t.Fatalf("formatSeverity(%q) = %q", s, got)
		}
	}
}

func TestFormatRiskLevel(t *testing.T) {
	disableColor(t)

	tests := []struct {
		level scan.RiskLevel
		want  string
	}{
		{scan.RiskLow, "low"},
		{scan.RiskCritical, "critical"},
		{scan.RiskLevel(""), ""},
	}
	for _, tt := range tests {
		if got := formatRiskLevel(tt.level); got != tt.want {
			t.Fatalf("formatRiskLevel(%q) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFormatScoreChange(t *testing.T) {
	disableColor(t)

	tests := []struct {
		delta int
		want  string
	}{
		{delta: 5, want: "+5"},
		{delta: -12, want: "-12"},
		{delta: 0, want: "0"},
	}
	for _, tt := range tests {
		if got := formatScoreChange(tt.delta); got != tt.want {
			t.Fatalf("formatScoreChange(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestConfigureColor(t *testing.T) {
	original := color.NoColor
	originalTerm := isTerminal
	t.Cleanup(func() {
		color.NoColor = original
		isTerminal = originalTerm
	})

	isTerminal = func(int) bool { return true }
	color.NoColor = false
	configureColor(false)
	if color.NoColor {
		t.Fatal("color should stay enabled on a terminal")
	}

	configureColor(true)
	if !color.NoColor {
		t.Fatal("--no-color should disable color")
	}

	color.NoColor = false
	isTerminal = func(int) bool { return false }
	configureColor(false)
	if !color.NoColor {
		t.Fatal("color should be disabled when stdout is not a terminal")
	}
}
