package fetcher

import (
	"regexp"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// Counts are approximate; unbalanced or malformed markup is still matched.
var (
	imgTagRe        = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	scriptTagRe     = regexp.MustCompile(`(?i)<script\b[^>]*>`)
	formTagRe       = regexp.MustCompile(`(?i)<form\b[^>]*>`)
	stylesheetTagRe = regexp.MustCompile(`(?i)<link\s+[^>]*rel\s*=\s*["']stylesheet["'][^>]*>`)
)

// ComputeStats counts structural elements of a document without parsing it
func ComputeStats(document string) scan.HTMLStats {
	return scan.HTMLStats{
		PageSizeKB:      float64(len(document)) / 1024,
		ImageCount:      len(imgTagRe.FindAllStringIndex(document, -1)),
		ScriptCount:     len(scriptTagRe.FindAllStringIndex(document, -1)),
		StylesheetCount: len(stylesheetTagRe.FindAllStringIndex(document, -1)),
		FormCount:       len(formTagRe.FindAllStringIndex(document, -1)),
	}
}
