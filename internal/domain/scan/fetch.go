package scan

import (
	"net/http"
	"strings"
	"time"
)

// HTMLStats holds approximate structural counts of a fetched document
type HTMLStats struct {
	PageSizeKB      float64
	ImageCount      int
	ScriptCount     int
	StylesheetCount int
	FormCount       int
	// Truncated is set when the document exceeded the fetch size cap and
	// only its prefix was analyzed.
	Truncated bool
}

// FetchResult is the outcome of retrieving one target. It is created once per
// scan and treated as read-only afterwards.
type FetchResult struct {
	URL          string
	FinalURL     string
	StatusCode   int
	HTML         string
	Headers      http.Header
	ResponseTime float64 // seconds, rounded to two decimals
	Stats        HTMLStats
	FetchedAt    time.Time

	// ScreenshotPath is set when a visual capture was stored.
	ScreenshotPath string
	// Error is non-empty when the fetch or the capture failed. A failed
	// capture keeps the already populated fetch metadata.
	Error         string
	CaptureFailed bool
}

// Failed reports whether the document itself could not be retrieved
func (r *FetchResult) Failed() bool {
	return r.Error != "" && !r.CaptureFailed
}

// Header returns the first value of a header, matched case-insensitively
func (r *FetchResult) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// HasHeader reports whether a header is present, matched case-insensitively
func (r *FetchResult) HasHeader(name string) bool {
	for k := range r.Headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
