package analyzer

import (
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// DefaultContextNote is attached to findings downgraded by a known-site exception
const DefaultContextNote = "Commonly omitted on this trusted site"

// KnownSite lists the missing headers tolerated on one domain
type KnownSite struct {
	Domain                string   `mapstructure:"domain" yaml:"domain"`
	AllowedMissingHeaders []string `mapstructure:"allowed_missing_headers" yaml:"allowed_missing_headers"`
	Note                  string   `mapstructure:"note" yaml:"note"`
}

// DefaultKnownSites is the built-in exception table
var DefaultKnownSites = []KnownSite{
	{Domain: "wikipedia.org", AllowedMissingHeaders: []string{"X-Frame-Options"}},
}

// ContextAdjuster downgrades missing-header findings that are known false
// positives for specific sites
type ContextAdjuster struct {
	sites []KnownSite
}

// NewContextAdjuster creates an adjuster over sites; nil uses DefaultKnownSites
func NewContextAdjuster(sites []KnownSite) *ContextAdjuster {
	if sites == nil {
		sites = DefaultKnownSites
	}
	return &ContextAdjuster{sites: sites}
}

// Apply returns a new slice in which security findings about a missing header
// that the matching site allows are set to low severity with a context note.
// The input slice is never modified; without a matching site it is returned as is.
func (c *ContextAdjuster) Apply(rawURL string, findings []scan.Finding) []scan.Finding {
	site, ok := c.match(rawURL)
	if !ok {
		return findings
	}

	note := site.Note
	if note == "" {
		note = DefaultContextNote
	}

	out := make([]scan.Finding, len(findings))
	for i, f := range findings {
		out[i] = f
		if f.Type() != scan.TypeSecurity {
			continue
		}
		header, isMissing := MissingHeaderName(f.Message())
		if !isMissing {
			continue
		}
		for _, allowed := range site.AllowedMissingHeaders {
			if strings.EqualFold(header, allowed) {
				out[i] = f.WithSeverity(scan.SeverityLow, note)
				break
			}
		}
	}
	return out
}

// match finds the first site whose domain occurs in the target host
func (c *ContextAdjuster) match(rawURL string) (KnownSite, bool) {
	host := strings.ToLower(ExtractHost(rawURL))
	for _, s := range c.sites {
		if s.Domain != "" && strings.Contains(host, strings.ToLower(s.Domain)) {
			return s, true
		}
	}
	return KnownSite{}, false
}
