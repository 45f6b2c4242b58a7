package analyzer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	minTitleLength       = 10
	minDescriptionLength = 50
)

// SEOAnalyzer checks the document head for search engine essentials
type SEOAnalyzer struct{}

func NewSEOAnalyzer() *SEOAnalyzer {
	return &SEOAnalyzer{}
}

func (a *SEOAnalyzer) Name() string {
	return "seo"
}

func (a *SEOAnalyzer) Analyze(_ context.Context, page *scan.FetchResult) ([]scan.Finding, error) {
	findings, _, err := InspectSEO(page.HTML)
	return findings, err
}

// InspectSEO returns the SEO findings and metadata of a document
func InspectSEO(markup string) ([]scan.Finding, scan.SEOMetadata, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, scan.SEOMetadata{}, err
	}

	meta := extractSEOMetadata(doc)
	var findings []scan.Finding

	if utf8.RuneCountInString(strings.TrimSpace(meta.Title)) < minTitleLength {
		findings = append(findings, seoFinding("seo-title",
			"Missing or short <title> tag.", scan.SeverityMedium,
			"Add a descriptive <title> tag with 10+ characters."))
	}
	if utf8.RuneCountInString(strings.TrimSpace(meta.MetaDescription)) < minDescriptionLength {
		findings = append(findings, seoFinding("seo-meta-description",
			"Missing or short meta description.", scan.SeverityMedium,
			"Add a meta description of at least 50 characters."))
	}
	if !hasCanonical(doc) {
		findings = append(findings, seoFinding("seo-canonical",
			"Missing canonical URL.", scan.SeverityLow,
			"Include a <link rel='canonical'> to avoid duplicate content issues."))
	}
	switch {
	case meta.H1Count == 0:
		findings = append(findings, seoFinding("seo-h1-missing",
			"Missing <h1> tag.", scan.SeverityMedium,
			"Add a primary <h1> heading to describe the page topic."))
	case meta.H1Count > 1:
		findings = append(findings, seoFinding("seo-h1-multiple",
			"Multiple <h1> tags found.", scan.SeverityLow,
			"Use only one <h1> tag for better SEO clarity."))
	}

	return findings, meta, nil
}

func extractSEOMetadata(doc *html.Node) scan.SEOMetadata {
	var meta scan.SEOMetadata
	titleSeen, descSeen, canonicalSeen := false, false, false

	walk(doc, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Title:
			if !titleSeen {
				meta.Title = textContent(n)
				titleSeen = true
			}
		case atom.Meta:
			if name, _ := attr(n, "name"); !descSeen && strings.EqualFold(name, "description") {
				meta.MetaDescription, _ = attr(n, "content")
				descSeen = true
			}
		case atom.Link:
			if rel, _ := attr(n, "rel"); !canonicalSeen && hasToken(rel, "canonical") {
				meta.Canonical, _ = attr(n, "href")
				canonicalSeen = true
			}
		case atom.H1:
			meta.H1Count++
		}
		return true
	})
	return meta
}

func hasCanonical(doc *html.Node) bool {
	found := false
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.Link {
			return true
		}
		if rel, _ := attr(n, "rel"); hasToken(rel, "canonical") {
			found = true
			return false
		}
		return true
	})
	return found
}

func seoFinding(code, message string, severity scan.Severity, recommendation string) scan.Finding {
	return scan.MustFinding(scan.FindingSpec{
		Type:           scan.TypeSEO,
		Code:           code,
		Message:        message,
		Severity:       severity,
		Recommendation: recommendation,
	})
}
