package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// malwareSignature matches one suspicious pattern in page content
type malwareSignature struct {
	code           string
	pattern        *regexp.Regexp
	message        string
	severity       scan.Severity
	recommendation string
}

var malwareSignatures = []malwareSignature{
	{
		code:           "malware-eval-decode",
		pattern:        regexp.MustCompile(`(?i)eval\s*\(\s*(atob|unescape|decodeURIComponent|String\.fromCharCode)\s*\(`),
		message:        "Obfuscated script execution detected (eval of decoded payload).",
		severity:       scan.SeverityCritical,
		recommendation: "Audit inline scripts and remove code that evaluates decoded strings.",
	},
	{
		code:           "malware-document-write",
		pattern:        regexp.MustCompile(`(?i)document\.write\s*\(\s*unescape\s*\(`),
		message:        "Encoded document.write injection detected.",
		severity:       scan.SeverityHigh,
		recommendation: "Remove document.write calls that emit escaped markup.",
	},
	{
		code:           "malware-cryptominer",
		pattern:        regexp.MustCompile(`(?i)(coinhive|coin-hive|cryptonight|cryptoloot|webminepool|deepminer)`),
		message:        "Known cryptomining script reference detected.",
		severity:       scan.SeverityCritical,
		recommendation: "Remove the mining script and check the site for compromise.",
	},
	{
		code:           "malware-packed-script",
		pattern:        regexp.MustCompile(`eval\(function\(p,a,c,k,e,[rd]\)`),
		message:        "Packed JavaScript payload detected.",
		severity:       scan.SeverityMedium,
		recommendation: "Review packed scripts and serve readable, reviewed sources.",
	},
	{
		code:           "malware-long-base64",
		pattern:        regexp.MustCompile(`["'][A-Za-z0-9+/]{800,}={0,2}["']`),
		message:        "Large inline base64 blob detected.",
		severity:       scan.SeverityLow,
		recommendation: "Verify large encoded strings embedded in the page are expected.",
	},
}

// MalwareAnalyzer matches page content against known malicious patterns
// and looks for invisible iframes
type MalwareAnalyzer struct {
	signatures []malwareSignature
}

func NewMalwareAnalyzer() *MalwareAnalyzer {
	return &MalwareAnalyzer{signatures: malwareSignatures}
}

func (a *MalwareAnalyzer) Name() string {
	return "malware"
}

func (a *MalwareAnalyzer) Analyze(ctx context.Context, page *scan.FetchResult) ([]scan.Finding, error) {
	var findings []scan.Finding
	for _, sig := range a.signatures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sig.pattern.MatchString(page.HTML) {
			findings = append(findings, malwareFinding(sig.code, sig.message, sig.severity, sig.recommendation))
		}
	}

	doc, err := parseDocument(page.HTML)
	if err != nil {
		return nil, err
	}
	for _, frame := range findAll(doc, atom.Iframe) {
		if hiddenFrame(frame) {
			findings = append(findings, malwareFinding("malware-hidden-iframe",
				"Hidden iframe detected.", scan.SeverityHigh,
				"Remove invisible iframes that load third-party content."))
		}
	}
	return findings, nil
}

// hiddenFrame reports iframes sized to zero or styled invisible
func hiddenFrame(n *html.Node) bool {
	w, _ := attr(n, "width")
	h, _ := attr(n, "height")
	if isZeroSize(w) || isZeroSize(h) {
		return true
	}
	style, _ := attr(n, "style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func isZeroSize(v string) bool {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	return v == "0"
}

func malwareFinding(code, message string, severity scan.Severity, recommendation string) scan.Finding {
	return scan.MustFinding(scan.FindingSpec{
		Type:           scan.TypeMalware,
		Code:           code,
		Message:        message,
		Severity:       severity,
		Recommendation: recommendation,
	})
}
