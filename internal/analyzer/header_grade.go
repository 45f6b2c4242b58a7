package analyzer

import (
	"strconv"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// headerRule scores the value of a present header
type headerRule struct {
	maxScore int
	check    func(value string) (int, []string)
}

var headerRules = map[string]headerRule{
	"Content-Security-Policy":   {20, gradeCSP},
	"Strict-Transport-Security": {20, gradeHSTS},
	"X-Frame-Options":           {15, gradeFrameOptions},
	"X-Content-Type-Options":    {15, gradeNoSniff},
	"Referrer-Policy":           {10, gradeReferrerPolicy},
}

// informationDisclosureHeaders should be removed or obfuscated
var informationDisclosureHeaders = []string{
	"Server",
	"X-Powered-By",
	"X-AspNet-Version",
	"X-AspNetMvc-Version",
}

// GradeHeaders builds the security header report for a page. It never
// produces findings; missing headers are reported by HeaderSecurityAnalyzer.
func GradeHeaders(page *scan.FetchResult) *scan.HeaderReport {
	report := &scan.HeaderReport{}
	total, maxTotal := 0, 0

	for _, h := range RequiredHeaders {
		rule := headerRules[h.Name]
		maxTotal += rule.maxScore

		check := scan.HeaderCheck{
			Name:           h.Name,
			Severity:       h.Severity,
			Recommendation: h.Recommendation,
		}
		if matched, value, ok := h.lookup(page); ok {
			check.Present = true
			check.MatchedAs = matched
			check.Value = value
			score, issues := rule.check(value)
			total += score
			for _, issue := range issues {
				report.Warnings = append(report.Warnings, h.Name+": "+issue)
			}
		}
		report.Checks = append(report.Checks, check)
	}

	report.Warnings = append(report.Warnings, deprecatedHeaderWarnings(page)...)
	for _, name := range informationDisclosureHeaders {
		if v := page.Header(name); v != "" {
			report.Warnings = append(report.Warnings,
				name+" header exposes server information: '"+v+"'. Consider removing or obfuscating.")
		}
	}

	if maxTotal > 0 {
		report.Score = total * 100 / maxTotal
	}
	report.Grade = gradeLetter(report.Score)
	return report
}

func gradeHSTS(value string) (int, []string) {
	var issues []string
	score := 20
	value = strings.ToLower(value)

	age, ok := directiveValue(value, "max-age")
	switch {
	case !ok:
		issues = append(issues, "missing 'max-age' directive")
		score -= 10
	case age == 0:
		return 0, []string{"max-age is 0, HSTS is disabled"}
	case age < 31536000:
		issues = append(issues, "max-age is shorter than one year")
		score -= 3
	}
	if !strings.Contains(value, "includesubdomains") {
		issues = append(issues, "missing 'includeSubDomains' directive")
		score -= 5
	}
	if !strings.Contains(value, "preload") {
		score -= 2
	}
	return max(score, 0), issues
}

// directiveValue parses "name=<int>" out of a semicolon separated header
func directiveValue(value, name string) (int, bool) {
	for _, part := range strings.Split(value, ";") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || k != name {
			continue
		}
		n, err := strconv.Atoi(strings.Trim(v, `" `))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func gradeCSP(value string) (int, []string) {
	var issues []string
	score := 20
	value = strings.ToLower(value)

	if strings.Contains(value, "'unsafe-inline'") {
		issues = append(issues, "contains 'unsafe-inline'")
		score -= 5
	}
	if strings.Contains(value, "'unsafe-eval'") {
		issues = append(issues, "contains 'unsafe-eval'")
		score -= 5
	}
	for _, token := range strings.Fields(strings.ReplaceAll(value, ";", " ")) {
		if token == "*" {
			issues = append(issues, "wildcard source is too permissive")
			score -= 3
			break
		}
	}
	if !strings.Contains(value, "default-src") {
		issues = append(issues, "missing 'default-src' fallback directive")
		score -= 3
	}
	return max(score, 0), issues
}

func gradeFrameOptions(value string) (int, []string) {
	switch v := strings.ToUpper(strings.TrimSpace(value)); {
	case v == "DENY" || v == "SAMEORIGIN":
		return 15, nil
	case strings.HasPrefix(v, "ALLOW-FROM"):
		return 5, []string{"ALLOW-FROM is not supported by modern browsers, use CSP frame-ancestors"}
	default:
		return 0, []string{"invalid value " + strconv.Quote(value)}
	}
}

func gradeNoSniff(value string) (int, []string) {
	if strings.EqualFold(strings.TrimSpace(value), "nosniff") {
		return 15, nil
	}
	return 0, []string{"value should be 'nosniff'"}
}

func gradeReferrerPolicy(value string) (int, []string) {
	value = strings.ToLower(value)
	for _, p := range strings.Split(value, ",") {
		switch strings.TrimSpace(p) {
		case "no-referrer", "same-origin", "strict-origin", "strict-origin-when-cross-origin":
			return 10, nil
		}
	}
	if strings.Contains(value, "unsafe-url") || strings.Contains(value, "origin-when-cross-origin") {
		return 5, []string{"policy may leak URLs in the referrer"}
	}
	return 7, []string{"unusual or weak policy"}
}

func deprecatedHeaderWarnings(page *scan.FetchResult) []string {
	var out []string
	if v := page.Header("X-XSS-Protection"); v != "" && v != "0" {
		out = append(out, "X-XSS-Protection is deprecated. Set it to '0' or remove it.")
	}
	if page.HasHeader("Expect-CT") {
		out = append(out, "Expect-CT is deprecated. Remove this header.")
	}
	if page.HasHeader("Public-Key-Pins") {
		out = append(out, "Public-Key-Pins is deprecated and dangerous. Remove this header.")
	}
	return out
}

func gradeLetter(percentage int) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	case percentage >= 50:
		return "E"
	default:
		return "F"
	}
}
