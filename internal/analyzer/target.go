package analyzer

import (
	"fmt"
	"net/url"
	"strings"

	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

// DefaultScheme is prepended to targets given without one
const DefaultScheme = "https"

// NormalizeURL turns user input such as "example.com/path" into an absolute
// http(s) URL. Targets without a scheme get https.
func NormalizeURL(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("%w: target cannot be empty", sharedErrors.ErrInvalidURL)
	}

	parsed, err := url.Parse(target)
	// "example.com:8080" parses with scheme "example.com"
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") || (parsed.Host == "" && parsed.Opaque != "") {
		parsed, err = url.Parse(DefaultScheme + "://" + target)
		if err != nil {
			return "", fmt.Errorf("%w: %v", sharedErrors.ErrInvalidURL, err)
		}
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", sharedErrors.ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", sharedErrors.ErrInvalidURL, target)
	}
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String(), nil
}

// ExtractHost returns the bare hostname of a target, with or without scheme
func ExtractHost(target string) string {
	normalized, err := NormalizeURL(target)
	if err != nil {
		return ""
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
