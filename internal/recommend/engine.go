// Package recommend maps findings to remediation advice from a YAML
// knowledge base keyed by finding code.
package recommend

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule is one knowledge base entry
type Rule struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Snippet     string `yaml:"snippet"`
	Link        string `yaml:"link"`
}

// Format renders the rule as report text
func (r Rule) Format() string {
	title := r.Title
	if title == "" {
		title = "Recommendation"
	}
	parts := []string{fmt.Sprintf("**%s**", title)}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if r.Snippet != "" {
		parts = append(parts, fmt.Sprintf("Example Fix: `%s`", r.Snippet))
	}
	if r.Link != "" {
		parts = append(parts, "Learn more: "+r.Link)
	}
	return strings.Join(parts, "\n")
}

// Engine produces recommendations for findings
type Engine struct {
	rules map[string]Rule
}

// Load reads rules from path, or the embedded defaults when path is empty
func Load(path string) (*Engine, error) {
	data := defaultRules
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read recommendation rules: %w", err)
		}
	}
	return Parse(data)
}

// Parse builds an engine from YAML rules
func Parse(data []byte) (*Engine, error) {
	rules := make(map[string]Rule)
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse recommendation rules: %w", err)
	}
	return &Engine{rules: rules}, nil
}

// Rule returns the rule for a finding code
func (e *Engine) Rule(code string) (Rule, bool) {
	r, ok := e.rules[code]
	return r, ok
}

// Recommend returns one recommendation per finding, rule text first and the
// finding's own recommendation otherwise. Duplicates are dropped keeping the
// first occurrence.
func (e *Engine) Recommend(findings []scan.Finding) []string {
	out := make([]string, 0, len(findings))
	seen := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		var text string
		if rule, ok := e.rules[f.Code()]; ok && f.Code() != "" {
			text = rule.Format()
		} else {
			text = f.Recommendation()
		}
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}
