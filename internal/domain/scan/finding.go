package scan

import (
	"fmt"
	"strings"

	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

// FindingType classifies which analyzer family produced a finding
type FindingType string

const (
	TypeSecurity      FindingType = "security"
	TypePerformance   FindingType = "performance"
	TypeMalware       FindingType = "malware"
	TypeSEO           FindingType = "seo"
	TypeAccessibility FindingType = "accessibility"
)

// Valid reports whether t is one of the known finding types
func (t FindingType) Valid() bool {
	switch t {
	case TypeSecurity, TypePerformance, TypeMalware, TypeSEO, TypeAccessibility:
		return true
	}
	return false
}

// Severity of a finding
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight maps a severity onto the numeric scale used by feature extraction.
// Unknown severities weigh 0.
func (s Severity) Weight() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	return s.Weight() > 0
}

// ParseSeverity converts a case-insensitive label into a Severity
func ParseSeverity(v string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown severity %q", sharedErrors.ErrInvalidFinding, v)
	}
	return s, nil
}

// Finding is one detected issue. Values are immutable; the With* methods
// return modified copies.
type Finding struct {
	typ            FindingType
	code           string
	message        string
	severity       Severity
	recommendation string
	contextNote    string
}

// FindingSpec carries the fields needed to build a Finding
type FindingSpec struct {
	Type           FindingType
	Code           string
	Message        string
	Severity       Severity
	Recommendation string
	ContextNote    string
}

// NewFinding validates spec and builds a Finding
func NewFinding(spec FindingSpec) (Finding, error) {
	if !spec.Type.Valid() {
		return Finding{}, fmt.Errorf("%w: unknown type %q", sharedErrors.ErrInvalidFinding, spec.Type)
	}
	if strings.TrimSpace(spec.Message) == "" {
		return Finding{}, fmt.Errorf("%w: message cannot be empty", sharedErrors.ErrInvalidFinding)
	}
	if !spec.Severity.Valid() {
		return Finding{}, fmt.Errorf("%w: unknown severity %q", sharedErrors.ErrInvalidFinding, spec.Severity)
	}

	return Finding{
		typ:            spec.Type,
		code:           spec.Code,
		message:        spec.Message,
		severity:       spec.Severity,
		recommendation: spec.Recommendation,
		contextNote:    spec.ContextNote,
	}, nil
}

// MustFinding is NewFinding for statically known specs; it panics on invalid input.
func MustFinding(spec FindingSpec) Finding {
	f, err := NewFinding(spec)
	if err != nil {
		panic(err)
	}
	return f
}

// WithSeverity returns a copy of f with a different severity and context note
func (f Finding) WithSeverity(severity Severity, note string) Finding {
	f.severity = severity
	f.contextNote = note
	return f
}

func (f Finding) withMessage(message string) Finding {
	f.message = message
	return f
}

// Getters

func (f Finding) Type() FindingType {
	return f.typ
}

// Code is the stable rule identifier used to look up recommendation text
func (f Finding) Code() string {
	return f.code
}

func (f Finding) Message() string {
	return f.message
}

func (f Finding) Severity() Severity {
	return f.severity
}

func (f Finding) Recommendation() string {
	return f.recommendation
}

func (f Finding) ContextNote() string {
	return f.contextNote
}

// Spec returns the fields of f as a FindingSpec
func (f Finding) Spec() FindingSpec {
	return FindingSpec{
		Type:           f.typ,
		Code:           f.code,
		Message:        f.message,
		Severity:       f.severity,
		Recommendation: f.recommendation,
		ContextNote:    f.contextNote,
	}
}
