package doctor

import (
	"slices"

	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// Severity ranks a check result. Higher values are worse.
type Severity int

const (
	SeverityPass Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

var severityNames = []string{"pass", "info", "warning", "error"}

// String returns the lower-case severity name, or "unknown".
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// IsProblem reports whether s is a warning or an error.
func (s Severity) IsProblem() bool {
	return s >= SeverityWarning
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	i := slices.Index(severityNames, string(text))
	if i < 0 {
		return errors.Newf("unknown severity %q", text)
	}
	*s = Severity(i)
	return nil
}

// CheckResult represents the outcome of a single diagnostic check.
type CheckResult struct {
	Name string `json:"name"`

	// Category groups related checks ("site", "filesystem").
	Category string `json:"category"`

	Status  Severity `json:"status"`
	Message string   `json:"message"`

	// Details contains check-specific context.
	Details map[string]any `json:"details,omitempty"`

	// Fixable indicates whether drupal:doctor --fix can repair the issue.
	Fixable bool `json:"fixable,omitempty"`

	// FixHint tells the user how to resolve the issue by hand.
	FixHint string `json:"fix_hint,omitempty"`
}

// Summary counts check results by severity.
type Summary struct {
	Passed   int `json:"passed"`
	Info     int `json:"info"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

func (s *Summary) add(sev Severity) {
	switch sev {
	case SeverityPass:
		s.Passed++
	case SeverityInfo:
		s.Info++
	case SeverityWarning:
		s.Warnings++
	case SeverityError:
		s.Errors++
	}
}

// Total returns the number of counted results.
func (s Summary) Total() int {
	return s.Passed + s.Info + s.Warnings + s.Errors
}
