package doctor

import "time"

// Check is a single diagnostic.
type Check interface {
	// Name returns the unique identifier for this check.
	Name() string

	// Category returns the grouping for this check.
	Category() string

	Run() *CheckResult
}

// Runner executes checks in registration order.
type Runner struct {
	site   string
	checks []Check
	now    func() time.Time
}

// NewRunner creates a Runner with the given checks.
func NewRunner(checks ...Check) *Runner {
	return &Runner{
		checks: append(make([]Check, 0, len(checks)), checks...),
		now:    time.Now,
	}
}

// ForSite records the site directory the checks inspect. It is copied into
// every report.
func (r *Runner) ForSite(siteDir string) *Runner {
	r.site = siteDir
	return r
}

// AddCheck registers a diagnostic check with the runner.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes all registered checks and returns a fresh report. It can be
// called again after Fix to verify the repairs.
func (r *Runner) Run() *DoctorReport {
	report := &DoctorReport{
		Site:      r.site,
		Timestamp: r.now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}
	for _, check := range r.checks {
		result := check.Run()
		report.Results = append(report.Results, result)
		report.Summary.add(result.Status)
	}
	return report
}

// Fix calls Fix on every check that implements Fixer and reported something
// to fix during the last Run.
func (r *Runner) Fix() []FixResult {
	var results []FixResult
	for _, check := range r.checks {
		if fixer, ok := check.(Fixer); ok && fixer.CanFix() {
			results = append(results, fixer.Fix()...)
		}
	}
	return results
}

// DoctorReport is the outcome of one Run.
type DoctorReport struct {
	Site      string         `json:"site,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// HasErrors returns true if any check has SeverityError.
func (r *DoctorReport) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings returns true if any check has SeverityWarning.
func (r *DoctorReport) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// Worst returns the highest severity in the report, or SeverityPass when
// there are no results.
func (r *DoctorReport) Worst() Severity {
	worst := SeverityPass
	for _, res := range r.Results {
		worst = max(worst, res.Status)
	}
	return worst
}
