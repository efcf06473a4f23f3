package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/drupaldbg/internal/config"
	"github.com/thoreinstein/drupaldbg/internal/doctor"
	"github.com/thoreinstein/drupaldbg/internal/errors"
)

var (
	doctorJSON    bool
	doctorQuiet   bool
	doctorVerbose bool
	doctorFix     bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false,
		"suppress output, exit code only")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "verbose", false,
		"show detailed check-by-check output")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"repair fixable issues, then check again")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:     "drupal:doctor [siteDir]",
	Aliases: []string{"doctor"},
	Short:   "Diagnose a site's debug setup",
	Long: `Run diagnostic checks on a Drupal site's local debug setup.

Checks that the site directory holds settings.php, that settings.php includes
settings.local.php, that every debug directive and services override is in
place, and that the override files are not world-writable. The drupaldbg
configuration is checked too.

Output modes (mutually exclusive):
  (default)   Show errors and warnings
  --verbose   Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  # Check the default site
  drupaldbg drupal:doctor

  # Check another site and fix permissions
  drupaldbg drupal:doctor web/sites/blog --fix

  See Also: drupaldbg drupal:enable-debugging`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: validateDoctorFlags,
	RunE:    runDoctor,
}

// validateDoctorFlags ensures output flags are mutually exclusive.
func validateDoctorFlags(_ *cobra.Command, _ []string) error {
	count := 0
	if doctorJSON {
		count++
	}
	if doctorQuiet {
		count++
	}
	if doctorVerbose {
		count++
	}

	if count > 1 {
		return errors.NewUserError(errors.New("flags --json, --quiet, and --verbose are mutually exclusive"), "")
	}

	return nil
}

func runDoctor(cmd *cobra.Command, args []string) error {
	siteDir := currentConfig().DefaultSiteDir
	if len(args) > 0 {
		siteDir = args[0]
	}

	runner := newDoctorRunner(siteDir)
	rep := runner.Run()

	if doctorFix {
		fixes := runner.Fix()
		if len(fixes) > 0 {
			if !doctorQuiet && !doctorJSON {
				outputFixResults(cmd.OutOrStdout(), fixes)
			}
			rep = runner.Run()
		}
	}

	if err := outputDoctorReport(cmd.OutOrStdout(), rep); err != nil {
		return err
	}

	switch rep.Worst() {
	case doctor.SeverityError:
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	case doctor.SeverityWarning:
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	default:
		return nil
	}
}

func newDoctorRunner(siteDir string) *doctor.Runner {
	runner := doctor.NewRunner(&configCheck{}).ForSite(siteDir)
	for _, check := range doctor.SiteChecks(appFs, siteDir) {
		runner.AddCheck(check)
	}
	return runner
}

func outputDoctorReport(w io.Writer, rep *doctor.DoctorReport) error {
	if doctorQuiet {
		return nil
	}

	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(rep), "encoding JSON")
	}

	outputDoctorText(w, rep)
	return nil
}

func outputDoctorText(w io.Writer, rep *doctor.DoctorReport) {
	showAll := doctorVerbose

	hasOutput := false
	for _, result := range rep.Results {
		problem := result.Status.IsProblem()
		if !showAll && !problem {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)

		if result.FixHint != "" && problem {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}

	if hasOutput || showAll {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		rep.Summary.Passed, rep.Summary.Info, rep.Summary.Warnings, rep.Summary.Errors)
}

func outputFixResults(w io.Writer, fixes []doctor.FixResult) {
	for _, fix := range fixes {
		if fix.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", statusIcon(doctor.SeverityPass), fix.Path, fix.Description)
			continue
		}
		fmt.Fprintf(w, "%s could not fix %s: %v\n", statusIcon(doctor.SeverityError), fix.Path, fix.Error)
	}
	fmt.Fprintln(w)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityInfo:
		return "ℹ"
	case doctor.SeverityWarning:
		return "⚠"
	case doctor.SeverityError:
		return "✗"
	default:
		return "?"
	}
}

// configCheck reports whether the drupaldbg configuration loaded.
type configCheck struct{}

var _ doctor.Check = (*configCheck)(nil)

func (c *configCheck) Name() string     { return "config" }
func (c *configCheck) Category() string { return "drupaldbg" }

func (c *configCheck) Run() *doctor.CheckResult {
	result := &doctor.CheckResult{Name: c.Name(), Category: c.Category()}

	switch {
	case configLoadErr != nil:
		result.Status = doctor.SeverityError
		result.Message = configLoadErr.Error()
		result.FixHint = "edit the config file, or remove it to use the defaults"
	case config.FileUsed() != "":
		result.Status = doctor.SeverityPass
		result.Message = "loaded " + config.FileUsed()
	default:
		result.Status = doctor.SeverityInfo
		result.Message = "no config file found, using defaults"
	}
	if file := config.FileUsed(); file != "" {
		result.Details = map[string]any{"path": file}
	}
	return result
}

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("warnings found")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("errors found")

// IsSilentExit reports whether err only carries an exit code and has
// already been reported.
func IsSilentExit(err error) bool {
	return errors.Is(err, errDoctorWarnings) || errors.Is(err, errDoctorErrors)
}
