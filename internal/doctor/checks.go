package doctor

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/pkg/fileutil"
)

// Check categories.
const (
	categorySite       = "site"
	categoryFilesystem = "filesystem"
)

// enableHint is the remedy for missing or incomplete override files.
const enableHint = "run: drupaldbg drupal:enable-debugging"

// SiteChecks returns the standard checks for siteDir, in run order.
func SiteChecks(fs afero.Fs, siteDir string) []Check {
	return []Check{
		NewSiteLayoutCheck(fs, siteDir),
		NewLocalSettingsIncludeCheck(fs, siteDir),
		NewDebugSettingsCheck(fs, siteDir),
		NewServicesOverridesCheck(fs, siteDir),
		NewFilePermissionsCheck(fs, siteDir),
	}
}

// siteCheck carries what every site check needs.
type siteCheck struct {
	fs      afero.Fs
	siteDir string
}

func (c siteCheck) file(name string) string {
	return filepath.Join(c.siteDir, name)
}

// read returns the file's content, or nil and false when it does not exist.
func (c siteCheck) read(name string) ([]byte, bool, error) {
	data, err := fileutil.ReadFileWithLimit(c.fs, c.file(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// SiteLayoutCheck verifies the site directory exists and holds settings.php.
type SiteLayoutCheck struct {
	siteCheck
}

var _ Check = (*SiteLayoutCheck)(nil)

// NewSiteLayoutCheck creates a site layout check for siteDir.
func NewSiteLayoutCheck(fs afero.Fs, siteDir string) *SiteLayoutCheck {
	return &SiteLayoutCheck{siteCheck{fs: fs, siteDir: siteDir}}
}

// Name returns the unique identifier for this check.
func (c *SiteLayoutCheck) Name() string { return "site-layout" }

// Category returns the grouping for this check.
func (c *SiteLayoutCheck) Category() string { return categorySite }

// Run executes the check.
func (c *SiteLayoutCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	info, err := c.fs.Stat(c.siteDir)
	switch {
	case err != nil && os.IsNotExist(err):
		result.Status = SeverityError
		result.Message = "site directory " + c.siteDir + " does not exist"
		result.FixHint = "pass the site directory, or run: drupaldbg drupal:find-sites"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat %s: %v", c.siteDir, err)
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = c.siteDir + " is not a directory"
		return result
	}

	ok, err := fileutil.Exists(c.fs, c.file(drupal.SettingsFileName))
	if err != nil || !ok {
		result.Status = SeverityWarning
		result.Message = "no settings.php in " + c.siteDir
		result.FixHint = "copy default.settings.php to settings.php or point at another site"
		return result
	}

	result.Status = SeverityPass
	result.Message = c.siteDir + " is a site directory"
	return result
}

// LocalSettingsIncludeCheck verifies settings.php includes settings.local.php.
// Without the include none of the debug directives take effect.
type LocalSettingsIncludeCheck struct {
	siteCheck
}

var _ Check = (*LocalSettingsIncludeCheck)(nil)

// NewLocalSettingsIncludeCheck creates an include check for siteDir.
func NewLocalSettingsIncludeCheck(fs afero.Fs, siteDir string) *LocalSettingsIncludeCheck {
	return &LocalSettingsIncludeCheck{siteCheck{fs: fs, siteDir: siteDir}}
}

// Name returns the unique identifier for this check.
func (c *LocalSettingsIncludeCheck) Name() string { return "local-settings-include" }

// Category returns the grouping for this check.
func (c *LocalSettingsIncludeCheck) Category() string { return categorySite }

// Run executes the check.
func (c *LocalSettingsIncludeCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	data, ok, err := c.read(drupal.SettingsFileName)
	switch {
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read settings.php: %v", err)
		return result
	case !ok:
		result.Status = SeverityInfo
		result.Message = "skipped: no settings.php"
		return result
	}

	if referencesLocalSettings(data) {
		result.Status = SeverityPass
		result.Message = "settings.php includes settings.local.php"
		return result
	}

	result.Status = SeverityWarning
	result.Message = "settings.php does not include settings.local.php"
	result.FixHint = "uncomment the settings.local.php include at the end of settings.php"
	return result
}

// referencesLocalSettings reports whether an uncommented line of a PHP file
// mentions settings.local.php.
func referencesLocalSettings(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	inBlock := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if inBlock {
			if strings.Contains(line, "*/") {
				inBlock = false
			}
			continue
		}
		if strings.HasPrefix(line, "/*") {
			inBlock = !strings.Contains(line, "*/")
			continue
		}
		if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "*") {
			continue
		}

		if strings.Contains(line, drupal.LocalSettingsFileName) {
			return true
		}
	}
	return false
}

// DebugSettingsCheck verifies settings.local.php holds every debug directive.
type DebugSettingsCheck struct {
	siteCheck
}

var _ Check = (*DebugSettingsCheck)(nil)

// NewDebugSettingsCheck creates a debug directive check for siteDir.
func NewDebugSettingsCheck(fs afero.Fs, siteDir string) *DebugSettingsCheck {
	return &DebugSettingsCheck{siteCheck{fs: fs, siteDir: siteDir}}
}

// Name returns the unique identifier for this check.
func (c *DebugSettingsCheck) Name() string { return "debug-settings" }

// Category returns the grouping for this check.
func (c *DebugSettingsCheck) Category() string { return categorySite }

// Run executes the check.
func (c *DebugSettingsCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	data, ok, err := c.read(drupal.LocalSettingsFileName)
	switch {
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read settings.local.php: %v", err)
		return result
	case !ok:
		result.Status = SeverityWarning
		result.Message = "settings.local.php does not exist"
		result.FixHint = enableHint
		return result
	}

	lines := drupal.DebugLines(c.siteDir)
	content := strings.ToLower(string(data))
	var missing []string
	for _, line := range lines {
		if !strings.Contains(content, strings.ToLower(line)) {
			missing = append(missing, line)
		}
	}

	if len(missing) == 0 {
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("all %d debug directives present", len(lines))
		return result
	}

	result.Status = SeverityWarning
	result.Message = fmt.Sprintf("%d of %d debug directives missing", len(missing), len(lines))
	result.Details = map[string]any{"missing": missing}
	result.FixHint = enableHint
	return result
}

// ServicesOverridesCheck verifies services.local.yml parses and defines
// every top-level key of the debug fragment.
type ServicesOverridesCheck struct {
	siteCheck
}

var _ Check = (*ServicesOverridesCheck)(nil)

// NewServicesOverridesCheck creates a services check for siteDir.
func NewServicesOverridesCheck(fs afero.Fs, siteDir string) *ServicesOverridesCheck {
	return &ServicesOverridesCheck{siteCheck{fs: fs, siteDir: siteDir}}
}

// Name returns the unique identifier for this check.
func (c *ServicesOverridesCheck) Name() string { return "services-overrides" }

// Category returns the grouping for this check.
func (c *ServicesOverridesCheck) Category() string { return categorySite }

// Run executes the check.
func (c *ServicesOverridesCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	data, ok, err := c.read(drupal.LocalServicesFileName)
	switch {
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read services.local.yml: %v", err)
		return result
	case !ok:
		result.Status = SeverityWarning
		result.Message = "services.local.yml does not exist"
		result.FixHint = enableHint
		return result
	}

	merged, err := drupal.MergeServices(data, drupal.MergeExistingWins)
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("services.local.yml is invalid: %v", err)
		result.FixHint = "fix the YAML syntax; the file must be a mapping"
		return result
	}

	if len(merged.Added) > 0 {
		result.Status = SeverityWarning
		result.Message = "services.local.yml is missing: " + strings.Join(merged.Added, ", ")
		result.Details = map[string]any{"missing": merged.Added}
		result.FixHint = enableHint
		return result
	}

	result.Status = SeverityPass
	result.Message = "services.local.yml defines " + strings.Join(merged.Kept, ", ")
	return result
}
