package doctor

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/drupal"
)

// FilePermissionsCheck warns when the site directory or one of its settings
// files is world-writable. It implements Fixer.
type FilePermissionsCheck struct {
	siteCheck
	PermissionFixer
}

var (
	_ Check = (*FilePermissionsCheck)(nil)
	_ Fixer = (*FilePermissionsCheck)(nil)
)

// NewFilePermissionsCheck creates a permissions check for siteDir.
func NewFilePermissionsCheck(fs afero.Fs, siteDir string) *FilePermissionsCheck {
	return &FilePermissionsCheck{
		siteCheck:       siteCheck{fs: fs, siteDir: siteDir},
		PermissionFixer: PermissionFixer{fs: fs},
	}
}

func (c *FilePermissionsCheck) Name() string     { return "file-permissions" }
func (c *FilePermissionsCheck) Category() string { return categoryFilesystem }

// Run stats the site directory and its four settings files. Missing files
// are skipped.
func (c *FilePermissionsCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}
	c.issues = nil

	if runtime.GOOS == "windows" {
		result.Status = SeverityInfo
		result.Message = "skipped: permissions are not checked on Windows"
		return result
	}

	paths := []string{
		c.siteDir,
		c.file(drupal.SettingsFileName),
		c.file(drupal.LocalSettingsFileName),
		c.file(drupal.LocalServicesFileName),
	}

	var issues []permIssue
	checked := 0
	for _, path := range paths {
		info, err := c.siteCheck.fs.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			result.Status = SeverityError
			result.Message = fmt.Sprintf("cannot stat %s: %v", path, err)
			return result
		}
		checked++
		if info.Mode().Perm()&worldWritable != 0 {
			issues = append(issues, newPermIssue(path, info))
		}
	}
	c.issues = issues

	if len(issues) == 0 {
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("all %d paths have safe permissions", checked)
		return result
	}

	details := make([]map[string]any, len(issues))
	hints := make([]string, len(issues))
	for i, issue := range issues {
		details[i] = map[string]any{
			"path":        issue.path,
			"type":        issue.kind(),
			"permissions": fmt.Sprintf("%04o", issue.mode),
		}
		hints[i] = issue.hint()
	}

	result.Status = SeverityWarning
	result.Message = fmt.Sprintf("%d of %d paths are world-writable", len(issues), checked)
	result.Details = map[string]any{"issues": details}
	result.Fixable = true
	result.FixHint = strings.Join(hints, "; ")
	return result
}
