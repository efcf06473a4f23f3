package doctor

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/drupaldbg/internal/drupal"
)

const testSite = "/project/web/sites/default"

const settingsWithInclude = `<?php
$databases = [];
if (file_exists($app_root . '/' . $site_path . '/settings.local.php')) {
  include $app_root . '/' . $site_path . '/settings.local.php';
}
`

const settingsCommentedInclude = `<?php
$databases = [];
# if (file_exists($app_root . '/' . $site_path . '/settings.local.php')) {
#   include $app_root . '/' . $site_path . '/settings.local.php';
# }
`

// newSite creates testSite holding files.
func newSite(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testSite, 0o755))
	require.NoError(t, fs.Chmod(testSite, 0o755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, name), []byte(content), 0o644))
	}
	return fs
}

// debugSite returns a site on which enable-debugging has run.
func debugSite(t *testing.T) afero.Fs {
	t.Helper()
	fs := newSite(t, map[string]string{drupal.SettingsFileName: settingsWithInclude})
	_, err := drupal.NewDebugger(fs).EnableDebugging(testSite)
	require.NoError(t, err)
	return fs
}

func TestSiteChecks_Order(t *testing.T) {
	var names []string
	for _, c := range SiteChecks(afero.NewMemMapFs(), testSite) {
		names = append(names, c.Name())
	}

	assert.Equal(t, []string{
		"site-layout",
		"local-settings-include",
		"debug-settings",
		"services-overrides",
		"file-permissions",
	}, names)
}

func TestSiteChecks_HealthySite(t *testing.T) {
	fs := debugSite(t)

	report := NewRunner(SiteChecks(fs, testSite)...).Run()

	for _, r := range report.Results {
		if runtime.GOOS == "windows" && r.Name == "file-permissions" {
			continue
		}
		assert.Equal(t, SeverityPass, r.Status, "%s: %s", r.Name, r.Message)
	}
	assert.False(t, report.HasErrors())
	assert.False(t, report.HasWarnings())
}

func TestSiteLayoutCheck(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) afero.Fs
		want  Severity
	}{
		{
			name:  "missing directory",
			setup: func(t *testing.T) afero.Fs { return afero.NewMemMapFs() },
			want:  SeverityError,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) afero.Fs {
				fs := afero.NewMemMapFs()
				require.NoError(t, fs.MkdirAll(filepath.Dir(testSite), 0o755))
				require.NoError(t, afero.WriteFile(fs, testSite, nil, 0o644))
				return fs
			},
			want: SeverityError,
		},
		{
			name:  "no settings.php",
			setup: func(t *testing.T) afero.Fs { return newSite(t, nil) },
			want:  SeverityWarning,
		},
		{
			name: "site directory",
			setup: func(t *testing.T) afero.Fs {
				return newSite(t, map[string]string{drupal.SettingsFileName: "<?php\n"})
			},
			want: SeverityPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSiteLayoutCheck(tt.setup(t), testSite)
			result := c.Run()

			assert.Equal(t, "site-layout", result.Name)
			assert.Equal(t, "site", result.Category)
			assert.Equal(t, tt.want, result.Status, result.Message)
		})
	}
}

func TestLocalSettingsIncludeCheck(t *testing.T) {
	tests := []struct {
		name     string
		settings *string
		want     Severity
	}{
		{"no settings.php", nil, SeverityInfo},
		{"include present", ptr(settingsWithInclude), SeverityPass},
		{"include commented with hash", ptr(settingsCommentedInclude), SeverityWarning},
		{"include in block comment", ptr("<?php\n/*\ninclude 'settings.local.php';\n*/\n"), SeverityWarning},
		{"include after one-line block comment", ptr("<?php\n/* local */\ninclude __DIR__ . '/settings.local.php';\n"), SeverityPass},
		{"include in line comment", ptr("<?php\n// include 'settings.local.php';\n"), SeverityWarning},
		{"no include", ptr("<?php\n$settings['hash_salt'] = 'x';\n"), SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			if tt.settings != nil {
				files[drupal.SettingsFileName] = *tt.settings
			}

			result := NewLocalSettingsIncludeCheck(newSite(t, files), testSite).Run()

			assert.Equal(t, tt.want, result.Status, result.Message)
			if tt.want == SeverityWarning {
				assert.NotEmpty(t, result.FixHint)
			}
		})
	}
}

func TestDebugSettingsCheck(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		result := NewDebugSettingsCheck(newSite(t, nil), testSite).Run()

		assert.Equal(t, SeverityWarning, result.Status)
		assert.Contains(t, result.FixHint, "drupal:enable-debugging")
	})

	t.Run("partial", func(t *testing.T) {
		lines := drupal.DebugLines(testSite)
		content := "<?php\n" + strings.ToUpper(lines[0]) + "\n" + lines[1] + "\n"
		fs := newSite(t, map[string]string{drupal.LocalSettingsFileName: content})

		result := NewDebugSettingsCheck(fs, testSite).Run()

		assert.Equal(t, SeverityWarning, result.Status)
		assert.Equal(t, "6 of 8 debug directives missing", result.Message)
		assert.Equal(t, lines[2:], result.Details["missing"])
	})

	t.Run("complete", func(t *testing.T) {
		result := NewDebugSettingsCheck(debugSite(t), testSite).Run()

		assert.Equal(t, SeverityPass, result.Status, result.Message)
	})
}

func TestServicesOverridesCheck(t *testing.T) {
	tests := []struct {
		name     string
		services *string
		want     Severity
		message  string
	}{
		{"missing file", nil, SeverityWarning, "does not exist"},
		{"malformed", ptr("parameters: [\n"), SeverityError, "invalid"},
		{"not a mapping", ptr("- a\n- b\n"), SeverityError, "invalid"},
		{"missing services key", ptr("parameters:\n  twig.config: {}\n"), SeverityWarning, "missing: services"},
		{"empty file", ptr(""), SeverityWarning, "missing: parameters, services"},
		{"both keys", ptr("parameters: {}\nservices: {}\n"), SeverityPass, "defines parameters, services"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			if tt.services != nil {
				files[drupal.LocalServicesFileName] = *tt.services
			}

			result := NewServicesOverridesCheck(newSite(t, files), testSite).Run()

			assert.Equal(t, tt.want, result.Status, result.Message)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestFilePermissionsCheck(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permissions are not checked on Windows")
	}

	fs := debugSite(t)
	settingsLocal := filepath.Join(testSite, drupal.LocalSettingsFileName)
	require.NoError(t, fs.Chmod(settingsLocal, 0o666))
	require.NoError(t, fs.Chmod(testSite, 0o777))

	c := NewFilePermissionsCheck(fs, testSite)
	result := c.Run()

	assert.Equal(t, "filesystem", result.Category)
	assert.Equal(t, SeverityWarning, result.Status)
	assert.True(t, result.Fixable)
	assert.Contains(t, result.FixHint, "chmod 644 "+settingsLocal)
	assert.Contains(t, result.FixHint, "chmod 755 "+testSite)
	require.True(t, c.CanFix())
	assert.Equal(t, 2, c.CountFixable())

	fixes := c.Fix()
	require.Len(t, fixes, 2)
	for _, f := range fixes {
		assert.True(t, f.Fixed, f.Description)
		assert.NoError(t, f.Error)
	}

	info, err := fs.Stat(settingsLocal)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	info, err = fs.Stat(testSite)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.Equal(t, SeverityPass, c.Run().Status)
	assert.False(t, c.CanFix())
}

func TestPermissionFixer_KeepsOtherBits(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/site/run.sh", nil, 0o777))
	require.NoError(t, fs.Chmod("/site/run.sh", 0o777))
	info, err := fs.Stat("/site/run.sh")
	require.NoError(t, err)

	f := &PermissionFixer{fs: fs, issues: []permIssue{newPermIssue("/site/run.sh", info)}}
	results := f.Fix()

	require.Len(t, results, 1)
	assert.True(t, results[0].Fixed)
	assert.Equal(t, "file mode 0777 -> 0755", results[0].Description)
	info, err = fs.Stat("/site/run.sh")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestPermissionFixer_ChmodFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/x", nil, 0o666))
	info, err := fs.Stat("/x")
	require.NoError(t, err)
	require.NoError(t, fs.Remove("/x"))

	f := &PermissionFixer{fs: fs, issues: []permIssue{newPermIssue("/x", info)}}
	results := f.Fix()

	require.Len(t, results, 1)
	assert.False(t, results[0].Fixed)
	assert.Error(t, results[0].Error)
}

func ptr(s string) *string { return &s }
