package drupal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSite = "/project/web/sites/default"

func newSite(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testSite, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, SettingsFileName), []byte("<?php\n"), 0o644))
	return fs
}

func readSiteFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join(testSite, name))
	require.NoError(t, err)
	return string(data)
}

func TestDebugLines(t *testing.T) {
	lines := DebugLines("web/sites/default")
	require.Len(t, lines, 8)
	assert.Equal(t, "$settings['container_yamls'][] = DRUPAL_ROOT . '/sites/default/services.local.yml';", lines[0])
	assert.Equal(t, "$settings['config_exclude_modules'] = ['devel', 'stage_file_proxy'];", lines[7])

	seen := make(map[string]bool)
	for _, l := range lines {
		assert.False(t, seen[l], "duplicate line %q", l)
		seen[l] = true
	}
}

func TestServicesIncludePath(t *testing.T) {
	tests := []struct {
		siteDir string
		want    string
	}{
		{"web/sites/default", "sites/default/services.local.yml"},
		{"/var/www/html/web/sites/example.com", "sites/example.com/services.local.yml"},
		{"docroot/sites/default/", "sites/default/services.local.yml"},
		{"sites/default", "sites/default/services.local.yml"},
		{"/srv/sites/www/sites/default", "sites/default/services.local.yml"},
		{"custom/site", "custom/site/services.local.yml"},
		{"/abs/custom", "abs/custom/services.local.yml"},
	}
	for _, tt := range tests {
		t.Run(tt.siteDir, func(t *testing.T) {
			assert.Equal(t, tt.want, ServicesIncludePath(tt.siteDir))
		})
	}
}

func TestServicesIncludePath_InsideSiteDir(t *testing.T) {
	site := filepath.Join(t.TempDir(), "web", "sites", "blog")
	require.NoError(t, os.MkdirAll(filepath.Join(site, "files"), 0o755))
	t.Chdir(site)

	assert.Equal(t, "sites/blog/services.local.yml", ServicesIncludePath("."))
	assert.Equal(t, "sites/blog/services.local.yml", ServicesIncludePath("files/.."))
	assert.Equal(t, "$settings['container_yamls'][] = DRUPAL_ROOT . '/sites/blog/services.local.yml';",
		ContainerYAMLLine("."))
}

func TestDocRoot(t *testing.T) {
	tests := []struct {
		siteDir string
		want    string
	}{
		{"web/sites/default", "web"},
		{"sites/default", "."},
		{"/var/www/html/web/sites/example.com", "/var/www/html/web"},
		{"/sites/default", "/"},
		{"/abs/custom", ""},
	}
	for _, tt := range tests {
		t.Run(tt.siteDir, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), DocRoot(tt.siteDir))
		})
	}
}

func TestDocRoot_InsideSiteDir(t *testing.T) {
	project := t.TempDir()
	site := filepath.Join(project, "web", "sites", "default")
	require.NoError(t, os.MkdirAll(site, 0o755))
	t.Chdir(site)

	got := DocRoot(".")
	want, err := filepath.EvalSymlinks(filepath.Join(project, "web"))
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestEnsureSettingsOverrides_CreatesFile(t *testing.T) {
	fs := newSite(t)
	d := NewDebugger(fs)

	result, err := d.EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Len(t, result.Appended, 8)
	assert.True(t, result.Changed())
	assert.True(t, result.Complete)

	want := "<?php\n" + strings.Join(DebugLines(testSite), "\n") + "\n"
	assert.Equal(t, want, readSiteFile(t, fs, LocalSettingsFileName))
}

func TestEnsureSettingsOverrides_Idempotent(t *testing.T) {
	fs := newSite(t)
	d := NewDebugger(fs)

	_, err := d.EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	first := readSiteFile(t, fs, LocalSettingsFileName)

	result, err := d.EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Empty(t, result.Appended)
	assert.False(t, result.Changed())

	assert.Equal(t, first, readSiteFile(t, fs, LocalSettingsFileName))
	for _, line := range DebugLines(testSite) {
		assert.Equal(t, 1, strings.Count(first, line), "line %q", line)
	}
}

func TestEnsureSettingsOverrides_PreservesExistingContent(t *testing.T) {
	fs := newSite(t)
	custom := "<?php\n\n$databases['default']['default']['host'] = 'db';\n// keep me\n"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, LocalSettingsFileName), []byte(custom), 0o644))

	result, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Len(t, result.Appended, 8)

	got := readSiteFile(t, fs, LocalSettingsFileName)
	assert.True(t, strings.HasPrefix(got, custom), "custom content must stay first, got:\n%s", got)
	assert.Equal(t, 1, strings.Count(got, "<?php"))
}

func TestEnsureSettingsOverrides_PartialAndCaseInsensitive(t *testing.T) {
	fs := newSite(t)
	existing := "<?php\n" +
		strings.ToUpper(lineRenderCacheNull) + "\n" +
		"  " + lineCSSPreprocessOff + " // already here\n"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, LocalSettingsFileName), []byte(existing), 0o644))

	result, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.NoError(t, err)

	assert.Len(t, result.Appended, 6)
	assert.NotContains(t, result.Appended, lineRenderCacheNull)
	assert.NotContains(t, result.Appended, lineCSSPreprocessOff)

	got := readSiteFile(t, fs, LocalSettingsFileName)
	assert.Equal(t, 1, strings.Count(got, lineCSSPreprocessOff))
	assert.NotContains(t, got, lineRenderCacheNull, "lowercase copy must not be appended")
}

func TestEnsureSettingsOverrides_NoTrailingNewline(t *testing.T) {
	fs := newSite(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, LocalSettingsFileName), []byte("<?php"), 0o644))

	_, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.NoError(t, err)

	got := readSiteFile(t, fs, LocalSettingsFileName)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "<?php", lines[0])
	assert.Equal(t, DebugLines(testSite), lines[1:])
}

func TestEnsureSettingsOverrides_EmptyExistingFile(t *testing.T) {
	fs := newSite(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, LocalSettingsFileName), nil, 0o644))

	result, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.True(t, result.OpenTagAdded)
	assert.Len(t, result.Appended, 8)

	want := "<?php\n" + strings.Join(DebugLines(testSite), "\n") + "\n"
	assert.Equal(t, want, readSiteFile(t, fs, LocalSettingsFileName))

	again, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	assert.False(t, again.Changed())
	assert.Equal(t, want, readSiteFile(t, fs, LocalSettingsFileName))
}

func TestEnsureSettingsOverrides_WhitespaceOnlyFile(t *testing.T) {
	fs := newSite(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testSite, LocalSettingsFileName), []byte("\n\n"), 0o644))

	result, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.NoError(t, err)
	assert.True(t, result.OpenTagAdded)

	got := readSiteFile(t, fs, LocalSettingsFileName)
	assert.Equal(t, "<?php", strings.TrimSpace(strings.SplitN(strings.TrimLeft(got, "\n"), "\n", 2)[0]))
	assert.Equal(t, 1, strings.Count(got, "<?php"))
}

func TestEnsureSettingsOverrides_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(newSite(t))

	result, err := NewDebugger(fs).EnsureSettingsOverrides(testSite)
	require.Error(t, err)
	assert.True(t, isFileAccess(err), "expected ErrFileAccess, got %v", err)
	assert.False(t, result.Complete)
}

func TestMissingLines(t *testing.T) {
	lines := []string{"A = 1;", "B = 2;"}
	assert.Equal(t, lines, missingLines("", lines))
	assert.Equal(t, []string{"B = 2;"}, missingLines("x\na = 1;\n", lines))
	assert.Empty(t, missingLines("A = 1; B = 2;", lines))
}
