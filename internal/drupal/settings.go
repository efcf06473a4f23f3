package drupal

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/logging"
	"github.com/thoreinstein/drupaldbg/pkg/fileutil"
)

// LocalSettingsFileName is the PHP override file written into each site.
const LocalSettingsFileName = "settings.local.php"

// phpOpenTag seeds a newly created settings.local.php.
const phpOpenTag = "<?php"

// settingsFilePerm is the mode for newly created override files.
const settingsFilePerm os.FileMode = 0o644

// Debug directives after the container_yamls line, in write order.
const (
	lineRenderCacheNull       = `$settings['cache']['bins']['render'] = 'cache.backend.null';`
	linePageCacheNull         = `$settings['cache']['bins']['page'] = 'cache.backend.null';`
	lineDynamicPageCacheNull  = `$settings['cache']['bins']['dynamic_page_cache'] = 'cache.backend.null';`
	lineCSSPreprocessOff      = `$config['system.performance']['css']['preprocess'] = FALSE;`
	lineJSPreprocessOff       = `$config['system.performance']['js']['preprocess'] = FALSE;`
	lineSimpleSAMLDeactivated = `$config['simplesamlphp_auth.settings']['activate'] = FALSE;`
	lineConfigExcludeModules  = `$settings['config_exclude_modules'] = ['devel', 'stage_file_proxy'];`
)

// DebugLines returns the eight directives settings.local.php must contain
// for siteDir, in the order they are appended.
func DebugLines(siteDir string) []string {
	return []string{
		ContainerYAMLLine(siteDir),
		lineRenderCacheNull,
		linePageCacheNull,
		lineDynamicPageCacheNull,
		lineCSSPreprocessOff,
		lineJSPreprocessOff,
		lineSimpleSAMLDeactivated,
		lineConfigExcludeModules,
	}
}

// ContainerYAMLLine returns the directive that registers the site's
// services.local.yml with the service container.
func ContainerYAMLLine(siteDir string) string {
	return "$settings['container_yamls'][] = DRUPAL_ROOT . '/" + ServicesIncludePath(siteDir) + "';"
}

// ServicesIncludePath returns the docroot-relative path of the site's
// services.local.yml. DRUPAL_ROOT is the docroot, so the path starts at the
// last "sites" segment of siteDir: "web/sites/default" becomes
// "sites/default/services.local.yml". A siteDir without a "sites" segment is
// used as given.
func ServicesIncludePath(siteDir string) string {
	segments, i := siteSegments(siteDir)
	if i >= 0 {
		return path.Join(append(slices.Clone(segments[i:]), LocalServicesFileName)...)
	}
	clean := filepath.ToSlash(filepath.Clean(siteDir))
	return path.Join(strings.TrimPrefix(clean, "/"), LocalServicesFileName)
}

// DocRoot returns the directory holding siteDir's "sites" directory, or ""
// when siteDir has no "sites" segment.
func DocRoot(siteDir string) string {
	segments, i := siteSegments(siteDir)
	switch {
	case i < 0:
		return ""
	case i == 0:
		return "."
	}
	root := strings.Join(segments[:i], "/")
	if root == "" {
		return "/"
	}
	return filepath.FromSlash(root)
}

// siteSegments splits siteDir into slash-separated segments and returns the
// index of the last "sites" segment, or -1. A relative siteDir without one
// is resolved against the working directory, so "." run inside
// web/sites/default still finds it.
func siteSegments(siteDir string) ([]string, int) {
	clean := filepath.Clean(siteDir)
	segments := strings.Split(filepath.ToSlash(clean), "/")
	if i := lastIndex(segments, sitesSegment); i >= 0 {
		return segments, i
	}
	if filepath.IsAbs(clean) {
		return segments, -1
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return segments, -1
	}
	absSegments := strings.Split(filepath.ToSlash(abs), "/")
	if i := lastIndex(absSegments, sitesSegment); i >= 0 {
		return absSegments, i
	}
	return segments, -1
}

func lastIndex(s []string, v string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}
	return -1
}

// SettingsResult describes what EnsureSettingsOverrides changed.
type SettingsResult struct {
	// Path is the settings.local.php that was checked.
	Path string

	// Created is true when the file did not exist and was seeded.
	Created bool

	// OpenTagAdded is true when an existing file lacked "<?php" and the
	// tag was written ahead of the directives.
	OpenTagAdded bool

	// Appended lists the directives appended in this run, in order.
	Appended []string

	// Complete is true when every directive is known to be in the file.
	Complete bool
}

// Changed reports whether the run modified the file.
func (r *SettingsResult) Changed() bool {
	return r.Created || r.OpenTagAdded || len(r.Appended) > 0
}

// EnsureSettingsOverrides makes sure siteDir/settings.local.php contains
// every debug directive at least once.
//
// A missing file is created holding only the PHP open tag. The content is
// then read once and every directive absent from that snapshot
// (case-insensitive substring match) is appended on its own line. A
// snapshot without "<?php", such as an empty file, gets the tag first. Existing
// content is never removed or reordered. I/O failures are marked
// ErrFileAccess; anything already flushed stays on disk.
func (d *Debugger) EnsureSettingsOverrides(siteDir string) (*SettingsResult, error) {
	file := filepath.Join(siteDir, LocalSettingsFileName)
	result := &SettingsResult{Path: file}

	exists, err := fileutil.Exists(d.fs, file)
	if err != nil {
		return result, fileAccessError(err, "checking %s", file)
	}

	if !exists {
		if err := afero.WriteFile(d.fs, file, []byte(phpOpenTag+"\n"), settingsFilePerm); err != nil {
			return result, fileAccessError(err, "creating %s", file)
		}
		result.Created = true
		d.logger.Info("created settings file", "path", file)
	}

	data, err := fileutil.ReadFileWithLimit(d.fs, file)
	if err != nil {
		return result, fileAccessError(err, "reading %s", file)
	}

	missing := missingLines(string(data), DebugLines(siteDir))
	needTag := len(missingLines(string(data), []string{phpOpenTag})) > 0
	if len(missing) == 0 && !needTag {
		d.logger.Debug("settings file already up to date", "path", file)
		result.Complete = true
		return result, nil
	}

	var b strings.Builder
	if len(data) > 0 && data[len(data)-1] != '\n' {
		b.WriteByte('\n')
	}
	if needTag {
		b.WriteString(phpOpenTag + "\n")
	}
	for _, line := range missing {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := fileutil.AppendFile(d.fs, file, []byte(b.String())); err != nil {
		return result, fileAccessError(err, "updating %s", file)
	}

	result.OpenTagAdded = needTag
	result.Appended = missing
	result.Complete = true
	for _, line := range missing {
		d.logger.Log(context.Background(), logging.LevelTrace, "appended debug line", "path", file, "line", line)
	}
	if needTag {
		d.logger.Warn("settings file had no PHP open tag, added one", "path", file)
	}
	d.logger.Info("updated settings file", "path", file, "appended", len(missing))

	return result, nil
}

// missingLines returns the lines not contained in content, compared
// case-insensitively.
func missingLines(content string, lines []string) []string {
	haystack := strings.ToLower(content)

	var missing []string
	for _, line := range lines {
		if !strings.Contains(haystack, strings.ToLower(line)) {
			missing = append(missing, line)
		}
	}
	return missing
}
