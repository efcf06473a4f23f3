package drupal

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/logging"
)

// SettingsFileName is the marker file identifying a site directory.
const SettingsFileName = "settings.php"

// sitesSegment is the path segment a settings.php must live under.
const sitesSegment = "sites"

// DefaultExcludeDirs are directory names never descended into while
// searching for sites.
var DefaultExcludeDirs = []string{"core", "modules", "vendor", "node_modules"}

// Finder searches a directory tree for Drupal site directories.
type Finder struct {
	fs      afero.Fs
	logger  *slog.Logger
	exclude []string
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithExcludeDirs replaces the set of excluded directory names.
// An empty list keeps the defaults.
func WithExcludeDirs(dirs []string) FinderOption {
	return func(f *Finder) {
		if len(dirs) > 0 {
			f.exclude = slices.Clone(dirs)
		}
	}
}

// WithFinderLogger sets the logger used for skipped directories.
func WithFinderLogger(logger *slog.Logger) FinderOption {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFinder creates a Finder over fs with a discard logger and the default
// exclusions.
func NewFinder(fs afero.Fs, opts ...FinderOption) *Finder {
	f := &Finder{
		fs:      fs,
		logger:  logging.NewDiscard(),
		exclude: slices.Clone(DefaultExcludeDirs),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindSites returns the directories below root that contain a settings.php
// under a "sites" segment, in walk order.
//
// Excluded directories are matched against segments below root only, so a
// project checked out inside e.g. ~/modules/ is still searched. The "sites"
// segment is matched against the absolute path, which lets a search started
// inside web/sites/ still find its sites.
//
// A missing or unreadable root returns ErrSearchFailed. Unreadable
// directories below root are logged and skipped. An empty result is not an
// error.
func (f *Finder) FindSites(root string) ([]string, error) {
	if root == "" {
		root = "."
	}
	root = filepath.Clean(root)

	info, err := f.fs.Stat(root)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "searching %s", root), ErrSearchFailed)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrSearchFailed, "%s is not a directory", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	var sites []string
	seen := make(map[string]bool)

	walkErr := afero.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return errors.Mark(errors.Wrapf(err, "searching %s", root), ErrSearchFailed)
			}
			f.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path != root && slices.Contains(f.exclude, info.Name()) {
				f.logger.Debug("skipping excluded directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}

		if info.Name() != SettingsFileName || !info.Mode().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if !underSites(filepath.Join(absRoot, rel)) {
			return nil
		}

		dir := filepath.Dir(path)
		if seen[dir] {
			return nil
		}
		seen[dir] = true
		sites = append(sites, dir)
		f.logger.Debug("found site", "dir", dir)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, ErrSearchFailed) {
			return nil, walkErr
		}
		return nil, errors.Mark(errors.Wrapf(walkErr, "searching %s", root), ErrSearchFailed)
	}

	return sites, nil
}

// underSites reports whether one of path's parent directories is named "sites".
func underSites(path string) bool {
	segments := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	return slices.Contains(segments, sitesSegment)
}
