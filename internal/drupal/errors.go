package drupal

import (
	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// Sentinel errors for site discovery and override writing.
var (
	// ErrSearchFailed indicates the site search could not run, e.g. the
	// root does not exist or cannot be read.
	ErrSearchFailed = errors.New("site search failed")

	// ErrNoSitesFound marks an empty search result. It is reportable,
	// not a failure.
	ErrNoSitesFound = errors.New("no sites found")

	// ErrSiteNotFound indicates the given site directory does not exist.
	ErrSiteNotFound = errors.New("site directory not found")

	// ErrFileAccess indicates an override file could not be created, read or written.
	ErrFileAccess = errors.New("file access error")

	// ErrParse indicates an existing services file is not a valid YAML mapping.
	ErrParse = errors.New("parse error")

	// ErrInvalidMergePolicy indicates an unknown merge policy name.
	ErrInvalidMergePolicy = errors.New("invalid merge policy")
)

func fileAccessError(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrFileAccess)
}

func parseError(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrParse)
}
