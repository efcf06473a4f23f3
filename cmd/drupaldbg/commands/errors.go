package commands

import (
	"github.com/thoreinstein/drupaldbg/internal/backup"
	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/picker"
)

// commandError maps domain errors onto exit codes and suggestions. Errors
// that already carry an exit code are returned unchanged.
func commandError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case errors.Is(err, drupal.ErrSiteNotFound):
		return errors.NewUserError(err, "Pass a site directory, or list sites with: drupaldbg drupal:find-sites")
	case errors.Is(err, drupal.ErrInvalidMergePolicy):
		return errors.NewUserError(err, "Use --merge-policy existing or --merge-policy fragment")
	case errors.Is(err, picker.ErrAborted):
		return errors.NewUserError(err, "")
	case errors.Is(err, backup.ErrInvalidBackupID), errors.Is(err, backup.ErrNoBackupsFound):
		return errors.NewUserError(err, "List backups with: drupaldbg drupal:backups <siteDir>")
	case errors.Is(err, backup.ErrBackupCorrupted):
		return errors.NewSystemError(err, "The backup no longer matches its manifest; pick another with: drupaldbg drupal:backups <siteDir>")
	case errors.Is(err, drupal.ErrSearchFailed):
		return errors.NewSystemError(err, "Check that --root exists and is readable")
	case errors.Is(err, drupal.ErrParse):
		return errors.NewSystemError(err, "Fix the YAML syntax in services.local.yml, or move the file aside and run again")
	case errors.Is(err, drupal.ErrFileAccess):
		return errors.NewSystemError(err, "Check the permissions of the site directory and its override files")
	case errors.Is(err, errors.ErrInvalidArgument):
		return errors.NewUserError(err, "")
	default:
		return errors.NewSystemError(err, "")
	}
}
