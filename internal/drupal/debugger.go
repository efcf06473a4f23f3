package drupal

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/logging"
	"github.com/thoreinstein/drupaldbg/pkg/fileutil"
)

// DefaultSiteDir is the site enabled when none is given.
const DefaultSiteDir = "web/sites/default"

// Backuper snapshots a site's override files before they are modified.
// It returns an identifier for the snapshot, or "" when none of the files
// existed yet.
type Backuper interface {
	BackupSite(siteDir string, files []string) (string, error)
}

// Debugger writes debug overrides into site directories.
type Debugger struct {
	fs     afero.Fs
	logger *slog.Logger
	policy MergePolicy
	backup Backuper
}

// Option configures a Debugger.
type Option func(*Debugger)

// WithLogger sets the logger for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Debugger) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMergePolicy sets the services merge policy.
func WithMergePolicy(p MergePolicy) Option {
	return func(d *Debugger) {
		if p != "" {
			d.policy = p
		}
	}
}

// WithBackuper enables snapshots of the override files before each run.
func WithBackuper(b Backuper) Option {
	return func(d *Debugger) {
		d.backup = b
	}
}

// NewDebugger creates a Debugger over fs using DefaultMergePolicy, no
// backups and a discard logger.
func NewDebugger(fs afero.Fs, opts ...Option) *Debugger {
	d := &Debugger{
		fs:     fs,
		logger: logging.NewDiscard(),
		policy: DefaultMergePolicy,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Policy returns the services merge policy in effect.
func (d *Debugger) Policy() MergePolicy {
	return d.policy
}

// Report collects the outcome of EnableDebugging for one site.
type Report struct {
	SiteDir string

	// BackupID identifies the snapshot taken before the run, if any.
	BackupID string

	// Settings is nil only when the run aborted before the settings step.
	Settings *SettingsResult

	// Services is nil only when the run aborted before the services step.
	Services *ServicesResult
}

// EnableDebugging writes settings.local.php and then merges
// services.local.yml for siteDir.
//
// The two steps are best-effort: a failure in the settings step is logged
// and the services step still runs. Errors from both steps are joined.
// A missing site directory, or a failed backup, aborts before either step.
func (d *Debugger) EnableDebugging(siteDir string) (*Report, error) {
	report := &Report{SiteDir: siteDir}
	d.logger.Info("enabling debugging", "site", siteDir)

	if err := d.checkSiteDir(siteDir); err != nil {
		return report, err
	}

	if d.backup != nil {
		id, err := d.backup.BackupSite(siteDir, []string{
			filepath.Join(siteDir, LocalSettingsFileName),
			filepath.Join(siteDir, LocalServicesFileName),
		})
		if err != nil {
			return report, errors.Wrap(err, "backing up override files")
		}
		report.BackupID = id
		if id != "" {
			d.logger.Debug("backed up override files", "site", siteDir, "backup", id)
		}
	}

	var errs []error

	settings, err := d.EnsureSettingsOverrides(siteDir)
	report.Settings = settings
	if err != nil {
		d.logger.Error("settings step failed", "site", siteDir, "error", err)
		errs = append(errs, err)
	}

	services, err := d.EnsureServicesOverrides(siteDir)
	report.Services = services
	if err != nil {
		d.logger.Error("services step failed", "site", siteDir, "error", err)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return report, nil
	}
	return report, errors.Join(errs...)
}

// checkSiteDir verifies siteDir is an existing directory. A missing
// settings.php is only worth a warning: the overrides are still valid files.
func (d *Debugger) checkSiteDir(siteDir string) error {
	info, err := d.fs.Stat(siteDir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrSiteNotFound, "%s", siteDir)
		}
		return fileAccessError(err, "checking %s", siteDir)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrSiteNotFound, "%s is not a directory", siteDir)
	}

	ok, err := fileutil.Exists(d.fs, filepath.Join(siteDir, SettingsFileName))
	if err == nil && !ok {
		d.logger.Warn("site directory has no settings.php", "site", siteDir)
	}
	return nil
}
