package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/logging"
	"github.com/thoreinstein/drupaldbg/internal/paths"
	"github.com/thoreinstein/drupaldbg/pkg/fileutil"
)

// Manager creates, lists, restores and prunes backups of site override files.
type Manager struct {
	fs             afero.Fs
	rootDir        string
	retentionCount int
	version        string
	now            func() time.Time
	logger         *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithBackupDir sets the root backup directory.
func WithBackupDir(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.rootDir = dir
		}
	}
}

// WithRetentionCount sets the number of backups kept per site after each
// new backup. Zero keeps every backup.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.retentionCount = n
		}
	}
}

// WithToolVersion records v in new manifests.
func WithToolVersion(v string) Option {
	return func(m *Manager) {
		m.version = v
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager storing backups on fsys.
func NewManager(fsys afero.Fs, opts ...Option) *Manager {
	m := &Manager{
		fs:             fsys,
		rootDir:        paths.BackupDir(),
		retentionCount: DefaultRetentionCount,
		version:        "dev",
		now:            time.Now,
		logger:         logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RootDir returns the directory holding every site's backups.
func (m *Manager) RootDir() string {
	return m.rootDir
}

// SiteKey returns the directory name used for siteDir's backups: the site's
// base name followed by a short hash of its absolute path.
func SiteKey(siteDir string) string {
	abs := absPath(siteDir)
	sum := sha256.Sum256([]byte(abs))
	return filepath.Base(abs) + "-" + hex.EncodeToString(sum[:])[:12]
}

// BackupSite copies the existing files among files into a new backup for
// siteDir and returns its ID. Missing files are skipped; when none exist
// no backup is created and the ID is "". Old backups beyond the retention
// count are pruned afterwards.
func (m *Manager) BackupSite(siteDir string, files []string) (string, error) {
	manifest, err := m.Backup(siteDir, files)
	if err != nil || manifest == nil {
		return "", err
	}

	if m.retentionCount > 0 {
		if err := m.Prune(siteDir, m.retentionCount); err != nil {
			m.logger.Warn("pruning old backups failed", "site", siteDir, "error", err)
		}
	}

	return manifest.ID, nil
}

// Backup copies files into a new backup directory for siteDir. It returns a
// nil manifest when none of the files exist.
func (m *Manager) Backup(siteDir string, files []string) (*Manifest, error) {
	if siteDir == "" {
		return nil, errors.New("site directory is required")
	}

	var existing []string
	for _, f := range files {
		info, err := m.fs.Stat(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", f)
		}
		if info.Mode().IsRegular() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		m.logger.Debug("nothing to back up", "site", siteDir)
		return nil, nil
	}

	created := m.now().UTC()
	id, dir, err := m.reserveDir(siteDir, created)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		CreatedAt:   created,
		Site:        absPath(siteDir),
		ToolVersion: m.version,
		ID:          id,
	}

	for _, src := range existing {
		bf, err := m.copyIn(src, dir)
		if err != nil {
			_ = m.fs.RemoveAll(dir)
			return nil, errors.Wrapf(err, "backing up %s", src)
		}
		manifest.Files = append(manifest.Files, *bf)
	}

	if err := fileutil.AtomicWriteJSON(m.fs, filepath.Join(dir, ManifestFileName), manifest); err != nil {
		_ = m.fs.RemoveAll(dir)
		return nil, errors.Wrap(err, "writing manifest")
	}

	m.logger.Info("created backup", "site", siteDir, "backup", id, "files", len(manifest.Files))
	return manifest, nil
}

// reserveDir creates a fresh backup directory named after created,
// appending a counter when a backup with that second already exists.
func (m *Manager) reserveDir(siteDir string, created time.Time) (string, string, error) {
	base := created.Format(idLayout)
	siteRoot := m.siteBackupDir(siteDir)

	if err := m.fs.MkdirAll(siteRoot, paths.DefaultDirPerm); err != nil {
		return "", "", errors.Wrap(err, "creating backup directory")
	}

	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s-%d", base, i)
		}
		dir := filepath.Join(siteRoot, id)

		exists, err := afero.DirExists(m.fs, dir)
		if err != nil {
			return "", "", errors.Wrap(err, "checking backup directory")
		}
		if exists {
			continue
		}
		if err := m.fs.Mkdir(dir, paths.DefaultDirPerm); err != nil {
			return "", "", errors.Wrap(err, "creating backup directory")
		}
		return id, dir, nil
	}
}

// copyIn copies src into dir under its base name.
func (m *Manager) copyIn(src, dir string) (*File, error) {
	data, err := fileutil.ReadFileWithLimit(m.fs, src)
	if err != nil {
		return nil, err
	}
	info, err := m.fs.Stat(src)
	if err != nil {
		return nil, errors.Wrap(err, "stat source file")
	}

	rel := filepath.Base(src)
	if err := afero.WriteFile(m.fs, filepath.Join(dir, rel), data, 0o600); err != nil {
		return nil, errors.Wrap(err, "copying file")
	}

	return &File{
		Source: absPath(src),
		Name:      rel,
		SHA256:   hashBytes(data),
		Mode:         info.Mode().Perm(),
		Size:         int64(len(data)),
	}, nil
}

// Restore verifies every file of the backup against its manifest hash and
// then writes them back to their original locations with their recorded
// permissions. Nothing is written when any file fails verification.
func (m *Manager) Restore(siteDir, backupID string) (*Manifest, error) {
	manifest, err := m.Get(siteDir, backupID)
	if err != nil {
		return nil, err
	}

	dir := m.backupPath(siteDir, backupID)
	contents := make([][]byte, len(manifest.Files))
	for i, bf := range manifest.Files {
		data, err := fileutil.ReadFileWithLimit(m.fs, filepath.Join(dir, bf.Name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading backup file %s", bf.Name)
		}
		if hashBytes(data) != bf.SHA256 {
			return nil, errors.Wrapf(ErrBackupCorrupted, "file %s hash mismatch", bf.Name)
		}
		contents[i] = data
	}

	for i, bf := range manifest.Files {
		if err := m.fs.MkdirAll(filepath.Dir(bf.Source), 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating directory for %s", bf.Source)
		}
		if err := fileutil.AtomicWriteFile(m.fs, bf.Source, contents[i], bf.Mode); err != nil {
			return nil, errors.Wrapf(err, "restoring %s", bf.Source)
		}
		m.logger.Info("restored file", "path", bf.Source, "backup", backupID)
	}

	return manifest, nil
}

// List returns the backups of siteDir, newest first.
func (m *Manager) List(siteDir string) ([]Manifest, error) {
	entries, err := afero.ReadDir(m.fs, m.siteBackupDir(siteDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsFound
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	manifests := make([]Manifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := m.Get(siteDir, entry.Name())
		if err != nil {
			m.logger.Debug("skipping invalid backup", "dir", entry.Name(), "error", err)
			continue
		}
		manifests = append(manifests, *manifest)
	}

	if len(manifests) == 0 {
		return nil, ErrNoBackupsFound
	}

	slices.SortFunc(manifests, func(a, b Manifest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})

	return manifests, nil
}

// Prune removes all but the keep most recent backups of siteDir.
func (m *Manager) Prune(siteDir string, keep int) error {
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	manifests, err := m.List(siteDir)
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil
		}
		return err
	}

	for i := keep; i < len(manifests); i++ {
		if err := m.fs.RemoveAll(m.backupPath(siteDir, manifests[i].ID)); err != nil {
			return errors.Wrapf(err, "removing backup %s", manifests[i].ID)
		}
		m.logger.Debug("pruned backup", "site", siteDir, "backup", manifests[i].ID)
	}

	return nil
}

// Get returns the manifest of one backup.
func (m *Manager) Get(siteDir, backupID string) (*Manifest, error) {
	if err := validateID(backupID); err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(m.backupPath(siteDir, backupID), ManifestFileName)
	data, err := afero.ReadFile(m.fs, manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoBackupsFound, "backup %s not found", backupID)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}

	manifest.ID = backupID
	return &manifest, nil
}

func (m *Manager) backupPath(siteDir, backupID string) string {
	return filepath.Join(m.siteBackupDir(siteDir), backupID)
}

func (m *Manager) siteBackupDir(siteDir string) string {
	return filepath.Join(m.rootDir, SiteKey(siteDir))
}

// validateID rejects IDs that would escape the site's backup directory.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.Wrapf(ErrInvalidBackupID, "%q", id)
	}
	return nil
}

// compareIDs orders IDs from the same second by their counter suffix.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
