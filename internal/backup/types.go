package backup

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// ManifestVersion is bumped when the manifest layout changes.
	ManifestVersion = 1

	// ManifestFileName is stored in every backup directory.
	ManifestFileName = "manifest.json"

	// DefaultRetentionCount is the number of backups kept per site.
	DefaultRetentionCount = 10
)

// idLayout formats backup IDs from the UTC creation time.
const idLayout = "20060102T150405"

var (
	// ErrNoBackupsFound is returned when a site has no backups, or the
	// requested one does not exist.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrBackupCorrupted means a stored file no longer matches its manifest.
	ErrBackupCorrupted = errors.New("backup corrupted")

	// ErrInvalidBackupID rejects IDs that cannot name a backup directory.
	ErrInvalidBackupID = errors.New("invalid backup ID")
)

// Manifest is the manifest.json of one backup of a site's override files.
type Manifest struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	// Site is the absolute site directory the files were copied from.
	Site  string `json:"site"`
	Files []File `json:"files"`

	// ToolVersion is the drupaldbg version that wrote the backup.
	ToolVersion string `json:"drupaldbg_version"`

	// ID is the backup directory name, set when the manifest is loaded.
	ID string `json:"-"`
}

// FileNames returns the base names of the backed up files in manifest order.
func (m *Manifest) FileNames() []string {
	names := make([]string, len(m.Files))
	for i, f := range m.Files {
		names[i] = f.Name
	}
	return names
}

// File is one override file inside a backup.
type File struct {
	// Source is the absolute path the file was copied from and is restored to.
	Source string `json:"source"`

	// Name is the file name inside the backup directory.
	Name string `json:"name"`

	SHA256 string      `json:"sha256"`
	Mode   fs.FileMode `json:"mode"`
	Size   int64       `json:"size"`
}
