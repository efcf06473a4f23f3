package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "drupaldbg"

// ConfigDirEnv overrides ConfigDir when set.
const ConfigDirEnv = "DRUPALDBG_CONFIG_DIR"

// ConfigFileName is the file config init writes into ConfigDir.
const ConfigFileName = "config.yaml"

// DefaultDirPerm is used for directories drupaldbg creates for itself.
const DefaultDirPerm = 0o700

// ConfigDir returns $DRUPALDBG_CONFIG_DIR, or the drupaldbg directory under
// the XDG config home (~/.config/drupaldbg on Linux).
func ConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return ExpandHome(dir)
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigFile returns the path of config.yaml inside ConfigDir.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// BackupDir returns the default root for override-file backups under the
// XDG data home, e.g. ~/.local/share/drupaldbg/backups.
func BackupDir() string {
	return filepath.Join(xdg.DataHome, AppName, "backups")
}

// ExpandHome expands a leading "~" or "~/" to the user's home directory.
// Other paths, "~user" forms, and paths on systems without a home directory
// are returned unchanged.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
