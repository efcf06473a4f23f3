package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
)

func TestConfigDir(t *testing.T) {
	t.Setenv(ConfigDirEnv, "")

	got := ConfigDir()
	assert.Equal(t, filepath.Join(xdg.ConfigHome, AppName), got)
	assert.Equal(t, filepath.Join(got, "config.yaml"), ConfigFile())
}

func TestConfigDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)

	assert.Equal(t, dir, ConfigDir())
	assert.Equal(t, filepath.Join(dir, ConfigFileName), ConfigFile())
}

func TestBackupDir(t *testing.T) {
	got := BackupDir()
	assert.Equal(t, "backups", filepath.Base(got))
	assert.Equal(t, filepath.Join(xdg.DataHome, AppName), filepath.Dir(got))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/", home},
		{"~/backups", filepath.Join(home, "backups")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~other/path", "~other/path"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandHome(tt.in))
		})
	}
}
