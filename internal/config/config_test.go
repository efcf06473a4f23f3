package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/drush"
	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// isolate points the config search at empty temp dirs and initializes Viper.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigDirEnv, t.TempDir())
	Init()
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInit_Defaults(t *testing.T) {
	isolate(t)

	assert.Equal(t, 1, viper.GetInt("version"))
	assert.Equal(t, DefaultSiteDir, viper.GetString("default_site_dir"))
	assert.Equal(t, DefaultExcludeDirs, viper.GetStringSlice("exclude_dirs"))
	assert.Equal(t, "existing", viper.GetString("merge_policy"))
	assert.Equal(t, "drush cr", viper.GetString("cache_clear_command"))
	assert.True(t, viper.GetBool("backup.enabled"))
	assert.Equal(t, DefaultBackupRetention, viper.GetInt("backup.retention"))
}

func TestLoad_NoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultSiteDir, cfg.DefaultSiteDir)
	assert.Equal(t, DefaultExcludeDirs, cfg.ExcludeDirs)
	assert.Equal(t, DefaultMergePolicy, cfg.MergePolicy)
	assert.True(t, cfg.Backup.Enabled)
	assert.NotEmpty(t, cfg.Backup.Dir)
	assert.Empty(t, FileUsed())
}

func TestDefault_MatchesLoad(t *testing.T) {
	isolate(t)

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
	require.NoError(t, Validate(Default()))
}

func TestLoad_FromWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "default_site_dir: docroot/sites/default\nmerge_policy: fragment\n")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "docroot/sites/default", cfg.DefaultSiteDir)
	assert.Equal(t, "fragment", cfg.MergePolicy)
	assert.NotEmpty(t, FileUsed())
}

func TestLoad_FromConfigDir(t *testing.T) {
	isolate(t)
	configDir := t.TempDir()
	t.Setenv(ConfigDirEnv, configDir)
	Init()
	writeConfig(t, configDir, "exclude_dirs: [vendor, libraries]\n")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"vendor", "libraries"}, cfg.ExcludeDirs)
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "backup:\n  enabled: false\n  retention: 3\n  dir: /tmp/backups\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 3, cfg.Backup.Retention)
	assert.Equal(t, "/tmp/backups", cfg.Backup.Dir)
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DRUPALDBG_MERGE_POLICY", "fragment")
	t.Setenv("DRUPALDBG_BACKUP_RETENTION", "2")
	t.Setenv("DRUPALDBG_CACHE_CLEAR_COMMAND", "vendor/bin/drush cache:rebuild")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fragment", cfg.MergePolicy)
	assert.Equal(t, 2, cfg.Backup.Retention)
	assert.Equal(t, "vendor/bin/drush cache:rebuild", cfg.CacheClearCommand)
}

func TestLoad_ExpandsHome(t *testing.T) {
	isolate(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, t.TempDir(), "backup:\n  dir: ~/snapshots\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "snapshots"), cfg.Backup.Dir)
}

func TestLoad_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unsupported version",
			content: "version: 2\n",
			wantErr: "version: unsupported value 2 (want 1)",
		},
		{
			name:    "unknown merge policy",
			content: "merge_policy: both\n",
			wantErr: "merge_policy: must be one of existing, fragment",
		},
		{
			name:    "exclude entry is a path",
			content: "exclude_dirs: [web/core]\n",
			wantErr: "exclude_dirs[0]: must be a directory name, not a path",
		},
		{
			name:    "negative retention",
			content: "backup:\n  retention: -1\n",
			wantErr: "backup.retention: must be at least 0",
		},
		{
			name:    "empty cache clear command",
			content: "cache_clear_command: \"\"\n",
			wantErr: "cache_clear_command: must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := writeConfig(t, t.TempDir(), tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "merge_policy: [unterminated\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig), "got %v", err)
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := &Config{
		Version:           3,
		DefaultSiteDir:    "",
		MergePolicy:       "mine",
		CacheClearCommand: "drush cr",
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version:")
	assert.Contains(t, err.Error(), "default_site_dir:")
	assert.Contains(t, err.Error(), "merge_policy:")
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DRUPALDBG_MERGE_POLICY", "")
	require.NoError(t, os.Unsetenv("DRUPALDBG_MERGE_POLICY"))
	t.Setenv("DRUPALDBG_DEFAULT_SITE_DIR", "docroot/sites/default")

	env := "DRUPALDBG_MERGE_POLICY=fragment\nDRUPALDBG_DEFAULT_SITE_DIR=web/sites/other\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	require.NoError(t, LoadDotEnv(dir))
	t.Cleanup(func() { os.Unsetenv("DRUPALDBG_MERGE_POLICY") })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fragment", cfg.MergePolicy)
	assert.Equal(t, "docroot/sites/default", cfg.DefaultSiteDir, "already-set variables win over .env")
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(t.TempDir()))
}

func TestDefaults_FollowDomainPackages(t *testing.T) {
	assert.Equal(t, drupal.DefaultSiteDir, DefaultSiteDir)
	assert.Equal(t, drupal.DefaultExcludeDirs, DefaultExcludeDirs)
	assert.Equal(t, string(drupal.DefaultMergePolicy), DefaultMergePolicy)
	assert.Equal(t, drush.DefaultCommand, DefaultCacheClearCommand)

	policy, err := drupal.ParseMergePolicy(Default().MergePolicy)
	require.NoError(t, err)
	assert.Equal(t, drupal.DefaultMergePolicy, policy)
}
