package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/drupaldbg/internal/config"
)

const settingsPHP = `<?php
$databases = [];
if (file_exists($app_root . '/' . $site_path . '/settings.local.php')) {
  include $app_root . '/' . $site_path . '/settings.local.php';
}
`

// isolateEnv points config and backups at temp dirs.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.ConfigDirEnv, t.TempDir())
	t.Setenv(config.EnvPrefix+"_BACKUP_DIR", t.TempDir())
	t.Setenv(debugEnv, "")
}

// newProject creates a Drupal checkout with two sites and a settings.php
// under core that must be ignored, and makes it the working directory.
func newProject(t *testing.T) string {
	t.Helper()
	isolateEnv(t)

	root := t.TempDir()
	for _, dir := range []string{
		"web/sites/default",
		"web/sites/blog",
		"web/core/tests/fixtures/sites/test",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "settings.php"), []byte(settingsPHP), 0o644))
	}
	t.Chdir(root)
	return root
}

// resetFlags restores every flag of c and its subcommands to its default.
func resetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

// executeCommand runs the root command with args and returns its stdout
// and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t, rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(t, rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
