package commands

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/report"
)

func TestFindSites_Text(t *testing.T) {
	newProject(t)

	stdout, _, err := executeCommand(t, "drupal:find-sites")
	require.NoError(t, err)

	want := filepath.Join("web", "sites", "blog") + "\n" + filepath.Join("web", "sites", "default") + "\n"
	assert.Equal(t, want, stdout)
}

func TestFindSites_Alias(t *testing.T) {
	newProject(t)

	stdout, _, err := executeCommand(t, "find-sites", "--root", "web")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join("web", "sites", "default"))
	assert.NotContains(t, stdout, "core")
}

func TestFindSites_JSON(t *testing.T) {
	newProject(t)

	stdout, _, err := executeCommand(t, "drupal:find-sites", "--format", "json")
	require.NoError(t, err)

	var got report.SiteList
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, ".", got.Root)
	assert.Len(t, got.Sites, 2)
}

func TestFindSites_YAML(t *testing.T) {
	newProject(t)

	stdout, _, err := executeCommand(t, "drupal:find-sites", "--format", "yaml")
	require.NoError(t, err)

	var got report.SiteList
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got.Sites, 2)
}

func TestFindSites_ExcludeDirsFromConfig(t *testing.T) {
	newProject(t)
	t.Setenv("DRUPALDBG_EXCLUDE_DIRS", "blog,core")

	stdout, _, err := executeCommand(t, "drupal:find-sites")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("web", "sites", "default")+"\n", stdout)
}

func TestFindSites_NoSites(t *testing.T) {
	isolateEnv(t)
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "drupal:find-sites")
	require.NoError(t, err)
	assert.Equal(t, "No Drupal sites found under .\n", stdout)
}

func TestFindSites_MissingRoot(t *testing.T) {
	newProject(t)

	_, _, err := executeCommand(t, "drupal:find-sites", "--root", "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, errors.ExitSystem, errors.ExitCode(err))
	assert.Contains(t, errors.Suggestion(err), "--root")
}

func TestFindSites_InvalidFormat(t *testing.T) {
	newProject(t)

	_, _, err := executeCommand(t, "drupal:find-sites", "--format", "csv")
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}
