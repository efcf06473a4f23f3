package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAtomicWriteFile(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		perm os.FileMode
	}{
		{"successful write", []byte("hello world\n"), 0644},
		{"empty data", []byte{}, 0644},
		{"private file", []byte("<?php\n"), 0600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "test-file")
			fs := afero.NewOsFs()

			require.NoError(t, AtomicWriteFile(fs, path, tt.data, tt.perm))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, string(tt.data), string(got))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, tt.perm, info.Mode().Perm())
		})
	}
}

func TestAtomicWriteFile_DirectoryNotExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent", "subdir", "file.txt")

	err := AtomicWriteFile(afero.NewOsFs(), path, []byte("data"), 0600)
	assert.Error(t, err)
}

func TestAtomicWriteFile_OverwriteExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/web/sites/default/services.local.yml"
	require.NoError(t, fs.MkdirAll("/web/sites/default", 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte("original content\n"), 0644))

	require.NoError(t, AtomicWriteFile(fs, path, []byte("new content\n"), 0644))

	got, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "new content\n", string(got))
}

func TestAtomicWriteFile_NoTempFileLeft(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/site", 0o755))

	require.NoError(t, AtomicWriteFile(fs, "/site/file.txt", []byte("data"), 0644))

	entries, err := afero.ReadDir(fs, "/site")
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "temp file left behind: %s", entry.Name())
	}
	assert.Len(t, entries, 1)
}

func TestAtomicWriteJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/backups", 0o755))

	require.NoError(t, AtomicWriteJSON(fs, "/backups/manifest.json", map[string]int{"count": 42}))

	got, err := afero.ReadFile(fs, "/backups/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"count\": 42\n}\n", string(got))
}

func TestAtomicWriteJSON_Unmarshalable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/backups", 0o755))

	err := AtomicWriteJSON(fs, "/backups/manifest.json", make(chan int))
	require.Error(t, err)

	exists, _ := afero.Exists(fs, "/backups/manifest.json")
	assert.False(t, exists, "file should not exist after marshal error")
}

func TestMarshalYAML_Indent(t *testing.T) {
	v := map[string]any{
		"parameters": map[string]any{
			"twig.config": map[string]any{"debug": true},
		},
	}

	data, err := MarshalYAML(v)
	require.NoError(t, err)
	assert.Equal(t, "parameters:\n  twig.config:\n    debug: true\n", string(data))
}

func TestMarshalYAML_Panic(t *testing.T) {
	_, err := MarshalYAML(func() {})
	assert.Error(t, err)
}

func TestAtomicWriteYAML_Node(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("foo: bar\n"), &doc))

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/site", 0o755))
	require.NoError(t, AtomicWriteYAML(fs, "/site/services.local.yml", &doc, 0644))

	got, err := afero.ReadFile(fs, "/site/services.local.yml")
	require.NoError(t, err)
	assert.Equal(t, "foo: bar\n", string(got))
}
