// Package fileutil holds the file helpers shared by the drupal, backup and
// config code. Every function takes an afero.Fs so tests can run against
// afero.NewMemMapFs.
package fileutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// YAMLIndent matches the two-space style of Drupal's own services files.
const YAMLIndent = 2

// tempPattern names the sibling temp file used by AtomicWriteFile.
const tempPattern = ".drupaldbg-*.tmp"

// AtomicWriteFile replaces path with data by writing a temp file in the same
// directory and renaming it over path. Readers see either the old or the new
// content, never a mix. The parent directory must exist.
func AtomicWriteFile(fs afero.Fs, path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), tempPattern)
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	name := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = fs.Remove(name)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "syncing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", name)
	}
	if err := fs.Chmod(name, perm); err != nil {
		return errors.Wrapf(err, "chmod %s", name)
	}
	if err := fs.Rename(name, path); err != nil {
		return errors.Wrapf(err, "renaming %s to %s", name, path)
	}
	renamed = true
	return nil
}

// AtomicWriteJSON writes v as two-space indented JSON with a trailing
// newline, mode 0644.
func AtomicWriteJSON(fs afero.Fs, path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}
	return AtomicWriteFile(fs, path, buf.Bytes(), 0o644)
}

// MarshalYAML encodes v with YAMLIndent. yaml.v3 panics on some types
// (funcs, channels); the panic comes back as an error.
func MarshalYAML(v any) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(YAMLIndent)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "marshaling YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "marshaling YAML")
	}
	return buf.Bytes(), nil
}

// AtomicWriteYAML is AtomicWriteFile for the MarshalYAML encoding of v.
func AtomicWriteYAML(fs afero.Fs, path string, v any, perm os.FileMode) error {
	data, err := MarshalYAML(v)
	if err != nil {
		return err
	}
	return AtomicWriteFile(fs, path, data, perm)
}
