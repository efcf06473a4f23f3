package fileutil

import (
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// MaxFileSize caps ReadFileWithLimit. Drupal override files are a few
// kilobytes, so anything past 1 MiB is not one.
const MaxFileSize = 1 << 20

// ErrFileTooLarge is returned for files over MaxFileSize.
var ErrFileTooLarge = errors.Newf("file exceeds maximum size of %d bytes", MaxFileSize)

// ReadFileWithLimit reads path from fs, refusing files over MaxFileSize.
// The size is checked up front and again while reading, since the file can
// grow in between.
func ReadFileWithLimit(fs afero.Fs, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > MaxFileSize {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes", path, info.Size())
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	switch {
	case err != nil:
		return nil, errors.Wrapf(err, "reading %s", path)
	case len(data) > MaxFileSize:
		return nil, errors.Wrapf(ErrFileTooLarge, "%s", path)
	}
	return data, nil
}

// Exists reports whether path exists on fs. Stat errors other than
// "not exist" are returned.
func Exists(fs afero.Fs, path string) (bool, error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", path)
	}
	return ok, nil
}

// AppendFile appends data to the existing file at path. Unlike the atomic
// writers it never replaces the file, so a failure can leave a partial
// append behind.
func AppendFile(fs afero.Fs, path string, data []byte) error {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "opening %s for append", path)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "appending to %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
