package doctor

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// Fixer is implemented by checks that can repair what they detect.
type Fixer interface {
	// CanFix reports whether the last Run found fixable issues.
	CanFix() bool

	// Fix repairs the issues found by the last Run.
	Fix() []FixResult
}

// FixResult describes the outcome of an attempted fix operation.
type FixResult struct {
	Path string `json:"path"`

	Fixed bool `json:"fixed"`

	// Description says what was changed or why it could not be.
	Description string `json:"description"`

	Error error `json:"-"`
}

const (
	worldWritable    os.FileMode = 0o002
	writableByOthers os.FileMode = 0o022
)

// permIssue is a world-writable path.
type permIssue struct {
	path string
	dir  bool
	mode os.FileMode
	want os.FileMode
}

func newPermIssue(path string, info os.FileInfo) permIssue {
	mode := info.Mode().Perm()
	return permIssue{
		path: path,
		dir:  info.IsDir(),
		mode: mode,
		want: mode &^ writableByOthers,
	}
}

func (i permIssue) kind() string {
	if i.dir {
		return "directory"
	}
	return "file"
}

func (i permIssue) hint() string {
	return fmt.Sprintf("chmod %o %s", i.want, i.path)
}

// PermissionFixer clears group and world write bits on the paths found by
// the last permissions check, leaving every other bit alone.
type PermissionFixer struct {
	fs     afero.Fs
	issues []permIssue
}

// CanFix returns true if there are any fixable permission issues.
func (f *PermissionFixer) CanFix() bool {
	return f.CountFixable() > 0
}

// CountFixable returns the number of paths Fix would change.
func (f *PermissionFixer) CountFixable() int {
	return len(f.issues)
}

// Fix chmods every recorded path. A failed chmod is reported in its
// FixResult and does not stop the remaining fixes.
func (f *PermissionFixer) Fix() []FixResult {
	results := make([]FixResult, 0, len(f.issues))
	for _, issue := range f.issues {
		res := FixResult{Path: issue.path}
		if err := f.fs.Chmod(issue.path, issue.want); err != nil {
			res.Error = errors.Wrapf(err, "chmod %04o %s", issue.want, issue.path)
			res.Description = fmt.Sprintf("could not change %04o to %04o: %v", issue.mode, issue.want, err)
		} else {
			res.Fixed = true
			res.Description = fmt.Sprintf("%s mode %04o -> %04o", issue.kind(), issue.mode, issue.want)
		}
		results = append(results, res)
	}
	return results
}
