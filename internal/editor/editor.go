// Package editor opens files in the user's preferred text editor.
package editor

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// Run executes argv with the terminal attached.
type Run func(ctx context.Context, argv []string) error

// Editor resolves and launches the user's editor.
type Editor struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	run      Run
}

// Option configures an Editor.
type Option func(*Editor)

// WithRun replaces the process launcher.
func WithRun(run Run) Option {
	return func(e *Editor) {
		if run != nil {
			e.run = run
		}
	}
}

// WithEnv replaces the environment lookup.
func WithEnv(getenv func(string) string) Option {
	return func(e *Editor) {
		if getenv != nil {
			e.getenv = getenv
		}
	}
}

// WithLookPath replaces the PATH lookup used for the fallbacks.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(e *Editor) {
		if lookPath != nil {
			e.lookPath = lookPath
		}
	}
}

// New creates an Editor reading the process environment.
func New(opts ...Option) *Editor {
	e := &Editor{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		run:      runAttached,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Command returns the command line that opens path.
// $EDITOR wins over $VISUAL; both may carry arguments ("code --wait").
// Without either, nano is used when installed, otherwise vi.
func (e *Editor) Command(path string) []string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if argv := strings.Fields(e.getenv(env)); len(argv) > 0 {
			return append(argv, path)
		}
	}
	if _, err := e.lookPath("nano"); err == nil {
		return []string{"nano", path}
	}
	return []string{"vi", path}
}

// Open launches the editor on path and waits for it to exit.
func (e *Editor) Open(ctx context.Context, path string) error {
	argv := e.Command(path)
	if err := e.run(ctx, argv); err != nil {
		return errors.Wrapf(err, "running editor %s", argv[0])
	}
	return nil
}

func runAttached(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
