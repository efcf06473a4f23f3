// Package drush rebuilds a Drupal site's caches by running an external
// command, "drush cr" by default.
package drush

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/drupaldbg/internal/logging"
)

// DefaultCommand rebuilds all caches with Drush.
const DefaultCommand = "drush cr"

// defaultSiteName is the site Drush targets when no --uri is given.
const defaultSiteName = "default"

// ErrEmptyCommand indicates a blank cache clear command.
var ErrEmptyCommand = errors.New("cache clear command is empty")

// Runner runs an external command in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s failed", name)
	}
	return nil
}

// CacheClearer runs the configured cache clear command for a site.
type CacheClearer struct {
	runner  Runner
	argv    []string
	workDir string
	logger  *slog.Logger
}

// Option configures a CacheClearer.
type Option func(*CacheClearer)

// WithRunner replaces the ExecRunner.
func WithRunner(r Runner) Option {
	return func(c *CacheClearer) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithWorkDir sets the directory the command runs in. The default is the
// current working directory.
func WithWorkDir(dir string) Option {
	return func(c *CacheClearer) {
		c.workDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CacheClearer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// ParseCommand splits command on whitespace. Quoting is not interpreted.
func ParseCommand(command string) ([]string, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// NewCacheClearer creates a CacheClearer for command. An empty command
// uses DefaultCommand.
func NewCacheClearer(command string, opts ...Option) (*CacheClearer, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	argv, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}

	c := &CacheClearer{
		runner: ExecRunner{},
		argv:   argv,
		logger: logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Args returns the command line that Clear runs for siteDir. A site other
// than "default" is selected with --uri, which Drush resolves through
// sites.php or the directory name.
func (c *CacheClearer) Args(siteDir string) []string {
	args := append([]string(nil), c.argv...)
	if site := filepath.Base(filepath.Clean(siteDir)); siteDir != "" && site != defaultSiteName && site != "." {
		args = append(args, "--uri="+site)
	}
	return args
}

// Clear runs the cache clear command for siteDir.
func (c *CacheClearer) Clear(ctx context.Context, siteDir string) error {
	args := c.Args(siteDir)
	c.logger.Info("clearing caches", "site", siteDir, "command", strings.Join(args, " "))

	if err := c.runner.Run(ctx, c.workDir, args[0], args[1:]...); err != nil {
		return errors.Wrapf(err, "clearing caches for %s", siteDir)
	}
	return nil
}
