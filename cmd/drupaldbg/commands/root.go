// Package commands implements the CLI commands for drupaldbg.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/drupaldbg/cmd"
	"github.com/thoreinstein/drupaldbg/internal/config"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/logging"
)

// debugEnv raises the log level when no -v flag is given.
const debugEnv = config.EnvPrefix + "_DEBUG"

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// logFileCloser closes the --log-file mirror after the command finishes.
var logFileCloser io.Closer

// configFile holds the value of the --config flag.
var configFile string

// cfg is the configuration loaded by initConfig.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

// appFs is the filesystem every command operates on.
var appFs = afero.NewOsFs()

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnFinalize(closeLogFile)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv, -vvv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatText),
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml, then $XDG_CONFIG_HOME/drupaldbg/config.yaml)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("drupaldbg version {{.Version}}\n")

	// Silence errors and usage so main controls error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	if err := config.LoadDotEnv("."); err != nil {
		configLoadErr = err
		return
	}
	config.Init()
	cfg, configLoadErr = config.Load(configFile)
}

var rootCmd = &cobra.Command{
	Use:   "drupaldbg",
	Short: "Local debugging helpers for Drupal projects",
	Long: `drupaldbg locates Drupal site directories and switches them into a
local debugging setup.

It appends cache and aggregation overrides to settings.local.php and merges
Twig debugging and a null cache backend into services.local.yml. Every run is
idempotent: nothing is duplicated and existing configuration is kept.`,
	Example: `  # List the sites of the current project
  drupaldbg drupal:find-sites

  # Enable debugging for web/sites/default
  drupaldbg drupal:enable-debugging

  # Check a site's debug setup
  drupaldbg drupal:doctor web/sites/blog

  See Also: drupaldbg config, drupaldbg drupal:backups`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("cannot use --quiet and --verbose together"),
			"Pass only one of -q or -v")
	}

	format := logging.Format(logFormat)
	if format != logging.FormatText && format != logging.FormatJSON {
		err := errors.Wrapf(errors.ErrInvalidArgument, "unknown log format %q", logFormat)
		return errors.NewUserError(err, "Use --log-format text or --log-format json")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv(debugEnv); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	handlers := []slog.Handler{logging.NewFormatHandler(logging.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	})}

	if logFile != "" {
		fileHandler, closer, err := logging.OpenFile(logFile, level)
		if err != nil {
			return errors.NewUserError(err, "Check that the log file's directory exists and is writable")
		}
		closeLogFile()
		logFileCloser = closer
		handlers = append(handlers, fileHandler)
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	logging.SyncColor(cmd.OutOrStdout())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

func closeLogFile() {
	if logFileCloser != nil {
		_ = logFileCloser.Close()
		logFileCloser = nil
	}
}

// checkConfig surfaces config load errors. Commands that must run with a
// broken config are exempt.
func checkConfig(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "help", "version", "drupal:doctor":
		return nil
	}
	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	return nil
}

// currentConfig returns the loaded config, or the defaults when loading
// failed or never ran.
func currentConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	return config.Default()
}

// loggerFor returns the logger carried by the command's context.
func loggerFor(cmd *cobra.Command) *slog.Logger {
	ctx := cmd.Context()
	if ctx == nil {
		return slog.Default()
	}
	return logging.FromContext(ctx)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
