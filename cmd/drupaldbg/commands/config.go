package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thoreinstein/drupaldbg/internal/config"
	"github.com/thoreinstein/drupaldbg/internal/editor"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/paths"
	"github.com/thoreinstein/drupaldbg/pkg/fileutil"
)

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false,
		"overwrite an existing config file")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show drupaldbg configuration",
	Long: `Show the effective drupaldbg configuration.

Values come from config.yaml in the current directory or in
$XDG_CONFIG_HOME/drupaldbg, from DRUPALDBG_* environment variables (a .env
file in the current directory is read first), and from built-in defaults.

Without a subcommand, lists all configuration values.`,
	Example: `  # List all configuration
  drupaldbg config

  # Get a single value
  drupaldbg config get merge_policy

  # Write a config file with the defaults
  drupaldbg config init

See Also: drupaldbg drupal:doctor`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Supports dot notation for nested keys. Array values are printed one per line.`,
	Example: `  drupaldbg config get backup.retention

See Also: drupaldbg config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML format.`,
	RunE:  runConfigList,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Write config.yaml with the default values to the drupaldbg config
directory ($XDG_CONFIG_HOME/drupaldbg, or DRUPALDBG_CONFIG_DIR when set).`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR, then $VISUAL, and falls back to nano or vi.
If no configuration file exists, suggests running 'drupaldbg config init'.`,
	Example: `  # Open config in default editor
  drupaldbg config edit

  # Open with a specific editor
  EDITOR=nano drupaldbg config edit

See Also: drupaldbg config list, drupaldbg config init`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

// openEditor launches the editor for config edit.
var openEditor = func(ctx context.Context, path string) error {
	return editor.New().Open(ctx, path)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	w := cmd.OutOrStdout()

	if !viper.IsSet(key) {
		fmt.Fprintln(w, "not set")
		return nil
	}

	switch v := viper.Get(key).(type) {
	case []string:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case []any:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case map[string]any:
		data, err := fileutil.MarshalYAML(v)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	default:
		fmt.Fprintln(w, v)
	}
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	data, err := fileutil.MarshalYAML(currentConfig())
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}

	w := cmd.OutOrStdout()
	if file := config.FileUsed(); file != "" {
		fmt.Fprintf(w, "# %s\n", file)
	}
	fmt.Fprint(w, string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := config.FileUsed()
	if path == "" {
		_, path = userConfigPath()
	}

	exists, err := fileutil.Exists(appFs, path)
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	if !exists {
		return errors.NewUserError(errors.Wrapf(errors.ErrNotFound, "no config file at %s", path),
			"Create one with: drupaldbg config init")
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Location: %s\n", path)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := openEditor(ctx, path); err != nil {
		return errors.NewSystemError(err, "Set $EDITOR to an installed editor")
	}
	return nil
}

// userConfigPath returns the config directory and the config.yaml in it
// that config init writes.
func userConfigPath() (string, string) {
	return paths.ConfigDir(), paths.ConfigFile()
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	dir, path := userConfigPath()

	exists, err := fileutil.Exists(appFs, path)
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	if exists && !configInitForce {
		return errors.NewUserError(errors.Newf("%s already exists", path), "Pass --force to overwrite it")
	}

	if err := appFs.MkdirAll(dir, paths.DefaultDirPerm); err != nil {
		return errors.NewSystemError(errors.Wrapf(err, "creating %s", dir), "")
	}
	if err := fileutil.AtomicWriteYAML(appFs, path, config.Default(), 0o600); err != nil {
		return errors.NewSystemError(err, "Check that the config directory is writable")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
