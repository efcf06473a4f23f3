package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/drupaldbg/internal/backup"
	"github.com/thoreinstein/drupaldbg/internal/doctor"
	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/drush"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/picker"
	"github.com/thoreinstein/drupaldbg/internal/report"
)

var (
	enableMergePolicy      string
	enableClearCache       bool
	enableStrictCacheClear bool
	enablePick             bool
	enableRoot             string
	enableNoBackup         bool
	enableFormat           string
)

// cacheRunner runs the cache clear command. Nil uses drush.ExecRunner
// attached to the command's output.
var cacheRunner drush.Runner

// pickSite chooses among sites for --pick.
var pickSite = func(sites []string) (string, error) {
	return picker.New(picker.WithPreview(sitePreview)).Pick(sites)
}

func init() {
	enableDebuggingCmd.Flags().StringVar(&enableMergePolicy, "merge-policy", "",
		"which side wins for keys present in both services files: existing, fragment (default from config)")
	enableDebuggingCmd.Flags().BoolVar(&enableClearCache, "clear-cache", false,
		"run the cache clear command after writing")
	enableDebuggingCmd.Flags().BoolVar(&enableStrictCacheClear, "strict-cache-clear", false,
		"fail when the cache clear command fails (implies --clear-cache)")
	enableDebuggingCmd.Flags().BoolVar(&enablePick, "pick", false,
		"choose the site interactively")
	enableDebuggingCmd.Flags().StringVar(&enableRoot, "root", ".",
		"directory searched for sites with --pick")
	enableDebuggingCmd.Flags().BoolVar(&enableNoBackup, "no-backup", false,
		"do not back up the override files first")
	enableDebuggingCmd.Flags().StringVar(&enableFormat, "format", string(report.FormatText),
		"output format: text, json, yaml, toml")
	rootCmd.AddCommand(enableDebuggingCmd)
}

var enableDebuggingCmd = &cobra.Command{
	Use:     "drupal:enable-debugging [siteDir]",
	Aliases: []string{"enable-debugging"},
	Short:   "Write local debug overrides for a site",
	Long: `Enable local debugging for a Drupal site.

Appends the missing debug directives to settings.local.php, creating it if
needed, and merges Twig debugging, cacheability headers and the null cache
backend into services.local.yml. Running it again changes nothing.

Both steps are best-effort: a failure in the settings step does not stop the
services step. Existing override files are backed up first unless
--no-backup is given or backups are disabled in the config.

The site defaults to default_site_dir from the config (web/sites/default).`,
	Example: `  # Enable debugging for the default site
  drupaldbg drupal:enable-debugging

  # Enable debugging for another site and clear caches
  drupaldbg drupal:enable-debugging web/sites/blog --clear-cache

  # Choose a site interactively
  drupaldbg drupal:enable-debugging --pick

  # Let the debug fragment overwrite existing top-level keys
  drupaldbg drupal:enable-debugging --merge-policy fragment

  See Also: drupaldbg drupal:doctor, drupaldbg drupal:restore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnableDebugging,
}

func runEnableDebugging(cmd *cobra.Command, args []string) error {
	conf := currentConfig()
	logger := loggerFor(cmd)

	format, err := report.ParseFormat(enableFormat)
	if err != nil {
		return errors.NewUserError(err, "Use --format text, json, yaml or toml")
	}

	policyName := conf.MergePolicy
	if cmd.Flags().Changed("merge-policy") {
		policyName = enableMergePolicy
	}
	policy, err := drupal.ParseMergePolicy(policyName)
	if err != nil {
		return commandError(err)
	}

	siteDir, err := resolveSiteDir(cmd, args)
	if err != nil {
		return err
	}

	opts := []drupal.Option{
		drupal.WithLogger(logger),
		drupal.WithMergePolicy(policy),
	}
	if conf.Backup.Enabled && !enableNoBackup {
		opts = append(opts, drupal.WithBackuper(newBackupManager(cmd)))
	}

	rep, runErr := drupal.NewDebugger(appFs, opts...).EnableDebugging(siteDir)

	if format != report.FormatText || !quiet {
		if err := report.NewReporter(cmd.OutOrStdout(), format).Debugging(rep, runErr); err != nil {
			return err
		}
	}
	if runErr != nil {
		return commandError(runErr)
	}

	if enableClearCache || enableStrictCacheClear {
		if err := clearCache(cmd, conf.CacheClearCommand, siteDir); err != nil {
			if enableStrictCacheClear {
				return errors.NewSystemError(err, "Check cache_clear_command, or run it by hand")
			}
			logger.Warn("cache clear failed", "site", siteDir, "error", err)
		}
	}

	return nil
}

// resolveSiteDir returns the site given as argument, picked interactively,
// or configured as the default.
func resolveSiteDir(cmd *cobra.Command, args []string) (string, error) {
	if enablePick {
		if len(args) > 0 {
			return "", errors.NewUserError(errors.New("--pick cannot be combined with a site argument"),
				"Pass either a site directory or --pick")
		}
		sites, err := newFinder(cmd).FindSites(enableRoot)
		if err != nil {
			return "", commandError(err)
		}
		site, err := pickSite(sites)
		if errors.Is(err, picker.ErrNoChoices) {
			return "", errors.NewUserError(errors.Wrapf(drupal.ErrNoSitesFound, "under %s", enableRoot),
				"Run from the project root, or pass --root")
		}
		if err != nil {
			return "", commandError(err)
		}
		return site, nil
	}

	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return currentConfig().DefaultSiteDir, nil
}

func newBackupManager(cmd *cobra.Command) *backup.Manager {
	conf := currentConfig()
	return backup.NewManager(appFs,
		backup.WithBackupDir(conf.Backup.Dir),
		backup.WithRetentionCount(conf.Backup.Retention),
		backup.WithToolVersion(toolVersion()),
		backup.WithLogger(loggerFor(cmd)),
	)
}

func clearCache(cmd *cobra.Command, command, siteDir string) error {
	runner := cacheRunner
	if runner == nil {
		runner = drush.ExecRunner{Stdout: cmd.ErrOrStderr(), Stderr: cmd.ErrOrStderr()}
	}

	clearer, err := drush.NewCacheClearer(command,
		drush.WithRunner(runner),
		drush.WithWorkDir(drupal.DocRoot(siteDir)),
		drush.WithLogger(loggerFor(cmd)),
	)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return clearer.Clear(ctx, siteDir)
}

// sitePreview summarizes a site's debug setup for the picker.
func sitePreview(site string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", site)
	for _, check := range doctor.SiteChecks(appFs, site) {
		result := check.Run()
		fmt.Fprintf(&b, "%s %s: %s\n", statusIcon(result.Status), check.Name(), result.Message)
	}
	return b.String()
}
