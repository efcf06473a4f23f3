package commands

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/report"
)

var (
	findSitesRoot   string
	findSitesFormat string
)

func init() {
	findSitesCmd.Flags().StringVar(&findSitesRoot, "root", ".",
		"directory to search")
	findSitesCmd.Flags().StringVar(&findSitesFormat, "format", string(report.FormatText),
		"output format: text, json, yaml, toml")
	rootCmd.AddCommand(findSitesCmd)
}

var findSitesCmd = &cobra.Command{
	Use:     "drupal:find-sites",
	Aliases: []string{"find-sites"},
	Short:   "List Drupal site directories",
	Long: `Search a directory tree for Drupal site directories.

A site directory holds a settings.php below a "sites" directory. The
directories listed in exclude_dirs (core, modules, vendor and node_modules by
default) are not searched. Finding no sites is not an error.`,
	Example: `  # Search the current project
  drupaldbg drupal:find-sites

  # Search another checkout and emit JSON
  drupaldbg drupal:find-sites --root ~/src/portal --format json

  See Also: drupaldbg drupal:enable-debugging`,
	Args: cobra.NoArgs,
	RunE: runFindSites,
}

func runFindSites(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(findSitesFormat)
	if err != nil {
		return errors.NewUserError(err, "Use --format text, json, yaml or toml")
	}

	sites, err := newFinder(cmd).FindSites(findSitesRoot)
	if err != nil {
		return commandError(err)
	}
	if len(sites) == 0 {
		loggerFor(cmd).Info("no sites found", "root", findSitesRoot)
	}

	return report.NewReporter(cmd.OutOrStdout(), format).Sites(findSitesRoot, sites)
}

func newFinder(cmd *cobra.Command) *drupal.Finder {
	return drupal.NewFinder(appFs,
		drupal.WithExcludeDirs(currentConfig().ExcludeDirs),
		drupal.WithFinderLogger(loggerFor(cmd)),
	)
}
