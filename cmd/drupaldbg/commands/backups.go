package commands

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/drupaldbg/internal/backup"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/report"
)

var backupsFormat string

func init() {
	backupsCmd.Flags().StringVar(&backupsFormat, "format", string(report.FormatText),
		"output format: text, json, yaml, toml")
	rootCmd.AddCommand(backupsCmd)
}

var backupsCmd = &cobra.Command{
	Use:     "drupal:backups [siteDir]",
	Aliases: []string{"backups"},
	Short:   "List backups of a site's override files",
	Long: `List the backups taken before drupal:enable-debugging changed a site's
settings.local.php or services.local.yml, most recent first.

Backups live under backup.dir from the config
($XDG_DATA_HOME/drupaldbg/backups by default).`,
	Example: `  # List backups of the default site
  drupaldbg drupal:backups

  # List backups of another site as JSON
  drupaldbg drupal:backups web/sites/blog --format json

  See Also: drupaldbg drupal:restore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackups,
}

func runBackups(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(backupsFormat)
	if err != nil {
		return errors.NewUserError(err, "Use --format text, json, yaml or toml")
	}

	siteDir := currentConfig().DefaultSiteDir
	if len(args) > 0 {
		siteDir = args[0]
	}

	manifests, err := newBackupManager(cmd).List(siteDir)
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return commandError(errors.Wrapf(err, "listing backups for %s", siteDir))
	}

	return report.NewReporter(cmd.OutOrStdout(), format).Backups(siteDir, manifests)
}
