package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/drupaldbg/internal/doctor"
)

func init() {
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:     "drupal:restore <siteDir> [backupID]",
	Aliases: []string{"restore"},
	Short:   "Restore a site's override files from a backup",
	Long: `Restore settings.local.php and services.local.yml from a backup.

Without a backup ID the most recent backup of the site is used. Every file is
checked against the hash recorded in the backup manifest before anything is
written; a mismatch aborts the restore. Restored files replace the current
ones and keep the permissions they had when backed up.`,
	Example: `  # Restore the latest backup of the default site
  drupaldbg drupal:restore web/sites/default

  # Restore a specific backup
  drupaldbg drupal:restore web/sites/default 20261016T093000

  See Also: drupaldbg drupal:backups`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	siteDir := args[0]
	mgr := newBackupManager(cmd)

	backupID := ""
	if len(args) > 1 {
		backupID = args[1]
	} else {
		manifests, err := mgr.List(siteDir)
		if err != nil {
			return commandError(err)
		}
		backupID = manifests[0].ID
	}

	manifest, err := mgr.Restore(siteDir, backupID)
	if err != nil {
		return commandError(err)
	}

	w := cmd.OutOrStdout()
	for _, f := range manifest.Files {
		fmt.Fprintf(w, "%s restored %s\n", statusIcon(doctor.SeverityPass), f.Source)
	}
	fmt.Fprintf(w, "Restored %d file(s) from backup %s\n", len(manifest.Files), backupID)
	loggerFor(cmd).Info("restore complete", "site", siteDir, "backup", backupID, "created", manifest.CreatedAt)
	return nil
}
