// Package backup snapshots a site's override files before drupaldbg
// rewrites them, and restores those snapshots on request.
//
// Each backup lives in its own directory under the backup root:
//
//	~/.local/share/drupaldbg/backups/
//	└── {site-key}/
//	    └── {timestamp}/
//	        ├── manifest.json
//	        ├── settings.local.php
//	        └── services.local.yml
//
// The site key is the site directory's base name plus a short hash of its
// absolute path (see [SiteKey]), so two projects' "default" sites never
// share a directory. The timestamp is the creation time in UTC; backups made
// within the same second get a numeric suffix.
//
// The [Manifest] records a SHA-256 and the permission bits of every file.
// [Manager.Restore] verifies all hashes before writing anything and returns
// [ErrBackupCorrupted] on a mismatch.
//
// A Manager satisfies the drupal package's Backuper interface through
// [Manager.BackupSite], which also prunes to the configured retention count.
package backup
