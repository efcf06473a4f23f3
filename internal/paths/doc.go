// Package paths resolves where drupaldbg keeps its own files.
//
// Locations follow the XDG base directory conventions through
// github.com/adrg/xdg:
//
//	paths.ConfigDir() // ~/.config/drupaldbg, or $DRUPALDBG_CONFIG_DIR
//	paths.BackupDir() // ~/.local/share/drupaldbg/backups
//
// Site files are never resolved here; they are always relative to the
// Drupal project the command runs in.
package paths
