// Package config loads drupaldbg's own settings with Viper.
//
// Settings come, in increasing precedence, from built-in defaults, a
// config.yaml found in the working directory or in
// $XDG_CONFIG_HOME/drupaldbg, and DRUPALDBG_* environment variables. A
// project .env file is read first with godotenv so its values take part as
// environment variables without overriding ones already set.
//
//	version: 1
//	default_site_dir: web/sites/default
//	exclude_dirs: [core, modules, vendor, node_modules]
//	merge_policy: existing
//	cache_clear_command: drush cr
//	backup:
//	  enabled: true
//	  retention: 10
//	  dir: ~/.local/share/drupaldbg/backups
//
// Nested keys map to environment variables with underscores, so
// DRUPALDBG_BACKUP_RETENTION=3 overrides backup.retention.
//
// Loaded configurations are validated with go-playground/validator; see
// [Validate].
package config
