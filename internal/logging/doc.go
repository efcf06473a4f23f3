// Package logging sets up log/slog for drupaldbg.
//
// Console output uses [Handler], a compact key=value format that is coloured
// when stderr is a terminal. --log-format json switches to the standard
// JSON handler, and --log-file appends JSON records to a file through
// [MultiHandler]. Values logged under secret-looking keys, such as
// DRUPAL_HASH_SALT or a database password, are masked in every format.
//
//	logger := logging.New(logging.Config{
//		Level: logging.LevelFromVerbosity(verbosity),
//	})
//	cmd.SetContext(logging.NewContext(cmd.Context(), logger))
//
// Packages default to [NewDiscard]; tests pass [ForTest].
package logging
