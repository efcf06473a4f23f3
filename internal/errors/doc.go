// Package errors is the single errors import for drupaldbg. It re-exports
// the github.com/cockroachdb/errors helpers, holds the sentinels shared
// across packages, and maps failures onto process exit codes.
//
// Exit codes are 0 for success, 1 ([ExitUser]) for bad input and missing
// sites, and 2 ([ExitSystem]) for I/O, parse and exec failures.
//
// Suggestions are cockroachdb hints, so they can be attached at any layer
// and are collected by [Suggestion]:
//
//	err := errors.NewUserError(drupal.ErrSiteNotFound, "Run: drupaldbg drupal:find-sites")
//	fmt.Println(errors.Suggestion(err))
//	os.Exit(errors.ExitCode(err))
package errors
