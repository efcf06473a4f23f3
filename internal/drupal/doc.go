// Package drupal locates Drupal site directories and writes local debug
// overrides into them.
//
// A site directory is any directory holding a settings.php file below a
// "sites" path segment. [Finder] discovers them. [Debugger] maintains two
// per-site override files:
//
//   - settings.local.php: append-only PHP. Each debug directive is appended
//     only when it is not already present (case-insensitive substring match),
//     so repeated runs never duplicate a line.
//   - services.local.yml: a YAML mapping. The fixed debug fragment
//     (Twig debug, cacheability headers, null cache backend) is merged into
//     the existing top-level keys according to a [MergePolicy] and the file is
//     rewritten atomically.
//
// All filesystem access goes through an injected afero.Fs.
//
// Runs are not safe against concurrent invocations on the same site: both
// files are read, modified and written without locking.
package drupal
