// Package doctor runs diagnostic checks against a Drupal site directory.
//
// A [Runner] executes registered [Check]s in order and aggregates their
// results into a [DoctorReport]. [SiteChecks] returns the standard set:
//
//   - site-layout: the directory exists and holds settings.php
//   - local-settings-include: settings.php includes settings.local.php
//   - debug-settings: settings.local.php holds every debug directive
//   - services-overrides: services.local.yml parses and defines the debug keys
//   - file-permissions: the site directory and its settings files are not
//     world-writable
//
// Checks that can repair what they find also implement [Fixer].
package doctor
