// Package watcher applies live filesystem changes to the catalog. It
// wraps fsnotify with an idempotent per-folder registry, filters the
// event stream down to supported image files, and performs the same
// single-file processing a sync run would: deep-process and thumbnail
// on create or write, remove and invalidate on delete or rename.
package watcher
