// Package syncer reconciles folders on disk with the catalog. Each run
// takes a cheap folder snapshot first and skips all work when nothing
// changed; otherwise it diffs a shallow scan against the stored state,
// removes vanished files, deep-processes new and modified ones, and
// keeps the thumbnail cache consistent with the catalog.
package syncer
