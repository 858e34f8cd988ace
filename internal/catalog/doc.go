// Package catalog implements the durable store of indexed files, folder
// snapshots and settings on SQLite.
//
// The store maps record identifiers to file metadata with a secondary
// unique index on normalized path, which gives Upsert its
// replace-in-place semantics: re-indexing a known path refreshes the
// row but keeps the original identifier. A folder_path column tracks
// which watched folder owns each record.
//
// All operations are safe for concurrent use; a single RWMutex
// serializes mutations, and no lock is held across anything slower than
// the SQL statement itself.
package catalog
