// Package scanner discovers image files and extracts their metadata.
//
// It provides three levels of work, cheapest first:
//
//   - ScanShallow lists a folder one level deep and returns filesystem
//     facts only (no pixel data is ever read).
//   - ComputeSnapshot fingerprints a folder (file count + aggregated
//     mtime) so the sync engine can skip folders that haven't changed.
//   - ProcessFile produces a full catalog record for one file,
//     including a header-only dimension probe and a new identifier.
//
// The PathNormalizer defines catalog path identity and is shared by the
// sync engine and the live watcher.
package scanner
