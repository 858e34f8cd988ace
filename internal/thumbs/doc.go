// Package thumbs maintains the derived thumbnail cache: resized JPEG
// renditions stored at deterministic, content-addressed locations
// (hash of source path + pixel size).
//
// The cache is advisory. Every operation is best-effort from the
// catalog's point of view: a thumbnail that cannot be generated or
// deleted degrades to "no thumbnail" and must never fail the
// surrounding catalog operation.
package thumbs
