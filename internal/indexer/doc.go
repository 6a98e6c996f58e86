// Package indexer provides background texture indexing for the index
// service.
//
// The indexer runs sequential passes over the configured texture
// directory and maintains a record per file with its metadata:
//   - File name, path, and size
//   - Category and subcategory derived from the path
//   - Pixel dimensions and MD5 content hash
//   - Creation and modification times
//
// A file whose stored modification time matches the on-disk one is
// skipped without touching the store, so re-indexing an unchanged tree
// performs no writes. Records are committed in batches of 100 processed
// files. Records for files removed from disk are left in place.
//
// Passes start four ways: an initial one at application startup, on a
// configurable re-index interval, when change polling notices the tree's
// fingerprint (root mtime, top-level entry count, subdirectory mtimes)
// move, and on manual triggers via the API or CLI.
package indexer
