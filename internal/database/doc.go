// Package database provides the SQLite-backed texture store.
//
// It implements the texture.Repository contract: path-keyed upserts buffered
// in a transaction, single-record lookup, conjunction-filter search ordered
// by filename, full dumps for export, and aggregate statistics.
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
