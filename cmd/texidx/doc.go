// Command texidx maintains and queries a texture index database without a
// running server.
//
// It supports the following operations:
//   - index: Scan the texture directory and update the index
//   - search: Search indexed textures by filename and metadata filters
//   - stats: Show aggregate index statistics
//   - export: Write texture records as an indented JSON array
//
// Usage:
//
//	texidx [--textures DIR] [--db FILE] <command>
//
// The database defaults to texture_index.db inside the texture root, so a
// bare 'texidx index' run against a texture directory is self-contained.
// Point --db at the server's database file to operate on a live index; the
// CLI uses the same batch-friendly SQLite settings as the server.
//
// Environment:
//
//	TEXTURE_DIR  - Default texture root (--textures overrides)
//	DATABASE_DIR - Default database directory (--db overrides)
//
// Output is terminal-aware: searches print an aligned table interactively
// and tab-separated lines when piped, and 'index' shows live scan progress
// only on a terminal.
package main
