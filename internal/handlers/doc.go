// Package handlers provides HTTP request handlers for the texture index API.
//
// It includes handlers for:
//   - Texture search, stats, and category listings
//   - Record lookup, raw file serving, and thumbnails
//   - Index export as a JSON download
//   - Re-index triggering and scan status
//   - Health checks and version info
package handlers
