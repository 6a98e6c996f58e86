// Package scanner walks a texture directory tree and extracts per-file
// metadata records.
//
// The walk is sequential and visits only regular files in the fixed set
// of indexed texture formats (png, jpg, jpeg, bmp, tga, psd). For each
// file a record is built containing:
//   - Category and subcategory derived from the path segments
//   - Pixel dimensions probed from the image header
//   - An MD5 content hash streamed in fixed-size chunks
//   - File size and modification time
//
// Extraction is best effort: a file whose image payload cannot be decoded
// is still recorded with zero dimensions, and a file whose bytes cannot
// be read is still recorded with an empty hash. Hidden files and
// directories (prefixed with '.') are excluded from the walk.
package scanner
