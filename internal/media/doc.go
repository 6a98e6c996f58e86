// Package media provides texture image handling: dimension probing without
// full decodes, memory-constrained loading of oversized art sources, and
// cached thumbnail generation.
//
// Thumbnails are fitted into a 200x200 box and cached as JPEG on disk.
// Generation prefers libvips decode-time shrinking when available and falls
// back to the pure Go decoders for formats vips cannot read.
package media
