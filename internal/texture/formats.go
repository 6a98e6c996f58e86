package texture

// TextureExtensions maps file extensions to whether they are indexed
// texture formats. The set is fixed; files outside it are ignored by
// the scanner.
var TextureExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tga":  true,
	".psd":  true,
}

// MimeTypes maps texture file extensions to their MIME types.
var MimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".tga":  "image/x-tga",
	".psd":  "image/vnd.adobe.photoshop",
}

// IsTexture returns true if the extension represents an indexed texture
// format. The extension should be lowercase and include the leading dot
// (e.g., ".png").
func IsTexture(ext string) bool {
	return TextureExtensions[ext]
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Formats returns the indexed texture extensions in a stable order,
// suitable for populating UI filter choices.
func Formats() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".tga", ".psd"}
}
