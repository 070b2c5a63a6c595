// Package mediatype maps asset file names to the media types declared in the
// package manifest.
package mediatype

import (
	"path/filepath"
	"strings"
)

// Media types referenced by name across the assembler and generator.
const (
	XHTML = "application/xhtml+xml"
	CSS   = "text/css"
	EPUB  = "application/epub+zip"
)

// Detect returns the media type for an asset based on its file extension.
// Unknown extensions fall back to application/octet-stream.
func Detect(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "css":
		return CSS
	case "xhtml", "html", "htm":
		return XHTML
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether the media type belongs to the image family.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.TrimSpace(mediaType), "image/")
}
