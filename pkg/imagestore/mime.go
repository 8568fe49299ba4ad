package imagestore

// allowedImageTypes maps accepted MIME types to the extension the stored
// object gets. The set matches what the imaging library can decode, so
// script-capable formats (svg) and webp stay out.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
}

// AllowedType reports whether mimeType is an accepted image type and
// returns the file extension to store it under.
func AllowedType(mimeType string) (string, bool) {
	ext, ok := allowedImageTypes[mimeType]
	return ext, ok
}
