package constants

import "strings"

const (
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// AllowedExtensions holds the image extensions accepted for card photos.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns IMAGE or TXT for a known extension, "" otherwise.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if ext == "txt" {
		return TXT
	}
	if _, ok := AllowedExtensions[ext]; ok {
		return IMAGE
	}
	return ""
}

// IsHEICExt reports whether the extension needs conversion before tesseract can read it.
func IsHEICExt(ext string) bool {
	ext = NormalizeExt(ext)
	return ext == "heic" || ext == "heif"
}

// ExtForMIME maps an image MIME subtype ("image/png") to a file extension.
func ExtForMIME(mime string) string {
	sub := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(mime), "image/"))
	switch sub {
	case "jpeg", "jpg", "pjpeg":
		return "jpg"
	case "png", "webp", "bmp", "tiff", "heic", "heif":
		return sub
	}
	return ""
}
