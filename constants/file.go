package constants

import "strings"

// Accepted upload MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// AllowedExtensions holds the file extensions picked up by batch ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

var extToMIME = map[string]string{
	"pdf":  MIMEPDF,
	"jpg":  MIMEJPEG,
	"jpeg": MIMEJPEG,
	"png":  MIMEPNG,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMEFromExt returns the upload MIME type for an extension, or "" when it is not accepted.
func MIMEFromExt(ext string) string {
	return extToMIME[NormalizeExt(ext)]
}

// NormalizeMIME drops parameters and folds known aliases ("image/jpg") to their canonical form.
func NormalizeMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch mime {
	case "image/jpg", "image/pjpeg":
		return MIMEJPEG
	case "application/x-pdf":
		return MIMEPDF
	}
	return mime
}

// IsAllowedMIME reports whether mime (after normalization) is an accepted upload type.
func IsAllowedMIME(mime string) bool {
	switch NormalizeMIME(mime) {
	case MIMEPDF, MIMEJPEG, MIMEPNG:
		return true
	}
	return false
}
