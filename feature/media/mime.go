package media

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var imageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/svg+xml": true,
	"image/bmp":     true,
	"image/webp":    true,
	"image/avif":    true,
}

var preferredExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/svg+xml":   ".svg",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
	"image/avif":      ".avif",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"application/pdf": ".pdf",
}

// IsImage reports whether contentType is an image the API renders variants for.
func IsImage(contentType string) bool {
	return imageTypes[contentType]
}

// DetectType sniffs the MIME type of data. SVG is recognised by extension or
// markup; the file extension decides when content sniffing is inconclusive.
func DetectType(data []byte, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".svg" || looksLikeSVG(data) {
		return "image/svg+xml", nil
	}

	detected := baseType(http.DetectContentType(data))
	byExt := baseType(mime.TypeByExtension(ext))

	switch {
	case detected != "application/octet-stream" && !strings.HasPrefix(detected, "text/plain"):
		return detected, nil
	case byExt != "":
		return byExt, nil
	case strings.HasPrefix(detected, "text/plain"):
		return detected, nil
	}
	return "", ErrUnknownFileType
}

// Extension returns the extension for an uploaded object, preferring the one of
// fileName.
func Extension(contentType, fileName string) string {
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" {
		return ext
	}
	if ext, ok := preferredExtensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Slug turns the base name of fileName (without extension) into a lower case
// ASCII slug. Accents are stripped.
func Slug(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(base) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case r == '_' || r == '.':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "file"
	}
	return slug
}

func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}
