package validation

import (
	"mime"
	"path/filepath"
	"strings"
)

const genericMimeType = "application/octet-stream"

// TextPolicy decides which staged files are read as plain text.
type TextPolicy struct {
	mimes      map[string]bool
	extensions map[string]bool
}

func NewTextPolicy(mimeTypes, extensions []string) *TextPolicy {
	return &TextPolicy{
		mimes:      BuildAllowedMap(mimeTypes, normalizeMime),
		extensions: BuildAllowedMap(extensions, normalizeExt),
	}
}

func BuildAllowedMap(values []string, normalize func(string) string) map[string]bool {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[normalize(v)] = true
	}
	return allowed
}

// IsText reports whether a file with this name and declared type holds text.
// The extension is only consulted when the declared type is absent or generic.
func (p *TextPolicy) IsText(filename, declaredType string) bool {
	mimeType := normalizeMime(declaredType)
	if mimeType != "" && mimeType != genericMimeType {
		return p.mimes[mimeType]
	}
	return p.extensions[normalizeExt(filepath.Ext(filename))]
}

// DetectMimeType returns the declared type, falling back to the extension
// when it is missing or generic.
func DetectMimeType(filename, declaredType string) string {
	mimeType := normalizeMime(declaredType)
	if mimeType == "" || mimeType == genericMimeType {
		if detected := mime.TypeByExtension(filepath.Ext(filename)); detected != "" {
			return normalizeMime(detected)
		}
	}
	if mimeType == "" {
		return genericMimeType
	}
	return mimeType
}

// normalizeMime drops parameters such as "; charset=utf-8".
func normalizeMime(m string) string {
	if m == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(m); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
