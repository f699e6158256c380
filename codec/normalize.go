package codec

import "strings"

// normalizeExtension lowercases ext and strips a single leading dot, per
// spec §4.4's "Extension matching is case-insensitive; leading dot is
// stripped if present."
func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}

// normalizeMime lowercases mime for case-insensitive comparison (spec §4.4).
func normalizeMime(mime string) string {
	return strings.ToLower(strings.TrimSpace(mime))
}
