package utils

import "strings"

// BuildEndpointUrl joins baseUrl and pathOrUrl with exactly one slash.
// A pathOrUrl that already is an absolute http(s) URL is returned unchanged.
// The result is empty when pathOrUrl is blank, or when it is relative and baseUrl is blank.
func BuildEndpointUrl(baseUrl string, pathOrUrl string) string {
	pathOrUrl = strings.TrimSpace(pathOrUrl)
	if pathOrUrl == "" {
		return ""
	}
	if IsAbsoluteHttpUrl(pathOrUrl) {
		return pathOrUrl
	}
	baseUrl = strings.TrimSpace(baseUrl)
	if baseUrl == "" {
		return ""
	}
	return strings.TrimRight(baseUrl, "/") + "/" + strings.TrimLeft(pathOrUrl, "/")
}

func IsAbsoluteHttpUrl(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// TruncateForLog shortens s to at most limit runes.
func TruncateForLog(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
