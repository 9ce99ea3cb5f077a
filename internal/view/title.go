package view

import (
	"strings"
	"unicode"
)

// MaxTitleLen is the longest title, in characters, shown in listings.
const MaxTitleLen = 80

// GenerateTitle creates a one-line title from text.
// It uses the first non-empty line, sanitized for terminal display.
func GenerateTitle(text string) string {
	if text == "" {
		return "[empty]"
	}

	for _, line := range strings.Split(text, "\n") {
		cleaned := SanitizeTitle(line)
		if cleaned != "" {
			return cleaned
		}
	}

	return "[blank]"
}

// TruncateTitle ensures title is at most maxLen characters.
// If truncation is needed, appends "..." to indicate truncation.
func TruncateTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}

	// Reserve 3 characters for "..."
	if maxLen < 3 {
		return strings.Repeat(".", max(maxLen, 0))
	}

	return string(runes[:maxLen-3]) + "..."
}

// SanitizeTitle removes control characters and collapses whitespace.
// This ensures titles are safe for display in terminals and UIs.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)

	return strings.Join(strings.Fields(title), " ")
}
