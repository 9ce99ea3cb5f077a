package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// WrapText wraps text to fit within maxWidth display cells, breaking on
// word boundaries when possible. Newlines in the input are kept.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{}
	}

	var result []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")

	for _, line := range strings.Split(text, "\n") {
		if lipgloss.Width(line) <= maxWidth {
			result = append(result, line)
			continue
		}
		result = append(result, wrapLine(line, maxWidth)...)
	}

	return result
}

// wrapLine wraps a single line that is too long
func wrapLine(line string, maxWidth int) []string {
	var result []string
	var current strings.Builder
	width := 0

	flush := func() {
		result = append(result, current.String())
		current.Reset()
		width = 0
	}

	for _, word := range strings.FieldsFunc(line, unicode.IsSpace) {
		wordWidth := lipgloss.Width(word)

		// words wider than a line are split by rune
		if wordWidth > maxWidth {
			if width > 0 {
				flush()
			}
			for _, r := range word {
				rw := lipgloss.Width(string(r))
				if width+rw > maxWidth {
					flush()
				}
				current.WriteRune(r)
				width += rw
			}
			continue
		}

		needed := wordWidth
		if width > 0 {
			needed++
		}
		if width+needed > maxWidth {
			flush()
			needed = wordWidth
		}
		if width > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
		width += needed
	}

	if width > 0 {
		flush()
	}
	return result
}

// truncate shortens s to at most width display cells, marking the cut
// with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}

	var b strings.Builder
	used := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if used+rw > width-1 {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	return b.String() + "…"
}
