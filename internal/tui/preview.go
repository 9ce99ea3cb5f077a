package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/drawer/internal/view"
)

// PreviewModel holds the scroll state of the record preview
type PreviewModel struct {
	Width   int
	Height  int
	ViewPos int // First visible line
}

// NewPreviewModel creates a preview pane of the given size
func NewPreviewModel(width, height int) PreviewModel {
	return PreviewModel{Width: width, Height: height}
}

// visible is how many body lines fit below the header.
func (p *PreviewModel) visible() int {
	return max(p.Height-6, 1)
}

// Scroll moves the view by delta lines within [0, maxScroll].
func (p *PreviewModel) Scroll(delta int, lines []string) {
	p.ViewPos = min(max(p.ViewPos+delta, 0), p.maxScroll(lines))
}

// PageSize is half the visible body, as ctrl+d and ctrl+u move.
func (p *PreviewModel) PageSize() int {
	return max(p.visible()/2, 1)
}

func (p *PreviewModel) maxScroll(lines []string) int {
	return max(len(lines)-p.visible(), 0)
}

// previewLines renders the body of v wrapped to width.
func previewLines(v *view.View, width int) []string {
	if v == nil {
		return nil
	}
	switch v.Type {
	case view.TypeText:
		return WrapText(v.Data, width)
	case view.TypeFile:
		lines := WrapText(v.Data, width)
		if v.Thumbnail != "" {
			lines = append(lines, "", "(thumbnail available)")
		}
		return lines
	case view.TypeImage:
		return []string{fmt.Sprintf("Image, %s pixels", v.Description)}
	case view.TypeRTF:
		return []string{fmt.Sprintf("Rich text, %s", v.Description)}
	default:
		return []string{v.Description}
	}
}

// PreviewView renders the selected record
func PreviewView(model PreviewModel, v *view.View, pattern *regexp.Regexp, focused bool) string {
	borderColor := "62"
	if focused {
		borderColor = "205"
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(0, 1).
		Width(model.Width).
		Height(model.Height - 2)

	inner := max(model.Width-2, 1)

	if v == nil {
		return style.Render(lipgloss.NewStyle().Bold(true).Render("Preview") + "\n\nNo record selected")
	}

	lines := previewLines(v, inner)
	start := min(model.ViewPos, len(lines))
	end := min(start+model.visible(), len(lines))

	header := fmt.Sprintf("#%d %s · %s", v.ID, v.Type, v.Description)
	if len(lines) > model.visible() {
		header += fmt.Sprintf(" (%d-%d/%d)", start+1, end, len(lines))
	}

	var content strings.Builder
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(truncate(header, inner)) + "\n")
	content.WriteString(lipgloss.NewStyle().Faint(true).Render(time.UnixMilli(v.Time).Local().Format(time.DateTime)) + "\n\n")

	for i := start; i < end; i++ {
		line := lines[i]
		if pattern != nil && v.Type == view.TypeText {
			line = highlightMatches(line, pattern)
		}
		content.WriteString(line)
		if i < end-1 {
			content.WriteString("\n")
		}
	}

	return style.Render(content.String())
}

// highlightMatches marks every match of pattern in line
func highlightMatches(line string, pattern *regexp.Regexp) string {
	matches := pattern.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return line
	}

	mark := lipgloss.NewStyle().
		Background(lipgloss.Color("11")).
		Foreground(lipgloss.Color("0"))

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] == m[1] {
			continue
		}
		b.WriteString(line[last:m[0]])
		b.WriteString(mark.Render(line[m[0]:m[1]]))
		last = m[1]
	}
	b.WriteString(line[last:])
	return b.String()
}
