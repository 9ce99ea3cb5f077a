package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/drawer/internal/view"
)

// ListPaneModel holds the cursor and scroll state of the record list
type ListPaneModel struct {
	Cursor int // Index of the selected record
	Offset int // Index of the first visible record
	Width  int
	Height int
}

// NewListPaneModel creates a list pane of the given size
func NewListPaneModel(width, height int) ListPaneModel {
	return ListPaneModel{Width: width, Height: height}
}

// rows is how many records fit inside the border and title.
func (l *ListPaneModel) rows() int {
	return max(l.Height-4, 1)
}

// Move shifts the cursor by delta, clamped to [0, count).
func (l *ListPaneModel) Move(delta, count int) {
	l.Select(l.Cursor+delta, count)
}

// Select places the cursor at index, clamped to [0, count).
func (l *ListPaneModel) Select(index, count int) {
	if count == 0 {
		l.Cursor, l.Offset = 0, 0
		return
	}
	l.Cursor = min(max(index, 0), count-1)

	rows := l.rows()
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+rows {
		l.Offset = l.Cursor - rows + 1
	}
	l.Offset = min(l.Offset, max(count-rows, 0))
}

// Resize changes the pane size, keeping the cursor visible.
func (l *ListPaneModel) Resize(width, height, count int) {
	l.Width = width
	l.Height = height
	l.Select(l.Cursor, count)
}

// ListPaneView renders the record list
func ListPaneView(model ListPaneModel, title string, items []*view.View, focused bool) string {
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

	var content strings.Builder
	header := fmt.Sprintf("%s (%d)", title, len(items))
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(truncate(header, inner)) + "\n\n")

	if len(items) == 0 {
		content.WriteString(lipgloss.NewStyle().Faint(true).Render("No records"))
		return style.Render(content.String())
	}

	end := min(model.Offset+model.rows(), len(items))
	for i := model.Offset; i < end; i++ {
		v := items[i]
		line := truncate(fmt.Sprintf("%d %s", v.ID, v.Title), inner)
		if i == model.Cursor {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				Width(inner).
				Render(line)
		}
		content.WriteString(line)
		if i < end-1 {
			content.WriteString("\n")
		}
	}

	return style.Render(content.String())
}
