package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/drawer/internal/view"
)

// ModalModel holds the state of a confirmation dialog
type ModalModel struct {
	Active  bool
	Title   string
	Content string
	Options string
}

// Show opens the dialog.
func (m *ModalModel) Show(title, content, options string) {
	m.Active = true
	m.Title = title
	m.Content = content
	m.Options = options
}

// Hide closes the dialog.
func (m *ModalModel) Hide() {
	*m = ModalModel{}
}

// ModalView renders the dialog centered in a width × height area
func ModalView(model ModalModel, width, height int) string {
	body := lipgloss.NewStyle().Bold(true).Render(model.Title)
	if model.Content != "" {
		body += "\n\n" + model.Content
	}
	if model.Options != "" {
		body += "\n\n" + lipgloss.NewStyle().Faint(true).Render(model.Options)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("9")).
		Padding(1, 2).
		Width(min(60, max(width-4, 10))).
		Align(lipgloss.Center).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// deleteConfirmation fills a dialog asking to delete v.
func deleteConfirmation(m *ModalModel, v *view.View) {
	m.Show(
		"Delete record?",
		fmt.Sprintf("#%d %s", v.ID, truncate(v.Title, 50)),
		"y to delete, n or Esc to cancel",
	)
}
