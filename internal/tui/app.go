// Package tui is the interactive history browser.
package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/drawer/internal/event"
	"github.com/yiblet/drawer/internal/store"
	"github.com/yiblet/drawer/internal/view"
)

// Manager is the history surface the browser drives.
type Manager interface {
	ListTags() ([]*store.Tag, error)
	ListRecords(tagID int64) ([]*view.View, error)
	Search(tagID int64, pattern string, caseSensitive bool) ([]*view.View, error)
	Delete(id int64) error
	Paste(id int64) error
}

// PaneType represents which pane is focused
type PaneType int

const (
	ListPane PaneType = iota
	PreviewPane
)

// UIMode represents the current modal state of the application
type UIMode int

const (
	NormalMode UIMode = iota
	SearchMode
	HelpMode
	DeleteMode
)

const flashDuration = 2 * time.Second

// EventMsg delivers a history event to the browser.
type EventMsg struct {
	Event event.Event
}

// ErrMsg reports a background failure.
type ErrMsg struct {
	Err error
}

type flashExpiredMsg struct {
	id int
}

// AppModel orchestrates the panes
type AppModel struct {
	manager Manager

	Width        int
	Height       int
	ListWidth    int
	PreviewWidth int
	ActivePane   PaneType
	CurrentMode  UIMode

	Tags     []*store.Tag
	TagIndex int
	Items    []*view.View

	List    ListPaneModel
	Preview PreviewModel
	Modal   ModalModel

	SearchInput string // pattern being typed
	Pattern     string // applied filter
	Error       string

	FlashMessage string
	flashID      int
}

// New creates a browser over m showing tagID.
func New(m Manager, tagID int64) *AppModel {
	a := &AppModel{
		manager:     m,
		ActivePane:  ListPane,
		CurrentMode: NormalMode,
	}
	a.resize(120, 24)
	a.loadTags(tagID)
	a.reload()
	return a
}

// Init implements tea.Model
func (a *AppModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(m.Width, m.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKeyPress(m)
	case EventMsg:
		if m.Event.Kind == event.RecordsDeleted {
			// a deleted tag may have been on screen
			a.loadTags(a.tagID())
		}
		a.reload()
		return a, nil
	case ErrMsg:
		a.Error = m.Err.Error()
		return a, nil
	case flashExpiredMsg:
		if m.id == a.flashID {
			a.FlashMessage = ""
		}
		return a, nil
	}
	return a, nil
}

func (a *AppModel) resize(width, height int) {
	a.Width = max(width, 30)
	a.Height = max(height, 8)

	a.ListWidth = min(40, a.Width/3)
	a.ListWidth = max(a.ListWidth, 12)
	a.PreviewWidth = max(a.Width-a.ListWidth-4, 10)

	body := a.bodyHeight()
	a.List.Resize(a.ListWidth, body, len(a.Items))
	a.Preview.Width = a.PreviewWidth
	a.Preview.Height = body
	a.Preview.ViewPos = 0
}

// bodyHeight leaves room for the tag bar and status line.
func (a *AppModel) bodyHeight() int {
	return a.Height - 2
}

func (a *AppModel) tagID() int64 {
	if a.TagIndex < len(a.Tags) {
		return a.Tags[a.TagIndex].ID
	}
	return store.HistoryTagID
}

func (a *AppModel) loadTags(want int64) {
	tags, err := a.manager.ListTags()
	if err != nil {
		a.Error = err.Error()
		return
	}
	a.Tags = tags
	a.TagIndex = 0
	for i, tag := range tags {
		if tag.ID == want {
			a.TagIndex = i
			break
		}
	}
}

// Selected returns the record under the cursor, or nil.
func (a *AppModel) Selected() *view.View {
	if a.List.Cursor < len(a.Items) {
		return a.Items[a.List.Cursor]
	}
	return nil
}

// reload refreshes the records of the current tag, keeping the cursor on
// the same record when it still exists.
func (a *AppModel) reload() {
	var selected int64 = -1
	if v := a.Selected(); v != nil {
		selected = v.ID
	}

	var (
		items []*view.View
		err   error
	)
	if a.Pattern != "" {
		items, err = a.manager.Search(a.tagID(), a.Pattern, false)
	} else {
		items, err = a.manager.ListRecords(a.tagID())
	}
	if err != nil {
		a.Error = err.Error()
		return
	}
	a.Error = ""
	a.Items = items

	index := a.List.Cursor
	for i, v := range items {
		if v.ID == selected {
			index = i
			break
		}
	}
	a.List.Select(index, len(items))

	if v := a.Selected(); v == nil || v.ID != selected {
		a.Preview.ViewPos = 0
	}
}

func (a *AppModel) setFlash(message string) tea.Cmd {
	a.flashID++
	id := a.flashID
	a.FlashMessage = message
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{id: id}
	})
}

// handleKeyPress dispatches on the current mode first
func (a *AppModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.CurrentMode {
	case SearchMode:
		return a.handleSearchModeKeys(msg)
	case HelpMode:
		return a.handleHelpModeKeys(msg.String())
	case DeleteMode:
		return a.handleDeleteModeKeys(msg.String())
	default:
		return a.handleNormalModeKeys(msg.String())
	}
}

func (a *AppModel) handleSearchModeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.SearchInput = ""
		a.Error = ""
		a.CurrentMode = NormalMode
	case tea.KeyEnter:
		if _, err := regexp.Compile("(?i)" + a.SearchInput); err != nil {
			a.Error = err.Error()
			return a, nil
		}
		a.Pattern = a.SearchInput
		a.SearchInput = ""
		a.CurrentMode = NormalMode
		a.reload()
		a.List.Select(0, len(a.Items))
		a.Preview.ViewPos = 0
	case tea.KeyBackspace:
		if r := []rune(a.SearchInput); len(r) > 0 {
			a.SearchInput = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.SearchInput += " "
	case tea.KeyRunes:
		a.SearchInput += string(msg.Runes)
	}
	return a, nil
}

func (a *AppModel) handleHelpModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "?", "z", "esc", "q":
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleDeleteModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		a.Modal.Hide()
		a.CurrentMode = NormalMode

		v := a.Selected()
		if v == nil {
			return a, nil
		}
		if err := a.manager.Delete(v.ID); err != nil {
			a.Error = fmt.Sprintf("failed to delete record %d: %v", v.ID, err)
			return a, nil
		}
		a.reload()
		return a, a.setFlash(fmt.Sprintf("Deleted record %d", v.ID))
	case "n", "N", "esc":
		a.Modal.Hide()
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleNormalModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return a, tea.Quit
	case "esc":
		if a.Pattern == "" {
			return a, tea.Quit
		}
		a.Pattern = ""
		a.reload()
		return a, nil
	case "?", "z":
		a.CurrentMode = HelpMode
		return a, nil
	case "/":
		a.SearchInput = ""
		a.CurrentMode = SearchMode
		return a, nil
	case "tab":
		if a.ActivePane == ListPane {
			a.ActivePane = PreviewPane
		} else {
			a.ActivePane = ListPane
		}
		return a, nil
	case "h", "left":
		a.ActivePane = ListPane
		return a, nil
	case "l", "right":
		a.ActivePane = PreviewPane
		return a, nil
	case "]", "[":
		if len(a.Tags) > 0 {
			step := 1
			if key == "[" {
				step = len(a.Tags) - 1
			}
			a.TagIndex = (a.TagIndex + step) % len(a.Tags)
			a.List.Select(0, 0)
			a.reload()
		}
		return a, nil
	case "r":
		a.loadTags(a.tagID())
		a.reload()
		return a, nil
	case "enter", "c":
		v := a.Selected()
		if v == nil {
			return a, nil
		}
		if err := a.manager.Paste(v.ID); err != nil {
			a.Error = fmt.Sprintf("failed to paste record %d: %v", v.ID, err)
			return a, nil
		}
		return a, a.setFlash(fmt.Sprintf("Pasted record %d to the clipboard", v.ID))
	case "d":
		if v := a.Selected(); v != nil {
			deleteConfirmation(&a.Modal, v)
			a.CurrentMode = DeleteMode
		}
		return a, nil
	case "ctrl+d":
		a.scrollPreview(a.Preview.PageSize())
		return a, nil
	case "ctrl+u":
		a.scrollPreview(-a.Preview.PageSize())
		return a, nil
	}

	if a.ActivePane == PreviewPane {
		return a.handlePreviewKeys(key)
	}
	return a.handleListKeys(key)
}

func (a *AppModel) handleListKeys(key string) (tea.Model, tea.Cmd) {
	before := a.List.Cursor
	switch key {
	case "j", "down":
		a.List.Move(1, len(a.Items))
	case "k", "up":
		a.List.Move(-1, len(a.Items))
	case "g", "home":
		a.List.Select(0, len(a.Items))
	case "G", "end":
		a.List.Select(len(a.Items)-1, len(a.Items))
	}
	if a.List.Cursor != before {
		a.Preview.ViewPos = 0
	}
	return a, nil
}

func (a *AppModel) handlePreviewKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		a.scrollPreview(1)
	case "k", "up":
		a.scrollPreview(-1)
	case "g", "home":
		a.Preview.ViewPos = 0
	case "G", "end":
		a.scrollPreview(len(a.previewLines()))
	}
	return a, nil
}

func (a *AppModel) previewLines() []string {
	return previewLines(a.Selected(), max(a.PreviewWidth-2, 1))
}

func (a *AppModel) scrollPreview(delta int) {
	a.Preview.Scroll(delta, a.previewLines())
}

// View implements tea.Model
func (a *AppModel) View() string {
	var body string
	switch {
	case a.CurrentMode == HelpMode:
		body = renderHelpView(a.Width, a.bodyHeight())
	case a.Modal.Active:
		body = ModalView(a.Modal, a.Width, a.bodyHeight())
	default:
		var pattern *regexp.Regexp
		if a.Pattern != "" {
			pattern, _ = regexp.Compile("(?i)" + a.Pattern)
		}
		title := "Records"
		if a.TagIndex < len(a.Tags) {
			title = a.Tags[a.TagIndex].Name
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			ListPaneView(a.List, title, a.Items, a.ActivePane == ListPane),
			PreviewView(a.Preview, a.Selected(), pattern, a.ActivePane == PreviewPane),
		)
	}

	return renderTagBar(a.Tags, a.TagIndex, a.Width) + "\n" + body + "\n" + a.renderStatusLine()
}

func renderTagBar(tags []*store.Tag, active, width int) string {
	activeStyle := lipgloss.NewStyle().Bold(true).
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().Faint(true).Padding(0, 1)

	parts := make([]string, 0, len(tags))
	for i, tag := range tags {
		if i == active {
			parts = append(parts, activeStyle.Render(tag.Name))
		} else {
			parts = append(parts, inactiveStyle.Render(tag.Name))
		}
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, " "))
}

func (a *AppModel) renderStatusLine() string {
	style := lipgloss.NewStyle().Width(a.Width).MaxHeight(1)

	switch {
	case a.CurrentMode == SearchMode:
		line := "/" + a.SearchInput
		if a.Error != "" {
			return style.Foreground(lipgloss.Color("9")).Render(line + " (" + a.Error + ")")
		}
		return style.Render(line + " (Enter to search, Esc to cancel)")
	case a.Error != "":
		return style.Foreground(lipgloss.Color("9")).Render("Error: " + a.Error)
	case a.FlashMessage != "":
		return style.Foreground(lipgloss.Color("10")).Render(a.FlashMessage)
	case a.CurrentMode == HelpMode:
		return style.Render("Press ? to return, q to quit")
	case a.Pattern != "":
		return style.Render(fmt.Sprintf("Filter: /%s - %d matches (Esc to clear)", a.Pattern, len(a.Items)))
	default:
		return style.Render("Press ? for help, q to quit")
	}
}

func renderHelpView(width, height int) string {
	help := `drawer - clipboard history

NAVIGATION
  j, ↓ / k, ↑   Next / previous record (scroll in the preview pane)
  g / G         First / last record
  Ctrl+d/Ctrl+u Scroll the preview half a page
  Tab, h, l     Switch between list and preview
  [ / ]         Previous / next tag

RECORDS
  Enter, c      Paste the selected record to the clipboard
  d             Delete the selected record
  /pattern      Filter records by regular expression
  Esc           Clear the filter, or quit
  r             Reload

  ?             Toggle this help
  q, Ctrl+c     Quit`

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1).
		Width(max(width-2, 10)).
		Height(max(height-2, 1)).
		Render(help)
}
