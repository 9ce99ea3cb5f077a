package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yiblet/drawer/internal/event"
	"github.com/yiblet/drawer/internal/format"
	"github.com/yiblet/drawer/internal/history"
	"github.com/yiblet/drawer/internal/store"
	"github.com/yiblet/drawer/internal/store/memstore"
)

type stubPaster struct {
	pasted []int64
	err    error
}

func (p *stubPaster) PasteRecord(id int64) error {
	p.pasted = append(p.pasted, id)
	return p.err
}

func insertText(t *testing.T, st store.Store, tagID int64, text string, ms int64) int64 {
	t.Helper()

	rec, err := store.NewRecord(&format.Content{
		Main: format.Text(text),
		Data: []format.Data{format.Text(text)},
	}, time.UnixMilli(ms))
	if err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}
	saved, err := st.Insert(rec, tagID)
	if err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	return saved.ID
}

// setupApp creates a browser over a store holding n history records,
// "Record 0" being the oldest.
func setupApp(t *testing.T, n int) (*AppModel, *memstore.MemoryStore, *stubPaster) {
	t.Helper()

	st := memstore.NewMemoryStore()
	for i := range n {
		insertText(t, st, store.HistoryTagID, fmt.Sprintf("Record %d", i), int64(i))
	}
	paster := &stubPaster{}
	m := history.NewManager(st, history.Options{Paster: paster})

	app := New(m, store.HistoryTagID)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return app, st, paster
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(app *AppModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = app.Update(key(k))
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNew_LoadsHistory(t *testing.T) {
	app, _, _ := setupApp(t, 3)

	if len(app.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(app.Items))
	}
	if app.Items[0].Data != "Record 2" {
		t.Errorf("expected newest first, got %q", app.Items[0].Data)
	}
	if app.Selected() != app.Items[0] {
		t.Error("expected the newest record to be selected")
	}
	if len(app.Tags) != 1 || app.Tags[0].ID != store.HistoryTagID {
		t.Errorf("unexpected tags %+v", app.Tags)
	}
}

func TestAppModel_WindowResize(t *testing.T) {
	app, _, _ := setupApp(t, 1)

	app.Update(tea.WindowSizeMsg{Width: 150, Height: 40})
	if app.Width != 150 || app.Height != 40 {
		t.Errorf("size = %dx%d, want 150x40", app.Width, app.Height)
	}
	if app.ListWidth != 40 {
		t.Errorf("list width = %d, want 40", app.ListWidth)
	}
	if app.ListWidth+app.PreviewWidth+4 != 150 {
		t.Errorf("panes do not fill the window: %d + %d", app.ListWidth, app.PreviewWidth)
	}

	app.Update(tea.WindowSizeMsg{Width: 10, Height: 3})
	if app.Width != 30 || app.Height != 8 {
		t.Errorf("expected minimum size 30x8, got %dx%d", app.Width, app.Height)
	}
}

func TestAppModel_ListNavigation(t *testing.T) {
	app, _, _ := setupApp(t, 5)

	tests := []struct {
		keys []string
		want int
	}{
		{[]string{"j"}, 1},
		{[]string{"j", "j", "k"}, 1},
		{[]string{"k"}, 0},
		{[]string{"G"}, 4},
		{[]string{"G", "j"}, 4},
		{[]string{"G", "g"}, 0},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.keys, ""), func(t *testing.T) {
			app.List.Select(0, len(app.Items))
			press(app, tt.keys...)
			if app.List.Cursor != tt.want {
				t.Errorf("cursor = %d, want %d", app.List.Cursor, tt.want)
			}
		})
	}
}

func TestAppModel_PaneSwitching(t *testing.T) {
	app, _, _ := setupApp(t, 2)

	press(app, "tab")
	if app.ActivePane != PreviewPane {
		t.Fatal("tab should focus the preview")
	}

	// j scrolls the preview instead of moving the cursor
	press(app, "j")
	if app.List.Cursor != 0 {
		t.Errorf("cursor moved while preview focused: %d", app.List.Cursor)
	}

	press(app, "h")
	if app.ActivePane != ListPane {
		t.Error("h should focus the list")
	}
	press(app, "l")
	if app.ActivePane != PreviewPane {
		t.Error("l should focus the preview")
	}
}

func TestAppModel_PreviewScrolling(t *testing.T) {
	st := memstore.NewMemoryStore()
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	insertText(t, st, store.HistoryTagID, strings.Join(lines, "\n"), 1)

	app := New(history.NewManager(st, history.Options{}), store.HistoryTagID)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	press(app, "l", "j", "j")
	if app.Preview.ViewPos != 2 {
		t.Errorf("ViewPos = %d, want 2", app.Preview.ViewPos)
	}
	press(app, "k")
	if app.Preview.ViewPos != 1 {
		t.Errorf("ViewPos = %d, want 1", app.Preview.ViewPos)
	}

	press(app, "G")
	maxScroll := 100 - app.Preview.visible()
	if app.Preview.ViewPos != maxScroll {
		t.Errorf("ViewPos = %d, want %d", app.Preview.ViewPos, maxScroll)
	}
	press(app, "j")
	if app.Preview.ViewPos != maxScroll {
		t.Errorf("scrolled past the end: %d", app.Preview.ViewPos)
	}

	press(app, "g", "ctrl+d")
	if app.Preview.ViewPos != app.Preview.PageSize() {
		t.Errorf("ctrl+d ViewPos = %d, want %d", app.Preview.ViewPos, app.Preview.PageSize())
	}
	if !strings.Contains(app.View(), "/100)") {
		t.Error("expected a scroll indicator in the preview header")
	}
}

func TestAppModel_QuitKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		quit bool
	}{
		{"q", []string{"q"}, true},
		{"ctrl+c", []string{"ctrl+c"}, true},
		{"esc without filter", []string{"esc"}, true},
		{"ctrl+c in search", []string{"/", "ctrl+c"}, true},
		{"q in search is input", []string{"/", "q"}, false},
		{"q leaves help", []string{"?", "q"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := setupApp(t, 1)
			if got := isQuit(press(app, tt.keys...)); got != tt.quit {
				t.Errorf("quit = %v, want %v", got, tt.quit)
			}
		})
	}
}

func TestAppModel_Search(t *testing.T) {
	st := memstore.NewMemoryStore()
	insertText(t, st, store.HistoryTagID, "Hello World", 1)
	insertText(t, st, store.HistoryTagID, "goodbye world", 2)
	insertText(t, st, store.HistoryTagID, "something else", 3)

	app := New(history.NewManager(st, history.Options{}), store.HistoryTagID)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	press(app, "/", "W", "o", "r", "x", "backspace")
	if app.CurrentMode != SearchMode || app.SearchInput != "Wor" {
		t.Fatalf("mode=%v input=%q", app.CurrentMode, app.SearchInput)
	}
	if !strings.Contains(app.View(), "/Wor") {
		t.Error("status line should echo the search input")
	}

	press(app, "enter")
	if app.CurrentMode != NormalMode || app.Pattern != "Wor" {
		t.Fatalf("mode=%v pattern=%q", app.CurrentMode, app.Pattern)
	}
	if len(app.Items) != 2 {
		t.Fatalf("expected 2 case-insensitive matches, got %d", len(app.Items))
	}
	if app.List.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", app.List.Cursor)
	}

	// esc clears the filter before it quits
	if isQuit(press(app, "esc")) {
		t.Fatal("esc with an active filter should not quit")
	}
	if app.Pattern != "" || len(app.Items) != 3 {
		t.Errorf("filter not cleared: pattern=%q items=%d", app.Pattern, len(app.Items))
	}
}

func TestAppModel_SearchInvalidPattern(t *testing.T) {
	app, _, _ := setupApp(t, 2)

	press(app, "/", "[", "enter")
	if app.CurrentMode != SearchMode {
		t.Error("invalid pattern should keep search mode open")
	}
	if app.Error == "" {
		t.Error("expected a pattern error")
	}

	press(app, "esc")
	if app.CurrentMode != NormalMode || app.Error != "" {
		t.Errorf("esc should cancel: mode=%v error=%q", app.CurrentMode, app.Error)
	}
	if len(app.Items) != 2 {
		t.Errorf("items changed after cancelled search: %d", len(app.Items))
	}
}

func TestAppModel_Delete(t *testing.T) {
	app, st, _ := setupApp(t, 3)
	target := app.Selected().ID

	press(app, "d")
	if app.CurrentMode != DeleteMode || !app.Modal.Active {
		t.Fatal("d should open the delete confirmation")
	}
	if !strings.Contains(app.View(), "Delete record?") {
		t.Error("confirmation not rendered")
	}

	press(app, "n")
	if app.CurrentMode != NormalMode || app.Modal.Active {
		t.Fatal("n should cancel")
	}
	if n, _ := st.Count(store.HistoryTagID); n != 3 {
		t.Fatalf("record deleted on cancel: %d left", n)
	}

	cmd := press(app, "d", "y")
	if cmd == nil {
		t.Error("expected a flash timer after deleting")
	}
	if _, err := st.Get(target); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("record %d still stored: %v", target, err)
	}
	if len(app.Items) != 2 {
		t.Errorf("expected 2 items after delete, got %d", len(app.Items))
	}
	if !strings.Contains(app.FlashMessage, fmt.Sprint(target)) {
		t.Errorf("unexpected flash %q", app.FlashMessage)
	}
}

func TestAppModel_Paste(t *testing.T) {
	app, _, paster := setupApp(t, 2)
	press(app, "j")
	want := app.Selected().ID

	if cmd := press(app, "enter"); cmd == nil {
		t.Error("expected a flash timer after pasting")
	}
	if len(paster.pasted) != 1 || paster.pasted[0] != want {
		t.Fatalf("pasted %v, want [%d]", paster.pasted, want)
	}

	paster.err = errors.New("clipboard busy")
	press(app, "c")
	if !strings.Contains(app.Error, "clipboard busy") {
		t.Errorf("expected paste error, got %q", app.Error)
	}
}

func TestAppModel_FlashExpires(t *testing.T) {
	app, _, _ := setupApp(t, 1)

	press(app, "enter")
	first := app.flashID
	press(app, "enter")

	// an older timer must not clear a newer message
	app.Update(flashExpiredMsg{id: first})
	if app.FlashMessage == "" {
		t.Fatal("stale timer cleared the flash")
	}
	app.Update(flashExpiredMsg{id: app.flashID})
	if app.FlashMessage != "" {
		t.Errorf("flash not cleared: %q", app.FlashMessage)
	}
}

func TestAppModel_TagSwitching(t *testing.T) {
	st := memstore.NewMemoryStore()
	insertText(t, st, store.HistoryTagID, "history", 1)
	work, _ := st.CreateTag("work")
	insertText(t, st, work.ID, "work a", 2)
	insertText(t, st, work.ID, "work b", 3)

	app := New(history.NewManager(st, history.Options{}), store.HistoryTagID)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	press(app, "]")
	if app.tagID() != work.ID || len(app.Items) != 2 {
		t.Fatalf("tag=%d items=%d after ]", app.tagID(), len(app.Items))
	}
	if !strings.Contains(app.View(), "work b") {
		t.Error("work records not rendered")
	}

	press(app, "]")
	if app.tagID() != store.HistoryTagID {
		t.Errorf("] should wrap around, got tag %d", app.tagID())
	}
	press(app, "[")
	if app.tagID() != work.ID {
		t.Errorf("[ should go back, got tag %d", app.tagID())
	}

	// opening directly on a tag
	app = New(history.NewManager(st, history.Options{}), work.ID)
	if app.tagID() != work.ID || len(app.Items) != 2 {
		t.Errorf("New(work) tag=%d items=%d", app.tagID(), len(app.Items))
	}
}

func TestAppModel_EventReload(t *testing.T) {
	app, st, _ := setupApp(t, 3)
	press(app, "j")
	selected := app.Selected().ID

	insertText(t, st, store.HistoryTagID, "fresh", 10)
	app.Update(EventMsg{Event: event.Created(nil)})

	if len(app.Items) != 4 || app.Items[0].Data != "fresh" {
		t.Fatalf("new record not loaded: %d items", len(app.Items))
	}
	if app.Selected().ID != selected {
		t.Errorf("selection moved to %d, want %d", app.Selected().ID, selected)
	}

	if err := st.Delete(selected); err != nil {
		t.Fatal(err)
	}
	app.Update(EventMsg{Event: event.Deleted([]int64{selected})})
	if len(app.Items) != 3 {
		t.Errorf("expected 3 items after delete event, got %d", len(app.Items))
	}
	if app.Selected() == nil {
		t.Error("expected a selection after the selected record went away")
	}
}

func TestAppModel_ErrMsg(t *testing.T) {
	app, _, _ := setupApp(t, 1)

	app.Update(ErrMsg{Err: errors.New("watch failed")})
	if !strings.Contains(app.View(), "Error: watch failed") {
		t.Error("background error not shown in the status line")
	}
}

func TestAppModel_HelpMode(t *testing.T) {
	app, _, _ := setupApp(t, 1)

	press(app, "?")
	if app.CurrentMode != HelpMode {
		t.Fatal("? should open help")
	}
	view := app.View()
	if !strings.Contains(view, "NAVIGATION") || !strings.Contains(view, "Press ? to return") {
		t.Error("help view not rendered")
	}

	// navigation is blocked while help is open
	press(app, "j", "d")
	if app.CurrentMode != HelpMode || app.List.Cursor != 0 {
		t.Error("keys leaked through the help screen")
	}

	press(app, "esc")
	if app.CurrentMode != NormalMode {
		t.Error("esc should close help")
	}
}

func TestAppModel_View(t *testing.T) {
	app, _, _ := setupApp(t, 2)

	view := app.View()
	for _, want := range []string{store.DefaultHistoryTagName, "Record 1", "8 characters", "Press ? for help"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	empty := New(history.NewManager(memstore.NewMemoryStore(), history.Options{}), store.HistoryTagID)
	if !strings.Contains(empty.View(), "No records") {
		t.Error("empty tag should say so")
	}
	press(empty, "j", "d", "enter")
	if empty.CurrentMode != NormalMode {
		t.Error("keys on an empty list should be no-ops")
	}
}

func TestListPaneModel_Select(t *testing.T) {
	l := NewListPaneModel(30, 8) // 4 visible rows

	l.Select(9, 20)
	if l.Cursor != 9 || l.Offset != 6 {
		t.Errorf("cursor=%d offset=%d, want 9 6", l.Cursor, l.Offset)
	}
	l.Select(2, 20)
	if l.Cursor != 2 || l.Offset != 2 {
		t.Errorf("cursor=%d offset=%d, want 2 2", l.Cursor, l.Offset)
	}
	l.Select(50, 20)
	if l.Cursor != 19 || l.Offset != 16 {
		t.Errorf("cursor=%d offset=%d, want 19 16", l.Cursor, l.Offset)
	}
	l.Select(-3, 20)
	if l.Cursor != 0 || l.Offset != 0 {
		t.Errorf("cursor=%d offset=%d, want 0 0", l.Cursor, l.Offset)
	}
	l.Select(3, 0)
	if l.Cursor != 0 {
		t.Errorf("empty list cursor = %d", l.Cursor)
	}
}
