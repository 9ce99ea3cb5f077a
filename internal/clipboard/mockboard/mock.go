// Package mockboard provides a mock clipboard implementation for testing.
package mockboard

import (
	"context"
	"slices"
	"sync"

	"github.com/yiblet/drawer/internal/clipboard"
)

// watchBuffer is how many undelivered change notifications a watcher holds
// before further notifications are dropped.
const watchBuffer = 64

// MockClipboard implements clipboard.Backend for testing. Like a real
// clipboard, every Write is reported to watchers as a change.
type MockClipboard struct {
	mu       sync.Mutex
	formats  []clipboard.Format
	writes   [][]clipboard.Format
	readErr  error
	watchers []chan struct{}
}

// New creates a new MockClipboard instance
func New() *MockClipboard {
	return &MockClipboard{}
}

// AvailableFormats implements clipboard.Backend
func (m *MockClipboard) AvailableFormats() ([]clipboard.FormatID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}

	ids := make([]clipboard.FormatID, 0, len(m.formats))
	for _, f := range m.formats {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// Read implements clipboard.Backend
func (m *MockClipboard) Read(id clipboard.FormatID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}

	for _, f := range m.formats {
		if f.ID == id {
			return slices.Clone(f.Data), nil
		}
	}
	return nil, clipboard.ErrUnavailable
}

// Write implements clipboard.Backend
func (m *MockClipboard) Write(formats []clipboard.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.formats = cloneFormats(formats)
	m.writes = append(m.writes, cloneFormats(formats))
	m.notifyLocked()
	return nil
}

// Watch implements clipboard.Backend
func (m *MockClipboard) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, watchBuffer)

	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		m.watchers = slices.DeleteFunc(m.watchers, func(w chan struct{}) bool { return w == ch })
		close(ch)
	}()

	return ch, nil
}

// SetFormats replaces the clipboard contents without notifying watchers
// (for testing)
func (m *MockClipboard) SetFormats(formats ...clipboard.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formats = cloneFormats(formats)
}

// Copy simulates another application copying formats to the clipboard:
// the contents are replaced and watchers are notified.
func (m *MockClipboard) Copy(formats ...clipboard.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formats = cloneFormats(formats)
	m.notifyLocked()
}

// Notify signals a clipboard change without altering contents.
func (m *MockClipboard) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyLocked()
}

// SetReadError makes every subsequent read fail with err. Pass nil to clear.
func (m *MockClipboard) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// Writes returns every format list passed to Write, oldest first.
func (m *MockClipboard) Writes() [][]clipboard.Format {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]clipboard.Format, len(m.writes))
	for i, w := range m.writes {
		out[i] = cloneFormats(w)
	}
	return out
}

// Watchers returns the number of active watchers (for testing)
func (m *MockClipboard) Watchers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

func (m *MockClipboard) notifyLocked() {
	for _, w := range m.watchers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

func cloneFormats(formats []clipboard.Format) []clipboard.Format {
	out := make([]clipboard.Format, len(formats))
	for i, f := range formats {
		out[i] = clipboard.Format{ID: f.ID, Data: slices.Clone(f.Data)}
	}
	return out
}
