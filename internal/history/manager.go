// Package history is the command surface over the record store: the
// operations the CLI and the browser invoke on the user's behalf.
package history

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/yiblet/drawer/internal/event"
	"github.com/yiblet/drawer/internal/store"
	"github.com/yiblet/drawer/internal/view"
)

// Paster writes a stored record back to the clipboard.
type Paster interface {
	PasteRecord(id int64) error
}

// Sweeper runs one retention pass.
type Sweeper interface {
	Sweep() ([]int64, error)
}

// Manager implements the user-facing history operations. Store failures
// are returned to the caller unchanged in kind.
type Manager struct {
	store   store.Store
	conv    *view.Converter
	sink    event.Sink
	paster  Paster
	sweeper Sweeper
	logger  *slog.Logger
}

// Options configures a Manager. Paster and Sweeper are optional; the
// operations that need them fail when they are missing.
type Options struct {
	Converter *view.Converter
	Sink      event.Sink
	Paster    Paster
	Sweeper   Sweeper
	Logger    *slog.Logger
}

// NewManager creates a manager over st.
func NewManager(st store.Store, opts Options) *Manager {
	m := &Manager{
		store:   st,
		conv:    opts.Converter,
		sink:    opts.Sink,
		paster:  opts.Paster,
		sweeper: opts.Sweeper,
		logger:  opts.Logger,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.conv == nil {
		m.conv = view.NewConverter(nil, m.logger)
	}
	if m.sink == nil {
		m.sink = event.Discard
	}
	return m
}

// ListTags returns every tag, the history tag first.
func (m *Manager) ListTags() ([]*store.Tag, error) {
	return m.store.ListTags()
}

// ListRecords returns the views of a tag's records, newest first.
func (m *Manager) ListRecords(tagID int64) ([]*view.View, error) {
	records, err := m.store.List(tagID)
	if err != nil {
		return nil, err
	}
	return m.conv.ConvertAll(records)
}

// Search returns the views of a tag's records whose text matches pattern,
// newest first. Text records match on their content, file records on their
// path, and other records on their description.
func (m *Manager) Search(tagID int64, pattern string, caseSensitive bool) ([]*view.View, error) {
	if pattern == "" {
		return []*view.View{}, nil
	}
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	views, err := m.ListRecords(tagID)
	if err != nil {
		return nil, err
	}

	results := make([]*view.View, 0)
	for _, v := range views {
		subject := v.Description
		if v.Type == view.TypeText || v.Type == view.TypeFile {
			subject = v.Data
		}
		if re.MatchString(subject) {
			results = append(results, v)
		}
	}
	return results, nil
}

// Get returns the view of one record.
func (m *Manager) Get(id int64) (*view.View, error) {
	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	return m.conv.Convert(rec)
}

// Record returns one stored record.
func (m *Manager) Record(id int64) (*store.Record, error) {
	return m.store.Get(id)
}

// Delete removes a record and reports it as deleted.
func (m *Manager) Delete(id int64) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}
	m.logger.Info("deleted record", "record_id", id)
	m.sink.Emit(event.Deleted([]int64{id}))
	return nil
}

// CreateTag creates an empty tag.
func (m *Manager) CreateTag(name string) (*store.Tag, error) {
	tag, err := m.store.CreateTag(name)
	if err != nil {
		return nil, err
	}
	m.logger.Info("created tag", "tag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// DeleteTag removes a tag together with the records filed only under it,
// and reports those records as deleted. The history tag cannot be deleted.
func (m *Manager) DeleteTag(id int64) ([]int64, error) {
	if id == store.HistoryTagID {
		return nil, fmt.Errorf("history tag cannot be deleted: %w", store.ErrConstraint)
	}

	ids, err := m.store.DeleteTag(id)
	if err != nil {
		return nil, err
	}
	m.logger.Info("deleted tag", "tag_id", id, "deleted", len(ids))
	if len(ids) > 0 {
		m.sink.Emit(event.Deleted(ids))
	}
	return ids, nil
}

// Pin copies a record into tagID as a new record and returns its view.
func (m *Manager) Pin(id, tagID int64) (*view.View, error) {
	rec, err := m.store.CopyToTag(id, tagID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("pinned record", "record_id", id, "tag_id", tagID, "copy_id", rec.ID)
	return m.conv.Convert(rec)
}

// Paste writes a record back to the clipboard.
func (m *Manager) Paste(id int64) error {
	if m.paster == nil {
		return fmt.Errorf("paste is not available")
	}
	return m.paster.PasteRecord(id)
}

// SweepNow runs one retention pass immediately.
func (m *Manager) SweepNow() ([]int64, error) {
	if m.sweeper == nil {
		return nil, fmt.Errorf("sweeping is not available")
	}
	return m.sweeper.Sweep()
}
