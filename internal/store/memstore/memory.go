// Package memstore provides an in-memory implementation of the store interfaces.
// This implementation is designed for fast unit testing and does not persist data.
package memstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yiblet/drawer/internal/store"
)

// MemoryStore is an in-memory implementation of store.Store.
// It mirrors the SQLite store's semantics, including the reserved history tag,
// and is thread-safe via a mutex.
// Data is not persisted and exists only for the lifetime of the process.
type MemoryStore struct {
	mu          sync.Mutex
	records     map[int64]*store.Record
	tags        map[int64]*store.Tag
	assignments []assignment
	nextID      int64
	nextTagID   int64
	nextAssign  int64
	now         func() time.Time
}

// assignment is one (record, tag) membership, ordered by id.
type assignment struct {
	id       int64
	recordID int64
	tagID    int64
}

// NewMemoryStore creates a new in-memory store for testing.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]*store.Record),
		tags: map[int64]*store.Tag{
			store.HistoryTagID: {ID: store.HistoryTagID, Name: store.DefaultHistoryTagName},
		},
		nextID:     1,
		nextTagID:  1,
		nextAssign: 1,
		now:        time.Now,
	}
}

// SetClock replaces the time source used to stamp copied records.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Insert stores a copy of record under tagID.
func (m *MemoryStore) Insert(record *store.Record, tagID int64) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tags[tagID]; !ok {
		return nil, fmt.Errorf("failed to insert record: tag %d: %w", tagID, store.ErrNotFound)
	}
	return m.insertLocked(record, tagID), nil
}

// Get retrieves a single record by ID.
func (m *MemoryStore) Get(id int64) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	return rec.Clone(), nil
}

// List returns records under tagID sorted newest first.
func (m *MemoryStore) List(tagID int64) ([]*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]*store.Record, 0)
	for _, a := range m.assignments {
		if a.tagID == tagID {
			records = append(records, m.records[a.recordID].Clone())
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Time != records[j].Time {
			return records[i].Time > records[j].Time
		}
		return records[i].ID > records[j].ID
	})

	return records, nil
}

// Delete removes a record and its assignments. Unknown IDs are ignored.
func (m *MemoryStore) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteLocked([]int64{id})
	return nil
}

// CopyToTag duplicates a record under tagID with a fresh timestamp.
func (m *MemoryStore) CopyToTag(id, tagID int64) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("failed to copy record: record %d: %w", id, store.ErrNotFound)
	}
	if _, ok := m.tags[tagID]; !ok {
		return nil, fmt.Errorf("failed to copy record: tag %d: %w", tagID, store.ErrNotFound)
	}

	cp := src.Clone()
	cp.Time = m.now().UnixMilli()
	return m.insertLocked(cp, tagID), nil
}

// Count returns the number of records under tagID.
func (m *MemoryStore) Count(tagID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, a := range m.assignments {
		if a.tagID == tagID {
			n++
		}
	}
	return n, nil
}

// DeleteOldest removes the n records assigned to tagID first.
func (m *MemoryStore) DeleteOldest(tagID int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// assignments are kept in insertion order
	var ids []int64
	for _, a := range m.assignments {
		if len(ids) == n {
			break
		}
		if a.tagID == tagID {
			ids = append(ids, a.recordID)
		}
	}

	m.deleteLocked(ids)
	return ids, nil
}

// CreateTag creates a new, empty tag.
func (m *MemoryStore) CreateTag(name string) (*store.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name must not be empty: %w", store.ErrConstraint)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tag := &store.Tag{ID: m.nextTagID, Name: name}
	m.nextTagID++
	m.tags[tag.ID] = tag

	c := *tag
	return &c, nil
}

// DeleteTag removes a tag, its assignments, and the records filed only under it.
func (m *MemoryStore) DeleteTag(id int64) ([]int64, error) {
	if id == store.HistoryTagID {
		return nil, fmt.Errorf("history tag cannot be deleted: %w", store.ErrConstraint)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tags[id]; !ok {
		return nil, fmt.Errorf("failed to delete tag: tag %d: %w", id, store.ErrNotFound)
	}

	elsewhere := make(map[int64]bool)
	for _, a := range m.assignments {
		if a.tagID != id {
			elsewhere[a.recordID] = true
		}
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, a := range m.assignments {
		if a.tagID == id && !elsewhere[a.recordID] && !seen[a.recordID] {
			seen[a.recordID] = true
			ids = append(ids, a.recordID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	m.deleteLocked(ids)

	kept := m.assignments[:0]
	for _, a := range m.assignments {
		if a.tagID != id {
			kept = append(kept, a)
		}
	}
	m.assignments = kept
	delete(m.tags, id)

	return ids, nil
}

// ListTags returns every tag ordered by ID.
func (m *MemoryStore) ListTags() ([]*store.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tags := make([]*store.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		c := *t
		tags = append(tags, &c)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

// Close releases resources (no-op for memory store).
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) insertLocked(record *store.Record, tagID int64) *store.Record {
	rec := record.Clone()
	rec.ID = m.nextID
	m.nextID++
	m.records[rec.ID] = rec

	m.assignments = append(m.assignments, assignment{id: m.nextAssign, recordID: rec.ID, tagID: tagID})
	m.nextAssign++

	return rec.Clone()
}

func (m *MemoryStore) deleteLocked(ids []int64) {
	if len(ids) == 0 {
		return
	}

	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(m.records, id)
	}

	kept := m.assignments[:0]
	for _, a := range m.assignments {
		if !drop[a.recordID] {
			kept = append(kept, a)
		}
	}
	m.assignments = kept
}
