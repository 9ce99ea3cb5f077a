// Package store defines the persistence layer for drawer's clipboard records
// and tags.
package store

import (
	"errors"
)

// HistoryTagID is the reserved tag that every fresh capture is filed under.
// It is created with the store and cannot be deleted.
const HistoryTagID int64 = 0

// DefaultHistoryTagName is the display name given to the history tag when the
// store is first created.
const DefaultHistoryTagName = "📝 Clipboard History"

var (
	// ErrNotFound is returned when a record or tag id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraint is returned when an operation would violate a store
	// invariant, such as deleting the history tag.
	ErrConstraint = errors.New("constraint violation")

	// ErrTransaction wraps underlying storage failures. The transaction that
	// produced it has been rolled back.
	ErrTransaction = errors.New("transaction failed")

	// ErrSerialization is returned when a stored payload cannot be decoded.
	ErrSerialization = errors.New("malformed stored payload")
)

// Store manages clipboard records, tags and their assignments.
//
// Every mutation that touches more than one table runs in a single
// transaction, and implementations serialise all calls so that readers never
// observe a record without its tag assignment.
type Store interface {
	// Insert stores a new record under tagID and returns it with its
	// assigned ID. The input record is not modified.
	Insert(record *Record, tagID int64) (*Record, error)

	// Get retrieves a single record by ID.
	Get(id int64) (*Record, error)

	// List returns the records assigned to tagID, newest first.
	List(tagID int64) ([]*Record, error)

	// Delete removes a record and all its tag assignments.
	// Deleting an unknown ID is not an error.
	Delete(id int64) error

	// CopyToTag duplicates a record's content into a new record under tagID,
	// with a new ID and a fresh timestamp.
	CopyToTag(id, tagID int64) (*Record, error)

	// Count returns how many records are assigned to tagID.
	Count(tagID int64) (int, error)

	// DeleteOldest removes up to n records from tagID, oldest assignment
	// first, and returns the IDs it deleted.
	DeleteOldest(tagID int64, n int) ([]int64, error)

	// CreateTag creates a new tag.
	CreateTag(name string) (*Tag, error)

	// DeleteTag removes a tag together with every record filed only under it
	// and returns the IDs of the removed records. The history tag cannot be
	// deleted.
	DeleteTag(id int64) ([]int64, error)

	// ListTags returns all tags ordered by ID, the history tag first.
	ListTags() ([]*Tag, error)

	// Close releases any resources (DB connections, file handles, etc.).
	Close() error
}
