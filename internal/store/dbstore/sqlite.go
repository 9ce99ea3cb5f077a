package dbstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yiblet/drawer/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore is a SQLite-backed implementation of store.Store.
//
// The store owns a single connection guarded by a mutex: at most one
// operation runs against the database at a time, and the lock is held only
// for the duration of that operation.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *gorm.DB
	dbPath string
	now    func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*options)

type options struct {
	now            func() time.Time
	historyTagName string
}

// WithClock sets the time source used to stamp copied records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithHistoryTagName sets the display name of the history tag when the
// database is created. An existing history tag keeps its name.
func WithHistoryTagName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.historyTagName = name
		}
	}
}

// NewSQLiteStore creates a new SQLite-backed store at the specified path.
// It initializes the database schema and the reserved history tag.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := options{
		now:            time.Now,
		historyTagName: store.DefaultHistoryTagName,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(openDialector(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Run auto-migration for all models
	if err := db.AutoMigrate(&TagModel{}, &ClipboardModel{}, &ClipboardTagModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// The history tag has the fixed id 0, which GORM treats as unset, so it
	// is inserted directly.
	if err := db.Exec("INSERT OR IGNORE INTO tags (id, name) VALUES (?, ?)",
		store.HistoryTagID, o.historyTagName).Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create history tag: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		now:    o.now,
	}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert stores a record and its tag assignment in one transaction
func (s *SQLiteStore) Insert(record *store.Record, tagID int64) (*store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := &ClipboardModel{
		MainData:    record.MainData,
		Data:        record.Data,
		ContentType: record.ContentType,
		CreateAt:    record.Time,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return insertWithTag(tx, model, tagID)
	})
	if err != nil {
		return nil, txError("insert record", err)
	}

	return model.ToRecord(), nil
}

// Get retrieves a single record by ID
func (s *SQLiteStore) Get(id int64) (*store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var model ClipboardModel
	if err := s.db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return model.ToRecord(), nil
}

// List returns the records assigned to a tag, newest first
func (s *SQLiteStore) List(tagID int64) ([]*store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var models []ClipboardModel
	err := s.db.Raw(`
		SELECT c.id, c.main_data, c.data, c.content_type, c.create_at
		FROM clipboard c
		INNER JOIN clipboard_tags ct ON ct.clipboard_id = c.id AND ct.tag_id = ?
		ORDER BY c.create_at DESC, c.id DESC`, tagID).
		Scan(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]*store.Record, len(models))
	for i := range models {
		records[i] = models[i].ToRecord()
	}
	return records, nil
}

// Delete removes a record and its tag assignments
func (s *SQLiteStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return deleteRecords(tx, []int64{id})
	})
	if err != nil {
		return txError("delete record", err)
	}
	return nil
}

// CopyToTag duplicates a record under another tag with a fresh timestamp
func (s *SQLiteStore) CopyToTag(id, tagID int64) (*store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var model *ClipboardModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var src ClipboardModel
		if err := tx.Where("id = ?", id).First(&src).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("record %d: %w", id, store.ErrNotFound)
			}
			return err
		}

		model = &ClipboardModel{
			MainData:    src.MainData,
			Data:        src.Data,
			ContentType: src.ContentType,
			CreateAt:    s.now().UnixMilli(),
		}
		return insertWithTag(tx, model, tagID)
	})
	if err != nil {
		return nil, txError("copy record", err)
	}

	return model.ToRecord(), nil
}

// Count returns the number of records assigned to a tag
func (s *SQLiteStore) Count(tagID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	err := s.db.Raw(`
		SELECT COUNT(c.id) FROM clipboard c
		INNER JOIN clipboard_tags ct ON ct.clipboard_id = c.id AND ct.tag_id = ?`, tagID).
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(count), nil
}

// DeleteOldest removes the n records that were assigned to a tag first
func (s *SQLiteStore) DeleteOldest(tagID int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			SELECT c.id FROM clipboard c
			INNER JOIN clipboard_tags ct ON ct.clipboard_id = c.id AND ct.tag_id = ?
			ORDER BY ct.id ASC
			LIMIT ?`, tagID, n).
			Scan(&ids).Error; err != nil {
			return err
		}
		return deleteRecords(tx, ids)
	})
	if err != nil {
		return nil, txError("delete oldest records", err)
	}

	return ids, nil
}

// CreateTag creates a new, empty tag
func (s *SQLiteStore) CreateTag(name string) (*store.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name must not be empty: %w", store.ErrConstraint)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	model := &TagModel{Name: name}
	if err := s.db.Create(model).Error; err != nil {
		return nil, txError("create tag", err)
	}
	return model.ToTag(), nil
}

// DeleteTag removes a tag, its assignments, and the records filed only under it
func (s *SQLiteStore) DeleteTag(id int64) ([]int64, error) {
	if id == store.HistoryTagID {
		return nil, fmt.Errorf("history tag cannot be deleted: %w", store.ErrConstraint)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireTag(tx, id); err != nil {
			return err
		}

		if err := tx.Raw(`
			SELECT DISTINCT clipboard_id FROM clipboard_tags
			WHERE tag_id = ?
			AND clipboard_id NOT IN (SELECT clipboard_id FROM clipboard_tags WHERE tag_id <> ?)
			ORDER BY clipboard_id`, id, id).
			Scan(&ids).Error; err != nil {
			return err
		}

		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Delete(&ClipboardModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("tag_id = ?", id).Delete(&ClipboardTagModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&TagModel{}).Error
	})
	if err != nil {
		return nil, txError("delete tag", err)
	}

	return ids, nil
}

// ListTags returns every tag ordered by ID
func (s *SQLiteStore) ListTags() ([]*store.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var models []TagModel
	if err := s.db.Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags := make([]*store.Tag, len(models))
	for i := range models {
		tags[i] = models[i].ToTag()
	}
	return tags, nil
}

// insertWithTag creates a record and assigns it to tagID within tx
func insertWithTag(tx *gorm.DB, model *ClipboardModel, tagID int64) error {
	if err := requireTag(tx, tagID); err != nil {
		return err
	}
	if err := tx.Create(model).Error; err != nil {
		return err
	}
	return tx.Create(&ClipboardTagModel{ClipboardID: model.ID, TagID: tagID}).Error
}

// deleteRecords removes records and every assignment that references them
func deleteRecords(tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("clipboard_id IN ?", ids).Delete(&ClipboardTagModel{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&ClipboardModel{}).Error
}

// requireTag fails with store.ErrNotFound when the tag does not exist
func requireTag(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&TagModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("tag %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// txError classifies a failed transaction. Domain errors raised inside the
// transaction pass through; anything else is a storage failure.
func txError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConstraint) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("%w: failed to %s: %w", store.ErrTransaction, op, err)
}
