package dbstore

import (
	"github.com/yiblet/drawer/internal/store"
)

// TagModel represents a tag in the database.
type TagModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:text"`
}

// TableName returns the table name for TagModel
func (TagModel) TableName() string {
	return "tags"
}

// ToTag converts the GORM model to a store.Tag
func (m *TagModel) ToTag() *store.Tag {
	return &store.Tag{ID: m.ID, Name: m.Name}
}

// ClipboardModel represents one clipboard record in the database.
// Tag membership lives in clipboard_tags, not in this table.
type ClipboardModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MainData    string `gorm:"type:text"`                                     // Serialised main format
	Data        string `gorm:"type:text"`                                     // Serialised full content
	ContentType string `gorm:"type:text"`                                     // Kind of the main format
	CreateAt    int64  `gorm:"column:create_at;index:idx_create_at,sort:desc"` // Milliseconds since epoch
}

// TableName returns the table name for ClipboardModel
func (ClipboardModel) TableName() string {
	return "clipboard"
}

// ToRecord converts the GORM model to a store.Record
func (m *ClipboardModel) ToRecord() *store.Record {
	return &store.Record{
		ID:          m.ID,
		ContentType: m.ContentType,
		MainData:    m.MainData,
		Data:        m.Data,
		Time:        m.CreateAt,
	}
}

// ClipboardTagModel assigns a clipboard record to a tag.
type ClipboardTagModel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	ClipboardID int64 `gorm:"not null;index:idx_cid"`
	TagID       int64 `gorm:"not null;index:idx_tid"`
}

// TableName returns the table name for ClipboardTagModel
func (ClipboardTagModel) TableName() string {
	return "clipboard_tags"
}
