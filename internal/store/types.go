package store

import (
	"fmt"
	"time"

	"github.com/yiblet/drawer/internal/format"
)

// Record is the durable form of one clipboard capture.
// Records are never modified after creation.
type Record struct {
	// ID is assigned by the store, unique and increasing with insertion.
	ID int64

	// ContentType mirrors the main format's kind ("text", "rtf", "image",
	// "files").
	ContentType string

	// MainData is the serialised main format, used for listing and preview.
	MainData string

	// Data is the serialised full content, used for paste-back.
	Data string

	// Time is the capture time in milliseconds since the Unix epoch.
	Time int64
}

// Tag is a named group of records.
type Tag struct {
	ID   int64
	Name string
}

// NewRecord converts captured content into an unsaved record stamped with now.
func NewRecord(c *format.Content, now time.Time) (*Record, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	mainData, err := format.EncodeData(c.Main)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	data, err := format.Encode(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return &Record{
		ContentType: string(c.Kind()),
		MainData:    mainData,
		Data:        data,
		Time:        now.UnixMilli(),
	}, nil
}

// Content decodes the record's full content.
func (r *Record) Content() (*format.Content, error) {
	c, err := format.Decode(r.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %w", ErrSerialization, r.ID, err)
	}
	return c, nil
}

// Main decodes the record's main format.
func (r *Record) Main() (format.Data, error) {
	d, err := format.DecodeData(r.MainData)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %w", ErrSerialization, r.ID, err)
	}
	return d, nil
}

// CreatedAt returns the capture time.
func (r *Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Time)
}

// Clone returns a copy of r.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}
