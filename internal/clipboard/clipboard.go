// Package clipboard defines the capability drawer needs from the operating
// system clipboard. Platform code lives in sysboard; mockboard is a scriptable
// in-memory implementation for tests.
package clipboard

import (
	"context"
	"errors"
)

// FormatID names a clipboard format. Values are platform type identifiers
// (UTIs on macOS); the core treats them as opaque.
type FormatID string

const (
	// FormatText is UTF-8 plain text.
	FormatText FormatID = "public.utf8-plain-text"
	// FormatPNG is a PNG encoded bitmap.
	FormatPNG FormatID = "public.png"
	// FormatRTF is rich text.
	FormatRTF FormatID = "public.rtf"
	// FormatFileURL is a single, URL-encoded file:// reference.
	FormatFileURL FormatID = "public.file-url"
	// FormatFileList is a property list naming one or more paths. It is the
	// format written back when pasting file records.
	FormatFileList FormatID = "NSFilenamesPboardType"
	// FormatSentinel marks clipboard contents written by this process.
	// It always carries an empty payload.
	FormatSentinel FormatID = "com.yiblet.drawer.prevent-recopy"
)

var (
	// ErrUnavailable is returned by Read when the requested format is not on
	// the clipboard. It is not a failure.
	ErrUnavailable = errors.New("clipboard format unavailable")
	// ErrBackend wraps failures of the underlying clipboard service.
	ErrBackend = errors.New("clipboard backend unavailable")
)

// Format is a payload tagged with its format identifier.
type Format struct {
	ID   FormatID
	Data []byte
}

// Backend is the clipboard capability consumed by the ingestion pipeline.
type Backend interface {
	// AvailableFormats lists the formats currently on the clipboard.
	AvailableFormats() ([]FormatID, error)

	// Read returns the payload for a format. It returns ErrUnavailable when
	// the format is not present.
	Read(id FormatID) ([]byte, error)

	// Write replaces the clipboard contents with the given formats as one
	// atomic change.
	Write(formats []Format) error

	// Watch delivers one value per detected external clipboard change until
	// ctx is done, then closes the channel.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Holder is implemented by backends whose written content is served by the
// writing process. Hold blocks until that content is replaced or ctx is done.
type Holder interface {
	Hold(ctx context.Context) error
}

// Has reports whether id is among ids.
func Has(ids []FormatID, id FormatID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
