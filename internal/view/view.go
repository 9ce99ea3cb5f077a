// Package view converts stored records into display payloads.
package view

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"unicode/utf8"

	// Registered so DecodeConfig can size any image a backend hands us.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yiblet/drawer/internal/format"
	"github.com/yiblet/drawer/internal/store"
)

// Type values reported in View.Type.
const (
	TypeText  = "text"
	TypeRTF   = "rtf"
	TypeImage = "image"
	TypeFile  = "file"
)

// View is the display form of a record, as delivered to the UI.
type View struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Time        int64  `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Data        string `json:"data"`
	Chars       int    `json:"chars,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Thumbnailer renders a small preview of a file.
// Implementations return PNG bytes; any error means "no thumbnail".
type Thumbnailer interface {
	Thumbnail(path string) ([]byte, error)
}

// NoThumbnails is a Thumbnailer that never produces a preview.
type NoThumbnails struct{}

// Thumbnail always fails.
func (NoThumbnails) Thumbnail(string) ([]byte, error) {
	return nil, fmt.Errorf("thumbnails disabled")
}

// Converter turns records into views.
type Converter struct {
	thumbs Thumbnailer
	logger *slog.Logger
}

// NewConverter creates a converter. A nil thumbnailer disables thumbnails.
func NewConverter(thumbs Thumbnailer, logger *slog.Logger) *Converter {
	if thumbs == nil {
		thumbs = NoThumbnails{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{thumbs: thumbs, logger: logger}
}

// Convert builds the view for rec from its main format.
// A malformed payload fails with store.ErrSerialization.
func (c *Converter) Convert(rec *store.Record) (*View, error) {
	main, err := rec.Main()
	if err != nil {
		return nil, err
	}

	v := &View{ID: rec.ID, Time: rec.Time}

	switch d := main.(type) {
	case format.Text:
		n := utf8.RuneCountInString(string(d))
		v.Type = TypeText
		v.Data = string(d)
		v.Chars = n
		v.Description = characters(n)
		v.Title = TruncateTitle(GenerateTitle(string(d)), MaxTitleLen)

	case format.RichText:
		text := strings.ToValidUTF8(string(d), "�")
		n := utf8.RuneCountInString(text)
		v.Type = TypeRTF
		v.Data = base64.StdEncoding.EncodeToString(d)
		v.Chars = n
		v.Description = characters(n)
		v.Title = "[rich text] " + v.Description

	case format.Image:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(d))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: image header: %w", store.ErrSerialization, rec.ID, err)
		}
		v.Type = TypeImage
		v.Data = base64.StdEncoding.EncodeToString(d)
		v.Width = cfg.Width
		v.Height = cfg.Height
		v.Description = fmt.Sprintf("%d × %d", cfg.Width, cfg.Height)
		v.Title = "[image " + v.Description + "]"

	case format.Files:
		if len(d) == 0 {
			return nil, fmt.Errorf("%w: record %d: empty file list", store.ErrSerialization, rec.ID)
		}
		path := d[0]
		v.Type = TypeFile
		v.Data = path
		v.Description = path
		v.Title = TruncateTitle(path, MaxTitleLen)
		v.Thumbnail = c.thumbnail(path)

	default:
		return nil, fmt.Errorf("%w: record %d: unknown format %T", store.ErrSerialization, rec.ID, main)
	}

	return v, nil
}

// Placeholder is the view of a record whose payload cannot be rendered.
func Placeholder(rec *store.Record) *View {
	typ := rec.ContentType
	if typ == string(format.KindFiles) {
		typ = TypeFile
	}
	return &View{
		ID:          rec.ID,
		Type:        typ,
		Time:        rec.Time,
		Title:       "[unreadable " + rec.ContentType + "]",
		Description: "unreadable",
	}
}

// ConvertAll converts records in order, stopping at the first failure.
func (c *Converter) ConvertAll(records []*store.Record) ([]*View, error) {
	views := make([]*View, 0, len(records))
	for _, rec := range records {
		v, err := c.Convert(rec)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (c *Converter) thumbnail(path string) string {
	data, err := c.thumbs.Thumbnail(path)
	if err != nil || len(data) == 0 {
		c.logger.Debug("no thumbnail", "path", path, "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func characters(n int) string {
	return fmt.Sprintf("%d characters", n)
}
