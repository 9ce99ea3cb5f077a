package view

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yiblet/drawer/internal/format"
	"github.com/yiblet/drawer/internal/store"
)

// pngBytes encodes a blank w×h PNG
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// record builds a saved-looking record whose main format is main
func record(t *testing.T, main format.Data) *store.Record {
	t.Helper()

	rec, err := store.NewRecord(&format.Content{Main: main, Data: []format.Data{main}}, time.UnixMilli(1234))
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	rec.ID = 9
	return rec
}

type stubThumbnailer struct {
	data []byte
	err  error
	seen []string
}

func (s *stubThumbnailer) Thumbnail(path string) ([]byte, error) {
	s.seen = append(s.seen, path)
	return s.data, s.err
}

func TestConvert_Text(t *testing.T) {
	c := NewConverter(nil, nil)

	v, err := c.Convert(record(t, format.Text("héllo\nworld")))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if v.ID != 9 || v.Time != 1234 {
		t.Errorf("expected id 9 time 1234, got %d %d", v.ID, v.Time)
	}
	if v.Type != TypeText {
		t.Errorf("Type = %q, want %q", v.Type, TypeText)
	}
	if v.Description != "11 characters" {
		t.Errorf("Description = %q, want %q", v.Description, "11 characters")
	}
	if v.Data != "héllo\nworld" {
		t.Errorf("Data = %q", v.Data)
	}
	if v.Title != "héllo" {
		t.Errorf("Title = %q, want first line", v.Title)
	}
}

func TestConvert_RichText(t *testing.T) {
	c := NewConverter(nil, nil)
	raw := []byte{'{', '\\', 'r', 't', 'f', 0xff, '}'}

	v, err := c.Convert(record(t, format.RichText(raw)))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if v.Type != TypeRTF {
		t.Errorf("Type = %q, want %q", v.Type, TypeRTF)
	}
	if v.Data != base64.StdEncoding.EncodeToString(raw) {
		t.Errorf("Data = %q, want base64 of payload", v.Data)
	}
	// the invalid byte decodes to one replacement character
	if v.Chars != 7 {
		t.Errorf("Chars = %d, want 7", v.Chars)
	}
	if v.Description != "7 characters" {
		t.Errorf("Description = %q", v.Description)
	}
}

func TestConvert_Image(t *testing.T) {
	c := NewConverter(nil, nil)
	data := pngBytes(t, 40, 30)

	v, err := c.Convert(record(t, format.Image(data)))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if v.Type != TypeImage {
		t.Errorf("Type = %q, want %q", v.Type, TypeImage)
	}
	if v.Width != 40 || v.Height != 30 {
		t.Errorf("size = %dx%d, want 40x30", v.Width, v.Height)
	}
	if v.Description != "40 × 30" {
		t.Errorf("Description = %q, want %q", v.Description, "40 × 30")
	}
	if v.Data != base64.StdEncoding.EncodeToString(data) {
		t.Error("Data is not the base64 image")
	}
}

func TestConvert_ImageBadHeader(t *testing.T) {
	c := NewConverter(nil, nil)

	_, err := c.Convert(record(t, format.Image([]byte("not an image"))))
	if !errors.Is(err, store.ErrSerialization) {
		t.Errorf("Convert() error = %v, want ErrSerialization", err)
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		main     format.Data
		wantType string
	}{
		{format.Image([]byte("not an image")), TypeImage},
		{format.Files{"/tmp/a"}, TypeFile},
	}

	for _, tt := range tests {
		rec := record(t, tt.main)
		v := Placeholder(rec)
		if v.ID != rec.ID || v.Time != rec.Time || v.Type != tt.wantType {
			t.Errorf("Placeholder() = %+v", v)
		}
		if v.Description != "unreadable" {
			t.Errorf("Description = %q", v.Description)
		}
	}
}

func TestConvert_Files(t *testing.T) {
	tests := []struct {
		name      string
		thumbs    *stubThumbnailer
		wantThumb string
	}{
		{
			name:      "thumbnail available",
			thumbs:    &stubThumbnailer{data: []byte{1, 2, 3}},
			wantThumb: base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
		},
		{
			name:      "thumbnail failure yields empty",
			thumbs:    &stubThumbnailer{err: errors.New("boom")},
			wantThumb: "",
		},
		{
			name:      "empty thumbnail yields empty",
			thumbs:    &stubThumbnailer{},
			wantThumb: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(tt.thumbs, nil)

			v, err := c.Convert(record(t, format.Files{"/tmp/a b.txt", "/tmp/c"}))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}

			if v.Type != TypeFile {
				t.Errorf("Type = %q, want %q", v.Type, TypeFile)
			}
			if v.Data != "/tmp/a b.txt" || v.Description != "/tmp/a b.txt" {
				t.Errorf("expected first path, got data=%q description=%q", v.Data, v.Description)
			}
			if v.Thumbnail != tt.wantThumb {
				t.Errorf("Thumbnail = %q, want %q", v.Thumbnail, tt.wantThumb)
			}
			if len(tt.thumbs.seen) != 1 || tt.thumbs.seen[0] != "/tmp/a b.txt" {
				t.Errorf("thumbnailer called with %v", tt.thumbs.seen)
			}
		})
	}
}

func TestConvert_Malformed(t *testing.T) {
	c := NewConverter(nil, nil)
	rec := &store.Record{ID: 3, ContentType: "text", MainData: `{"Nope":1}`, Data: "{}"}

	if _, err := c.Convert(rec); !errors.Is(err, store.ErrSerialization) {
		t.Errorf("Convert() error = %v, want ErrSerialization", err)
	}

	if _, err := c.ConvertAll([]*store.Record{record(t, format.Text("ok")), rec}); err == nil {
		t.Error("ConvertAll() expected error for malformed record")
	}
}

func TestImageThumbnailer(t *testing.T) {
	dir := t.TempDir()

	imgPath := filepath.Join(dir, "wide.png")
	if err := os.WriteFile(imgPath, pngBytes(t, 400, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	thumbs := ImageThumbnailer{Size: 64}

	data, err := thumbs.Thumbnail(imgPath)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail is not a PNG: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 16 {
		t.Errorf("thumbnail size = %dx%d, want 64x16", cfg.Width, cfg.Height)
	}

	if _, err := thumbs.Thumbnail(txtPath); err == nil {
		t.Error("expected error for non-image file")
	}
	if _, err := thumbs.Thumbnail(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, size   int
		wantW, wantH int
	}{
		{10, 10, 128, 10, 10},
		{256, 128, 128, 128, 64},
		{128, 256, 128, 64, 128},
		{1000, 1, 100, 100, 1},
	}

	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.size)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fit(%d, %d, %d) = %d, %d; want %d, %d", tt.w, tt.h, tt.size, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "[empty]"},
		{"blank lines", "\n  \n\t", "[blank]"},
		{"first non-empty line", "\n\n  first line  \nsecond", "first line"},
		{"control characters", "a\x00b\x07c", "a b c"},
		{"collapses whitespace", "a \t  b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateTitle(tt.in); got != tt.want {
				t.Errorf("GenerateTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"ünïcödé text", 6, "ünï..."},
		{"abc", 2, ".."},
	}

	for _, tt := range tests {
		if got := TruncateTitle(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("TruncateTitle(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}

	long := strings.Repeat("x", 200)
	if got := TruncateTitle(long, MaxTitleLen); len([]rune(got)) != MaxTitleLen {
		t.Errorf("expected %d characters, got %d", MaxTitleLen, len([]rune(got)))
	}
}
