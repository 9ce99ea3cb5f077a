// Package format models clipboard payloads.
//
// A single clipboard change can carry the same value in several formats
// (plain text, rich text, a bitmap, a file reference). Each captured format is
// a Data value; a Content groups every captured format together with the one
// chosen to represent the entry to the user.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Kind identifies the variant of a Data value. Its string form is the
// content_type persisted next to every record.
type Kind string

const (
	KindText     Kind = "text"
	KindRichText Kind = "rtf"
	KindImage    Kind = "image"
	KindFiles    Kind = "files"
)

// Data is one captured clipboard format. The set of implementations is
// closed: Text, RichText, Image and Files.
type Data interface {
	Kind() Kind
	envelopeKey() string
}

// Text is plain UTF-8 text.
type Text string

// RichText holds raw RTF bytes.
type RichText []byte

// Image holds encoded image bytes (PNG when captured from the clipboard).
type Image []byte

// Files is a list of local file system paths.
type Files []string

func (Text) Kind() Kind     { return KindText }
func (RichText) Kind() Kind { return KindRichText }
func (Image) Kind() Kind    { return KindImage }
func (Files) Kind() Kind    { return KindFiles }

func (Text) envelopeKey() string     { return "Text" }
func (RichText) envelopeKey() string { return "RTF" }
func (Image) envelopeKey() string    { return "Image" }
func (Files) envelopeKey() string    { return "Files" }

var (
	// ErrEmpty is returned when a Content carries no formats at all.
	ErrEmpty = errors.New("content has no formats")
	// ErrNoMain is returned when a Content has formats but no main format.
	ErrNoMain = errors.New("content has no main format")
	// ErrMainMissing is returned when the main format's variant does not
	// appear among the captured formats.
	ErrMainMissing = errors.New("main format not present in captured formats")
	// ErrInvalidText is returned when text or a file path is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")
)

// Content is everything captured for one clipboard change.
// Data keeps capture order; Main is the entry shown to the user.
type Content struct {
	Main Data
	Data []Data
}

// NewContent builds a Content and checks its invariants.
func NewContent(main Data, data ...Data) (*Content, error) {
	c := &Content{Main: main, Data: data}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports whether c satisfies the Content invariants: at least one
// format, a main format, and the main format's variant among the formats.
// Text and file paths must be valid UTF-8 so they survive the envelope.
func (c *Content) Validate() error {
	if len(c.Data) == 0 {
		return ErrEmpty
	}
	if c.Main == nil {
		return ErrNoMain
	}
	if err := checkText(c.Main); err != nil {
		return err
	}

	found := false
	for _, d := range c.Data {
		if err := checkText(d); err != nil {
			return err
		}
		if d != nil && d.Kind() == c.Main.Kind() {
			found = true
		}
	}
	if !found {
		return ErrMainMissing
	}
	return nil
}

// checkText rejects text and paths the JSON envelope would rewrite.
func checkText(d Data) error {
	switch v := d.(type) {
	case Text:
		if !utf8.ValidString(string(v)) {
			return ErrInvalidText
		}
	case Files:
		for _, p := range v {
			if !utf8.ValidString(p) {
				return fmt.Errorf("%w: path %q", ErrInvalidText, p)
			}
		}
	}
	return nil
}

// ValidText replaces invalid UTF-8 sequences in b with U+FFFD.
func ValidText(b []byte) Text {
	return Text(strings.ToValidUTF8(string(b), string(utf8.RuneError)))
}

// Kind returns the kind of the main format.
func (c *Content) Kind() Kind {
	if c.Main == nil {
		return ""
	}
	return c.Main.Kind()
}

// Equal reports whether a and b hold the same variant and value.
func Equal(a, b Data) bool {
	switch av := a.(type) {
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case RichText:
		bv, ok := b.(RichText)
		return ok && bytes.Equal(av, bv)
	case Image:
		bv, ok := b.(Image)
		return ok && bytes.Equal(av, bv)
	case Files:
		bv, ok := b.(Files)
		return ok && slices.Equal(av, bv)
	case nil:
		return b == nil
	}
	return false
}

// Equal reports whether c and other capture the same formats in the same
// order with the same main format.
func (c *Content) Equal(other *Content) bool {
	if c == nil || other == nil {
		return c == other
	}
	if !Equal(c.Main, other.Main) || len(c.Data) != len(other.Data) {
		return false
	}
	for i := range c.Data {
		if !Equal(c.Data[i], other.Data[i]) {
			return false
		}
	}
	return true
}
