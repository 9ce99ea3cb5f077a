// Package ingest turns clipboard changes into stored records and writes stored
// records back to the clipboard.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yiblet/drawer/internal/clipboard"
	"github.com/yiblet/drawer/internal/event"
	"github.com/yiblet/drawer/internal/format"
	"github.com/yiblet/drawer/internal/store"
	"github.com/yiblet/drawer/internal/view"
)

var (
	// ErrSelfWrite means the clipboard holds content this process wrote.
	ErrSelfWrite = errors.New("clipboard holds a self-written payload")
	// ErrNothingCaptured means no supported format could be read.
	ErrNothingCaptured = errors.New("no supported clipboard format")
)

// formatReader is one step of the capture sequence.
type formatReader struct {
	id     clipboard.FormatID
	decode func([]byte) format.Data
}

// readers run in this order; the last one that reads successfully supplies
// the main format.
var readers = []formatReader{
	{clipboard.FormatText, func(b []byte) format.Data { return format.ValidText(b) }},
	{clipboard.FormatPNG, func(b []byte) format.Data { return format.Image(b) }},
	{clipboard.FormatRTF, func(b []byte) format.Data { return format.RichText(b) }},
	{clipboard.FormatFileURL, func(b []byte) format.Data {
		return format.Files{strings.ToValidUTF8(clipboard.FilePathFromURL(b), "\uFFFD")}
	}},
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	Sink      event.Sink
	Converter *view.Converter
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Pipeline ingests clipboard changes into the history tag.
// Capture, insertion, and paste are serialised so each change is handled
// against a single clipboard snapshot.
//
// Notifications carry no payload, so a notification handled late reads
// whatever the clipboard holds by then. The pipeline therefore remembers a
// fingerprint of the last content it captured and of every format it last
// pasted, and drops captures matching either.
type Pipeline struct {
	mu      sync.Mutex
	backend clipboard.Backend
	store   store.Store
	sink    event.Sink
	conv    *view.Converter
	logger  *slog.Logger
	now     func() time.Time

	lastSum uint64
	pasted  []uint64
}

// New creates a pipeline reading from backend and writing to st.
func New(backend clipboard.Backend, st store.Store, opts Options) *Pipeline {
	p := &Pipeline{
		backend: backend,
		store:   st,
		sink:    opts.Sink,
		conv:    opts.Converter,
		logger:  opts.Logger,
		now:     opts.Clock,
	}
	if p.sink == nil {
		p.sink = event.Discard
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.conv == nil {
		p.conv = view.NewConverter(nil, p.logger)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Capture reads the current clipboard into a Content.
// It fails with ErrSelfWrite when the sentinel format is present, with
// ErrNothingCaptured when no supported format is readable, and with
// clipboard.ErrBackend when the backend itself fails.
func (p *Pipeline) Capture() (*format.Content, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.capture()
}

func (p *Pipeline) capture() (*format.Content, error) {
	available, err := p.backend.AvailableFormats()
	if err != nil {
		return nil, fmt.Errorf("%w: list formats: %w", clipboard.ErrBackend, err)
	}
	p.logger.Debug("clipboard changed", "formats", available)

	if clipboard.Has(available, clipboard.FormatSentinel) {
		return nil, ErrSelfWrite
	}

	var content format.Content
	for _, pr := range readers {
		if !clipboard.Has(available, pr.id) {
			continue
		}

		data, err := p.backend.Read(pr.id)
		if errors.Is(err, clipboard.ErrUnavailable) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", clipboard.ErrBackend, pr.id, err)
		}
		if len(data) == 0 {
			continue
		}

		d := pr.decode(data)
		content.Data = append(content.Data, d)
		content.Main = d
	}

	if content.Main == nil || len(content.Data) == 0 {
		return nil, ErrNothingCaptured
	}
	return &content, nil
}

// HandleChange processes one clipboard change notification. It returns the
// stored record, or nil when the change was discarded. Only store failures
// are returned; capture failures are logged and the change is dropped.
func (p *Pipeline) HandleChange() (*store.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	content, err := p.capture()
	switch {
	case errors.Is(err, ErrSelfWrite):
		p.logger.Debug("ignoring self-written clipboard change")
		return nil, nil
	case errors.Is(err, ErrNothingCaptured):
		p.logger.Debug("ignoring clipboard change without supported formats")
		return nil, nil
	case err != nil:
		p.logger.Warn("dropping clipboard change", "error", err)
		return nil, nil
	}

	sum := contentSum(content)
	if sum == p.lastSum {
		p.logger.Debug("ignoring unchanged clipboard content")
		return nil, nil
	}
	if slices.Contains(p.pasted, dataSum(content.Main)) {
		p.logger.Debug("ignoring pasted clipboard content")
		return nil, nil
	}

	rec, err := store.NewRecord(content, p.now())
	if err != nil {
		p.logger.Warn("dropping clipboard change", "error", err)
		return nil, nil
	}

	saved, err := p.store.Insert(rec, store.HistoryTagID)
	if err != nil {
		return nil, fmt.Errorf("failed to store clipboard change: %w", err)
	}
	p.lastSum = sum
	p.pasted = nil
	p.logger.Info("captured clipboard", "record_id", saved.ID, "type", saved.ContentType)

	v, err := p.conv.Convert(saved)
	if err != nil {
		p.logger.Error("record stored with unreadable payload", "record_id", saved.ID, "error", err)
		v = view.Placeholder(saved)
	}
	p.sink.Emit(event.Created(v))

	return saved, nil
}

// Run consumes the backend's change notifications until ctx is done,
// handling them one at a time.
func (p *Pipeline) Run(ctx context.Context) error {
	changes, err := p.backend.Watch(ctx)
	if err != nil {
		return fmt.Errorf("%w: watch: %w", clipboard.ErrBackend, err)
	}

	p.logger.Info("watching clipboard")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if _, err := p.HandleChange(); err != nil {
				p.logger.Error("failed to handle clipboard change", "error", err)
			}
		}
	}
}

// Paste writes c to the clipboard, marked so the resulting change is not
// captured again.
func (p *Pipeline) Paste(c *format.Content) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrSerialization, err)
	}

	formats, err := outgoing(c)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.backend.Write(formats); err != nil {
		return fmt.Errorf("%w: write: %w", clipboard.ErrBackend, err)
	}

	p.lastSum = 0
	p.pasted = p.pasted[:0]
	for _, d := range c.Data {
		p.pasted = append(p.pasted, dataSum(d))
	}
	return nil
}

// PasteRecord loads a record and pastes its full content.
func (p *Pipeline) PasteRecord(id int64) error {
	rec, err := p.store.Get(id)
	if err != nil {
		return err
	}
	content, err := rec.Content()
	if err != nil {
		return err
	}
	if err := p.Paste(content); err != nil {
		return fmt.Errorf("failed to paste record %d: %w", id, err)
	}

	p.logger.Info("pasted record", "record_id", id)
	return nil
}

// outgoing maps content to backend formats, led by the empty sentinel.
func outgoing(c *format.Content) ([]clipboard.Format, error) {
	formats := make([]clipboard.Format, 0, len(c.Data)+1)
	formats = append(formats, clipboard.Format{ID: clipboard.FormatSentinel, Data: []byte{}})

	for _, d := range c.Data {
		switch v := d.(type) {
		case format.Text:
			formats = append(formats, clipboard.Format{ID: clipboard.FormatText, Data: []byte(v)})
		case format.RichText:
			formats = append(formats, clipboard.Format{ID: clipboard.FormatRTF, Data: []byte(v)})
		case format.Image:
			formats = append(formats, clipboard.Format{ID: clipboard.FormatPNG, Data: []byte(v)})
		case format.Files:
			plist, err := clipboard.EncodeFileList(v)
			if err != nil {
				return nil, fmt.Errorf("%w: file list: %w", store.ErrSerialization, err)
			}
			formats = append(formats, clipboard.Format{ID: clipboard.FormatFileList, Data: plist})
		default:
			return nil, fmt.Errorf("%w: unsupported format %T", store.ErrSerialization, d)
		}
	}
	return formats, nil
}
