// Package sysboard implements the clipboard backend on top of the operating
// system clipboard via golang.design/x/clipboard.
//
// The system clipboard only carries plain text and PNG images through this
// library, so the self-write sentinel cannot be stored on the clipboard
// itself. Instead the backend remembers a fingerprint of what it last wrote
// and reports FormatSentinel for as long as the clipboard still holds that
// payload. With a marker file the fingerprint is shared between processes,
// so a watcher recognises content written by a separate paste command.
package sysboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/yiblet/drawer/internal/clipboard"
	native "golang.design/x/clipboard"
	"gopkg.in/yaml.v3"
)

// SystemClipboard implements clipboard.Backend using the OS clipboard
type SystemClipboard struct {
	once    sync.Once
	initErr error

	markerPath string

	mu       sync.Mutex
	selfFmt  native.Format
	selfSum  uint64
	selfMark bool
	selfGen  uint64
	released chan struct{}
}

// Option configures a SystemClipboard.
type Option func(*SystemClipboard)

// WithMarkerFile stores the fingerprint of sentinel-marked writes at path.
func WithMarkerFile(path string) Option {
	return func(s *SystemClipboard) {
		s.markerPath = path
	}
}

// New creates a new SystemClipboard instance
func New(opts ...Option) *SystemClipboard {
	s := &SystemClipboard{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SystemClipboard) init() error {
	s.once.Do(func() {
		s.initErr = native.Init()
	})
	if s.initErr != nil {
		return fmt.Errorf("%w: %v", clipboard.ErrBackend, s.initErr)
	}
	return nil
}

// IsSupported returns true if clipboard operations are supported on this system
func (s *SystemClipboard) IsSupported() bool {
	return s.init() == nil
}

// AvailableFormats implements clipboard.Backend
func (s *SystemClipboard) AvailableFormats() ([]clipboard.FormatID, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	var ids []clipboard.FormatID
	text := native.Read(native.FmtText)
	if len(text) > 0 {
		ids = append(ids, clipboard.FormatText)
		if isFileURL(text) {
			ids = append(ids, clipboard.FormatFileURL)
		}
	}
	if img := native.Read(native.FmtImage); len(img) > 0 {
		ids = append(ids, clipboard.FormatPNG)
	}
	if s.holdsSelfWrite() {
		ids = append(ids, clipboard.FormatSentinel)
	}
	return ids, nil
}

// Read implements clipboard.Backend
func (s *SystemClipboard) Read(id clipboard.FormatID) ([]byte, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	switch id {
	case clipboard.FormatText:
		return nonEmpty(native.Read(native.FmtText))
	case clipboard.FormatPNG:
		return nonEmpty(native.Read(native.FmtImage))
	case clipboard.FormatFileURL:
		text := native.Read(native.FmtText)
		if !isFileURL(text) {
			return nil, clipboard.ErrUnavailable
		}
		return text, nil
	case clipboard.FormatSentinel:
		if s.holdsSelfWrite() {
			return []byte{}, nil
		}
		return nil, clipboard.ErrUnavailable
	default:
		return nil, clipboard.ErrUnavailable
	}
}

// Write implements clipboard.Backend. The OS clipboard holds a single
// representation here, so the richest one this backend can carry is chosen:
// an image, then text, then a file reference written as a file:// URL.
func (s *SystemClipboard) Write(formats []clipboard.Format) error {
	if err := s.init(); err != nil {
		return err
	}

	var (
		text, img, fileURL []byte
		sentinel           bool
	)
	for _, f := range formats {
		switch f.ID {
		case clipboard.FormatSentinel:
			sentinel = true
		case clipboard.FormatText:
			text = f.Data
		case clipboard.FormatPNG:
			img = f.Data
		case clipboard.FormatFileURL:
			fileURL = f.Data
		case clipboard.FormatFileList:
			paths, err := clipboard.DecodeFileList(f.Data)
			if err != nil {
				return err
			}
			if len(paths) > 0 {
				fileURL = clipboard.FileURLFromPath(paths[0])
			}
		}
	}

	var (
		kind    native.Format
		payload []byte
	)
	switch {
	case len(img) > 0:
		kind, payload = native.FmtImage, img
	case len(fileURL) > 0:
		kind, payload = native.FmtText, fileURL
	case len(text) > 0:
		kind, payload = native.FmtText, text
	default:
		return fmt.Errorf("%w: no writable format among %d formats", clipboard.ErrBackend, len(formats))
	}

	gen, released, err := s.recordWrite(kind, payload, sentinel)
	if err != nil {
		return err
	}

	changed := native.Write(kind, payload)
	if changed == nil {
		s.release(gen)
		close(released)
		return fmt.Errorf("%w: write rejected", clipboard.ErrBackend)
	}

	go func() {
		<-changed
		s.release(gen)
		close(released)
	}()

	return nil
}

// Hold blocks until the last write is replaced or ctx is done. On X11 the
// clipboard is served by the process that wrote it, so a short-lived writer
// has to stay alive for its content to remain pasteable. Elsewhere the
// system keeps a copy and Hold returns immediately.
func (s *SystemClipboard) Hold(ctx context.Context) error {
	if runtime.GOOS != "linux" {
		return nil
	}

	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released == nil {
		return nil
	}

	select {
	case <-released:
	case <-ctx.Done():
	}
	return nil
}

// recordWrite remembers the fingerprint of payload before it is written.
func (s *SystemClipboard) recordWrite(kind native.Format, payload []byte, sentinel bool) (uint64, chan struct{}, error) {
	sum := xxhash.Sum64(payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selfGen++
	s.selfFmt = kind
	s.selfSum = sum
	s.selfMark = sentinel
	s.released = make(chan struct{})

	if s.markerPath != "" {
		var err error
		if sentinel {
			err = writeMarker(s.markerPath, marker{Format: formatName(kind), Sum: sum})
		} else {
			err = removeMarker(s.markerPath)
		}
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %w", clipboard.ErrBackend, err)
		}
	}
	return s.selfGen, s.released, nil
}

// release forgets write gen once the clipboard no longer holds it.
func (s *SystemClipboard) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selfGen != gen {
		return
	}
	s.selfMark = false
	if s.markerPath == "" {
		return
	}
	if m, err := readMarker(s.markerPath); err == nil && m.Sum == s.selfSum {
		removeMarker(s.markerPath)
	}
}

// Watch implements clipboard.Backend
func (s *SystemClipboard) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	textCh := native.Watch(ctx, native.FmtText)
	imgCh := native.Watch(ctx, native.FmtImage)
	out := make(chan struct{}, 16)

	go func() {
		defer close(out)
		for textCh != nil || imgCh != nil {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-textCh:
				if !ok {
					textCh = nil
					continue
				}
			case _, ok := <-imgCh:
				if !ok {
					imgCh = nil
					continue
				}
			}

			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// holdsSelfWrite reports whether the clipboard still contains a payload
// written with the sentinel attached, by this process or another one
// sharing the marker file.
func (s *SystemClipboard) holdsSelfWrite() bool {
	for _, fp := range s.selfWrites() {
		if xxhash.Sum64(native.Read(fp.kind)) == fp.sum {
			return true
		}
	}
	return false
}

type fingerprint struct {
	kind native.Format
	sum  uint64
}

// selfWrites returns the fingerprints of the latest sentinel-marked writes:
// this process's own, then the one in the marker file.
func (s *SystemClipboard) selfWrites() []fingerprint {
	var fps []fingerprint

	s.mu.Lock()
	if s.selfMark {
		fps = append(fps, fingerprint{s.selfFmt, s.selfSum})
	}
	s.mu.Unlock()

	if s.markerPath == "" {
		return fps
	}
	m, err := readMarker(s.markerPath)
	if err != nil {
		return fps
	}
	if kind, ok := parseFormat(m.Format); ok {
		fps = append(fps, fingerprint{kind, m.Sum})
	}
	return fps
}

// marker is the on-disk form of a self-write fingerprint.
type marker struct {
	Format string `yaml:"format"`
	Sum    uint64 `yaml:"sum"`
}

func readMarker(path string) (marker, error) {
	var m marker
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse marker file: %w", err)
	}
	return m, nil
}

// writeMarker replaces the marker file atomically.
func writeMarker(path string, m marker) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode marker: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	return nil
}

func removeMarker(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove marker file: %w", err)
	}
	return nil
}

func formatName(kind native.Format) string {
	if kind == native.FmtImage {
		return "image"
	}
	return "text"
}

func parseFormat(name string) (native.Format, bool) {
	switch name {
	case "text":
		return native.FmtText, true
	case "image":
		return native.FmtImage, true
	}
	return 0, false
}

func nonEmpty(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, clipboard.ErrUnavailable
	}
	return data, nil
}

func isFileURL(text []byte) bool {
	s := strings.TrimSpace(string(text))
	return strings.HasPrefix(s, "file://") && !strings.ContainsAny(s, "\r\n")
}
