// Package sweeper trims a tag to its most recent records on a schedule.
package sweeper

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yiblet/drawer/internal/event"
	"github.com/yiblet/drawer/internal/store"
)

const (
	// DefaultLimit is how many history records are kept.
	DefaultLimit = 100
	// DefaultInterval is the time between sweeps.
	DefaultInterval = 10 * time.Second
)

// Options configures a Sweeper. Zero values select defaults.
type Options struct {
	Limit    int
	Interval time.Duration
	// TagID is the swept tag, store.HistoryTagID unless set.
	TagID  *int64
	Sink   event.Sink
	Logger *slog.Logger
}

// Sweeper periodically deletes the oldest records of one tag beyond a limit.
type Sweeper struct {
	store    store.Store
	sink     event.Sink
	logger   *slog.Logger
	limit    int
	interval time.Duration
	tagID    int64

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a sweeper over st. Call Start to begin sweeping.
func New(st store.Store, opts Options) *Sweeper {
	s := &Sweeper{
		store:    st,
		sink:     opts.Sink,
		logger:   opts.Logger,
		limit:    opts.Limit,
		interval: opts.Interval,
		tagID:    store.HistoryTagID,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if opts.TagID != nil {
		s.tagID = *opts.TagID
	}
	if s.sink == nil {
		s.sink = event.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.limit <= 0 {
		s.limit = DefaultLimit
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	return s
}

// Sweep runs one retention pass and returns the deleted record IDs.
// A RecordsDeleted event fires only when something was deleted.
func (s *Sweeper) Sweep() ([]int64, error) {
	count, err := s.store.Count(s.tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= s.limit {
		return nil, nil
	}

	// Records inserted since Count are fine either way; the next pass
	// catches anything left over.
	ids, err := s.store.DeleteOldest(s.tagID, count-s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to delete old records: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	s.logger.Info("swept history", "tag_id", s.tagID, "deleted", len(ids), "limit", s.limit)
	s.sink.Emit(event.Deleted(ids))
	return ids, nil
}

// Start sweeps immediately and then once per interval in the background,
// until Stop is called. Calling Start more than once has no effect.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		go s.loop()
	})
}

// Stop signals the background loop and waits for it to exit. After Stop
// returns the sweeper no longer touches the store. Stop is safe to call
// more than once, and before Start.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	started := true
	s.startOnce.Do(func() {
		started = false
		close(s.done)
	})
	if started {
		<-s.done
	}
}

func (s *Sweeper) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if _, err := s.Sweep(); err != nil {
			s.logger.Error("sweep failed, retrying next tick", "tag_id", s.tagID, "error", err)
		}

		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}
