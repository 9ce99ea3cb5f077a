package event

import "sync"

// ChannelSink delivers events over a channel without ever blocking Emit.
// Events are buffered without bound and read from Events in emit order.
type ChannelSink struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	out    chan Event
}

// NewChannelSink creates a sink and starts its delivery goroutine.
func NewChannelSink() *ChannelSink {
	s := &ChannelSink{out: make(chan Event)}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// Emit queues e for delivery. Events emitted after Close are dropped.
func (s *ChannelSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.queue = append(s.queue, e)
	s.cond.Signal()
}

// Events returns the delivery channel. It is closed once Close has been
// called and every queued event has been received.
func (s *ChannelSink) Events() <-chan Event {
	return s.out
}

// Close stops accepting events. Already queued events are still delivered.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.cond.Broadcast()
	return nil
}

func (s *ChannelSink) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- e
	}
}
