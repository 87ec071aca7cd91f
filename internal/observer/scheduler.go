package observer

import (
	"context"
	"sync"
	"time"
)

// FrameScheduler runs callbacks at the next rendering frame boundary.
// RequestFrame must not call fn synchronously.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// DefaultFrameInterval approximates one frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// frameQueue holds callbacks waiting for the next frame.
type frameQueue struct {
	mu      sync.Mutex
	pending []func()
}

func (q *frameQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

func (q *frameQueue) take() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	frames := q.pending
	q.pending = nil
	return frames
}

func (q *frameQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ManualScheduler runs frames only when Flush is called.
type ManualScheduler struct {
	queue frameQueue
}

// NewManualScheduler creates a ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// RequestFrame queues fn for the next Flush.
func (s *ManualScheduler) RequestFrame(fn func()) {
	s.queue.push(fn)
}

// Pending returns the number of queued frames.
func (s *ManualScheduler) Pending() int {
	return s.queue.size()
}

// Flush runs the frames queued before the call and returns how many ran.
// Frames requested while flushing wait for the next Flush.
func (s *ManualScheduler) Flush() int {
	frames := s.queue.take()
	for _, fn := range frames {
		fn()
	}
	return len(frames)
}

// TickerScheduler runs queued frames on a time.Ticker.
type TickerScheduler struct {
	interval time.Duration
	queue    frameQueue

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTickerScheduler creates a scheduler ticking every interval. A
// non-positive interval uses DefaultFrameInterval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerScheduler{interval: interval}
}

// RequestFrame queues fn for the next tick.
func (s *TickerScheduler) RequestFrame(fn func()) {
	s.queue.push(fn)
}

// Start begins ticking until ctx is cancelled or Stop is called. Calling
// Start on a running scheduler does nothing.
func (s *TickerScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

func (s *TickerScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, fn := range s.queue.take() {
				fn()
			}
		}
	}
}

// Stop halts the ticker and waits for an in-flight frame to finish. Frames
// still queued are dropped.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.queue.take()
}
