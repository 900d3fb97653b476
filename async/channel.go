package async

import (
	"context"
	"sync"
)

// Loop is a serial executor standing in for a UI main loop. Worker
// goroutines signal it through channels; the owning goroutine drains it
// with Process (or runs it with Run). Everything scheduled on a Loop
// executes on the goroutine that calls Process/Run, in signal order.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// schedule enqueues f and wakes the loop.
func (l *Loop) schedule(f func()) {
	l.mu.Lock()
	l.pending = append(l.pending, f)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Process runs every currently pending callback on the calling
// goroutine and returns the number executed.
func (l *Loop) Process() int {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()
	for _, f := range batch {
		f()
	}
	return len(batch)
}

// Run processes callbacks as they arrive until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Process()
			return
		case <-l.wake:
			l.Process()
		}
	}
}

// channelShared is the state shared by a Source/Dest pair.
type channelShared struct {
	mu   sync.Mutex
	open bool
	log  []func()
	loop *Loop
}

// run submits f. Under the lock: if closed, reject; otherwise append to
// the function log and, if the log was empty, schedule a drain on the
// main loop.
func (s *channelShared) run(f func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return false
	}
	if len(s.log) == 0 {
		s.loop.schedule(s.drain)
	}
	s.log = append(s.log, f)
	return true
}

// drain executes accumulated closures on the loop goroutine, re-checking
// the open flag between each so that closures pending at closure time
// are dropped (on this goroutine) rather than run.
func (s *channelShared) drain() {
	s.mu.Lock()
	batch := s.log
	s.log = nil
	s.mu.Unlock()
	for _, f := range batch {
		s.mu.Lock()
		open := s.open
		s.mu.Unlock()
		if !open {
			return
		}
		f()
	}
}

// close flips the open flag and clears the log. Submissions after this
// return false without running.
func (s *channelShared) close() {
	s.mu.Lock()
	s.open = false
	s.log = nil
	s.mu.Unlock()
}

func (s *channelShared) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Source is the submitting end of a channel. It may be moved freely
// between goroutines; each method is safe to call from any goroutine.
// The zero Source is closed.
type Source struct {
	shared *channelShared
}

// Run attempts to run f on the loop the channel was created on. It
// either succeeds (f will execute, or be dropped on the loop goroutine
// if the channel closes first) or fails and leaves f untouched.
//
// The return value reports whether the channel was still open at the
// time of calling; a true return does not guarantee that f will run,
// because the Dest can close in the meantime. If f does run, the Dest
// still exists and Close has not been called on it.
func (s *Source) Run(f func()) bool {
	return s.shared != nil && s.shared.run(f)
}

// Ok reports whether the channel is still open.
func (s *Source) Ok() bool {
	return s.shared != nil && s.shared.isOpen()
}

// Close releases this end. It does not force closure while the Dest is
// alive; it only drops the Source's reference.
func (s *Source) Close() {
	s.shared = nil
}

// Dest is the receiving end of a channel, owned by the goroutine that
// owns the Loop. Closing it drops all pending and future submissions.
type Dest struct {
	shared *channelShared
}

// Close flips the open flag and clears the pending log. All future
// Source.Run calls return false without running their closures.
func (d *Dest) Close() {
	if d.shared != nil {
		d.shared.close()
		d.shared = nil
	}
}

// Ok reports whether Close has not yet been called and the channel was
// opened. It says nothing about the Source end.
func (d *Dest) Ok() bool {
	return d.shared != nil
}

// NewChannel creates a linked Source-Dest pair over the given loop. As
// long as the channel is open the Source can run closures on the loop;
// closing either end stops further submissions.
func NewChannel(loop *Loop) (Source, Dest) {
	shared := &channelShared{open: true, loop: loop}
	return Source{shared: shared}, Dest{shared: shared}
}

// BackgroundProgress adapts a Progress callback for use from a worker
// goroutine: reports are forwarded over a channel to the loop goroutine,
// and cancellation is observed through channel closure. The worker side
// implements Progress; the loop side runs onProgress.
type BackgroundProgress struct {
	src        Source
	onProgress func(v float64)
}

// NewBackgroundProgress creates a thread-safe progress reporter
// forwarding over src.
func NewBackgroundProgress(src Source, onProgress func(v float64)) *BackgroundProgress {
	return &BackgroundProgress{src: src, onProgress: onProgress}
}

// Keepgoing implements Progress: the task keeps going while the channel
// is open.
func (b *BackgroundProgress) Keepgoing() bool {
	return b.src.Ok()
}

// Report implements Progress, forwarding the sample to the loop side.
func (b *BackgroundProgress) Report(v float64) bool {
	cb := b.onProgress
	if cb == nil {
		return b.src.Ok()
	}
	return b.src.Run(func() { cb(v) })
}
