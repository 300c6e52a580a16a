package catalog

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultFlushDelay is the debounce window between the last mutation and
// the commit it triggers.
const DefaultFlushDelay = 2 * time.Second

// Committer is the durable-write dependency of the Scheduler; *Store
// satisfies it.
type Committer interface {
	Commit() error
}

// Scheduler coalesces bursts of mutations into a single delayed commit.
//
// Concurrency model: a single internal loop (goroutine) owns all mutable
// state (the dirty flag and the debounce timer). Public methods
// communicate with the loop through channels, so a timer expiry racing a
// new edit can never drop the edit or double-schedule a flush.
//
// State machine: Idle → PendingWrite → Idle. MarkDirty enters
// PendingWrite and (re)starts the timer; expiry commits and returns to
// Idle on success. A failed commit stays PendingWrite and is retried on
// the next mutation or forced flush.
type Scheduler struct {
	target Committer
	delay  time.Duration
	logger *slog.Logger

	markCh  chan struct{}
	flushCh chan chan error
	dirtyCh chan chan bool

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewScheduler starts a scheduler flushing target after delay of
// inactivity. A non-positive delay falls back to DefaultFlushDelay.
func NewScheduler(target Committer, delay time.Duration, logger *slog.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		target:  target,
		delay:   delay,
		logger:  logger,
		markCh:  make(chan struct{}, 64),
		flushCh: make(chan chan error),
		dirtyCh: make(chan chan bool),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	defer close(s.stopped)

	dirty := false
	var timer *time.Timer
	var timerCh <-chan time.Time

	restart := func() {
		if timer == nil {
			timer = time.NewTimer(s.delay)
			timerCh = timer.C
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.delay)
		}
	}
	stopTimer := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}

	commit := func() error {
		err := s.target.Commit()
		if err != nil {
			s.logger.Warn("scheduler: commit failed, staying dirty",
				slog.String("error", err.Error()))
			return err
		}
		dirty = false
		return nil
	}

	for {
		select {
		case <-s.stopCh:
			stopTimer()
			if dirty {
				if err := commit(); err != nil {
					s.logger.Error("scheduler: final commit failed",
						slog.String("error", err.Error()))
				}
			}
			return

		case <-s.markCh:
			dirty = true
			restart()

		case <-timerCh:
			if dirty {
				// Retry happens on the next mutation or forced flush;
				// no self-rescheduling on failure.
				_ = commit()
			}

		case resp := <-s.flushCh:
			stopTimer()
			var err error
			if dirty {
				err = commit()
			}
			resp <- err

		case resp := <-s.dirtyCh:
			resp <- dirty
		}
	}
}

// MarkDirty records that the store has unpersisted mutations and restarts
// the debounce window. Safe to call from any goroutine.
func (s *Scheduler) MarkDirty() {
	if s.closed.Load() {
		return
	}
	select {
	case s.markCh <- struct{}{}:
	case <-s.stopped:
	}
}

// ForceSave cancels any pending timer and commits synchronously. It is
// meant for controlled transition points: page navigation, shutdown, or
// anything about to re-read the backing document.
func (s *Scheduler) ForceSave() error {
	if s.closed.Load() {
		return nil
	}
	resp := make(chan error, 1)
	select {
	case s.flushCh <- resp:
	case <-s.stopped:
		return nil
	}
	select {
	case err := <-resp:
		return err
	case <-s.stopped:
		return nil
	}
}

// Dirty reports whether a flush is pending.
func (s *Scheduler) Dirty() bool {
	if s.closed.Load() {
		return false
	}
	resp := make(chan bool, 1)
	select {
	case s.dirtyCh <- resp:
	case <-s.stopped:
		return false
	}
	select {
	case d := <-resp:
		return d
	case <-s.stopped:
		return false
	}
}

// Close stops the loop, flushing pending mutations first.
func (s *Scheduler) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}
