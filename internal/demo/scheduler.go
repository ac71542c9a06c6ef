package demo

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	// Stop cancels the callback; it returns false if it was already stopped or fired
	Stop() bool
}

// Scheduler abstracts the clock so the engine can run on wall time in
// production and on a manual clock in tests
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

type wallScheduler struct{}

// NewWallScheduler returns a Scheduler backed by the time package
func NewWallScheduler() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) Now() time.Time {
	return time.Now()
}

func (wallScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func (wallScheduler) Every(d time.Duration, fn func()) Timer {
	t := &intervalTimer{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.loop(fn)
	return t
}

// intervalTimer runs fn on every tick until stopped
type intervalTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *intervalTimer) loop(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *intervalTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
