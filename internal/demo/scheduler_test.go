package demo

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, time.March, 12, 9, 30, 0, 0, time.UTC)

// manualScheduler is a deterministic clock for engine tests. Callbacks run
// on the goroutine calling Advance, without the scheduler lock held.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer

	// ignoreStop makes Stop a no-op so stale callbacks still fire
	ignoreStop bool
}

type manualTimer struct {
	s       *manualScheduler
	seq     int
	at      time.Time
	every   time.Duration
	fn      func()
	stopped bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: testEpoch}
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return s.add(d, 0, fn)
}

func (s *manualScheduler) Every(d time.Duration, fn func()) Timer {
	return s.add(d, d, fn)
}

func (s *manualScheduler) add(d, every time.Duration, fn func()) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTimer{s: s, seq: s.seq, at: s.now.Add(d), every: every, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ignoreStop || t.stopped {
		return false
	}
	t.stopped = true
	s.removeLocked(t)
	return true
}

func (s *manualScheduler) removeLocked(t *manualTimer) {
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward, firing due timers in time order
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.timers, func(i, j int) bool {
			if s.timers[i].at.Equal(s.timers[j].at) {
				return s.timers[i].seq < s.timers[j].seq
			}
			return s.timers[i].at.Before(s.timers[j].at)
		})

		if len(s.timers) == 0 || s.timers[0].at.After(target) {
			s.now = target
			s.mu.Unlock()
			return
		}

		next := s.timers[0]
		s.now = next.at
		if next.every > 0 {
			next.at = next.at.Add(next.every)
		} else {
			next.stopped = true
			s.timers = s.timers[1:]
		}
		fn := next.fn
		s.mu.Unlock()

		fn()
	}
}

// Pending returns the number of timers still scheduled
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func TestManualScheduler_FiresInOrder(t *testing.T) {
	s := newManualScheduler()
	var fired []string

	s.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "c") })
	s.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	s.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "b") })

	s.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)

	s.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, 0, s.Pending())
}

func TestManualScheduler_EveryAndStop(t *testing.T) {
	s := newManualScheduler()
	ticks := 0
	var timer Timer
	timer = s.Every(100*time.Millisecond, func() {
		ticks++
		if ticks == 3 {
			timer.Stop()
		}
	})

	s.Advance(time.Second)
	assert.Equal(t, 3, ticks)
	assert.False(t, timer.Stop())
	assert.Equal(t, 0, s.Pending())
}

func TestWallScheduler_AfterFunc(t *testing.T) {
	s := NewWallScheduler()
	var fired atomic.Bool

	s.AfterFunc(5*time.Millisecond, func() { fired.Store(true) })

	require.Eventually(t, fired.Load, time.Second, time.Millisecond)
}

func TestWallScheduler_EveryStops(t *testing.T) {
	s := NewWallScheduler()
	var ticks atomic.Int32

	timer := s.Every(2*time.Millisecond, func() { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	stoppedAt := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), stoppedAt+1)
}

func TestTaskRegistry_CancelStopsTimers(t *testing.T) {
	s := newManualScheduler()
	r := newTaskRegistry()
	fired := 0

	r.Add("inv-1", s.AfterFunc(time.Second, func() { fired++ }))
	r.Add("inv-1", s.Every(time.Second, func() { fired++ }))
	r.Add("batch-1", s.AfterFunc(time.Second, func() { fired++ }))
	assert.Equal(t, 2, r.Keys())

	assert.Equal(t, 2, r.Cancel("inv-1"))
	assert.Equal(t, 0, r.Cancel("inv-1"))
	assert.Equal(t, 1, r.CancelAll())
	assert.Equal(t, 0, r.Keys())

	s.Advance(10 * time.Second)
	assert.Equal(t, 0, fired)
}
