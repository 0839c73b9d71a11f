package testutil

import (
	"sort"
	"sync"
	"time"
)

// MockClock is a manually advanced timer source. It satisfies the scheduler's
// TimerSource interface so tests can fire scheduled work deterministically.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers map[uint64]*mockTimer
}

type mockTimer struct {
	seq      uint64
	deadline time.Time
	fn       func()
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start, timers: make(map[uint64]*mockTimer)}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc arms fn to run once the clock has been advanced by d.
// The returned function disarms the timer and reports whether it was still armed.
func (m *MockClock) AfterFunc(d time.Duration, fn func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := m.seq
	m.timers[id] = &mockTimer{seq: id, deadline: m.now.Add(d), fn: fn}

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.timers[id]; !ok {
			return false
		}
		delete(m.timers, id)
		return true
	}
}

// Advance moves the mock clock forward by d, firing every timer that comes due
// in deadline order. Callbacks run on the calling goroutine without the lock held,
// so they may arm further timers.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		delete(m.timers, next.seq)
		if next.deadline.After(m.now) {
			m.now = next.deadline
		}
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of armed timers.
func (m *MockClock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *MockClock) nextDueLocked(target time.Time) *mockTimer {
	due := make([]*mockTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.deadline.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}
