package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Callbacks only run from
// Advance, on the calling goroutine, in due-time order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending map[uint64]*manualTask
}

type manualTask struct {
	id  uint64
	at  time.Time
	fn  func()
	clk *Manual
}

func (t *manualTask) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if _, ok := t.clk.pending[t.id]; !ok {
		return false
	}
	delete(t.clk.pending, t.id)
	return true
}

// NewManual returns a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, pending: make(map[uint64]*manualTask)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	task := &manualTask{id: m.seq, at: m.now.Add(d), fn: f, clk: m}
	m.pending[task.id] = task
	return task
}

// Pending returns the number of scheduled callbacks that have not run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves time forward by d, running every callback that becomes due,
// including callbacks scheduled by other callbacks within the window.
func (m *Manual) Advance(d time.Duration) {
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
		delete(m.pending, next.id)
		if next.at.After(m.now) {
			m.now = next.at
		}
		m.mu.Unlock()

		next.fn()
	}
}

func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	due := make([]*manualTask, 0, len(m.pending))
	for _, task := range m.pending {
		if !task.at.After(target) {
			due = append(due, task)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].at.Equal(due[j].at) {
			return due[i].at.Before(due[j].at)
		}
		return due[i].id < due[j].id
	})
	return due[0]
}
