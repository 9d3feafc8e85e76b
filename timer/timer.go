// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Clock supplies the current time to a TimerManager.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

// Less orders by deadline, then by id so equal deadlines fire in
// scheduling order.
func (q TimerQueue) Less(i, j int) bool {
	if q[i].Execute.Equal(q[j].Execute) {
		return q[i].Id < q[j].Id
	}
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager holds pending timers. It does not run them on its own:
// the owner calls Fire from a single goroutine, so callbacks never
// overlap each other.
type TimerManager struct {
	queue  TimerQueue
	tasks  map[int64]*TimerTask
	mutex  sync.Mutex
	nextId int64
	clock  Clock

	firing  bool
	firedAt time.Time
}

func NewTimerManager(clock Clock) *TimerManager {
	if clock == nil {
		clock = SystemClock
	}
	manager := &TimerManager{
		queue:  make(TimerQueue, 0),
		tasks:  make(map[int64]*TimerTask),
		nextId: 1,
		clock:  clock,
	}
	heap.Init(&manager.queue)
	return manager
}

// Now returns the deadline of the task being fired, or the clock time
// outside of Fire.
func (m *TimerManager) Now() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.firing {
		return m.firedAt
	}
	return m.clock.Now()
}

// AddTimer schedules callback after delay. A positive interval re-arms
// the timer at each previous deadline plus interval until removed.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	base := m.clock.Now()
	if m.firing {
		base = m.firedAt
	}

	task := &TimerTask{
		Id:       m.nextId,
		Execute:  base.Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, task)
	m.tasks[task.Id] = task
	return task.Id
}

// RemoveTimer cancels a timer. Unknown or already fired one-shot ids are
// ignored.
func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task, ok := m.tasks[timerId]
	if !ok {
		return
	}
	delete(m.tasks, timerId)
	if task.index >= 0 {
		heap.Remove(&m.queue, task.index)
	}
}

// Len returns the number of pending timers.
func (m *TimerManager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.tasks)
}

// Fire runs, in deadline order, every timer due at or before now,
// including timers scheduled by callbacks during this call. It returns
// the number of callbacks run.
func (m *TimerManager) Fire(now time.Time) int {
	defer m.endFiring()

	fired := 0
	for {
		m.mutex.Lock()
		if m.queue.Len() == 0 || m.queue[0].Execute.After(now) {
			m.mutex.Unlock()
			return fired
		}

		task := heap.Pop(&m.queue).(*TimerTask)
		m.firing = true
		m.firedAt = task.Execute
		if task.Interval > 0 {
			task.Execute = task.Execute.Add(task.Interval)
			heap.Push(&m.queue, task)
		} else {
			delete(m.tasks, task.Id)
		}
		m.mutex.Unlock()

		task.Callback()
		fired++
	}
}

func (m *TimerManager) endFiring() {
	m.mutex.Lock()
	m.firing = false
	m.mutex.Unlock()
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// Advance moves the clock forward and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
