// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

// Less orders by due time, then by creation so equal deadlines fire in the
// order they were added.
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
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager is a room's event loop: callbacks run one at a time, in due
// order, on a single goroutine (or on the caller of Advance in manual mode).
type TimerManager struct {
	queue  TimerQueue
	mutex  sync.Mutex
	nextId int64

	manual  bool
	now     time.Time // manual clock
	running sync.Mutex
	stop    chan struct{}
	once    sync.Once
}

// NewTimerManager starts a manager driven by the wall clock, checking for
// due tasks every resolution.
func NewTimerManager(resolution time.Duration) *TimerManager {
	manager := &TimerManager{
		queue:  make(TimerQueue, 0),
		nextId: 1,
		stop:   make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process(resolution)
	return manager
}

// NewManualTimerManager returns a manager whose clock only moves on Advance.
func NewManualTimerManager(start time.Time) *TimerManager {
	manager := &TimerManager{
		queue:  make(TimerQueue, 0),
		nextId: 1,
		manual: true,
		now:    start,
		stop:   make(chan struct{}),
	}
	heap.Init(&manager.queue)
	return manager
}

// Now is the manager's clock.
func (m *TimerManager) Now() time.Time {
	if !m.manual {
		return time.Now()
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.now
}

func (m *TimerManager) nowLocked() time.Time {
	if m.manual {
		return m.now
	}
	return time.Now()
}

// AddTimer schedules callback after delay, then every interval when
// interval is positive. It returns the task id for RemoveTimer.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &TimerTask{
		Id:       m.nextId,
		Execute:  m.nowLocked().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, task)
	return task.Id
}

// RemoveTimer cancels a task. Removing an unknown or finished task is a no-op.
func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.Id == timerId {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

// Pending returns the number of scheduled tasks.
func (m *TimerManager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Advance moves the manual clock forward by d, firing every task that
// becomes due on the way with the clock set to its due time.
func (m *TimerManager) Advance(d time.Duration) {
	if !m.manual {
		panic("timer: Advance on a wall-clock manager")
	}
	m.running.Lock()
	defer m.running.Unlock()

	m.mutex.Lock()
	target := m.now.Add(d)
	m.mutex.Unlock()

	for {
		task := m.popDue(target, true)
		if task == nil {
			break
		}
		task.Callback()
	}

	m.mutex.Lock()
	if m.now.Before(target) {
		m.now = target
	}
	m.mutex.Unlock()
}

// popDue removes the earliest task due at or before limit, reschedules it
// when periodic and returns it.
func (m *TimerManager) popDue(limit time.Time, moveClock bool) *TimerTask {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.queue.Len() == 0 {
		return nil
	}
	task := m.queue[0]
	if task.Execute.After(limit) {
		return nil
	}
	heap.Pop(&m.queue)
	if moveClock && task.Execute.After(m.now) {
		m.now = task.Execute
	}

	if task.Interval > 0 {
		next := *task
		next.Execute = task.Execute.Add(task.Interval)
		if now := m.nowLocked(); next.Execute.Before(now) {
			next.Execute = now.Add(task.Interval)
		}
		heap.Push(&m.queue, &next)
	}
	return task
}

// Stop ends the wall-clock loop. Pending tasks never fire.
func (m *TimerManager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *TimerManager) process(resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			for {
				task := m.popDue(now, false)
				if task == nil {
					break
				}
				task.Callback()
			}
		case <-m.stop:
			return
		}
	}
}
