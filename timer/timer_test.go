package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualTimerManager_FiresInOrder(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewManualTimerManager(start)

	var order []string
	var firedAt []time.Time
	record := func(name string) func() {
		return func() {
			order = append(order, name)
			firedAt = append(firedAt, m.Now())
		}
	}
	m.AddTimer(2*time.Second, 0, record("b"))
	m.AddTimer(time.Second, 0, record("a"))
	m.AddTimer(2*time.Second, 0, record("c"))

	m.Advance(5 * time.Second)

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("Unexpected firing order: %v", order)
	}
	if !firedAt[0].Equal(start.Add(time.Second)) {
		t.Errorf("Callback should observe its due time, got %v", firedAt[0])
	}
	if !m.Now().Equal(start.Add(5 * time.Second)) {
		t.Errorf("Clock should end at the advance target, got %v", m.Now())
	}
	if m.Pending() != 0 {
		t.Errorf("One-shot tasks should be gone, %d pending", m.Pending())
	}
}

func TestManualTimerManager_Interval(t *testing.T) {
	m := NewManualTimerManager(time.Unix(0, 0))
	count := 0
	m.AddTimer(0, time.Second, func() { count++ })

	m.Advance(0)
	if count != 1 {
		t.Fatalf("A zero-delay task fires on Advance(0), count=%d", count)
	}
	m.Advance(3 * time.Second)
	if count != 4 {
		t.Errorf("Expected 4 firings after 3s, got %d", count)
	}
}

func TestManualTimerManager_RemoveTimer(t *testing.T) {
	m := NewManualTimerManager(time.Unix(0, 0))
	count := 0
	var id int64
	id = m.AddTimer(time.Second, time.Second, func() {
		count++
		if count == 2 {
			m.RemoveTimer(id)
		}
	})
	other := m.AddTimer(time.Second, 0, func() { t.Error("removed task fired") })
	m.RemoveTimer(other)
	m.RemoveTimer(12345)

	m.Advance(10 * time.Second)
	if count != 2 {
		t.Errorf("Periodic task removed from its own callback fired %d times", count)
	}
}

func TestManualTimerManager_AddFromCallback(t *testing.T) {
	m := NewManualTimerManager(time.Unix(0, 0))
	fired := false
	m.AddTimer(time.Second, 0, func() {
		m.AddTimer(0, 0, func() { fired = true })
	})
	m.Advance(time.Second)
	if !fired {
		t.Error("A task scheduled for now from a callback fires in the same Advance")
	}
}

func TestTimerManager_WallClock(t *testing.T) {
	m := NewTimerManager(time.Millisecond)
	defer m.Stop()

	var count atomic.Int32
	done := make(chan struct{})
	m.AddTimer(5*time.Millisecond, 0, func() {
		count.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	if count.Load() != 1 {
		t.Errorf("Expected one firing, got %d", count.Load())
	}
}
