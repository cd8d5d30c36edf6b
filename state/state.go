package state

import (
	"errors"
	"sync"
)

// Status is the lifecycle position of a game session.
type Status string

const (
	Unstarted      Status = "unstarted"
	Preparing      Status = "preparing"
	Prepared       Status = "prepared"
	Running        Status = "running"
	LevelCompleted Status = "levelCompleted"
	LevelFailed    Status = "levelFailed"
	Offering       Status = "offering"
	Ended          Status = "ended"
)

// 状态机接口
type StateMachine interface {
	ChangeState(to Status) error
	GetCurrentState() Status
	AddTransition(from Status, to Status, condition func() bool) error
}

var _ StateMachine = (*Machine)(nil)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// ErrUnknownStatus is returned by AddTransition for statuses outside the lifecycle.
var ErrUnknownStatus = errors.New("unknown status")

var known = map[Status]bool{
	Unstarted: true, Preparing: true, Prepared: true, Running: true,
	LevelCompleted: true, LevelFailed: true, Offering: true, Ended: true,
}

// ChangeListener observes accepted transitions.
type ChangeListener func(from, to Status)

// Machine is the session lifecycle. Only transitions present in the table are
// accepted; Ended is reachable from everywhere except itself.
type Machine struct {
	current     Status
	transitions map[Status]map[Status]func() bool // fromState -> toState -> condition
	listeners   []ChangeListener
	mutex       sync.RWMutex
}

// NewMachine returns a machine in Unstarted with the session transition table.
func NewMachine() *Machine {
	sm := NewBaseStateMachine(Unstarted)
	sm.allow(Unstarted, Preparing)
	sm.allow(Preparing, Prepared)
	sm.allow(Prepared, Running)
	sm.allow(Running, LevelCompleted)
	sm.allow(Running, LevelFailed)
	sm.allow(LevelCompleted, Offering)
	sm.allow(LevelFailed, Offering)
	sm.allow(Offering, Preparing)
	for s := range known {
		if s != Ended {
			sm.allow(s, Ended)
		}
	}
	return sm
}

// NewBaseStateMachine returns a machine with an empty transition table.
func NewBaseStateMachine(initial Status) *Machine {
	return &Machine{
		current:     initial,
		transitions: make(map[Status]map[Status]func() bool),
	}
}

func (sm *Machine) allow(from, to Status) {
	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Status]func() bool)
	}
	sm.transitions[from][to] = nil
}

// ChangeState moves to the given status if the table allows it and the
// transition condition, when set, holds.
func (sm *Machine) ChangeState(to Status) error {
	sm.mutex.Lock()
	from := sm.current

	conditions, exists := sm.transitions[from]
	if !exists {
		sm.mutex.Unlock()
		return ErrTransitionNotAllowed
	}
	condition, exists := conditions[to]
	if !exists || (condition != nil && !condition()) {
		sm.mutex.Unlock()
		return ErrTransitionNotAllowed
	}

	sm.current = to
	listeners := append([]ChangeListener(nil), sm.listeners...)
	sm.mutex.Unlock()

	for _, l := range listeners {
		l(from, to)
	}
	return nil
}

func (sm *Machine) GetCurrentState() Status {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.current
}

// Is reports whether the machine is in any of the given statuses.
func (sm *Machine) Is(statuses ...Status) bool {
	current := sm.GetCurrentState()
	for _, s := range statuses {
		if s == current {
			return true
		}
	}
	return false
}

// AddTransition adds or replaces a guarded transition.
func (sm *Machine) AddTransition(from Status, to Status, condition func() bool) error {
	if !known[from] || !known[to] {
		return ErrUnknownStatus
	}
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Status]func() bool)
	}
	sm.transitions[from][to] = condition
	return nil
}

// OnChange registers a listener called after every accepted transition,
// outside the machine's lock.
func (sm *Machine) OnChange(l ChangeListener) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.listeners = append(sm.listeners, l)
}
