package state

import (
	"errors"
	"fmt"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Guard vetoes a transition by returning an error.
type Guard func() error

// Hook runs on a transition; from and to are the phases involved.
type Hook func(from, to Phase)

// StateMachine is a transition table over phases with enter/exit hooks.
// It is not safe for concurrent use: it belongs to a single room, which
// is only touched from the event loop.
type StateMachine struct {
	current     Phase
	transitions map[Phase]map[Phase]Guard
	onEnter     map[Phase][]Hook
	onExit      map[Phase][]Hook
}

func NewStateMachine(initial Phase) *StateMachine {
	return &StateMachine{
		current:     initial,
		transitions: make(map[Phase]map[Phase]Guard),
		onEnter:     make(map[Phase][]Hook),
		onExit:      make(map[Phase][]Hook),
	}
}

// NewRoomLifecycle returns a machine in Waiting with the room transitions:
// Waiting -> Starting -> Playing -> Ended -> Waiting, Starting -> Waiting
// for an aborted countdown, and any -> Disposed.
func NewRoomLifecycle() *StateMachine {
	sm := NewStateMachine(Waiting)
	sm.AddTransition(Waiting, Starting, nil)
	sm.AddTransition(Starting, Playing, nil)
	sm.AddTransition(Starting, Waiting, nil)
	sm.AddTransition(Playing, Ended, nil)
	sm.AddTransition(Ended, Waiting, nil)
	for _, p := range []Phase{Waiting, Starting, Playing, Ended} {
		sm.AddTransition(p, Disposed, nil)
	}
	return sm
}

func (sm *StateMachine) AddTransition(from, to Phase, guard Guard) {
	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Phase]Guard)
	}
	sm.transitions[from][to] = guard
}

func (sm *StateMachine) OnEnter(p Phase, hook Hook) {
	sm.onEnter[p] = append(sm.onEnter[p], hook)
}

func (sm *StateMachine) OnExit(p Phase, hook Hook) {
	sm.onExit[p] = append(sm.onExit[p], hook)
}

func (sm *StateMachine) Current() Phase {
	return sm.current
}

func (sm *StateMachine) Is(p Phase) bool {
	return sm.current == p
}

// CanChange reports whether the table has an edge to the target phase.
func (sm *StateMachine) CanChange(to Phase) bool {
	_, ok := sm.transitions[sm.current][to]
	return ok
}

// ChangeState moves to the target phase, running exit hooks of the old
// phase and then enter hooks of the new one. A missing edge or a failing
// guard leaves the machine untouched.
func (sm *StateMachine) ChangeState(to Phase) error {
	from := sm.current
	guard, ok := sm.transitions[from][to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	if guard != nil {
		if err := guard(); err != nil {
			return err
		}
	}

	for _, hook := range sm.onExit[from] {
		hook(from, to)
	}
	sm.current = to
	for _, hook := range sm.onEnter[to] {
		hook(from, to)
	}
	return nil
}
