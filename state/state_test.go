package state

import (
	"errors"
	"testing"
)

func TestStateMachine_InitialState(t *testing.T) {
	sm := NewRoomLifecycle()
	if sm.Current() != Waiting {
		t.Errorf("Expected initial phase waiting, got %s", sm.Current())
	}
}

func TestStateMachine_FullRoundTrip(t *testing.T) {
	sm := NewRoomLifecycle()
	for _, to := range []Phase{Starting, Playing, Ended, Waiting} {
		if err := sm.ChangeState(to); err != nil {
			t.Fatalf("Expected transition to %s to be allowed, got: %v", to, err)
		}
	}
	if sm.Current() != Waiting {
		t.Errorf("Expected to be back in waiting, got %s", sm.Current())
	}
}

func TestStateMachine_AbortedCountdown(t *testing.T) {
	sm := NewRoomLifecycle()
	if err := sm.ChangeState(Starting); err != nil {
		t.Fatalf("waiting -> starting failed: %v", err)
	}
	if err := sm.ChangeState(Waiting); err != nil {
		t.Fatalf("Expected starting -> waiting to be allowed, got: %v", err)
	}

	_ = sm.ChangeState(Starting)
	_ = sm.ChangeState(Playing)
	if sm.CanChange(Waiting) {
		t.Error("A playing room must end before it can wait again")
	}
}

func TestStateMachine_RejectsMissingEdge(t *testing.T) {
	sm := NewRoomLifecycle()

	err := sm.ChangeState(Playing)
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected ErrTransitionNotAllowed for waiting -> playing, got: %v", err)
	}
	if sm.Current() != Waiting {
		t.Errorf("Expected phase to remain waiting, got %s", sm.Current())
	}
}

func TestStateMachine_DisposedIsTerminal(t *testing.T) {
	for _, from := range []Phase{Waiting, Starting, Playing, Ended} {
		sm := NewStateMachine(from)
		sm.AddTransition(from, Disposed, nil)
		if err := sm.ChangeState(Disposed); err != nil {
			t.Fatalf("Expected %s -> disposed to be allowed, got: %v", from, err)
		}
	}

	sm := NewRoomLifecycle()
	_ = sm.ChangeState(Disposed)
	if sm.CanChange(Waiting) || sm.CanChange(Playing) {
		t.Error("Disposed should have no outgoing transitions")
	}
}

func TestStateMachine_GuardBlocksTransition(t *testing.T) {
	sm := NewStateMachine(Waiting)
	blocked := errors.New("not ready")
	sm.AddTransition(Waiting, Starting, func() error { return blocked })

	entered := false
	sm.OnEnter(Starting, func(from, to Phase) { entered = true })

	if err := sm.ChangeState(Starting); !errors.Is(err, blocked) {
		t.Errorf("Expected guard error, got: %v", err)
	}
	if entered {
		t.Error("OnEnter should not run when the guard blocks")
	}
	if sm.Current() != Waiting {
		t.Errorf("Expected phase to remain waiting, got %s", sm.Current())
	}
}

func TestStateMachine_HooksOrder(t *testing.T) {
	sm := NewRoomLifecycle()
	var calls []string
	sm.OnExit(Waiting, func(from, to Phase) { calls = append(calls, "exit "+from.String()) })
	sm.OnEnter(Starting, func(from, to Phase) { calls = append(calls, "enter "+to.String()) })

	if err := sm.ChangeState(Starting); err != nil {
		t.Fatalf("ChangeState failed: %v", err)
	}
	if len(calls) != 2 || calls[0] != "exit waiting" || calls[1] != "enter starting" {
		t.Errorf("Expected exit then enter hooks, got %v", calls)
	}
}

func TestPhase_String(t *testing.T) {
	if Playing.String() != "playing" {
		t.Errorf("Expected playing, got %s", Playing.String())
	}
	if Phase(42).String() != "unknown" {
		t.Errorf("Expected unknown for out of range phase, got %s", Phase(42).String())
	}
}
