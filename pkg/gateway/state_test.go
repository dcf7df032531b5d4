package gateway

import (
	"strings"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateReceived, StateValidated, true},
		{StateReceived, StateFailed, true},
		{StateReceived, StateAdmitted, false},
		{StateValidated, StateRateChecked, true},
		{StateValidated, StateDispatched, false},
		{StateRateChecked, StateAdmitted, true},
		{StateRateChecked, StateRejected, true},
		{StateAdmitted, StateDispatched, true},
		{StateAdmitted, StateCompleted, false},
		{StateDispatched, StateCompleted, true},
		{StateDispatched, StateFailed, true},
		{StateRejected, StateAdmitted, false},
		{StateCompleted, StateFailed, false},
		{StateFailed, StateReceived, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []State{StateRejected, StateCompleted, StateFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s terminal", s)
		}
	}
	for _, s := range []State{StateReceived, StateValidated, StateRateChecked, StateAdmitted, StateDispatched} {
		if s.Terminal() {
			t.Errorf("expected %s non-terminal", s)
		}
	}
}

func TestLifecycle_IllegalTransitionPanics(t *testing.T) {
	l := newLifecycle()
	l.to(StateValidated)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if !strings.Contains(r.(string), "validated -> completed") {
			t.Errorf("unexpected panic message %v", r)
		}
	}()
	l.to(StateCompleted)
}

func TestLifecycle_Trail(t *testing.T) {
	l := newLifecycle()
	for _, s := range []State{StateValidated, StateRateChecked, StateAdmitted, StateDispatched, StateFailed} {
		l.to(s)
	}

	want := []State{StateReceived, StateValidated, StateRateChecked, StateAdmitted, StateDispatched, StateFailed}
	if len(l.trail) != len(want) {
		t.Fatalf("unexpected trail %v", l.trail)
	}
	for i := range want {
		if l.trail[i] != want[i] {
			t.Errorf("trail[%d] = %s, want %s", i, l.trail[i], want[i])
		}
	}
	if !l.state.Terminal() {
		t.Errorf("expected terminal state, got %s", l.state)
	}
}

func TestStateString(t *testing.T) {
	if StateRateChecked.String() != "rate_checked" {
		t.Errorf("unexpected %q", StateRateChecked.String())
	}
	if State(42).String() != "state(42)" {
		t.Errorf("unexpected %q", State(42).String())
	}
}
