package gateway

import "fmt"

// State is a request's position in the dispatch lifecycle.
type State int

const (
	StateReceived State = iota
	StateValidated
	StateRateChecked
	StateAdmitted
	StateRejected
	StateDispatched
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateReceived:    "received",
	StateValidated:   "validated",
	StateRateChecked: "rate_checked",
	StateAdmitted:    "admitted",
	StateRejected:    "rejected",
	StateDispatched:  "dispatched",
	StateCompleted:   "completed",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// transitions lists the legal successors of each state. Rejected, Completed
// and Failed are terminal.
var transitions = map[State][]State{
	StateReceived:    {StateValidated, StateFailed},
	StateValidated:   {StateRateChecked, StateFailed},
	StateRateChecked: {StateAdmitted, StateRejected},
	StateAdmitted:    {StateDispatched},
	StateDispatched:  {StateCompleted, StateFailed},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no successors.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// lifecycle tracks one request. It is owned by a single goroutine.
type lifecycle struct {
	state State
	trail []State
}

func newLifecycle() *lifecycle {
	return &lifecycle{state: StateReceived, trail: []State{StateReceived}}
}

// to moves to next. An illegal transition is a programming error and panics.
func (l *lifecycle) to(next State) {
	if !CanTransition(l.state, next) {
		panic(fmt.Sprintf("gateway: illegal transition %s -> %s", l.state, next))
	}
	l.state = next
	l.trail = append(l.trail, next)
}
