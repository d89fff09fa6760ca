package scheduler

import "fmt"

// PlanState tracks one planning attempt from search to confirmation.
type PlanState string

const (
	StateIdle         PlanState = "idle"
	StateSearching    PlanState = "searching"
	StateSlotsFound   PlanState = "slots_found"
	StateNoSlotsFound PlanState = "no_slots_found"
	StateCommitted    PlanState = "committed"
	StateCancelled    PlanState = "cancelled"
)

var planTransitions = map[PlanState][]PlanState{
	StateIdle:         {StateSearching},
	StateSearching:    {StateSlotsFound, StateNoSlotsFound},
	StateSlotsFound:   {StateCommitted, StateCancelled, StateSearching},
	StateNoSlotsFound: {StateCancelled, StateSearching},
}

// Transition returns the next state or an error if the move is not allowed.
func (s PlanState) Transition(to PlanState) (PlanState, error) {
	for _, allowed := range planTransitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("invalid planning transition %s -> %s", s, to)
}

// Terminal reports whether no further transition is possible.
func (s PlanState) Terminal() bool {
	return len(planTransitions[s]) == 0
}
