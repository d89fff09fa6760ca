package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMachineUnusable      = errors.New("machine unusable for this task/size")
	ErrNoFeasibleSlot       = errors.New("no availability found in horizon")
	ErrDataIntegrity        = errors.New("data integrity violation")
	ErrSlotConflict         = errors.New("slot no longer available, please retry")
	ErrPrerequisitesPending = errors.New("prerequisite steps are not scheduled yet")
	ErrAlreadyScheduled     = errors.New("already scheduled")
	ErrNotCandidate         = errors.New("resource is not a candidate for this order task")
	ErrOutsideShift         = errors.New("window is outside the operator's shift")
	ErrBeforePrerequisites  = errors.New("start is before prerequisite steps finish")
)

// ConfigurationError reports a machine whose rules yield no usable duration
// for a task. It excludes the machine from candidates; it is never fatal.
type ConfigurationError struct {
	MachineID string
	TaskID    string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("machine %s, task %s: %s", e.MachineID, e.TaskID, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrMachineUnusable }

// NoFeasibleSlotError reports that no candidate resource produced a slot
// within the search horizon.
type NoFeasibleSlotError struct {
	OrderTaskID string
	From        time.Time
	Until       time.Time
}

func (e *NoFeasibleSlotError) Error() string {
	return fmt.Sprintf("order task %s: no availability found between %s and %s",
		e.OrderTaskID, e.From.Format(time.RFC3339), e.Until.Format(time.RFC3339))
}

func (e *NoFeasibleSlotError) Unwrap() error { return ErrNoFeasibleSlot }

// DataIntegrityError signals malformed input or dangling references. It
// indicates an upstream data bug and must not be folded into "no slot".
type DataIntegrityError struct {
	Entity string
	ID     string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("data integrity: %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("data integrity: %s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// ConflictError is returned at commit time when the requested window
// double-books a machine or operator.
type ConflictError struct {
	ResourceKind ResourceKind
	ResourceID   string
	ExistingID   string
	Start        time.Time
	End          time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s is already booked by %s between %s and %s: %s",
		e.ResourceKind, e.ResourceID, e.ExistingID,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), ErrSlotConflict)
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }
