package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// MachineBusy collects the committed intervals that occupy machineID.
func MachineBusy(machineID string, scheduled []domain.ScheduledTask) []Interval {
	var busy []Interval
	for _, st := range scheduled {
		if st.MachineID != nil && *st.MachineID == machineID {
			busy = append(busy, Interval{Start: st.Start, End: st.End})
		}
	}
	return busy
}

// OperatorBusy collects the committed intervals that occupy operatorID.
func OperatorBusy(operatorID string, scheduled []domain.ScheduledTask) []Interval {
	var busy []Interval
	for _, st := range scheduled {
		if st.OperatorID != nil && *st.OperatorID == operatorID {
			busy = append(busy, Interval{Start: st.Start, End: st.End})
		}
	}
	return busy
}

// MachineGaps returns the machine's free intervals of at least minDurationMin
// within [from, to).
func MachineGaps(machineID string, scheduled []domain.ScheduledTask, from, to time.Time, minDurationMin int) ([]Interval, error) {
	busy := MachineBusy(machineID, scheduled)
	if err := ValidateIntervals(busy); err != nil {
		return nil, fmt.Errorf("machine %s: %w", machineID, err)
	}
	return FindGaps(busy, from, to, minDurationMin), nil
}

// ShiftWindows expands a weekly schedule into absolute intervals for every
// calendar day touching [from, to), anchored at local midnight in loc and
// clipped to the range.
func ShiftWindows(schedule domain.WeeklySchedule, from, to time.Time, loc *time.Location) ([]Interval, error) {
	if loc == nil {
		loc = time.Local
	}
	local := from.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var windows []Interval
	for day.Before(to) {
		for i, seg := range schedule.Segments(domain.WeekdayOf(day)) {
			startMin, endMin, err := seg.Bounds()
			if err != nil {
				return nil, &domain.DataIntegrityError{
					Entity: "schedule",
					Reason: fmt.Sprintf("%s[%d]: %v", domain.WeekdayOf(day), i, err),
				}
			}
			if endMin <= startMin {
				return nil, &domain.DataIntegrityError{
					Entity: "schedule",
					Reason: fmt.Sprintf("%s[%d]: end before start", domain.WeekdayOf(day), i),
				}
			}
			iv := Interval{
				Start: laterOf(wallClock(day, startMin), from),
				End:   earlierOf(wallClock(day, endMin), to),
			}
			if !iv.Empty() {
				windows = append(windows, iv)
			}
		}
		day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	}
	return windows, nil
}

// wallClock returns the instant the local clock reads clockMin minutes past
// midnight on day's date. 24:00 normalizes to the next midnight.
func wallClock(day time.Time, clockMin int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clockMin/60, clockMin%60, 0, 0, day.Location())
}

// OperatorFreeWindows intersects the operator's shift windows with the gaps
// left by their own scheduled tasks.
func OperatorFreeWindows(op *domain.Operator, scheduled []domain.ScheduledTask, from, to time.Time, loc *time.Location) ([]Interval, error) {
	shifts, err := ShiftWindows(op.Schedule, from, to, loc)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", op.ID, err)
	}
	busy := OperatorBusy(op.ID, scheduled)
	if err := ValidateIntervals(busy); err != nil {
		return nil, fmt.Errorf("operator %s: %w", op.ID, err)
	}
	return Intersect(shifts, FindGaps(busy, from, to, 0)), nil
}

// CandidateWindows returns the windows where both the machine and the
// operator are free for at least minDurationMin.
func CandidateWindows(machineGaps, operatorFree []Interval, minDurationMin int) []Interval {
	return FilterMinDuration(Intersect(machineGaps, operatorFree), minDurationMin)
}

// ProviderWindow is the delivery window of an external provider starting at floor.
func ProviderWindow(floor time.Time, leadMin int) Interval {
	return Interval{Start: floor, End: floor.Add(minutes(leadMin))}
}

// coveredBy reports whether window lies inside a single merged free interval.
func coveredBy(free []Interval, window Interval) bool {
	for _, iv := range free {
		if iv.Contains(window) {
			return true
		}
	}
	return false
}
