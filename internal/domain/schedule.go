package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ShiftSegment is a working period within one day, expressed as local
// time-of-day strings ("08:00", "13:30"). End may be "24:00".
type ShiftSegment struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Bounds returns the segment as minutes after midnight.
func (s ShiftSegment) Bounds() (startMin, endMin int, err error) {
	startMin, err = ParseClock(s.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	endMin, err = ParseClock(s.End)
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return startMin, endMin, nil
}

// ParseClock parses "HH:MM" (or "HH:MM:SS", seconds ignored) into minutes
// after midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	var h, m, sec int
	n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	if n < 2 {
		if _, err2 := fmt.Sscanf(s, "%d:%d", &h, &m); err2 != nil {
			return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
		}
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// WeeklySchedule maps day keys to that day's ordered shift segments.
type WeeklySchedule map[Weekday][]ShiftSegment

// WeekdayOf returns the schedule key for the calendar day of t.
func WeekdayOf(t time.Time) Weekday {
	return weekdayByStd[t.Weekday()]
}

// Segments returns the shift segments of the given day, or nil.
func (w WeeklySchedule) Segments(day Weekday) []ShiftSegment {
	if w == nil {
		return nil
	}
	return w[day]
}

// Validate requires known day keys and, within a day, well-formed segments in
// ascending non-overlapping order.
func (w WeeklySchedule) Validate() error {
	var errs []error
	days := make([]string, 0, len(w))
	for d := range w {
		days = append(days, string(d))
	}
	sort.Strings(days)

	for _, ds := range days {
		day := Weekday(ds)
		if !ValidWeekdays[day] {
			errs = append(errs, fmt.Errorf("schedule: unknown day %q", ds))
			continue
		}
		prevEnd := -1
		for i, seg := range w[day] {
			start, end, err := seg.Bounds()
			if err != nil {
				errs = append(errs, fmt.Errorf("schedule.%s[%d]: %w", day, i, err))
				continue
			}
			if end <= start {
				errs = append(errs, fmt.Errorf("schedule.%s[%d]: end %s must be after start %s", day, i, seg.End, seg.Start))
				continue
			}
			if start < prevEnd {
				errs = append(errs, fmt.Errorf("schedule.%s[%d]: segment overlaps or precedes the previous one", day, i))
			}
			prevEnd = end
		}
	}
	return errors.Join(errs...)
}
