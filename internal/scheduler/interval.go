package scheduler

import (
	"sort"
	"strconv"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Empty reports whether the interval has no extent.
func (iv Interval) Empty() bool {
	return !iv.End.After(iv.Start)
}

// Overlaps reports whether the two half-open intervals share any instant.
// An empty interval overlaps nothing.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.Empty() || other.Empty() {
		return false
	}
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// ValidateIntervals rejects intervals whose end precedes their start.
func ValidateIntervals(ivs []Interval) error {
	for i, iv := range ivs {
		if iv.End.Before(iv.Start) {
			return &domain.DataIntegrityError{
				Entity: "interval",
				Reason: "end before start at index " + strconv.Itoa(i),
			}
		}
	}
	return nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// FindGaps returns the free intervals of at least minDurationMin minutes
// inside [rangeStart, rangeEnd) that are not covered by busy. Busy intervals
// may overlap each other and may extend beyond the range.
func FindGaps(busy []Interval, rangeStart, rangeEnd time.Time, minDurationMin int) []Interval {
	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	minDur := minutes(minDurationMin)
	fits := func(from, to time.Time) bool {
		d := to.Sub(from)
		return d > 0 && d >= minDur
	}

	var gaps []Interval
	cursor := rangeStart
	for _, b := range sorted {
		if !b.Start.Before(rangeEnd) {
			break
		}
		if b.Empty() {
			continue
		}
		if fits(cursor, b.Start) {
			gaps = append(gaps, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if fits(cursor, rangeEnd) {
		gaps = append(gaps, Interval{Start: cursor, End: rangeEnd})
	}
	return gaps
}

// Intersect returns every non-empty pairwise intersection of a and b in
// (a, b) index order. The result is not merged.
func Intersect(a, b []Interval) []Interval {
	var out []Interval
	for _, x := range a {
		for _, y := range b {
			start := laterOf(x.Start, y.Start)
			end := earlierOf(x.End, y.End)
			if start.Before(end) {
				out = append(out, Interval{Start: start, End: end})
			}
		}
	}
	return out
}

// Merge sorts intervals and coalesces overlapping or touching ones.
func Merge(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var out []Interval
	for _, iv := range sorted {
		if n := len(out); n > 0 && !iv.Start.After(out[n-1].End) {
			if iv.End.After(out[n-1].End) {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// FilterMinDuration keeps intervals at least minDurationMin minutes long.
func FilterMinDuration(in []Interval, minDurationMin int) []Interval {
	minDur := minutes(minDurationMin)
	var out []Interval
	for _, iv := range in {
		if iv.Duration() > 0 && iv.Duration() >= minDur {
			out = append(out, iv)
		}
	}
	return out
}

// firstOverlap returns the latest-ending busy interval overlapping probe.
func firstOverlap(busy []Interval, probe Interval) (Interval, bool) {
	var hit Interval
	found := false
	for _, b := range busy {
		if !b.Overlaps(probe) {
			continue
		}
		if !found || b.End.After(hit.End) {
			hit = b
			found = true
		}
	}
	return hit, found
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
