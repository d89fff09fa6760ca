package scheduler

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // Monday

func at(hour, min int) time.Time {
	return day0.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func iv(h1, m1, h2, m2 int) Interval {
	return Interval{Start: at(h1, m1), End: at(h2, m2)}
}

func TestFindGaps_SingleBusyBlock(t *testing.T) {
	gaps := FindGaps([]Interval{iv(9, 0, 10, 0)}, at(8, 0), at(12, 0), 30)

	assert.Equal(t, []Interval{iv(8, 0, 9, 0), iv(10, 0, 12, 0)}, gaps)
}

func TestFindGaps_NoBusyReturnsWholeRange(t *testing.T) {
	gaps := FindGaps(nil, at(8, 0), at(12, 0), 60)
	assert.Equal(t, []Interval{iv(8, 0, 12, 0)}, gaps)
}

func TestFindGaps_RangeShorterThanMinimum(t *testing.T) {
	gaps := FindGaps(nil, at(8, 0), at(8, 20), 30)
	assert.Empty(t, gaps)
}

func TestFindGaps_ExactMinimumIsKept(t *testing.T) {
	gaps := FindGaps([]Interval{iv(8, 30, 12, 0)}, at(8, 0), at(12, 0), 30)
	assert.Equal(t, []Interval{iv(8, 0, 8, 30)}, gaps)
}

func TestFindGaps_UnsortedAndOverlappingBusy(t *testing.T) {
	busy := []Interval{iv(10, 30, 11, 0), iv(9, 0, 10, 0), iv(9, 30, 10, 15)}
	gaps := FindGaps(busy, at(8, 0), at(12, 0), 0)

	assert.Equal(t, []Interval{iv(8, 0, 9, 0), iv(10, 15, 10, 30), iv(11, 0, 12, 0)}, gaps)
}

func TestFindGaps_ContainedBusyDoesNotMoveCursorBack(t *testing.T) {
	busy := []Interval{iv(9, 0, 11, 0), iv(9, 30, 10, 0)}
	gaps := FindGaps(busy, at(8, 0), at(12, 0), 0)

	assert.Equal(t, []Interval{iv(8, 0, 9, 0), iv(11, 0, 12, 0)}, gaps)
}

func TestFindGaps_BusyOutsideRange(t *testing.T) {
	busy := []Interval{iv(6, 0, 9, 0), iv(11, 0, 14, 0), iv(15, 0, 16, 0)}
	gaps := FindGaps(busy, at(8, 0), at(12, 0), 0)

	assert.Equal(t, []Interval{iv(9, 0, 11, 0)}, gaps)
}

func TestFindGaps_TouchingBusyLeavesNoZeroGap(t *testing.T) {
	busy := []Interval{iv(8, 0, 9, 0), iv(9, 0, 10, 0)}
	gaps := FindGaps(busy, at(8, 0), at(10, 0), 0)
	assert.Empty(t, gaps)
}

func TestValidateIntervals_RejectsInverted(t *testing.T) {
	err := ValidateIntervals([]Interval{iv(9, 0, 10, 0), iv(11, 0, 10, 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	assert.Contains(t, err.Error(), "index 1")
}

func TestIntersect_PairwiseUnmerged(t *testing.T) {
	a := []Interval{iv(8, 0, 12, 0), iv(13, 0, 17, 0)}
	b := []Interval{iv(9, 0, 10, 0), iv(11, 0, 14, 0)}

	got := Intersect(a, b)

	assert.Equal(t, []Interval{iv(9, 0, 10, 0), iv(11, 0, 12, 0), iv(13, 0, 14, 0)}, got)
}

func TestIntersect_TouchingIsEmpty(t *testing.T) {
	got := Intersect([]Interval{iv(8, 0, 9, 0)}, []Interval{iv(9, 0, 10, 0)})
	assert.Empty(t, got)
}

func TestMerge_CoalescesOverlappingAndTouching(t *testing.T) {
	in := []Interval{iv(13, 0, 14, 0), iv(8, 0, 9, 0), iv(9, 0, 10, 0), iv(9, 30, 11, 0), iv(12, 0, 12, 0)}
	assert.Equal(t, []Interval{iv(8, 0, 11, 0), iv(13, 0, 14, 0)}, Merge(in))
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial", iv(9, 0, 10, 0), iv(9, 30, 11, 0), true},
		{"contained", iv(9, 0, 12, 0), iv(10, 0, 11, 0), true},
		{"touching", iv(9, 0, 10, 0), iv(10, 0, 11, 0), false},
		{"disjoint", iv(9, 0, 10, 0), iv(11, 0, 12, 0), false},
		{"empty inside", iv(8, 47, 8, 47), iv(8, 0, 9, 0), false},
		{"empty on start", iv(8, 0, 9, 0), iv(8, 0, 8, 0), false},
		{"both empty", iv(8, 0, 8, 0), iv(8, 0, 8, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestFirstOverlap_SkipsEmptyBusy(t *testing.T) {
	_, ok := firstOverlap([]Interval{iv(9, 30, 9, 30)}, iv(9, 0, 10, 0))
	assert.False(t, ok)
}

func TestFirstOverlap_PicksLatestEnding(t *testing.T) {
	busy := []Interval{iv(9, 0, 10, 0), iv(9, 30, 11, 30), iv(12, 0, 13, 0)}

	hit, ok := firstOverlap(busy, iv(9, 45, 10, 45))
	require.True(t, ok)
	assert.Equal(t, iv(9, 30, 11, 30), hit)

	_, ok = firstOverlap(busy, iv(11, 30, 12, 0))
	assert.False(t, ok, "half-open intervals touching at the boundary do not overlap")
}

// TestFindGaps_Invariants_GapsDisjointFromBusy property-tests that gaps stay
// inside the range, never overlap busy time, are ordered and honour the minimum.
func TestFindGaps_Invariants_GapsDisjointFromBusy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 300; trial++ {
		rangeStart := at(rng.Intn(6), 0)
		rangeEnd := rangeStart.Add(time.Duration(rng.Intn(16*60)+1) * time.Minute)
		minDur := rng.Intn(90)

		var busy []Interval
		for i := rng.Intn(8); i > 0; i-- {
			s := day0.Add(time.Duration(rng.Intn(24*60)) * time.Minute)
			busy = append(busy, Interval{Start: s, End: s.Add(time.Duration(rng.Intn(180)) * time.Minute)})
		}

		gaps := FindGaps(busy, rangeStart, rangeEnd, minDur)

		for j, g := range gaps {
			assert.False(t, g.Start.Before(rangeStart), "trial %d gap %d starts before range", trial, j)
			assert.False(t, g.End.After(rangeEnd), "trial %d gap %d ends after range", trial, j)
			assert.GreaterOrEqual(t, g.Duration(), time.Duration(minDur)*time.Minute, "trial %d gap %d too short", trial, j)
			assert.False(t, g.Empty(), "trial %d gap %d is empty", trial, j)
			for _, b := range busy {
				assert.False(t, g.Overlaps(b), "trial %d gap %d overlaps busy %v", trial, j, b)
			}
			if j > 0 {
				assert.False(t, g.Start.Before(gaps[j-1].End), "trial %d gaps out of order", trial)
			}
		}
	}
}

func TestMerge_Invariants_SortedDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 200; trial++ {
		var in []Interval
		for i := rng.Intn(10); i > 0; i-- {
			s := day0.Add(time.Duration(rng.Intn(600)) * time.Minute)
			in = append(in, Interval{Start: s, End: s.Add(time.Duration(rng.Intn(120)+1) * time.Minute)})
		}

		out := Merge(in)
		for j := 1; j < len(out); j++ {
			assert.True(t, out[j].Start.After(out[j-1].End), "trial %d: merged intervals must be separated", trial)
		}
		for _, x := range in {
			covered := false
			for _, m := range out {
				if m.Contains(x) {
					covered = true
				}
			}
			assert.True(t, covered, "trial %d: input %v lost by merge", trial, x)
		}
	}
}

func randomIntervals(rng *rand.Rand, n, spanMin, maxLenMin int) []Interval {
	var out []Interval
	for i := rng.Intn(n); i > 0; i-- {
		st := day0.Add(time.Duration(rng.Intn(spanMin)) * time.Minute)
		out = append(out, Interval{Start: st, End: st.Add(time.Duration(rng.Intn(maxLenMin)) * time.Minute)})
	}
	return out
}

func sortIntervals(in []Interval) []Interval {
	out := append([]Interval(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].End.Before(out[j].End)
	})
	return out
}

// TestFindGaps_Invariants_GapsAndBusyCoverRange checks minute by minute that
// every instant of the range is either free or busy, never both, and that the
// minimum duration only drops whole gaps.
func TestFindGaps_Invariants_GapsAndBusyCoverRange(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	for trial := 0; trial < 200; trial++ {
		rangeStart := at(rng.Intn(6), 0)
		rangeEnd := rangeStart.Add(time.Duration(rng.Intn(12*60)+1) * time.Minute)
		busy := randomIntervals(rng, 8, 24*60, 180)

		gaps := FindGaps(busy, rangeStart, rangeEnd, 0)
		for m := rangeStart; m.Before(rangeEnd); m = m.Add(time.Minute) {
			cell := Interval{Start: m, End: m.Add(time.Minute)}
			free, taken := false, false
			for _, g := range gaps {
				if g.Contains(cell) {
					free = true
				}
			}
			for _, b := range busy {
				if b.Overlaps(cell) {
					taken = true
				}
			}
			assert.True(t, free != taken, "trial %d minute %s free=%v busy=%v", trial, m.Format("15:04"), free, taken)
		}

		minDur := rng.Intn(90)
		assert.Equal(t, FilterMinDuration(gaps, minDur), FindGaps(busy, rangeStart, rangeEnd, minDur), "trial %d min %d", trial, minDur)
	}
}

func TestIntersect_Invariants_Commutative(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	for trial := 0; trial < 200; trial++ {
		a := randomIntervals(rng, 6, 16*60, 240)
		b := randomIntervals(rng, 6, 16*60, 240)

		ab := Intersect(a, b)
		assert.Equal(t, sortIntervals(ab), sortIntervals(Intersect(b, a)), "trial %d", trial)

		for _, x := range ab {
			assert.False(t, x.Empty(), "trial %d: empty intersection %v", trial, x)
			inA, inB := false, false
			for _, y := range a {
				inA = inA || y.Contains(x)
			}
			for _, y := range b {
				inB = inB || y.Contains(x)
			}
			assert.True(t, inA && inB, "trial %d: %v not inside both inputs", trial, x)
		}
	}
}
