package scheduler

import (
	"math"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// AtRiskSlack is the margin below which an order that can still finish on
// time is flagged at risk.
const AtRiskSlack = 24 * time.Hour

type OrderRiskInput struct {
	Now     time.Time
	DueDate *time.Time
	// PlannedEnd is the latest end among committed tasks, zero if none.
	PlannedEnd time.Time
	// RemainingMin sums the shortest candidate duration of every pending task.
	RemainingMin int
}

type OrderRisk struct {
	Level          domain.RiskLevel
	DaysLeft       *int
	RemainingMin   int
	EarliestFinish time.Time
	SlackMin       int
}

// ShortestDuration returns the quickest resource duration of a task, or 0 if
// no resource can run it.
func ShortestDuration(t domain.OrderTask) int {
	best := 0
	consider := func(d int) {
		if d > 0 && (best == 0 || d < best) {
			best = d
		}
	}
	for _, m := range t.Resources.Machines {
		consider(m.DurationMin)
	}
	for _, p := range t.Resources.Providers {
		consider(p.DurationMin)
	}
	return best
}

// ComputeOrderRisk compares the earliest possible finish against the end of
// the due day. The finish ignores shifts and contention, so it is a lower
// bound: critical means the order is already late.
func ComputeOrderRisk(in OrderRiskInput) OrderRisk {
	start := in.Now
	if in.PlannedEnd.After(start) {
		start = in.PlannedEnd
	}
	finish := start.Add(minutes(in.RemainingMin))
	if in.RemainingMin == 0 && !in.PlannedEnd.IsZero() {
		finish = in.PlannedEnd
	}

	risk := OrderRisk{Level: domain.RiskOnTrack, RemainingMin: in.RemainingMin, EarliestFinish: finish}
	if in.DueDate == nil {
		return risk
	}

	deadline := in.DueDate.AddDate(0, 0, 1)
	daysLeft := int(math.Ceil(deadline.Sub(in.Now).Hours() / 24))
	risk.DaysLeft = &daysLeft

	slack := deadline.Sub(finish)
	risk.SlackMin = int(slack / time.Minute)
	switch {
	case slack < 0:
		risk.Level = domain.RiskCritical
	case slack < AtRiskSlack:
		risk.Level = domain.RiskAtRisk
	}
	return risk
}
