package scheduler

import (
	"testing"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/stretchr/testify/assert"
)

func urgency(id string, level domain.RiskLevel, due *time.Time, slack int) OrderUrgency {
	return OrderUrgency{
		OrderID:   id,
		DueDate:   due,
		CreatedAt: riskNow,
		Risk:      OrderRisk{Level: level, SlackMin: slack},
	}
}

func ids(orders []OrderUrgency) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.OrderID
	}
	return out
}

func TestRiskPriority(t *testing.T) {
	assert.Less(t, RiskPriority(domain.RiskCritical), RiskPriority(domain.RiskAtRisk))
	assert.Less(t, RiskPriority(domain.RiskAtRisk), RiskPriority(domain.RiskOnTrack))
}

func TestSortByUrgency_RiskFirst(t *testing.T) {
	due := dueOn(2025, 3, 20)
	orders := []OrderUrgency{
		urgency("a", domain.RiskOnTrack, due, 0),
		urgency("b", domain.RiskCritical, due, 0),
		urgency("c", domain.RiskAtRisk, due, 0),
	}
	SortByUrgency(orders)
	assert.Equal(t, []string{"b", "c", "a"}, ids(orders))
}

func TestSortByUrgency_DueDateThenNilLast(t *testing.T) {
	orders := []OrderUrgency{
		urgency("none", domain.RiskOnTrack, nil, 0),
		urgency("late", domain.RiskOnTrack, dueOn(2025, 3, 25), 0),
		urgency("early", domain.RiskOnTrack, dueOn(2025, 3, 15), 0),
	}
	SortByUrgency(orders)
	assert.Equal(t, []string{"early", "late", "none"}, ids(orders))
}

func TestSortByUrgency_SlackThenCreatedThenID(t *testing.T) {
	due := dueOn(2025, 3, 15)
	older := urgency("z", domain.RiskOnTrack, nil, 0)
	older.CreatedAt = riskNow.Add(-time.Hour)
	orders := []OrderUrgency{
		urgency("loose", domain.RiskOnTrack, due, 500),
		urgency("tight", domain.RiskOnTrack, due, 100),
		urgency("y", domain.RiskOnTrack, nil, 0),
		urgency("x", domain.RiskOnTrack, nil, 0),
		older,
	}
	SortByUrgency(orders)
	assert.Equal(t, []string{"tight", "loose", "z", "x", "y"}, ids(orders))
}
