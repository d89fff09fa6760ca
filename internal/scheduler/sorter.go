package scheduler

import (
	"sort"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// RiskPriority returns a sort priority (lower = more urgent).
func RiskPriority(r domain.RiskLevel) int {
	switch r {
	case domain.RiskCritical:
		return 0
	case domain.RiskAtRisk:
		return 1
	default:
		return 2
	}
}

// OrderUrgency pairs a pending order with its due-date risk.
type OrderUrgency struct {
	OrderID     string
	OrderNumber string
	DueDate     *time.Time
	CreatedAt   time.Time
	Risk        OrderRisk
	// Scheduled and Total count the order's committed and snapshotted tasks.
	Scheduled int
	Total     int
}

// SortByUrgency orders pending work by:
// 1. Risk: critical > at_risk > on_track
// 2. Due date: earliest first (nil last)
// 3. Slack: smaller first
// 4. Created: oldest first
// 5. Order ID: lexical ascending
func SortByUrgency(orders []OrderUrgency) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]

		riskA, riskB := RiskPriority(a.Risk.Level), RiskPriority(b.Risk.Level)
		if riskA != riskB {
			return riskA < riskB
		}

		if (a.DueDate == nil) != (b.DueDate == nil) {
			return a.DueDate != nil
		}
		if a.DueDate != nil && !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}

		if a.Risk.SlackMin != b.Risk.SlackMin && a.DueDate != nil {
			return a.Risk.SlackMin < b.Risk.SlackMin
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		return a.OrderID < b.OrderID
	})
}
