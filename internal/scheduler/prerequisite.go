package scheduler

import (
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// scheduledSteps returns the workflow step ids of the order's scheduled tasks.
func scheduledSteps(orderID string, orderTasks []domain.OrderTask) map[string]bool {
	steps := make(map[string]bool, len(orderTasks))
	for _, t := range orderTasks {
		if t.OrderID == orderID && t.Status == domain.OrderTaskScheduled {
			steps[t.WorkflowStepID] = true
		}
	}
	return steps
}

// IsPlannable reports whether every prerequisite step of task has a
// scheduled order task in the same order.
func IsPlannable(task domain.OrderTask, orderTasks []domain.OrderTask) bool {
	if len(task.Prerequisites) == 0 {
		return true
	}
	done := scheduledSteps(task.OrderID, orderTasks)
	for _, pre := range task.Prerequisites {
		if !done[pre] {
			return false
		}
	}
	return true
}

// EarliestStart returns the later of now and the latest end time among the
// scheduled entries of task's prerequisite steps.
func EarliestStart(task domain.OrderTask, orderTasks []domain.OrderTask, scheduled []domain.ScheduledTask, now time.Time) time.Time {
	floor := now
	if len(task.Prerequisites) == 0 {
		return floor
	}

	prereqSteps := make(map[string]bool, len(task.Prerequisites))
	for _, pre := range task.Prerequisites {
		prereqSteps[pre] = true
	}
	prereqTasks := make(map[string]bool)
	for _, t := range orderTasks {
		if t.OrderID == task.OrderID && prereqSteps[t.WorkflowStepID] {
			prereqTasks[t.ID] = true
		}
	}

	for _, st := range scheduled {
		if prereqTasks[st.OrderTaskID] && st.End.After(floor) {
			floor = st.End
		}
	}
	return floor
}

// Frontier returns the pending tasks whose prerequisites are all scheduled,
// in input order.
func Frontier(orderTasks []domain.OrderTask) []domain.OrderTask {
	var ready []domain.OrderTask
	for _, t := range orderTasks {
		if t.Status != domain.OrderTaskPending {
			continue
		}
		if IsPlannable(t, orderTasks) {
			ready = append(ready, t)
		}
	}
	return ready
}
