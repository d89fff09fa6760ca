package app

import (
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/scheduler"
)

type SearchSlotsRequest struct {
	OrderTaskID string
	Now         *time.Time
}

func NewSearchSlotsRequest(orderTaskID string) SearchSlotsRequest {
	return SearchSlotsRequest{OrderTaskID: orderTaskID}
}

type SearchSlotsResponse struct {
	Task   domain.OrderTask
	Result scheduler.SearchResult
}

type ListWindowsResponse struct {
	Task       domain.OrderTask
	Floor      time.Time
	HorizonEnd time.Time
	Machines   []scheduler.MachineWindows
}

// CommitSlotRequest confirms a placement. Exactly one of MachineID and
// ProviderID is set; OperatorID goes with MachineID.
type CommitSlotRequest struct {
	OrderTaskID string
	Start       time.Time
	MachineID   string
	OperatorID  string
	ProviderID  string
	Now         *time.Time
}

// CommitFromSlot builds a commit request for a search slot. For machine slots
// operatorID picks one of the slot's available operators.
func CommitFromSlot(orderTaskID string, slot scheduler.Slot, operatorID string) CommitSlotRequest {
	req := CommitSlotRequest{OrderTaskID: orderTaskID, Start: slot.Start}
	if slot.Kind == domain.ResourceProvider {
		req.ProviderID = slot.ProviderID
		return req
	}
	req.MachineID = slot.MachineID
	req.OperatorID = operatorID
	return req
}

type CommitSlotResponse struct {
	Scheduled    *domain.ScheduledTask
	OrderPlanned bool
}

type TimelineRequest struct {
	From time.Time
	To   time.Time
}

// TimelineEntry is one committed assignment with the names needed to render it.
type TimelineEntry struct {
	Scheduled    domain.ScheduledTask
	OrderID      string
	OrderNumber  string
	TaskName     string
	OperatorName string
}

// TimelineLane groups entries by the machine or provider they occupy.
type TimelineLane struct {
	Kind         domain.ResourceKind
	ResourceID   string
	ResourceName string
	Entries      []TimelineEntry
}

type TimelineResponse struct {
	From  time.Time
	To    time.Time
	Lanes []TimelineLane
}
