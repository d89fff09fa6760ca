package contract

import (
	"github.com/alexanderramin/slotwise/internal/app"
	"github.com/alexanderramin/slotwise/internal/scheduler"
)

type SearchSlotsRequest = app.SearchSlotsRequest

func NewSearchSlotsRequest(orderTaskID string) SearchSlotsRequest {
	return app.NewSearchSlotsRequest(orderTaskID)
}

type SearchSlotsResponse = app.SearchSlotsResponse

type ListWindowsResponse = app.ListWindowsResponse

type CommitSlotRequest = app.CommitSlotRequest

func CommitFromSlot(orderTaskID string, slot scheduler.Slot, operatorID string) CommitSlotRequest {
	return app.CommitFromSlot(orderTaskID, slot, operatorID)
}

type CommitSlotResponse = app.CommitSlotResponse

type TimelineRequest = app.TimelineRequest

type TimelineEntry = app.TimelineEntry

type TimelineLane = app.TimelineLane

type TimelineResponse = app.TimelineResponse

type ImportResult = app.ImportResult
