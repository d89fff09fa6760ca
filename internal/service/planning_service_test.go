package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/alexanderramin/slotwise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskForStep(t *testing.T, resp *contract.CreateOrderResponse, stepID string) domain.OrderTask {
	t.Helper()
	for _, ot := range resp.Tasks {
		if ot.WorkflowStepID == stepID {
			return ot
		}
	}
	t.Fatalf("no order task for step %s", stepID)
	return domain.OrderTask{}
}

func slotOn(t *testing.T, result scheduler.SearchResult, resourceID string) scheduler.Slot {
	t.Helper()
	for _, s := range result.Slots {
		if s.MachineID == resourceID || s.ProviderID == resourceID {
			return s
		}
	}
	t.Fatalf("no slot on %s in %+v", resourceID, result.Slots)
	return scheduler.Slot{}
}

func TestPlanning_FrontierStartsWithRootSteps(t *testing.T) {
	s := newShop(t)
	order := s.newOrder(t, "A-1")
	printTask := taskForStep(t, order, s.stepPrint)

	ready, err := s.planning.Frontier(context.Background(), order.Order.ID)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, printTask.ID, ready[0].ID)

	_, err = s.commitMachine(printTask.ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)

	ready, err = s.planning.Frontier(context.Background(), order.Order.ID)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, s.stepCut, ready[0].WorkflowStepID)

	committed, err := s.planning.ScheduledForOrder(context.Background(), order.Order.ID)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, printTask.ID, committed[0].OrderTaskID)
	assert.Equal(t, at(0, 10, 0), committed[0].End.UTC())
}

func TestPlanning_FrontierAcrossPendingOrders(t *testing.T) {
	s := newShop(t)
	s.newOrder(t, "A-1")
	s.newOrder(t, "A-2")

	ready, err := s.planning.Frontier(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, ready, 2)
	for _, ot := range ready {
		assert.Equal(t, s.stepPrint, ot.WorkflowStepID)
	}
}

func TestPlanning_SearchFirstSlotListsFreeOperators(t *testing.T) {
	s := newShop(t)
	printTask := taskForStep(t, s.newOrder(t, "A-1"), s.stepPrint)

	result := s.search(t, printTask.ID, monday08)

	assert.Equal(t, scheduler.StateSlotsFound, result.State)
	require.Len(t, result.Slots, 1)
	slot := result.Slots[0]
	assert.Equal(t, s.press.ID, slot.MachineID)
	assert.True(t, slot.Start.Equal(at(0, 8, 0)))
	assert.True(t, slot.End.Equal(at(0, 10, 0)))
	assert.Equal(t, 120, slot.DurationMin)

	want := []string{s.ana.ID, s.ben.ID}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	assert.Equal(t, want, slot.OperatorIDs)

	ev, ok := s.obs.Last("search-slots")
	require.True(t, ok)
	assert.True(t, ev.Success)
	assert.Equal(t, 1, ev.Fields["slots"])
}

func TestPlanning_SearchRoundsNowUpToMinute(t *testing.T) {
	s := newShop(t)
	printTask := taskForStep(t, s.newOrder(t, "A-1"), s.stepPrint)

	result := s.search(t, printTask.ID, at(0, 8, 0).Add(20*time.Second))
	assert.True(t, result.Floor.Equal(at(0, 8, 1)))
}

func TestPlanning_SearchRejectsTaskWithPendingPrerequisites(t *testing.T) {
	s := newShop(t)
	cutTask := taskForStep(t, s.newOrder(t, "A-1"), s.stepCut)

	req := contract.NewSearchSlotsRequest(cutTask.ID)
	now := monday08
	req.Now = &now
	_, err := s.planning.SearchSlots(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrPrerequisitesPending)

	ev, ok := s.obs.Last("search-slots")
	require.True(t, ok)
	assert.False(t, ev.Success)
}

func TestPlanning_SuccessorStartsAfterPrerequisite(t *testing.T) {
	s := newShop(t)
	order := s.newOrder(t, "A-1")
	printTask := taskForStep(t, order, s.stepPrint)
	cutTask := taskForStep(t, order, s.stepCut)

	committed, err := s.commitMachine(printTask.ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)
	assert.False(t, committed.OrderPlanned)
	assert.True(t, committed.Scheduled.End.Equal(at(0, 10, 0)))

	result := s.search(t, cutTask.ID, monday08)
	assert.True(t, result.Floor.Equal(at(0, 10, 0)))

	machine := slotOn(t, result, s.guillotine.ID)
	assert.True(t, machine.Start.Equal(at(0, 10, 0)))
	assert.True(t, machine.End.Equal(at(0, 11, 0)))
	assert.Equal(t, []string{s.ana.ID}, machine.OperatorIDs)

	provider := slotOn(t, result, s.outsource.ID)
	assert.Equal(t, domain.ResourceProvider, provider.Kind)
	assert.True(t, provider.Start.Equal(at(0, 10, 0)))
	assert.True(t, provider.End.Equal(at(2, 10, 0)))
	assert.Empty(t, provider.OperatorIDs)
}

func TestPlanning_ListWindowsPerOperator(t *testing.T) {
	s := newShop(t)
	printTask := taskForStep(t, s.newOrder(t, "A-1"), s.stepPrint)

	req := contract.NewSearchSlotsRequest(printTask.ID)
	now := monday08
	req.Now = &now
	resp, err := s.planning.ListWindows(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Floor.Equal(monday08))
	assert.True(t, resp.HorizonEnd.Equal(monday08.Add(testSearchConfig().Horizon)))
	require.Len(t, resp.Machines, 1)
	press := resp.Machines[0]
	assert.Equal(t, s.press.ID, press.MachineID)
	require.Len(t, press.Operators, 2)
	for _, ow := range press.Operators {
		require.NotEmpty(t, ow.Windows)
		first := ow.Windows[0]
		assert.True(t, first.Start.Equal(at(0, 8, 0)), "%s starts %s", ow.OperatorName, first.Start)
		assert.True(t, first.End.Equal(at(0, 16, 0)))
	}
	require.NotEmpty(t, press.Union)
}

func TestPlanning_CommitRejections(t *testing.T) {
	s := newShop(t)
	first := s.newOrder(t, "A-1")
	second := s.newOrder(t, "A-2")
	printA := taskForStep(t, first, s.stepPrint)
	cutA := taskForStep(t, first, s.stepCut)
	printB := taskForStep(t, second, s.stepPrint)

	_, err := s.commitMachine(printA.ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)

	t.Run("already scheduled", func(t *testing.T) {
		_, err := s.commitMachine(printA.ID, s.press.ID, s.ana.ID, at(1, 8, 0))
		assert.ErrorIs(t, err, domain.ErrAlreadyScheduled)
	})

	t.Run("before prerequisites end", func(t *testing.T) {
		_, err := s.commitMachine(cutA.ID, s.guillotine.ID, s.ana.ID, at(0, 9, 0))
		assert.ErrorIs(t, err, domain.ErrBeforePrerequisites)
	})

	t.Run("machine double booked", func(t *testing.T) {
		_, err := s.commitMachine(printB.ID, s.press.ID, s.ben.ID, at(0, 8, 30))
		require.ErrorIs(t, err, domain.ErrSlotConflict)
		var conflict *domain.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, domain.ResourceMachine, conflict.ResourceKind)
		assert.Equal(t, s.press.ID, conflict.ResourceID)
	})

	t.Run("operator not skilled on machine", func(t *testing.T) {
		_, err := s.commitMachine(cutA.ID, s.guillotine.ID, s.ben.ID, at(0, 10, 0))
		assert.ErrorIs(t, err, domain.ErrNotCandidate)
	})

	t.Run("machine not in snapshot", func(t *testing.T) {
		_, err := s.commitMachine(printB.ID, s.guillotine.ID, s.ana.ID, at(1, 8, 0))
		assert.ErrorIs(t, err, domain.ErrNotCandidate)
	})

	t.Run("outside shift", func(t *testing.T) {
		_, err := s.commitMachine(printB.ID, s.press.ID, s.ben.ID, at(0, 15, 0))
		assert.ErrorIs(t, err, domain.ErrOutsideShift)
	})

	t.Run("provider with operator", func(t *testing.T) {
		_, err := s.planning.Commit(context.Background(), contract.CommitSlotRequest{
			OrderTaskID: cutA.ID,
			Start:       at(0, 10, 0),
			ProviderID:  s.outsource.ID,
			OperatorID:  s.ana.ID,
		})
		assert.Error(t, err)
	})

	t.Run("sub-second start", func(t *testing.T) {
		_, err := s.commitMachine(printB.ID, s.press.ID, s.ben.ID, at(1, 8, 0).Add(time.Millisecond))
		assert.ErrorContains(t, err, "sub-second")
	})

	entries, err := repository.NewSQLiteScheduledTaskRepo(s.db).ListByOrder(context.Background(), second.Order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlanning_OperatorConflictOnOtherMachine(t *testing.T) {
	s := newShop(t)
	first := s.newOrder(t, "A-1")
	second := s.newOrder(t, "A-2")

	_, err := s.commitMachine(taskForStep(t, first, s.stepPrint).ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)
	_, err = s.commitMachine(taskForStep(t, second, s.stepPrint).ID, s.press.ID, s.ana.ID, at(0, 10, 0))
	require.NoError(t, err)

	// Guillotine is idle but Ana is on Press until 12:00.
	_, err = s.commitMachine(taskForStep(t, first, s.stepCut).ID, s.guillotine.ID, s.ana.ID, at(0, 11, 0))
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.ResourceOperator, conflict.ResourceKind)
	assert.Equal(t, s.ana.ID, conflict.ResourceID)

	_, err = s.commitMachine(taskForStep(t, first, s.stepCut).ID, s.guillotine.ID, s.ana.ID, at(0, 12, 0))
	require.NoError(t, err)
}

func TestPlanning_ProviderCommitCompletesOrder(t *testing.T) {
	s := newShop(t)
	order := s.newOrder(t, "A-1")

	_, err := s.commitMachine(taskForStep(t, order, s.stepPrint).ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)
	resp, err := s.commitProvider(taskForStep(t, order, s.stepCut).ID, s.outsource.ID, at(0, 10, 0))
	require.NoError(t, err)

	assert.True(t, resp.OrderPlanned)
	assert.Equal(t, domain.ResourceProvider, resp.Scheduled.Kind())
	assert.Nil(t, resp.Scheduled.OperatorID)
	assert.True(t, resp.Scheduled.End.Equal(at(2, 10, 0)))

	stored, err := s.orders.GetByID(context.Background(), order.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPlanned, stored.Status)

	ready, err := s.planning.Frontier(context.Background(), order.Order.ID)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestPlanning_ProvidersHaveNoCapacityLimit(t *testing.T) {
	s := newShop(t)
	first := s.newOrder(t, "A-1")
	second := s.newOrder(t, "A-2")

	_, err := s.commitMachine(taskForStep(t, first, s.stepPrint).ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)
	_, err = s.commitMachine(taskForStep(t, second, s.stepPrint).ID, s.press.ID, s.ben.ID, at(0, 10, 0))
	require.NoError(t, err)

	for _, order := range []*contract.CreateOrderResponse{first, second} {
		_, err := s.commitProvider(taskForStep(t, order, s.stepCut).ID, s.outsource.ID, at(0, 12, 0))
		require.NoError(t, err)
	}
}

func TestPlanning_MissingOperatorIsDataIntegrityError(t *testing.T) {
	s := newShop(t)
	printTask := taskForStep(t, s.newOrder(t, "A-1"), s.stepPrint)

	require.NoError(t, repository.NewSQLiteOperatorRepo(s.db).Delete(context.Background(), s.ben.ID))

	req := contract.NewSearchSlotsRequest(printTask.ID)
	now := monday08
	req.Now = &now
	_, err := s.planning.SearchSlots(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestPlanning_UnusableMachineBecomesBlocker(t *testing.T) {
	s := newShop(t)
	folder := testutil.NewTestMachine("Folder", testutil.WithRule(s.cut.ID, domain.FlatRate(domain.ModeSheet, 0)))
	require.NoError(t, repository.NewSQLiteMachineRepo(s.db).Create(context.Background(), folder))

	order := s.newOrder(t, "A-1")
	require.Len(t, order.Warnings, 1)
	assert.Contains(t, order.Warnings[0], "Folder")

	_, err := s.commitMachine(taskForStep(t, order, s.stepPrint).ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)

	result := s.search(t, taskForStep(t, order, s.stepCut).ID, monday08)
	require.Len(t, result.Blockers, 1)
	assert.Equal(t, scheduler.BlockerMachineUnusable, result.Blockers[0].Code)
	assert.Equal(t, folder.ID, result.Blockers[0].ResourceID)
	assert.Len(t, result.Slots, 2)

	_, err = s.commitMachine(taskForStep(t, order, s.stepCut).ID, folder.ID, s.ana.ID, at(0, 10, 0))
	assert.ErrorIs(t, err, domain.ErrMachineUnusable)
}

func TestPlanning_CommitRollsBackWhenStatusUpdateFails(t *testing.T) {
	s := newShop(t)
	printTask := taskForStep(t, s.newOrder(t, "A-1"), s.stepPrint)

	injected := errors.New("injected failure")
	uow := &testutil.FailOnNthExecUoW{DB: s.db, FailOn: 2, Err: injected}
	planning := s.planningService(uow)

	now := monday08
	_, err := planning.Commit(context.Background(), contract.CommitSlotRequest{
		OrderTaskID: printTask.ID,
		Start:       at(0, 8, 0),
		MachineID:   s.press.ID,
		OperatorID:  s.ana.ID,
		Now:         &now,
	})
	require.ErrorIs(t, err, injected)
	assert.Equal(t, 2, uow.Execs())

	_, err = repository.NewSQLiteScheduledTaskRepo(s.db).GetByOrderTask(context.Background(), printTask.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	stored, err := repository.NewSQLiteOrderTaskRepo(s.db).GetByID(context.Background(), printTask.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderTaskPending, stored.Status)
}

func TestPlanning_TimelineGroupsByResource(t *testing.T) {
	s := newShop(t)
	order := s.newOrder(t, "A-1")
	_, err := s.commitMachine(taskForStep(t, order, s.stepPrint).ID, s.press.ID, s.ana.ID, at(0, 8, 0))
	require.NoError(t, err)
	_, err = s.commitProvider(taskForStep(t, order, s.stepCut).ID, s.outsource.ID, at(0, 10, 0))
	require.NoError(t, err)

	resp, err := s.planning.Timeline(context.Background(), contract.TimelineRequest{From: at(0, 0, 0), To: at(4, 0, 0)})
	require.NoError(t, err)
	require.Len(t, resp.Lanes, 2)

	press := resp.Lanes[0]
	assert.Equal(t, domain.ResourceMachine, press.Kind)
	assert.Equal(t, "Press", press.ResourceName)
	require.Len(t, press.Entries, 1)
	assert.Equal(t, "Ana", press.Entries[0].OperatorName)
	assert.Equal(t, "A-1", press.Entries[0].OrderNumber)
	assert.Equal(t, "Print", press.Entries[0].TaskName)

	provider := resp.Lanes[1]
	assert.Equal(t, domain.ResourceProvider, provider.Kind)
	assert.Equal(t, "Outsource", provider.ResourceName)
	assert.Empty(t, provider.Entries[0].OperatorName)

	_, err = s.planning.Timeline(context.Background(), contract.TimelineRequest{From: at(1, 0, 0), To: at(1, 0, 0)})
	assert.Error(t, err)
}

func (s *shop) newDueOrder(t *testing.T, number string, due *time.Time) *contract.CreateOrderResponse {
	t.Helper()
	resp, err := s.orders.CreateOrder(context.Background(), contract.CreateOrderRequest{
		ProductID:   s.flyer.ID,
		OrderNumber: number,
		Quantity:    120,
		Width:       70,
		Height:      100,
		DueDate:     due,
	})
	require.NoError(t, err)
	return resp
}

func TestPlanning_OrderRisksSortsByUrgency(t *testing.T) {
	s := newShop(t)
	today := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	nextWeek := today.AddDate(0, 0, 7)

	s.newDueOrder(t, "NONE", nil)
	s.newDueOrder(t, "LATER", &nextWeek)
	todayOrder := s.newDueOrder(t, "TODAY", &today)
	s.newDueOrder(t, "LATE", &yesterday)

	printTask := taskForStep(t, todayOrder, s.stepPrint)
	_, err := s.commitMachine(printTask.ID, s.press.ID, s.ana.ID, at(0, 14, 0))
	require.NoError(t, err)

	risks, err := s.planning.OrderRisks(context.Background(), monday08)
	require.NoError(t, err)
	require.Len(t, risks, 4)

	var numbers []string
	for _, r := range risks {
		numbers = append(numbers, r.OrderNumber)
	}
	assert.Equal(t, []string{"LATE", "TODAY", "LATER", "NONE"}, numbers)

	assert.Equal(t, domain.RiskCritical, risks[0].Risk.Level)
	assert.Equal(t, 180, risks[0].Risk.RemainingMin)

	// Print is committed until 16:00, leaving the 60 min Cut.
	assert.Equal(t, domain.RiskAtRisk, risks[1].Risk.Level)
	assert.Equal(t, 60, risks[1].Risk.RemainingMin)
	assert.Equal(t, at(0, 17, 0), risks[1].Risk.EarliestFinish.UTC())

	assert.Equal(t, domain.RiskOnTrack, risks[2].Risk.Level)
	assert.Equal(t, domain.RiskOnTrack, risks[3].Risk.Level)
	assert.Nil(t, risks[3].Risk.DaysLeft)
}
