package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/alexanderramin/slotwise/internal/testutil"
	"github.com/stretchr/testify/require"
)

// monday08 is the planning clock used by service tests.
var monday08 = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func at(day, h, m int) time.Time {
	return monday08.Add(time.Duration(day)*24*time.Hour + time.Duration(h-8)*time.Hour + time.Duration(m)*time.Minute)
}

// shop is a small print shop: Print runs on Press (Ana or Ben), Cut runs on
// Guillotine (Ana only) or at the Outsource provider with a two-day lead.
type shop struct {
	db  *sql.DB
	uow db.UnitOfWork
	obs *recordingObserver

	print, cut         *domain.Task
	press, guillotine  *domain.Machine
	ana, ben           *domain.Operator
	outsource          *domain.Provider
	flyer              *domain.Product
	stepPrint, stepCut string

	orders   OrderService
	planning PlanningService
}

func testSearchConfig() scheduler.SearchConfig {
	cfg := scheduler.DefaultSearchConfig()
	cfg.Location = time.UTC
	return cfg
}

func newShop(t *testing.T) *shop {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	s := &shop{db: database, uow: testutil.NewTestUoW(database), obs: &recordingObserver{}}

	tasks := repository.NewSQLiteTaskRepo(database)
	s.print = testutil.NewTestTask("Print")
	s.cut = testutil.NewTestTask("Cut")
	require.NoError(t, tasks.Create(ctx, s.print))
	require.NoError(t, tasks.Create(ctx, s.cut))

	machines := repository.NewSQLiteMachineRepo(database)
	s.press = testutil.NewTestMachine("Press", testutil.WithRule(s.print.ID, domain.FlatRate(domain.ModeSheet, 60)))
	s.guillotine = testutil.NewTestMachine("Guillotine", testutil.WithRule(s.cut.ID, domain.FlatRate(domain.ModeSheet, 120)))
	require.NoError(t, machines.Create(ctx, s.press))
	require.NoError(t, machines.Create(ctx, s.guillotine))

	operators := repository.NewSQLiteOperatorRepo(database)
	s.ana = testutil.NewTestOperator("Ana", testutil.WithSkills(s.press.ID, s.guillotine.ID))
	s.ben = testutil.NewTestOperator("Ben", testutil.WithSkills(s.press.ID))
	require.NoError(t, operators.Create(ctx, s.ana))
	require.NoError(t, operators.Create(ctx, s.ben))

	s.outsource = testutil.NewTestProvider("Outsource", testutil.WithDelivery(s.cut.ID, 2))
	require.NoError(t, repository.NewSQLiteProviderRepo(database).Create(ctx, s.outsource))

	s.stepPrint, s.stepCut = "s-print", "s-cut"
	s.flyer = testutil.NewTestProduct("Flyer",
		testutil.NewTestStep(s.stepPrint, s.print.ID),
		testutil.NewTestStep(s.stepCut, s.cut.ID, testutil.After(s.stepPrint)),
	)
	require.NoError(t, repository.NewSQLiteProductRepo(database).Create(ctx, s.flyer))

	s.orders = s.orderService(s.uow)
	s.planning = s.planningService(s.uow)
	return s
}

func (s *shop) orderService(uow db.UnitOfWork) OrderService {
	return NewOrderService(
		repository.NewSQLiteOrderRepo(s.db),
		repository.NewSQLiteOrderTaskRepo(s.db),
		uow,
		scheduler.DefaultRatePolicy(),
		s.obs,
	)
}

func (s *shop) planningService(uow db.UnitOfWork) PlanningService {
	return NewPlanningService(
		repository.NewSQLiteOrderRepo(s.db),
		repository.NewSQLiteOrderTaskRepo(s.db),
		repository.NewSQLiteScheduledTaskRepo(s.db),
		repository.NewSQLiteOperatorRepo(s.db),
		repository.NewSQLiteMachineRepo(s.db),
		repository.NewSQLiteProviderRepo(s.db),
		uow,
		testSearchConfig(),
		s.obs,
	)
}

// newOrder creates a flyer order of 120 sheets: Print takes 120 min on
// Press, Cut 60 min on Guillotine.
func (s *shop) newOrder(t *testing.T, number string) *contract.CreateOrderResponse {
	t.Helper()
	resp, err := s.orders.CreateOrder(context.Background(), contract.CreateOrderRequest{
		ProductID:   s.flyer.ID,
		OrderNumber: number,
		Quantity:    120,
		Width:       70,
		Height:      100,
	})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 2)
	return resp
}

func (s *shop) search(t *testing.T, orderTaskID string, now time.Time) scheduler.SearchResult {
	t.Helper()
	req := contract.NewSearchSlotsRequest(orderTaskID)
	req.Now = &now
	resp, err := s.planning.SearchSlots(context.Background(), req)
	require.NoError(t, err)
	return resp.Result
}

func (s *shop) commitMachine(orderTaskID, machineID, operatorID string, start time.Time) (*contract.CommitSlotResponse, error) {
	now := monday08
	return s.planning.Commit(context.Background(), contract.CommitSlotRequest{
		OrderTaskID: orderTaskID,
		Start:       start,
		MachineID:   machineID,
		OperatorID:  operatorID,
		Now:         &now,
	})
}

func (s *shop) commitProvider(orderTaskID, providerID string, start time.Time) (*contract.CommitSlotResponse, error) {
	now := monday08
	return s.planning.Commit(context.Background(), contract.CommitSlotRequest{
		OrderTaskID: orderTaskID,
		Start:       start,
		ProviderID:  providerID,
		Now:         &now,
	})
}
