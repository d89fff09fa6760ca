package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/google/uuid"
)

type planningService struct {
	orders     repository.OrderRepo
	orderTasks repository.OrderTaskRepo
	scheduled  repository.ScheduledTaskRepo
	operators  repository.OperatorRepo
	machines   repository.MachineRepo
	providers  repository.ProviderRepo
	uow        db.UnitOfWork
	cfg        scheduler.SearchConfig
	observer   UseCaseObserver
}

func NewPlanningService(
	orders repository.OrderRepo,
	orderTasks repository.OrderTaskRepo,
	scheduled repository.ScheduledTaskRepo,
	operators repository.OperatorRepo,
	machines repository.MachineRepo,
	providers repository.ProviderRepo,
	uow db.UnitOfWork,
	cfg scheduler.SearchConfig,
	observers ...UseCaseObserver,
) PlanningService {
	return &planningService{
		orders:     orders,
		orderTasks: orderTasks,
		scheduled:  scheduled,
		operators:  operators,
		machines:   machines,
		providers:  providers,
		uow:        uow,
		cfg:        cfg,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *planningService) Frontier(ctx context.Context, orderID string) ([]domain.OrderTask, error) {
	if orderID != "" {
		tasks, err := s.orderTasks.ListByOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return scheduler.Frontier(tasks), nil
	}

	pending, err := s.orderTasks.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	var ready []domain.OrderTask
	seen := map[string]bool{}
	for _, t := range pending {
		if seen[t.OrderID] {
			continue
		}
		seen[t.OrderID] = true
		tasks, err := s.orderTasks.ListByOrder(ctx, t.OrderID)
		if err != nil {
			return nil, err
		}
		ready = append(ready, scheduler.Frontier(tasks)...)
	}
	return ready, nil
}

// loadSearchInput reads the snapshot one search runs against: the task, its
// order's tasks, every entry that could block the horizon and the
// operators the task's machines reference. Missing operators are left out so
// the engine reports them as a data integrity problem.
func (s *planningService) loadSearchInput(ctx context.Context, orderTaskID string, now time.Time) (scheduler.SearchInput, error) {
	task, err := s.orderTasks.GetByID(ctx, orderTaskID)
	if err != nil {
		return scheduler.SearchInput{}, fmt.Errorf("order task %s: %w", orderTaskID, err)
	}
	orderTasks, err := s.orderTasks.ListByOrder(ctx, task.OrderID)
	if err != nil {
		return scheduler.SearchInput{}, err
	}
	own, err := s.scheduled.ListByOrder(ctx, task.OrderID)
	if err != nil {
		return scheduler.SearchInput{}, err
	}

	floor := scheduler.EarliestStart(*task, orderTasks, own, now)
	window, err := s.scheduled.ListBetween(ctx, floor, floor.Add(s.cfg.Horizon))
	if err != nil {
		return scheduler.SearchInput{}, err
	}

	in := scheduler.SearchInput{
		Task:       *task,
		OrderTasks: orderTasks,
		Scheduled:  mergeScheduled(own, window),
		Now:        now,
	}

	seenOps := map[string]bool{}
	for _, m := range task.Resources.Machines {
		for _, opID := range m.OperatorIDs {
			if seenOps[opID] {
				continue
			}
			seenOps[opID] = true
			op, err := s.operators.GetByID(ctx, opID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return scheduler.SearchInput{}, err
			}
			in.Operators = append(in.Operators, *op)
		}
	}
	return in, nil
}

func (s *planningService) SearchSlots(ctx context.Context, req contract.SearchSlotsRequest) (resp *contract.SearchSlotsResponse, err error) {
	uc := startUseCase("search-slots", map[string]any{"order_task_id": req.OrderTaskID})
	defer func() { uc.finish(ctx, s.observer, err) }()

	in, err := s.loadSearchInput(ctx, req.OrderTaskID, planningNow(req.Now))
	if err != nil {
		return nil, err
	}
	result, err := scheduler.SearchSlots(in, s.cfg)
	if err != nil {
		return nil, err
	}
	uc.fields["state"] = string(result.State)
	uc.fields["slots"] = len(result.Slots)
	uc.fields["blockers"] = len(result.Blockers)
	return &contract.SearchSlotsResponse{Task: in.Task, Result: result}, nil
}

func (s *planningService) ListWindows(ctx context.Context, req contract.SearchSlotsRequest) (resp *contract.ListWindowsResponse, err error) {
	uc := startUseCase("list-windows", map[string]any{"order_task_id": req.OrderTaskID})
	defer func() { uc.finish(ctx, s.observer, err) }()

	now := planningNow(req.Now)
	in, err := s.loadSearchInput(ctx, req.OrderTaskID, now)
	if err != nil {
		return nil, err
	}
	machines, err := scheduler.ListWindows(in, s.cfg)
	if err != nil {
		return nil, err
	}
	floor := scheduler.EarliestStart(in.Task, in.OrderTasks, in.Scheduled, now)
	uc.fields["machines"] = len(machines)
	return &contract.ListWindowsResponse{
		Task:       in.Task,
		Floor:      floor,
		HorizonEnd: floor.Add(s.cfg.Horizon),
		Machines:   machines,
	}, nil
}

// Commit stores the placement, flips the order task to scheduled and marks
// the order planned once all of its tasks are scheduled. Conflicts are
// re-checked inside the same transaction as the insert.
func (s *planningService) Commit(ctx context.Context, req contract.CommitSlotRequest) (resp *contract.CommitSlotResponse, err error) {
	uc := startUseCase("commit-slot", map[string]any{
		"order_task_id": req.OrderTaskID,
		"start":         req.Start.UTC().Format(time.RFC3339),
	})
	defer func() { uc.finish(ctx, s.observer, err) }()

	now := planningNow(req.Now)
	start := req.Start.UTC()
	if !start.Truncate(time.Second).Equal(start) {
		return nil, fmt.Errorf("start %s: sub-second precision is not supported", start.Format(time.RFC3339Nano))
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txOrderTasks := repository.NewSQLiteOrderTaskRepo(tx)
		txScheduled := repository.NewSQLiteScheduledTaskRepo(tx)

		task, err := txOrderTasks.GetByID(ctx, req.OrderTaskID)
		if err != nil {
			return fmt.Errorf("order task %s: %w", req.OrderTaskID, err)
		}
		if task.IsScheduled() {
			return fmt.Errorf("order task %s: %w", task.ID, domain.ErrAlreadyScheduled)
		}
		orderTasks, err := txOrderTasks.ListByOrder(ctx, task.OrderID)
		if err != nil {
			return err
		}
		if !scheduler.IsPlannable(*task, orderTasks) {
			return fmt.Errorf("order task %s: %w", task.ID, domain.ErrPrerequisitesPending)
		}
		own, err := txScheduled.ListByOrder(ctx, task.OrderID)
		if err != nil {
			return err
		}
		if floor := scheduler.EarliestStart(*task, orderTasks, own, time.Time{}); start.Before(floor) {
			return fmt.Errorf("order task %s: start %s, prerequisites end %s: %w",
				task.ID, start.Format(time.RFC3339), floor.Format(time.RFC3339), domain.ErrBeforePrerequisites)
		}

		st := &domain.ScheduledTask{
			ID:          uuid.New().String(),
			OrderTaskID: task.ID,
			Start:       start,
			MachineID:   domain.StrPtr(req.MachineID),
			OperatorID:  domain.StrPtr(req.OperatorID),
			ProviderID:  domain.StrPtr(req.ProviderID),
			CreatedAt:   now,
		}
		if err := s.placeOnResource(ctx, tx, task, st); err != nil {
			return err
		}
		if err := st.Validate(); err != nil {
			return err
		}
		if err := txScheduled.Create(ctx, st); err != nil {
			return err
		}
		if err := txOrderTasks.MarkScheduled(ctx, task.ID, now); err != nil {
			return err
		}

		resp = &contract.CommitSlotResponse{Scheduled: st}
		for _, t := range orderTasks {
			if t.ID != task.ID && !t.IsScheduled() {
				return nil
			}
		}
		if err := repository.NewSQLiteOrderRepo(tx).UpdateStatus(ctx, task.OrderID, domain.OrderPlanned, now); err != nil {
			return err
		}
		resp.OrderPlanned = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.fields["kind"] = string(resp.Scheduled.Kind())
	uc.fields["order_planned"] = resp.OrderPlanned
	return resp, nil
}

// placeOnResource checks the requested resource against the task snapshot,
// sets the end time and rejects double bookings.
func (s *planningService) placeOnResource(ctx context.Context, tx db.DBTX, task *domain.OrderTask, st *domain.ScheduledTask) error {
	switch {
	case st.MachineID != nil && st.ProviderID != nil:
		return fmt.Errorf("choose either a machine or a provider, not both")
	case st.ProviderID != nil:
		res, ok := task.Resources.Provider(*st.ProviderID)
		if !ok {
			return fmt.Errorf("provider %s: %w", *st.ProviderID, domain.ErrNotCandidate)
		}
		if st.OperatorID != nil {
			return fmt.Errorf("provider assignments take no operator")
		}
		st.End = scheduler.ProviderWindow(st.Start, res.DurationMin).End
		return nil
	case st.MachineID != nil:
		res, ok := task.Resources.Machine(*st.MachineID)
		if !ok {
			return fmt.Errorf("machine %s: %w", *st.MachineID, domain.ErrNotCandidate)
		}
		if res.DurationMin <= 0 {
			return &domain.ConfigurationError{MachineID: res.MachineID, TaskID: task.TaskID, Reason: domain.ErrMachineUnusable.Error()}
		}
		if st.OperatorID == nil {
			return fmt.Errorf("machine assignments need an operator")
		}
		st.End = st.Start.Add(time.Duration(res.DurationMin) * time.Minute)
		if err := s.checkOperator(ctx, tx, res, *st.OperatorID, st.Start, st.End); err != nil {
			return err
		}
		return checkConflicts(ctx, repository.NewSQLiteScheduledTaskRepo(tx), st)
	default:
		return fmt.Errorf("a machine or a provider is required")
	}
}

func (s *planningService) checkOperator(ctx context.Context, tx db.DBTX, res *domain.MachineResource, operatorID string, start, end time.Time) error {
	listed := false
	for _, id := range res.OperatorIDs {
		if id == operatorID {
			listed = true
			break
		}
	}
	if !listed {
		return fmt.Errorf("operator %s on machine %s: %w", operatorID, res.MachineID, domain.ErrNotCandidate)
	}
	op, err := repository.NewSQLiteOperatorRepo(tx).GetByID(ctx, operatorID)
	if err != nil {
		return fmt.Errorf("operator %s: %w", operatorID, err)
	}
	if !op.SkilledOn(res.MachineID) {
		return fmt.Errorf("operator %s is no longer skilled on machine %s: %w", op.Name, res.MachineName, domain.ErrNotCandidate)
	}

	shifts, err := scheduler.ShiftWindows(op.Schedule, start, end, s.cfg.Location)
	if err != nil {
		return err
	}
	window := scheduler.Interval{Start: start, End: end}
	for _, iv := range scheduler.Merge(shifts) {
		if iv.Contains(window) {
			return nil
		}
	}
	return fmt.Errorf("operator %s between %s and %s: %w",
		op.Name, start.Format(time.RFC3339), end.Format(time.RFC3339), domain.ErrOutsideShift)
}

func checkConflicts(ctx context.Context, scheduled *repository.SQLiteScheduledTaskRepo, st *domain.ScheduledTask) error {
	conflicts, err := scheduled.FindConflicts(ctx, domain.StrVal(st.MachineID), domain.StrVal(st.OperatorID), st.Start, st.End)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	c := conflicts[0]
	kind, id := domain.ResourceMachine, domain.StrVal(st.MachineID)
	if domain.StrVal(c.MachineID) != id {
		kind, id = domain.ResourceOperator, domain.StrVal(st.OperatorID)
	}
	return &domain.ConflictError{ResourceKind: kind, ResourceID: id, ExistingID: c.ID, Start: c.Start, End: c.End}
}

func (s *planningService) ScheduledForOrder(ctx context.Context, orderID string) ([]domain.ScheduledTask, error) {
	return s.scheduled.ListByOrder(ctx, orderID)
}

func (s *planningService) OrderRisks(ctx context.Context, now time.Time) ([]scheduler.OrderUrgency, error) {
	status := domain.OrderPending
	orders, err := s.orders.List(ctx, &status)
	if err != nil {
		return nil, fmt.Errorf("listing pending orders: %w", err)
	}

	out := make([]scheduler.OrderUrgency, 0, len(orders))
	for _, o := range orders {
		tasks, err := s.orderTasks.ListByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		committed, err := s.scheduled.ListByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}

		in := scheduler.OrderRiskInput{Now: now, DueDate: o.DueDate}
		for _, st := range committed {
			if st.End.After(in.PlannedEnd) {
				in.PlannedEnd = st.End
			}
		}
		for _, t := range tasks {
			if !t.IsScheduled() {
				in.RemainingMin += scheduler.ShortestDuration(t)
			}
		}

		out = append(out, scheduler.OrderUrgency{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			DueDate:     o.DueDate,
			CreatedAt:   o.CreatedAt,
			Risk:        scheduler.ComputeOrderRisk(in),
			Scheduled:   len(committed),
			Total:       len(tasks),
		})
	}
	scheduler.SortByUrgency(out)
	return out, nil
}

func (s *planningService) Timeline(ctx context.Context, req contract.TimelineRequest) (resp *contract.TimelineResponse, err error) {
	if !req.To.After(req.From) {
		return nil, fmt.Errorf("timeline range must end after it starts")
	}
	entries, err := s.scheduled.ListBetween(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}

	names := newNameCache(s)
	lanes := map[string]*contract.TimelineLane{}
	for _, st := range entries {
		ot, err := names.orderTask(ctx, st.OrderTaskID)
		if err != nil {
			return nil, err
		}
		order, err := names.order(ctx, ot.OrderID)
		if err != nil {
			return nil, err
		}
		entry := contract.TimelineEntry{
			Scheduled:   st,
			OrderID:     order.ID,
			OrderNumber: order.DisplayID(),
			TaskName:    ot.TaskName,
		}

		var laneKey, resourceID, resourceName string
		kind := st.Kind()
		if kind == domain.ResourceProvider {
			resourceID = domain.StrVal(st.ProviderID)
			if resourceName, err = names.provider(ctx, resourceID); err != nil {
				return nil, err
			}
		} else {
			resourceID = domain.StrVal(st.MachineID)
			if resourceName, err = names.machine(ctx, resourceID); err != nil {
				return nil, err
			}
			if entry.OperatorName, err = names.operator(ctx, domain.StrVal(st.OperatorID)); err != nil {
				return nil, err
			}
		}
		laneKey = string(kind) + ":" + resourceID

		lane, ok := lanes[laneKey]
		if !ok {
			lane = &contract.TimelineLane{Kind: kind, ResourceID: resourceID, ResourceName: resourceName}
			lanes[laneKey] = lane
		}
		lane.Entries = append(lane.Entries, entry)
	}

	resp = &contract.TimelineResponse{From: req.From, To: req.To}
	for _, lane := range lanes {
		resp.Lanes = append(resp.Lanes, *lane)
	}
	sort.Slice(resp.Lanes, func(i, j int) bool {
		a, b := resp.Lanes[i], resp.Lanes[j]
		if a.Kind != b.Kind {
			return a.Kind == domain.ResourceMachine
		}
		return a.ResourceName < b.ResourceName
	})
	return resp, nil
}

// nameCache resolves display names for timeline rows.
type nameCache struct {
	s          *planningService
	orderTasks map[string]*domain.OrderTask
	orders     map[string]*domain.Order
	labels     map[string]string
}

func newNameCache(s *planningService) *nameCache {
	return &nameCache{
		s:          s,
		orderTasks: map[string]*domain.OrderTask{},
		orders:     map[string]*domain.Order{},
		labels:     map[string]string{},
	}
}

func (c *nameCache) orderTask(ctx context.Context, id string) (*domain.OrderTask, error) {
	if ot, ok := c.orderTasks[id]; ok {
		return ot, nil
	}
	ot, err := c.s.orderTasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.orderTasks[id] = ot
	return ot, nil
}

func (c *nameCache) order(ctx context.Context, id string) (*domain.Order, error) {
	if o, ok := c.orders[id]; ok {
		return o, nil
	}
	o, err := c.s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.orders[id] = o
	return o, nil
}

func (c *nameCache) label(key string, load func() (string, error)) (string, error) {
	if v, ok := c.labels[key]; ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return "", err
	}
	c.labels[key] = v
	return v, nil
}

func (c *nameCache) machine(ctx context.Context, id string) (string, error) {
	return c.label("m:"+id, func() (string, error) {
		m, err := c.s.machines.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return m.Name, nil
	})
}

func (c *nameCache) provider(ctx context.Context, id string) (string, error) {
	return c.label("p:"+id, func() (string, error) {
		p, err := c.s.providers.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	})
}

func (c *nameCache) operator(ctx context.Context, id string) (string, error) {
	return c.label("o:"+id, func() (string, error) {
		o, err := c.s.operators.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return o.Name, nil
	})
}
