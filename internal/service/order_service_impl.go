package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/google/uuid"
)

type orderService struct {
	orders     repository.OrderRepo
	orderTasks repository.OrderTaskRepo
	uow        db.UnitOfWork
	policy     scheduler.RatePolicy
	observer   UseCaseObserver
}

func NewOrderService(
	orders repository.OrderRepo,
	orderTasks repository.OrderTaskRepo,
	uow db.UnitOfWork,
	policy scheduler.RatePolicy,
	observers ...UseCaseObserver,
) OrderService {
	return &orderService{
		orders:     orders,
		orderTasks: orderTasks,
		uow:        uow,
		policy:     policy,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func validateOrderRequest(req contract.CreateOrderRequest) error {
	if req.Quantity <= 0 {
		return &contract.OrderError{Code: contract.OrderErrInvalidQuantity, Message: fmt.Sprintf("quantity must be > 0, got %d", req.Quantity)}
	}
	if req.Width < 0 || req.Height < 0 {
		return &contract.OrderError{Code: contract.OrderErrInvalidSize, Message: "width and height must not be negative"}
	}
	for stepID, n := range req.Configs.BlockSizes {
		if n <= 0 {
			return &contract.OrderError{Code: contract.OrderErrInvalidQuantity, Message: fmt.Sprintf("block size for step %s must be > 0", stepID)}
		}
	}
	for stepID, n := range req.Configs.Passes {
		if n <= 0 {
			return &contract.OrderError{Code: contract.OrderErrInvalidQuantity, Message: fmt.Sprintf("passes for step %s must be > 0", stepID)}
		}
	}
	return nil
}

// CreateOrder stores the order and one OrderTask per included workflow step,
// each carrying a frozen snapshot of the machines (with resolved durations
// and skilled operators) and providers able to run it. Everything is written
// in a single transaction.
func (s *orderService) CreateOrder(ctx context.Context, req contract.CreateOrderRequest) (resp *contract.CreateOrderResponse, err error) {
	uc := startUseCase("create-order", map[string]any{
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})
	defer func() { uc.finish(ctx, s.observer, err) }()

	if err = validateOrderRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:          uuid.New().String(),
		OrderNumber: strings.TrimSpace(req.OrderNumber),
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Width:       req.Width,
		Height:      req.Height,
		DueDate:     req.DueDate,
		Configs:     req.Configs,
		Status:      domain.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	resp = &contract.CreateOrderResponse{Order: order}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		product, err := repository.NewSQLiteProductRepo(tx).GetByID(ctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("product %s: %w", req.ProductID, err)
		}
		steps, err := includedSteps(product, req.Configs)
		if err != nil {
			return err
		}
		if err := repository.NewSQLiteOrderRepo(tx).Create(ctx, order); err != nil {
			return err
		}

		snap := newSnapshotter(tx, s.policy)
		txOrderTasks := repository.NewSQLiteOrderTaskRepo(tx)
		for _, step := range steps {
			ot, warnings, err := snap.orderTask(ctx, order, product, step, steps)
			if err != nil {
				return err
			}
			if err := txOrderTasks.Create(ctx, ot); err != nil {
				return err
			}
			resp.Tasks = append(resp.Tasks, *ot)
			resp.Warnings = append(resp.Warnings, warnings...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.fields["order_id"] = order.ID
	uc.fields["tasks"] = len(resp.Tasks)
	uc.fields["warnings"] = len(resp.Warnings)
	return resp, nil
}

// snapshotter resolves the capability snapshot of order tasks inside one
// transaction, caching catalog lookups.
type snapshotter struct {
	tasks     *repository.SQLiteTaskRepo
	machines  *repository.SQLiteMachineRepo
	operators *repository.SQLiteOperatorRepo
	providers *repository.SQLiteProviderRepo
	policy    scheduler.RatePolicy

	machineNames  map[string]string
	providerNames map[string]string
	skilled       map[string][]string
}

func newSnapshotter(tx db.DBTX, policy scheduler.RatePolicy) *snapshotter {
	return &snapshotter{
		tasks:         repository.NewSQLiteTaskRepo(tx),
		machines:      repository.NewSQLiteMachineRepo(tx),
		operators:     repository.NewSQLiteOperatorRepo(tx),
		providers:     repository.NewSQLiteProviderRepo(tx),
		policy:        policy,
		machineNames:  map[string]string{},
		providerNames: map[string]string{},
		skilled:       map[string][]string{},
	}
}

func (s *snapshotter) machineName(ctx context.Context, id string) (string, error) {
	if name, ok := s.machineNames[id]; ok {
		return name, nil
	}
	m, err := s.machines.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	s.machineNames[id] = m.Name
	return m.Name, nil
}

func (s *snapshotter) providerName(ctx context.Context, id string) (string, error) {
	if name, ok := s.providerNames[id]; ok {
		return name, nil
	}
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	s.providerNames[id] = p.Name
	return p.Name, nil
}

func (s *snapshotter) skilledOperators(ctx context.Context, machineID string) ([]string, error) {
	if ids, ok := s.skilled[machineID]; ok {
		return ids, nil
	}
	ops, err := s.operators.ListByMachine(ctx, machineID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ops))
	for _, o := range ops {
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)
	s.skilled[machineID] = ids
	return ids, nil
}

func (s *snapshotter) orderTask(ctx context.Context, order *domain.Order, product *domain.Product, step domain.WorkflowStep, included []domain.WorkflowStep) (*domain.OrderTask, []string, error) {
	task, err := s.tasks.GetByID(ctx, step.TaskID)
	if err != nil {
		return nil, nil, fmt.Errorf("step %s: task %s: %w", step.ID, step.TaskID, err)
	}

	in := scheduler.DurationInput{
		Quantity:  order.Quantity,
		Width:     order.Width,
		Height:    order.Height,
		BlockSize: order.Configs.BlockSize(step.ID),
		Passes:    order.Configs.PassCount(step.ID),
	}

	var warnings []string
	var res domain.PossibleResources

	rules, err := s.machines.ListRulesByTask(ctx, step.TaskID)
	if err != nil {
		return nil, nil, err
	}
	for _, rule := range rules {
		name, err := s.machineName(ctx, rule.MachineID)
		if err != nil {
			return nil, nil, err
		}
		ops, err := s.skilledOperators(ctx, rule.MachineID)
		if err != nil {
			return nil, nil, err
		}
		dur := scheduler.ResolveMachineDuration(rule, in, s.policy)
		if dur <= 0 {
			cfgErr := &domain.ConfigurationError{MachineID: rule.MachineID, TaskID: task.ID, Reason: domain.ErrMachineUnusable.Error()}
			warnings = append(warnings, fmt.Sprintf("%s on %s: %v", task.Name, name, cfgErr))
		}
		res.Machines = append(res.Machines, domain.MachineResource{
			MachineID:   rule.MachineID,
			MachineName: name,
			OperatorIDs: ops,
			DurationMin: dur,
		})
	}

	providerRules, err := s.providers.ListRulesByTask(ctx, step.TaskID)
	if err != nil {
		return nil, nil, err
	}
	for _, rule := range providerRules {
		name, err := s.providerName(ctx, rule.ProviderID)
		if err != nil {
			return nil, nil, err
		}
		res.Providers = append(res.Providers, domain.ProviderResource{
			ProviderID:   rule.ProviderID,
			ProviderName: name,
			DurationMin:  scheduler.ProviderLeadMinutes(rule.DeliveryTimeDays),
		})
	}

	if res.Empty() {
		return nil, nil, &contract.OrderError{
			Code:    contract.OrderErrNoResources,
			Message: fmt.Sprintf("no machine or provider can run task %q (step %s)", task.Name, step.ID),
		}
	}

	includedSet := make(map[string]bool, len(included))
	for _, st := range included {
		includedSet[st.ID] = true
	}

	return &domain.OrderTask{
		ID:             uuid.New().String(),
		OrderID:        order.ID,
		WorkflowStepID: step.ID,
		TaskID:         task.ID,
		TaskName:       task.Name,
		Prerequisites:  effectivePrerequisites(product, step, includedSet),
		Resources:      res,
		Status:         domain.OrderTaskPending,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.CreatedAt,
	}, warnings, nil
}

func (s *orderService) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *orderService) List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	return s.orders.List(ctx, status)
}

func (s *orderService) ListTasks(ctx context.Context, orderID string) ([]domain.OrderTask, error) {
	return s.orderTasks.ListByOrder(ctx, orderID)
}

// Delete removes an order that has nothing scheduled yet.
func (s *orderService) Delete(ctx context.Context, id string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks, err := repository.NewSQLiteOrderTaskRepo(tx).ListByOrder(ctx, id)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.IsScheduled() {
				return fmt.Errorf("order %s: %w", id, errOrderInProgress)
			}
		}
		return repository.NewSQLiteOrderRepo(tx).Delete(ctx, id)
	})
}

var errOrderInProgress = errors.New("order already has scheduled tasks")
