package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetByName(ctx context.Context, name string) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// MachineRepo persists machines together with their per-task rules.
type MachineRepo interface {
	Create(ctx context.Context, m *domain.Machine) error
	GetByID(ctx context.Context, id string) (*domain.Machine, error)
	GetByName(ctx context.Context, name string) (*domain.Machine, error)
	List(ctx context.Context) ([]*domain.Machine, error)
	UpsertRule(ctx context.Context, r *domain.MachineTaskRule) error
	DeleteRule(ctx context.Context, machineID, taskID string) error
	ListRulesByTask(ctx context.Context, taskID string) ([]domain.MachineTaskRule, error)
	Delete(ctx context.Context, id string) error
}

// OperatorRepo persists operators, their weekly schedule and machine skills.
type OperatorRepo interface {
	Create(ctx context.Context, o *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	List(ctx context.Context) ([]*domain.Operator, error)
	ListByMachine(ctx context.Context, machineID string) ([]*domain.Operator, error)
	Update(ctx context.Context, o *domain.Operator) error
	Delete(ctx context.Context, id string) error
}

type ProviderRepo interface {
	Create(ctx context.Context, p *domain.Provider) error
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	GetByName(ctx context.Context, name string) (*domain.Provider, error)
	List(ctx context.Context) ([]*domain.Provider, error)
	UpsertRule(ctx context.Context, r *domain.ProviderTaskRule) error
	ListRulesByTask(ctx context.Context, taskID string) ([]domain.ProviderTaskRule, error)
	Delete(ctx context.Context, id string) error
}

// ProductRepo persists products with their workflow steps.
type ProductRepo interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, now time.Time) error
	Delete(ctx context.Context, id string) error
}

type OrderTaskRepo interface {
	Create(ctx context.Context, t *domain.OrderTask) error
	GetByID(ctx context.Context, id string) (*domain.OrderTask, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.OrderTask, error)
	ListPending(ctx context.Context) ([]domain.OrderTask, error)
	// MarkScheduled flips a pending task to scheduled. It fails with
	// domain.ErrAlreadyScheduled if the task is not pending.
	MarkScheduled(ctx context.Context, id string, now time.Time) error
}

type ScheduledTaskRepo interface {
	Create(ctx context.Context, st *domain.ScheduledTask) error
	GetByOrderTask(ctx context.Context, orderTaskID string) (*domain.ScheduledTask, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.ScheduledTask, error)
	// ListBetween returns entries overlapping [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.ScheduledTask, error)
	// FindConflicts returns entries overlapping [start, end) on the machine
	// or operator. Empty ids are ignored.
	FindConflicts(ctx context.Context, machineID, operatorID string, start, end time.Time) ([]domain.ScheduledTask, error)
}
