package service

import (
	"context"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/importer"
	"github.com/alexanderramin/slotwise/internal/scheduler"
)

type TaskService interface {
	Create(ctx context.Context, name string) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type MachineService interface {
	Create(ctx context.Context, m *domain.Machine) error
	GetByID(ctx context.Context, id string) (*domain.Machine, error)
	List(ctx context.Context) ([]*domain.Machine, error)
	SetRule(ctx context.Context, rule *domain.MachineTaskRule) error
	RemoveRule(ctx context.Context, machineID, taskID string) error
	Delete(ctx context.Context, id string) error
}

type OperatorService interface {
	Create(ctx context.Context, o *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	List(ctx context.Context) ([]*domain.Operator, error)
	Update(ctx context.Context, o *domain.Operator) error
	Delete(ctx context.Context, id string) error
}

type ProviderService interface {
	Create(ctx context.Context, p *domain.Provider) error
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	List(ctx context.Context) ([]*domain.Provider, error)
	SetRule(ctx context.Context, rule *domain.ProviderTaskRule) error
	Delete(ctx context.Context, id string) error
}

type ProductService interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, req contract.CreateOrderRequest) (*contract.CreateOrderResponse, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error)
	ListTasks(ctx context.Context, orderID string) ([]domain.OrderTask, error)
	Delete(ctx context.Context, id string) error
}

// PlanningService drives one order task from search to a committed slot.
type PlanningService interface {
	// Frontier lists pending order tasks whose prerequisites are all
	// scheduled. An empty orderID spans every pending order.
	Frontier(ctx context.Context, orderID string) ([]domain.OrderTask, error)
	SearchSlots(ctx context.Context, req contract.SearchSlotsRequest) (*contract.SearchSlotsResponse, error)
	ListWindows(ctx context.Context, req contract.SearchSlotsRequest) (*contract.ListWindowsResponse, error)
	Commit(ctx context.Context, req contract.CommitSlotRequest) (*contract.CommitSlotResponse, error)
	// ScheduledForOrder returns the committed assignments of an order.
	ScheduledForOrder(ctx context.Context, orderID string) ([]domain.ScheduledTask, error)
	// OrderRisks grades every pending order against its due date, most
	// urgent first.
	OrderRisks(ctx context.Context, now time.Time) ([]scheduler.OrderUrgency, error)
	Timeline(ctx context.Context, req contract.TimelineRequest) (*contract.TimelineResponse, error)
}

type ImportService interface {
	ImportCatalog(ctx context.Context, filePath string) (*contract.ImportResult, error)
	ImportCatalogFromSchema(ctx context.Context, schema *importer.CatalogSchema) (*contract.ImportResult, error)
}
