package app

import (
	"context"

	"github.com/alexanderramin/slotwise/internal/importer"
)

type CreateOrderUseCase interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)
}

type SearchSlotsUseCase interface {
	SearchSlots(ctx context.Context, req SearchSlotsRequest) (*SearchSlotsResponse, error)
}

type ListWindowsUseCase interface {
	ListWindows(ctx context.Context, req SearchSlotsRequest) (*ListWindowsResponse, error)
}

type CommitSlotUseCase interface {
	Commit(ctx context.Context, req CommitSlotRequest) (*CommitSlotResponse, error)
}

type TimelineUseCase interface {
	Timeline(ctx context.Context, req TimelineRequest) (*TimelineResponse, error)
}

// ImportResult counts the catalog entities written by an import.
type ImportResult struct {
	TaskCount     int
	MachineCount  int
	RuleCount     int
	OperatorCount int
	ProviderCount int
	ProductCount  int
	Warnings      []string
}

type ImportCatalogUseCase interface {
	ImportCatalog(ctx context.Context, filePath string) (*ImportResult, error)
	ImportCatalogFromSchema(ctx context.Context, schema *importer.CatalogSchema) (*ImportResult, error)
}
