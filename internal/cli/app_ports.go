package cli

import "github.com/alexanderramin/slotwise/internal/app"

func (a *App) createOrderUseCase() app.CreateOrderUseCase {
	if a.CreateOrder != nil {
		return a.CreateOrder
	}
	return a.Orders
}

func (a *App) searchSlotsUseCase() app.SearchSlotsUseCase {
	if a.SearchSlots != nil {
		return a.SearchSlots
	}
	return a.Planning
}

func (a *App) commitSlotUseCase() app.CommitSlotUseCase {
	if a.CommitSlot != nil {
		return a.CommitSlot
	}
	return a.Planning
}

func (a *App) importCatalogUseCase() app.ImportCatalogUseCase {
	if a.ImportCatalog != nil {
		return a.ImportCatalog
	}
	return a.Import
}
