package cli

import (
	"time"

	"github.com/alexanderramin/slotwise/internal/app"
	"github.com/alexanderramin/slotwise/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Tasks     service.TaskService
	Machines  service.MachineService
	Operators service.OperatorService
	Providers service.ProviderService
	Products  service.ProductService
	Orders    service.OrderService
	Planning  service.PlanningService
	Import    service.ImportService

	// Use-case overrides. When nil the matching service above is used.
	CreateOrder   app.CreateOrderUseCase
	SearchSlots   app.SearchSlotsUseCase
	CommitSlot    app.CommitSlotUseCase
	ImportCatalog app.ImportCatalogUseCase

	// Location is the shop's timezone for parsing and printing times.
	Location *time.Location
	// Now overrides the planning clock; nil means wall time.
	Now func() time.Time
	// IsInteractive reports whether stdin is a terminal. Forms and the
	// planning board only run when it returns true.
	IsInteractive func() bool
}

func (a *App) loc() *time.Location {
	if a.Location == nil {
		return time.Local
	}
	return a.Location
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "slotwise" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "slotwise",
		Short:         "Production slot planner for print shops",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTaskCmd(app),
		newMachineCmd(app),
		newOperatorCmd(app),
		newProviderCmd(app),
		newProductCmd(app),
		newOrderCmd(app),
		newPlanCmd(app),
		newScheduleCmd(app),
		newImportCmd(app),
	)

	return root
}
