package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/slotwise/internal/cli"
	"github.com/alexanderramin/slotwise/internal/config"
	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/alexanderramin/slotwise/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	taskRepo := repository.NewSQLiteTaskRepo(database)
	machineRepo := repository.NewSQLiteMachineRepo(database)
	operatorRepo := repository.NewSQLiteOperatorRepo(database)
	providerRepo := repository.NewSQLiteProviderRepo(database)
	productRepo := repository.NewSQLiteProductRepo(database)
	orderRepo := repository.NewSQLiteOrderRepo(database)
	orderTaskRepo := repository.NewSQLiteOrderTaskRepo(database)
	scheduledRepo := repository.NewSQLiteScheduledTaskRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}

	app := &cli.App{
		Tasks:     service.NewTaskService(taskRepo),
		Machines:  service.NewMachineService(machineRepo, taskRepo, uow),
		Operators: service.NewOperatorService(operatorRepo, uow),
		Providers: service.NewProviderService(providerRepo, taskRepo, uow),
		Products:  service.NewProductService(productRepo, uow),
		Orders:    service.NewOrderService(orderRepo, orderTaskRepo, uow, cfg.RatePolicy(), observers...),
		Planning: service.NewPlanningService(orderRepo, orderTaskRepo, scheduledRepo,
			operatorRepo, machineRepo, providerRepo, uow, cfg.SearchConfig(), observers...),
		Import:   service.NewImportService(uow, observers...),
		Location: cfg.Location(),
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
