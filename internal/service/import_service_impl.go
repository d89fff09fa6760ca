package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/importer"
	"github.com/alexanderramin/slotwise/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportCatalog(ctx context.Context, filePath string) (*contract.ImportResult, error) {
	schema, err := importer.LoadCatalogSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportCatalogFromSchema(ctx context.Context, schema *importer.CatalogSchema) (*contract.ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema writes the whole catalog in one transaction; any failure
// leaves the database unchanged.
func (s *importService) importSchema(ctx context.Context, schema *importer.CatalogSchema) (result *contract.ImportResult, err error) {
	uc := startUseCase("import-catalog", nil)
	defer func() { uc.finish(ctx, s.observer, err) }()

	if errs := importer.ValidateCatalogSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting catalog: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		for _, t := range generated.Tasks {
			if err := tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("creating task %q: %w", t.Name, err)
			}
		}
		machines := repository.NewSQLiteMachineRepo(tx)
		for _, m := range generated.Machines {
			if err := machines.Create(ctx, m); err != nil {
				return fmt.Errorf("creating machine %q: %w", m.Name, err)
			}
		}
		operators := repository.NewSQLiteOperatorRepo(tx)
		for _, o := range generated.Operators {
			if err := operators.Create(ctx, o); err != nil {
				return fmt.Errorf("creating operator %q: %w", o.Name, err)
			}
		}
		providers := repository.NewSQLiteProviderRepo(tx)
		for _, p := range generated.Providers {
			if err := providers.Create(ctx, p); err != nil {
				return fmt.Errorf("creating provider %q: %w", p.Name, err)
			}
		}
		products := repository.NewSQLiteProductRepo(tx)
		for _, p := range generated.Products {
			if err := products.Create(ctx, p); err != nil {
				return fmt.Errorf("creating product %q: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = &contract.ImportResult{
		TaskCount:     len(generated.Tasks),
		MachineCount:  len(generated.Machines),
		RuleCount:     generated.RuleCount(),
		OperatorCount: len(generated.Operators),
		ProviderCount: len(generated.Providers),
		ProductCount:  len(generated.Products),
		Warnings:      generated.Warnings,
	}
	uc.fields["tasks"] = result.TaskCount
	uc.fields["machines"] = result.MachineCount
	uc.fields["products"] = result.ProductCount
	return result, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
