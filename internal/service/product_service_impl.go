package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/google/uuid"
)

type productService struct {
	products repository.ProductRepo
	uow      db.UnitOfWork
}

func NewProductService(products repository.ProductRepo, uow db.UnitOfWork) ProductService {
	return &productService{products: products, uow: uow}
}

// Create stores a product after checking that its workflow is a DAG over
// existing tasks. Steps without an id get one; positions follow slice order.
func (s *productService) Create(ctx context.Context, p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if len(p.Workflow) == 0 {
		return fmt.Errorf("product %q: workflow must contain at least one step", p.Name)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()
	for i := range p.Workflow {
		if p.Workflow[i].ID == "" {
			p.Workflow[i].ID = uuid.New().String()
		}
		p.Workflow[i].ProductID = p.ID
		p.Workflow[i].Position = i
	}
	if err := p.ValidateWorkflow(); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTasks := repository.NewSQLiteTaskRepo(tx)
		for _, step := range p.Workflow {
			if _, err := txTasks.GetByID(ctx, step.TaskID); err != nil {
				return fmt.Errorf("product %q step %s: task %s: %w", p.Name, step.ID, step.TaskID, err)
			}
		}
		return repository.NewSQLiteProductRepo(tx).Create(ctx, p)
	})
}

func (s *productService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
