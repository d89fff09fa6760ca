package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/google/uuid"
)

type operatorService struct {
	operators repository.OperatorRepo
	uow       db.UnitOfWork
}

func NewOperatorService(operators repository.OperatorRepo, uow db.UnitOfWork) OperatorService {
	return &operatorService{operators: operators, uow: uow}
}

func (s *operatorService) validate(ctx context.Context, tx db.DBTX, o *domain.Operator) error {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		return fmt.Errorf("operator name is required")
	}
	if err := o.Schedule.Validate(); err != nil {
		return fmt.Errorf("operator %q: %w", o.Name, err)
	}
	machines := repository.NewSQLiteMachineRepo(tx)
	for _, id := range o.MachineIDs {
		if _, err := machines.GetByID(ctx, id); err != nil {
			return fmt.Errorf("operator %q skill: machine %s: %w", o.Name, id, err)
		}
	}
	sort.Strings(o.MachineIDs)
	return nil
}

func (s *operatorService) Create(ctx context.Context, o *domain.Operator) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.WithDefaults()
	o.CreatedAt = time.Now().UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := s.validate(ctx, tx, o); err != nil {
			return err
		}
		return repository.NewSQLiteOperatorRepo(tx).Create(ctx, o)
	})
}

func (s *operatorService) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	return s.operators.GetByID(ctx, id)
}

func (s *operatorService) List(ctx context.Context) ([]*domain.Operator, error) {
	return s.operators.List(ctx)
}

// Update replaces the operator's name, type, schedule and skills. Existing
// scheduled tasks are left untouched.
func (s *operatorService) Update(ctx context.Context, o *domain.Operator) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := s.validate(ctx, tx, o); err != nil {
			return err
		}
		return repository.NewSQLiteOperatorRepo(tx).Update(ctx, o)
	})
}

func (s *operatorService) Delete(ctx context.Context, id string) error {
	return s.operators.Delete(ctx, id)
}
