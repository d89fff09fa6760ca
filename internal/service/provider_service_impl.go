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

type providerService struct {
	providers repository.ProviderRepo
	tasks     repository.TaskRepo
	uow       db.UnitOfWork
}

func NewProviderService(providers repository.ProviderRepo, tasks repository.TaskRepo, uow db.UnitOfWork) ProviderService {
	return &providerService{providers: providers, tasks: tasks, uow: uow}
}

func validateProviderRule(r domain.ProviderTaskRule) error {
	if r.TaskID == "" {
		return fmt.Errorf("provider rule without task")
	}
	if r.DeliveryTimeDays < 0 {
		return fmt.Errorf("task %s: delivery time must not be negative", r.TaskID)
	}
	return nil
}

func (s *providerService) Create(ctx context.Context, p *domain.Provider) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()
	seen := make(map[string]bool, len(p.Rules))
	for i := range p.Rules {
		r := &p.Rules[i]
		if err := validateProviderRule(*r); err != nil {
			return fmt.Errorf("provider %q: %w", p.Name, err)
		}
		if seen[r.TaskID] {
			return fmt.Errorf("provider %q: duplicate rule for task %s", p.Name, r.TaskID)
		}
		seen[r.TaskID] = true
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.ProviderID = p.ID
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTasks := repository.NewSQLiteTaskRepo(tx)
		for _, r := range p.Rules {
			if _, err := txTasks.GetByID(ctx, r.TaskID); err != nil {
				return fmt.Errorf("provider %q rule: task %s: %w", p.Name, r.TaskID, err)
			}
		}
		return repository.NewSQLiteProviderRepo(tx).Create(ctx, p)
	})
}

func (s *providerService) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *providerService) List(ctx context.Context) ([]*domain.Provider, error) {
	return s.providers.List(ctx)
}

func (s *providerService) SetRule(ctx context.Context, rule *domain.ProviderTaskRule) error {
	if err := validateProviderRule(*rule); err != nil {
		return err
	}
	if _, err := s.providers.GetByID(ctx, rule.ProviderID); err != nil {
		return err
	}
	if _, err := s.tasks.GetByID(ctx, rule.TaskID); err != nil {
		return fmt.Errorf("task %s: %w", rule.TaskID, err)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	return s.providers.UpsertRule(ctx, rule)
}

func (s *providerService) Delete(ctx context.Context, id string) error {
	return s.providers.Delete(ctx, id)
}
