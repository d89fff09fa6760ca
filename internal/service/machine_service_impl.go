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

type machineService struct {
	machines repository.MachineRepo
	tasks    repository.TaskRepo
	uow      db.UnitOfWork
}

func NewMachineService(machines repository.MachineRepo, tasks repository.TaskRepo, uow db.UnitOfWork) MachineService {
	return &machineService{machines: machines, tasks: tasks, uow: uow}
}

func (s *machineService) Create(ctx context.Context, m *domain.Machine) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("machine name is required")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now().UTC()
	for i := range m.Rules {
		if m.Rules[i].ID == "" {
			m.Rules[i].ID = uuid.New().String()
		}
		m.Rules[i].MachineID = m.ID
	}
	if err := m.ValidateRules(); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTasks := repository.NewSQLiteTaskRepo(tx)
		for _, r := range m.Rules {
			if _, err := txTasks.GetByID(ctx, r.TaskID); err != nil {
				return fmt.Errorf("machine %q rule: task %s: %w", m.Name, r.TaskID, err)
			}
		}
		return repository.NewSQLiteMachineRepo(tx).Create(ctx, m)
	})
}

func (s *machineService) GetByID(ctx context.Context, id string) (*domain.Machine, error) {
	return s.machines.GetByID(ctx, id)
}

func (s *machineService) List(ctx context.Context) ([]*domain.Machine, error) {
	return s.machines.List(ctx)
}

// SetRule adds or replaces the machine's rule for rule.TaskID.
func (s *machineService) SetRule(ctx context.Context, rule *domain.MachineTaskRule) error {
	m, err := s.machines.GetByID(ctx, rule.MachineID)
	if err != nil {
		return err
	}
	if _, err := s.tasks.GetByID(ctx, rule.TaskID); err != nil {
		return fmt.Errorf("task %s: %w", rule.TaskID, err)
	}
	if existing, ok := m.RuleFor(rule.TaskID); ok {
		rule.ID = existing.ID
		*existing = *rule
	} else {
		if rule.ID == "" {
			rule.ID = uuid.New().String()
		}
		m.Rules = append(m.Rules, *rule)
	}
	if err := m.ValidateRules(); err != nil {
		return err
	}
	return s.machines.UpsertRule(ctx, rule)
}

func (s *machineService) RemoveRule(ctx context.Context, machineID, taskID string) error {
	return s.machines.DeleteRule(ctx, machineID, taskID)
}

func (s *machineService) Delete(ctx context.Context, id string) error {
	return s.machines.Delete(ctx, id)
}
