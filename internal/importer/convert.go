package importer

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/google/uuid"
)

// GeneratedCatalog holds the domain objects produced from a CatalogSchema.
type GeneratedCatalog struct {
	Tasks     []*domain.Task
	Machines  []*domain.Machine
	Operators []*domain.Operator
	Providers []*domain.Provider
	Products  []*domain.Product
	Warnings  []string
}

// RuleCount is the number of machine and provider task rules in the catalog.
func (g *GeneratedCatalog) RuleCount() int {
	n := 0
	for _, m := range g.Machines {
		n += len(m.Rules)
	}
	for _, p := range g.Providers {
		n += len(p.Rules)
	}
	return n
}

// Convert transforms a validated CatalogSchema into domain objects ready for persistence.
// Call ValidateCatalogSchema first; Convert assumes the schema is valid.
func Convert(schema *CatalogSchema) (*GeneratedCatalog, error) {
	now := time.Now().UTC()
	out := &GeneratedCatalog{}

	taskIDs := make(map[string]string, len(schema.Tasks))
	for _, t := range schema.Tasks {
		task := &domain.Task{ID: uuid.New().String(), Name: t.Name, CreatedAt: now}
		taskIDs[t.Ref] = task.ID
		out.Tasks = append(out.Tasks, task)
	}

	machineIDs := make(map[string]string, len(schema.Machines))
	for _, m := range schema.Machines {
		machine := &domain.Machine{ID: uuid.New().String(), Name: m.Name, CreatedAt: now}
		machineIDs[m.Ref] = machine.ID
		for _, mt := range m.Tasks {
			wt, notes, err := NormalizeWorkTimeRules(mt.WorkTimeRules)
			if err != nil {
				return nil, fmt.Errorf("machine %q task %q: %w", m.Name, mt.TaskRef, err)
			}
			for _, n := range notes {
				out.Warnings = append(out.Warnings, fmt.Sprintf("machine %q task %q: %s", m.Name, mt.TaskRef, n))
			}
			machine.Rules = append(machine.Rules, domain.MachineTaskRule{
				ID:            uuid.New().String(),
				MachineID:     machine.ID,
				TaskID:        taskIDs[mt.TaskRef],
				SetupTimeMin:  firstSet(0, mt.SetupTimeMin),
				FinishTimeMin: firstSet(0, mt.FinishTimeMin),
				WorkTime:      wt,
			})
		}
		out.Machines = append(out.Machines, machine)
	}

	for _, o := range schema.Operators {
		schedule, err := NormalizeSchedule(o.Schedule)
		if err != nil {
			return nil, fmt.Errorf("operator %q: %w", o.Name, err)
		}
		op := &domain.Operator{
			ID:        uuid.New().String(),
			Name:      o.Name,
			Type:      o.Type,
			Schedule:  schedule,
			CreatedAt: now,
		}
		op.WithDefaults()
		for _, ref := range o.MachineRefs {
			op.MachineIDs = append(op.MachineIDs, machineIDs[ref])
		}
		sort.Strings(op.MachineIDs)
		out.Operators = append(out.Operators, op)
	}

	for _, p := range schema.Providers {
		provider := &domain.Provider{ID: uuid.New().String(), Name: p.Name, CreatedAt: now}
		for _, pt := range p.Tasks {
			provider.Rules = append(provider.Rules, domain.ProviderTaskRule{
				ID:               uuid.New().String(),
				ProviderID:       provider.ID,
				TaskID:           taskIDs[pt.TaskRef],
				DeliveryTimeDays: pt.DeliveryTimeDays,
			})
		}
		out.Providers = append(out.Providers, provider)
	}

	for _, p := range schema.Products {
		product := &domain.Product{ID: uuid.New().String(), Name: p.Name, CreatedAt: now}
		stepIDs := make(map[string]string, len(p.Workflow))
		for _, s := range p.Workflow {
			stepIDs[s.Ref] = uuid.New().String()
		}
		for i, s := range p.Workflow {
			step := domain.WorkflowStep{
				ID:         stepIDs[s.Ref],
				ProductID:  product.ID,
				TaskID:     taskIDs[s.TaskRef],
				Position:   i,
				IsOptional: s.Optional,
			}
			for _, pre := range s.Prerequisites {
				step.Prerequisites = append(step.Prerequisites, stepIDs[pre])
			}
			product.Workflow = append(product.Workflow, step)
		}
		out.Products = append(out.Products, product)
	}

	return out, nil
}
