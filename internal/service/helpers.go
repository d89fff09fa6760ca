package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// planningNow rounds up to the next whole minute. Stored times have no
// sub-second part, so a slot must not start between two stored instants.
func planningNow(now *time.Time) time.Time {
	t := time.Now().UTC()
	if now != nil {
		t = now.UTC()
	}
	if r := t.Truncate(time.Minute); !r.Equal(t) {
		return r.Add(time.Minute)
	}
	return t
}

func mergeScheduled(lists ...[]domain.ScheduledTask) []domain.ScheduledTask {
	seen := map[string]bool{}
	var out []domain.ScheduledTask
	for _, list := range lists {
		for _, st := range list {
			if seen[st.ID] {
				continue
			}
			seen[st.ID] = true
			out = append(out, st)
		}
	}
	return out
}

// includedSteps returns the workflow steps that apply to the order, in
// topological order. Optional steps named in the configs must exist and be
// optional.
func includedSteps(product *domain.Product, configs domain.OrderConfigs) ([]domain.WorkflowStep, error) {
	for _, id := range configs.OptionalSteps {
		step, ok := product.Step(id)
		if !ok {
			return nil, &contract.OrderError{Code: contract.OrderErrUnknownStep, Message: fmt.Sprintf("product %q has no step %s", product.Name, id)}
		}
		if !step.IsOptional {
			return nil, &contract.OrderError{Code: contract.OrderErrUnknownStep, Message: fmt.Sprintf("step %s of product %q is not optional", id, product.Name)}
		}
	}
	order, err := product.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	var steps []domain.WorkflowStep
	for _, id := range order {
		step, _ := product.Step(id)
		if configs.Includes(*step) {
			steps = append(steps, *step)
		}
	}
	return steps, nil
}

// effectivePrerequisites maps a step's prerequisites onto the included
// steps. An excluded prerequisite is replaced by its own effective
// prerequisites so ordering through a skipped optional step is kept.
func effectivePrerequisites(product *domain.Product, step domain.WorkflowStep, included map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if included[id] {
				out = append(out, id)
				continue
			}
			if pre, ok := product.Step(id); ok {
				walk(pre.Prerequisites)
			}
		}
	}
	walk(step.Prerequisites)
	sort.Strings(out)
	return out
}
