package domain

import (
	"fmt"
	"sort"
	"time"
)

type WorkflowStep struct {
	ID            string
	ProductID     string
	TaskID        string
	Position      int
	IsOptional    bool
	Prerequisites []string
}

type Product struct {
	ID        string
	Name      string
	Workflow  []WorkflowStep
	CreatedAt time.Time
}

// Step returns the workflow step with the given id.
func (p *Product) Step(id string) (*WorkflowStep, bool) {
	for i := range p.Workflow {
		if p.Workflow[i].ID == id {
			return &p.Workflow[i], true
		}
	}
	return nil, false
}

// ValidateWorkflow checks that every prerequisite names a step of this
// product and that the prerequisite graph is acyclic.
func (p *Product) ValidateWorkflow() error {
	ids := make(map[string]bool, len(p.Workflow))
	for _, s := range p.Workflow {
		if s.ID == "" {
			return fmt.Errorf("product %q: workflow step without id", p.Name)
		}
		if ids[s.ID] {
			return fmt.Errorf("product %q: duplicate workflow step %s", p.Name, s.ID)
		}
		ids[s.ID] = true
	}
	for _, s := range p.Workflow {
		for _, pre := range s.Prerequisites {
			if pre == s.ID {
				return fmt.Errorf("product %q: step %s lists itself as prerequisite", p.Name, s.ID)
			}
			if !ids[pre] {
				return fmt.Errorf("product %q: step %s has unknown prerequisite %s", p.Name, s.ID, pre)
			}
		}
	}
	if _, err := p.TopologicalOrder(); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder returns step ids so that every step follows its
// prerequisites. Ties keep workflow position order.
func (p *Product) TopologicalOrder() ([]string, error) {
	steps := make([]WorkflowStep, len(p.Workflow))
	copy(steps, p.Workflow)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Position < steps[j].Position })

	indegree := make(map[string]int, len(steps))
	successors := make(map[string][]string, len(steps))
	for _, s := range steps {
		indegree[s.ID] += 0
		for _, pre := range s.Prerequisites {
			indegree[s.ID]++
			successors[pre] = append(successors[pre], s.ID)
		}
	}

	var order []string
	done := make(map[string]bool, len(steps))
	for len(order) < len(steps) {
		progressed := false
		for _, s := range steps {
			if done[s.ID] || indegree[s.ID] > 0 {
				continue
			}
			done[s.ID] = true
			order = append(order, s.ID)
			for _, succ := range successors[s.ID] {
				indegree[succ]--
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("product %q: workflow prerequisites contain a cycle", p.Name)
		}
	}
	return order, nil
}
