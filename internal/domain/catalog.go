package domain

import (
	"fmt"
	"time"
)

type Task struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Machine struct {
	ID        string
	Name      string
	Rules     []MachineTaskRule
	CreatedAt time.Time
}

// RuleFor returns the machine's rule for taskID, if any.
func (m *Machine) RuleFor(taskID string) (*MachineTaskRule, bool) {
	for i := range m.Rules {
		if m.Rules[i].TaskID == taskID {
			return &m.Rules[i], true
		}
	}
	return nil, false
}

// ValidateRules enforces at most one rule per task and well-formed work-time rules.
func (m *Machine) ValidateRules() error {
	seen := make(map[string]bool, len(m.Rules))
	for _, r := range m.Rules {
		if r.TaskID == "" {
			return fmt.Errorf("machine %q: rule without task", m.Name)
		}
		if seen[r.TaskID] {
			return fmt.Errorf("machine %q: duplicate rule for task %s", m.Name, r.TaskID)
		}
		seen[r.TaskID] = true
		if r.SetupTimeMin < 0 || r.FinishTimeMin < 0 {
			return fmt.Errorf("machine %q task %s: setup and finish times must not be negative", m.Name, r.TaskID)
		}
		if err := r.WorkTime.Validate(); err != nil {
			return fmt.Errorf("machine %q task %s: %w", m.Name, r.TaskID, err)
		}
	}
	return nil
}

type Operator struct {
	ID         string
	Name       string
	Type       string
	Schedule   WeeklySchedule
	MachineIDs []string
	CreatedAt  time.Time
}

// DefaultOperatorType is stored when an operator is created without a type.
const DefaultOperatorType = "operator"

// WithDefaults fills the fields an operator may be created without.
func (o *Operator) WithDefaults() {
	if o.Type == "" {
		o.Type = DefaultOperatorType
	}
}

// SkilledOn reports whether the operator can run machineID.
func (o *Operator) SkilledOn(machineID string) bool {
	for _, id := range o.MachineIDs {
		if id == machineID {
			return true
		}
	}
	return false
}

type Provider struct {
	ID        string
	Name      string
	Rules     []ProviderTaskRule
	CreatedAt time.Time
}

// RuleFor returns the provider's rule for taskID, if any.
func (p *Provider) RuleFor(taskID string) (*ProviderTaskRule, bool) {
	for i := range p.Rules {
		if p.Rules[i].TaskID == taskID {
			return &p.Rules[i], true
		}
	}
	return nil, false
}
