package domain

import (
	"fmt"
	"time"
)

// OrderConfigs holds per-order choices keyed by workflow step id.
type OrderConfigs struct {
	OptionalSteps []string       `json:"optional_steps,omitempty"`
	BlockSizes    map[string]int `json:"block_sizes,omitempty"`
	Passes        map[string]int `json:"passes,omitempty"`
}

// Includes reports whether a workflow step applies to the order.
func (c OrderConfigs) Includes(step WorkflowStep) bool {
	if !step.IsOptional {
		return true
	}
	for _, id := range c.OptionalSteps {
		if id == step.ID {
			return true
		}
	}
	return false
}

// BlockSize returns the configured block size for a step (default 1).
func (c OrderConfigs) BlockSize(stepID string) int {
	if v, ok := c.BlockSizes[stepID]; ok {
		return v
	}
	return 1
}

// PassCount returns the configured pass count for a step (default 1).
func (c OrderConfigs) PassCount(stepID string) int {
	if v, ok := c.Passes[stepID]; ok && v > 0 {
		return v
	}
	return 1
}

type Order struct {
	ID          string
	OrderNumber string
	ProductID   string
	Quantity    int
	Width       float64
	Height      float64
	DueDate     *time.Time
	Configs     OrderConfigs
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayID returns the order number when set, else a truncated id.
func (o *Order) DisplayID() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	if len(o.ID) >= 8 {
		return o.ID[:8]
	}
	return o.ID
}

// MachineResource is a machine able to run an order task, with the duration
// resolved when the order was created.
type MachineResource struct {
	MachineID   string   `json:"machine_id"`
	MachineName string   `json:"machine_name"`
	OperatorIDs []string `json:"operator_ids"`
	DurationMin int      `json:"duration_minutes"`
}

// ProviderResource is an external provider able to deliver an order task.
type ProviderResource struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	DurationMin  int    `json:"duration_minutes"`
}

// PossibleResources is the capability snapshot frozen into an order task.
type PossibleResources struct {
	Machines  []MachineResource  `json:"machines"`
	Providers []ProviderResource `json:"providers"`
}

func (r PossibleResources) Machine(id string) (*MachineResource, bool) {
	for i := range r.Machines {
		if r.Machines[i].MachineID == id {
			return &r.Machines[i], true
		}
	}
	return nil, false
}

func (r PossibleResources) Provider(id string) (*ProviderResource, bool) {
	for i := range r.Providers {
		if r.Providers[i].ProviderID == id {
			return &r.Providers[i], true
		}
	}
	return nil, false
}

func (r PossibleResources) Empty() bool {
	return len(r.Machines) == 0 && len(r.Providers) == 0
}

type OrderTask struct {
	ID             string
	OrderID        string
	WorkflowStepID string
	TaskID         string
	TaskName       string
	Prerequisites  []string
	Resources      PossibleResources
	Status         OrderTaskStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *OrderTask) IsScheduled() bool {
	return t.Status == OrderTaskScheduled
}

// MarkScheduled flips a pending task to scheduled.
func (t *OrderTask) MarkScheduled(now time.Time) error {
	if t.Status == OrderTaskScheduled {
		return fmt.Errorf("order task %s: %w", t.ID, ErrAlreadyScheduled)
	}
	t.Status = OrderTaskScheduled
	t.UpdatedAt = now
	return nil
}

// ScheduledTask is a committed assignment. Exactly one of MachineID and
// ProviderID is set; OperatorID accompanies MachineID.
type ScheduledTask struct {
	ID          string
	OrderTaskID string
	Start       time.Time
	End         time.Time
	MachineID   *string
	OperatorID  *string
	ProviderID  *string
	CreatedAt   time.Time
}

// Kind reports which resource type the entry occupies.
func (s *ScheduledTask) Kind() ResourceKind {
	if s.ProviderID != nil {
		return ResourceProvider
	}
	return ResourceMachine
}

// Validate checks the resource invariants and interval shape.
func (s *ScheduledTask) Validate() error {
	if !s.End.After(s.Start) {
		return &DataIntegrityError{Entity: "scheduled_task", ID: s.ID, Reason: "end must be after start"}
	}
	hasMachine := s.MachineID != nil && *s.MachineID != ""
	hasProvider := s.ProviderID != nil && *s.ProviderID != ""
	hasOperator := s.OperatorID != nil && *s.OperatorID != ""
	switch {
	case hasMachine == hasProvider:
		return &DataIntegrityError{Entity: "scheduled_task", ID: s.ID, Reason: "exactly one of machine and provider is required"}
	case hasMachine && !hasOperator:
		return &DataIntegrityError{Entity: "scheduled_task", ID: s.ID, Reason: "machine assignment requires an operator"}
	case hasProvider && hasOperator:
		return &DataIntegrityError{Entity: "scheduled_task", ID: s.ID, Reason: "provider assignment takes no operator"}
	}
	return nil
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences p, returning "" for nil.
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
