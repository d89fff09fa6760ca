package testutil

import (
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/google/uuid"
)

// WeekdayShift returns a Monday to Friday schedule with one segment per day.
func WeekdayShift(start, end string) domain.WeeklySchedule {
	s := domain.WeeklySchedule{}
	for _, d := range domain.Weekdays[:5] {
		s[d] = []domain.ShiftSegment{{Start: start, End: end}}
	}
	return s
}

func NewTestTask(name string) *domain.Task {
	return &domain.Task{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
}

// Machine options
type MachineOption func(*domain.Machine)

// WithRule adds a work-time rule for taskID.
func WithRule(taskID string, wt domain.WorkTimeRule) MachineOption {
	return func(m *domain.Machine) {
		m.Rules = append(m.Rules, domain.MachineTaskRule{
			ID:        uuid.New().String(),
			MachineID: m.ID,
			TaskID:    taskID,
			WorkTime:  wt,
		})
	}
}

// WithSetupFinish sets setup and finish minutes on the most recently added rule.
func WithSetupFinish(setupMin, finishMin int) MachineOption {
	return func(m *domain.Machine) {
		if n := len(m.Rules); n > 0 {
			m.Rules[n-1].SetupTimeMin = setupMin
			m.Rules[n-1].FinishTimeMin = finishMin
		}
	}
}

func NewTestMachine(name string, opts ...MachineOption) *domain.Machine {
	m := &domain.Machine{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Operator options
type OperatorOption func(*domain.Operator)

func WithSkills(machineIDs ...string) OperatorOption {
	return func(o *domain.Operator) {
		o.MachineIDs = append(o.MachineIDs, machineIDs...)
	}
}

func WithSchedule(s domain.WeeklySchedule) OperatorOption {
	return func(o *domain.Operator) {
		o.Schedule = s
	}
}

// NewTestOperator defaults to a 08:00-16:00 weekday shift.
func NewTestOperator(name string, opts ...OperatorOption) *domain.Operator {
	o := &domain.Operator{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      "operator",
		Schedule:  WeekdayShift("08:00", "16:00"),
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Provider options
type ProviderOption func(*domain.Provider)

func WithDelivery(taskID string, days int) ProviderOption {
	return func(p *domain.Provider) {
		p.Rules = append(p.Rules, domain.ProviderTaskRule{
			ID:               uuid.New().String(),
			ProviderID:       p.ID,
			TaskID:           taskID,
			DeliveryTimeDays: days,
		})
	}
}

func NewTestProvider(name string, opts ...ProviderOption) *domain.Provider {
	p := &domain.Provider{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workflow step options
type StepOption func(*domain.WorkflowStep)

func Optional() StepOption {
	return func(s *domain.WorkflowStep) {
		s.IsOptional = true
	}
}

func After(stepIDs ...string) StepOption {
	return func(s *domain.WorkflowStep) {
		s.Prerequisites = append(s.Prerequisites, stepIDs...)
	}
}

func NewTestStep(id, taskID string, opts ...StepOption) domain.WorkflowStep {
	s := domain.WorkflowStep{ID: id, TaskID: taskID}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewTestProduct numbers steps by argument order.
func NewTestProduct(name string, steps ...domain.WorkflowStep) *domain.Product {
	p := &domain.Product{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	for i, s := range steps {
		s.ProductID = p.ID
		s.Position = i
		p.Workflow = append(p.Workflow, s)
	}
	return p
}

// Order options
type OrderOption func(*domain.Order)

func WithSize(width, height float64) OrderOption {
	return func(o *domain.Order) {
		o.Width = width
		o.Height = height
	}
}

func WithConfigs(c domain.OrderConfigs) OrderOption {
	return func(o *domain.Order) {
		o.Configs = c
	}
}

func WithOrderNumber(n string) OrderOption {
	return func(o *domain.Order) {
		o.OrderNumber = n
	}
}

func WithDueDate(d time.Time) OrderOption {
	return func(o *domain.Order) {
		o.DueDate = &d
	}
}

func NewTestOrder(productID string, quantity int, opts ...OrderOption) *domain.Order {
	now := time.Now().UTC()
	o := &domain.Order{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
