package domain

// RuleMode selects how an order quantity is converted into work units.
type RuleMode string

const (
	ModeSheet RuleMode = "sheet"
	ModeUnit  RuleMode = "unit"
	ModeBlock RuleMode = "block"
)

// ValidRuleModes is the canonical set of accepted work-time rule modes.
var ValidRuleModes = map[RuleMode]bool{
	ModeSheet: true, ModeUnit: true, ModeBlock: true,
}

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPlanned OrderStatus = "planned"
)

type OrderTaskStatus string

const (
	OrderTaskPending   OrderTaskStatus = "pending"
	OrderTaskScheduled OrderTaskStatus = "scheduled"
)

type ResourceKind string

const (
	ResourceMachine  ResourceKind = "machine"
	ResourceProvider ResourceKind = "provider"
	// ResourceOperator only appears in conflicts; operators are never
	// scheduled on their own.
	ResourceOperator ResourceKind = "operator"
)

// Weekday is the lowercase English day key used by operator schedules.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the schedule keys in calendar order starting on Monday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayByStd = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ValidWeekdays is the canonical set of accepted day keys.
var ValidWeekdays = map[Weekday]bool{
	Monday: true, Tuesday: true, Wednesday: true, Thursday: true,
	Friday: true, Saturday: true, Sunday: true,
}

// RiskLevel grades how likely an order is to miss its due date.
type RiskLevel string

const (
	RiskOnTrack  RiskLevel = "on_track"
	RiskAtRisk   RiskLevel = "at_risk"
	RiskCritical RiskLevel = "critical"
)
