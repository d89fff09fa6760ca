package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// SearchConfig bounds a slot search.
type SearchConfig struct {
	Horizon   time.Duration
	ProbeStep time.Duration
	// MaxProbes caps the candidate windows tried per machine. Overlap jumps
	// count against it as well as operator probe steps.
	MaxProbes int
	Location  *time.Location
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Horizon:   30 * 24 * time.Hour,
		ProbeStep: 30 * time.Minute,
		MaxProbes: 100,
		Location:  time.Local,
	}
}

// SearchInput is the snapshot a planning attempt runs against.
type SearchInput struct {
	Task       domain.OrderTask
	OrderTasks []domain.OrderTask
	Scheduled  []domain.ScheduledTask
	Operators  []domain.Operator
	Now        time.Time
}

// Slot is a candidate placement offered for confirmation.
type Slot struct {
	Kind         domain.ResourceKind
	MachineID    string
	MachineName  string
	ProviderID   string
	ProviderName string
	OperatorIDs  []string
	Start        time.Time
	End          time.Time
	DurationMin  int
}

type BlockerCode string

const (
	BlockerMachineUnusable BlockerCode = "MACHINE_UNUSABLE"
	BlockerNoOperators     BlockerCode = "NO_SKILLED_OPERATOR"
	BlockerNoFeasibleSlot  BlockerCode = "NO_FEASIBLE_SLOT"
)

// Blocker explains why a candidate resource contributed no slot.
type Blocker struct {
	ResourceKind domain.ResourceKind
	ResourceID   string
	ResourceName string
	Code         BlockerCode
	Message      string
}

// SearchResult is the outcome of one planning attempt.
type SearchResult struct {
	OrderTaskID string
	State       PlanState
	Floor       time.Time
	HorizonEnd  time.Time
	Slots       []Slot
	Blockers    []Blocker
}

// Err returns a *domain.NoFeasibleSlotError when the search found nothing.
func (r SearchResult) Err() error {
	if len(r.Slots) > 0 {
		return nil
	}
	return &domain.NoFeasibleSlotError{OrderTaskID: r.OrderTaskID, From: r.Floor, Until: r.HorizonEnd}
}

// planContext is the per-attempt state shared by SearchSlots and ListWindows.
type planContext struct {
	in         SearchInput
	cfg        SearchConfig
	floor      time.Time
	horizonEnd time.Time
	operators  map[string]*domain.Operator
}

func newPlanContext(in SearchInput, cfg SearchConfig) (*planContext, error) {
	if in.Task.Status == domain.OrderTaskScheduled {
		return nil, fmt.Errorf("order task %s: %w", in.Task.ID, domain.ErrAlreadyScheduled)
	}
	if !IsPlannable(in.Task, in.OrderTasks) {
		return nil, fmt.Errorf("order task %s: %w", in.Task.ID, domain.ErrPrerequisitesPending)
	}
	for _, st := range in.Scheduled {
		if st.End.Before(st.Start) {
			return nil, &domain.DataIntegrityError{Entity: "scheduled_task", ID: st.ID, Reason: "end before start"}
		}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	ops := make(map[string]*domain.Operator, len(in.Operators))
	for i := range in.Operators {
		ops[in.Operators[i].ID] = &in.Operators[i]
	}

	floor := EarliestStart(in.Task, in.OrderTasks, in.Scheduled, in.Now)
	return &planContext{
		in:         in,
		cfg:        cfg,
		floor:      floor,
		horizonEnd: floor.Add(cfg.Horizon),
		operators:  ops,
	}, nil
}

// operatorFree resolves the operators of a machine resource and returns
// each one's merged free windows over the search range.
func (pc *planContext) operatorFree(res domain.MachineResource) (map[string][]Interval, error) {
	free := make(map[string][]Interval, len(res.OperatorIDs))
	for _, opID := range res.OperatorIDs {
		op, ok := pc.operators[opID]
		if !ok {
			return nil, &domain.DataIntegrityError{
				Entity: "operator",
				ID:     opID,
				Reason: fmt.Sprintf("referenced by machine %s but no operator record exists", res.MachineID),
			}
		}
		windows, err := OperatorFreeWindows(op, pc.in.Scheduled, pc.floor, pc.horizonEnd, pc.cfg.Location)
		if err != nil {
			return nil, err
		}
		free[opID] = Merge(windows)
	}
	return free, nil
}

// SearchSlots runs the first-fit placement for every candidate resource of
// the task and returns at most one slot per machine plus one per provider.
func SearchSlots(in SearchInput, cfg SearchConfig) (SearchResult, error) {
	state, _ := StateIdle.Transition(StateSearching)
	pc, err := newPlanContext(in, cfg)
	if err != nil {
		return SearchResult{OrderTaskID: in.Task.ID, State: state}, err
	}

	result := SearchResult{
		OrderTaskID: in.Task.ID,
		Floor:       pc.floor,
		HorizonEnd:  pc.horizonEnd,
	}

	for _, res := range in.Task.Resources.Machines {
		if res.DurationMin <= 0 {
			cfgErr := &domain.ConfigurationError{MachineID: res.MachineID, TaskID: in.Task.TaskID, Reason: domain.ErrMachineUnusable.Error()}
			result.Blockers = append(result.Blockers, machineBlocker(res, BlockerMachineUnusable, cfgErr.Error()))
			continue
		}
		if len(res.OperatorIDs) == 0 {
			result.Blockers = append(result.Blockers, machineBlocker(res, BlockerNoOperators, "no operator is skilled on this machine"))
			continue
		}

		free, err := pc.operatorFree(res)
		if err != nil {
			return SearchResult{OrderTaskID: in.Task.ID, State: state}, err
		}

		slot, ok := pc.firstFit(res, free)
		if !ok {
			result.Blockers = append(result.Blockers, machineBlocker(res, BlockerNoFeasibleSlot,
				fmt.Sprintf("no window of %d min within %d probes before %s", res.DurationMin, pc.cfg.MaxProbes, pc.horizonEnd.Format(time.RFC3339))))
			continue
		}
		result.Slots = append(result.Slots, slot)
	}

	for _, p := range in.Task.Resources.Providers {
		w := ProviderWindow(pc.floor, p.DurationMin)
		result.Slots = append(result.Slots, Slot{
			Kind:         domain.ResourceProvider,
			ProviderID:   p.ProviderID,
			ProviderName: p.ProviderName,
			Start:        w.Start,
			End:          w.End,
			DurationMin:  p.DurationMin,
		})
	}

	if len(result.Slots) > 0 {
		result.State, _ = state.Transition(StateSlotsFound)
	} else {
		result.State, _ = state.Transition(StateNoSlotsFound)
	}
	return result, nil
}

// firstFit walks forward from the floor until a window is free on the
// machine and for at least one operator.
func (pc *planContext) firstFit(res domain.MachineResource, free map[string][]Interval) (Slot, bool) {
	busy := MachineBusy(res.MachineID, pc.in.Scheduled)
	dur := minutes(res.DurationMin)
	cursor := pc.floor

	for probe := 0; probe < pc.cfg.MaxProbes; probe++ {
		window := Interval{Start: cursor, End: cursor.Add(dur)}
		if window.End.After(pc.horizonEnd) {
			return Slot{}, false
		}
		if hit, ok := firstOverlap(busy, window); ok {
			cursor = hit.End
			continue
		}

		var available []string
		for _, opID := range res.OperatorIDs {
			if coveredBy(free[opID], window) {
				available = append(available, opID)
			}
		}
		if len(available) > 0 {
			sort.Strings(available)
			return Slot{
				Kind:        domain.ResourceMachine,
				MachineID:   res.MachineID,
				MachineName: res.MachineName,
				OperatorIDs: available,
				Start:       window.Start,
				End:         window.End,
				DurationMin: res.DurationMin,
			}, true
		}
		cursor = cursor.Add(pc.cfg.ProbeStep)
	}
	return Slot{}, false
}

func machineBlocker(res domain.MachineResource, code BlockerCode, msg string) Blocker {
	return Blocker{
		ResourceKind: domain.ResourceMachine,
		ResourceID:   res.MachineID,
		ResourceName: res.MachineName,
		Code:         code,
		Message:      msg,
	}
}

// OperatorWindows lists one operator's candidate windows on a machine.
type OperatorWindows struct {
	OperatorID   string
	OperatorName string
	Windows      []Interval
}

// MachineWindows lists every candidate window on a machine, per operator,
// plus their merged union.
type MachineWindows struct {
	MachineID   string
	MachineName string
	DurationMin int
	Operators   []OperatorWindows
	Union       []Interval
}

// ListWindows returns, for each usable machine, all windows inside the
// horizon where the machine and a skilled operator are both free for the
// task's duration. Machines without any window are omitted.
func ListWindows(in SearchInput, cfg SearchConfig) ([]MachineWindows, error) {
	pc, err := newPlanContext(in, cfg)
	if err != nil {
		return nil, err
	}

	var out []MachineWindows
	for _, res := range in.Task.Resources.Machines {
		if res.DurationMin <= 0 {
			continue
		}
		gaps, err := MachineGaps(res.MachineID, in.Scheduled, pc.floor, pc.horizonEnd, res.DurationMin)
		if err != nil {
			return nil, err
		}
		free, err := pc.operatorFree(res)
		if err != nil {
			return nil, err
		}

		mw := MachineWindows{MachineID: res.MachineID, MachineName: res.MachineName, DurationMin: res.DurationMin}
		var all []Interval
		for _, opID := range res.OperatorIDs {
			windows := CandidateWindows(gaps, free[opID], res.DurationMin)
			if len(windows) == 0 {
				continue
			}
			mw.Operators = append(mw.Operators, OperatorWindows{
				OperatorID:   opID,
				OperatorName: pc.operators[opID].Name,
				Windows:      windows,
			})
			all = append(all, windows...)
		}
		if len(mw.Operators) == 0 {
			continue
		}
		mw.Union = Merge(all)
		out = append(out, mw)
	}
	return out, nil
}
