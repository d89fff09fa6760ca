package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/scheduler"
)

// OperatorNames joins operator ids as display names.
func OperatorNames(ids []string, names map[string]string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, nameOr(names, id))
	}
	return strings.Join(out, ", ")
}

// SlotResource names the machine or provider a slot is on.
func SlotResource(s scheduler.Slot) string {
	if s.Kind == domain.ResourceProvider {
		return s.ProviderName
	}
	return s.MachineName
}

// FormatSearchResult renders the slots and blockers of one search.
func FormatSearchResult(resp *contract.SearchSlotsResponse, operatorNames map[string]string, loc *time.Location) string {
	r := resp.Result
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(resp.Task.TaskName), StateBadge(r.State))
	b.WriteString(Dim(fmt.Sprintf("earliest %s, horizon %s", SlotTime(r.Floor, loc), SlotTime(r.HorizonEnd, loc))))
	b.WriteString("\n\n")

	if len(r.Slots) > 0 {
		rows := make([][]string, 0, len(r.Slots))
		for i, s := range r.Slots {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				KindBadge(s.Kind),
				Bold(SlotResource(s)),
				Span(s.Start, s.End, loc),
				FormatMinutes(s.DurationMin),
				OperatorNames(s.OperatorIDs, operatorNames),
			})
		}
		b.WriteString(RenderTable([]string{"#", "KIND", "RESOURCE", "WINDOW", "DURATION", "OPERATORS"}, rows))
	}
	if len(r.Blockers) > 0 {
		if len(r.Slots) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatBlockers(r.Blockers))
	}
	return b.String()
}

// FormatBlockers lists why candidate resources produced no slot.
func FormatBlockers(blockers []scheduler.Blocker) string {
	var b strings.Builder
	b.WriteString(StyleYellow.Render("Blocked:"))
	b.WriteString("\n")
	for _, bl := range blockers {
		fmt.Fprintf(&b, "  %s %s %s\n", StyleRed.Render(string(bl.Code)), Bold(bl.ResourceName), Dim(bl.Message))
	}
	return b.String()
}

// FormatWindows renders every candidate window per machine and operator.
func FormatWindows(resp *contract.ListWindowsResponse, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", Bold(resp.Task.TaskName),
		Dim(fmt.Sprintf("from %s to %s", SlotTime(resp.Floor, loc), SlotTime(resp.HorizonEnd, loc))))
	if len(resp.Machines) == 0 {
		b.WriteString(Dim("No machine windows in the horizon."))
		b.WriteString("\n")
		return b.String()
	}
	for _, m := range resp.Machines {
		fmt.Fprintf(&b, "%s %s\n", Header(m.MachineName), Dim(FormatMinutes(m.DurationMin)+" per run"))
		for _, op := range m.Operators {
			fmt.Fprintf(&b, "  %s %s\n", Bold(op.OperatorName), Dim(fmt.Sprintf("%d windows", len(op.Windows))))
			for _, w := range op.Windows {
				fmt.Fprintf(&b, "    %s\n", Span(w.Start, w.End, loc))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCommit renders a committed placement.
func FormatCommit(resp *contract.CommitSlotResponse, resource, operator string, loc *time.Location) string {
	var b strings.Builder
	st := resp.Scheduled
	fmt.Fprintf(&b, "Scheduled on %s %s", Bold(resource), Span(st.Start, st.End, loc))
	if operator != "" {
		fmt.Fprintf(&b, " with %s", operator)
	}
	b.WriteString("\n")
	if resp.OrderPlanned {
		b.WriteString(StyleGreen.Render("Order fully planned."))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatFrontier lists the order tasks ready for planning.
func FormatFrontier(tasks []domain.OrderTask, orderNumbers map[string]string) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{TruncID(t.ID), Bold(nameOr(orderNumbers, t.OrderID)), TruncID(t.WorkflowStepID), t.TaskName})
	}
	return RenderTable([]string{"ID", "ORDER", "STEP", "TASK"}, rows)
}

// FormatTimeline renders one lane per resource.
func FormatTimeline(resp *contract.TimelineResponse, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", Dim(fmt.Sprintf("%s → %s", SlotTime(resp.From, loc), SlotTime(resp.To, loc))))
	if len(resp.Lanes) == 0 {
		b.WriteString(Dim("Nothing scheduled in this range."))
		b.WriteString("\n")
		return b.String()
	}
	for _, lane := range resp.Lanes {
		fmt.Fprintf(&b, "%s %s\n", Bold(lane.ResourceName), KindBadge(lane.Kind))
		rows := make([][]string, 0, len(lane.Entries))
		for _, e := range lane.Entries {
			rows = append(rows, []string{
				Span(e.Scheduled.Start, e.Scheduled.End, loc),
				e.OrderNumber,
				e.TaskName,
				e.OperatorName,
			})
		}
		b.WriteString(RenderTable([]string{"WINDOW", "ORDER", "TASK", "OPERATOR"}, rows))
		b.WriteString("\n")
	}
	return b.String()
}
