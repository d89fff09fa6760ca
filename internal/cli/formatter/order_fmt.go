package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// FormatOrderList renders orders newest first, as returned by the service.
func FormatOrderList(orders []*domain.Order, productNames map[string]string) string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			Bold(o.DisplayID()),
			nameOr(productNames, o.ProductID),
			fmt.Sprintf("%d", o.Quantity),
			Size(o.Width, o.Height),
			DateOrDash(o.DueDate),
			OrderStatusPill(o.Status),
		})
	}
	return RenderTable([]string{"ORDER", "PRODUCT", "QTY", "SIZE", "DUE", "STATUS"}, rows)
}

// FormatOrderTasks renders an order's tasks with their candidate resources
// and, for scheduled ones, the committed window.
func FormatOrderTasks(tasks []domain.OrderTask, scheduled map[string]domain.ScheduledTask, loc *time.Location) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		when := Dim("--")
		if st, ok := scheduled[t.ID]; ok {
			when = Span(st.Start, st.End, loc)
		}
		after := Dim("--")
		if len(t.Prerequisites) > 0 {
			short := make([]string, len(t.Prerequisites))
			for i, id := range t.Prerequisites {
				short[i] = TruncID(id)
			}
			after = strings.Join(short, ", ")
		}
		rows = append(rows, []string{
			TruncID(t.ID),
			TruncID(t.WorkflowStepID),
			Bold(t.TaskName),
			after,
			describeResources(t.Resources),
			TaskStatusPill(t.Status),
			when,
		})
	}
	return RenderTable([]string{"ID", "STEP", "TASK", "AFTER", "RESOURCES", "STATUS", "WHEN"}, rows)
}

func describeResources(r domain.PossibleResources) string {
	var parts []string
	for _, m := range r.Machines {
		if m.DurationMin <= 0 {
			parts = append(parts, StyleRed.Render(m.MachineName+" (unusable)"))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", m.MachineName, Dim(FormatMinutes(m.DurationMin))))
	}
	for _, p := range r.Providers {
		parts = append(parts, fmt.Sprintf("%s %s", StylePurple.Render(p.ProviderName), Dim(FormatMinutes(p.DurationMin))))
	}
	return strings.Join(parts, ", ")
}

// FormatOrderCreated renders the result of creating an order.
func FormatOrderCreated(resp *contract.CreateOrderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Created order %s with %d tasks\n", Bold(resp.Order.DisplayID()), len(resp.Tasks))
	for _, w := range resp.Warnings {
		b.WriteString(StyleYellow.Render("  ! " + w))
		b.WriteString("\n")
	}
	return b.String()
}
