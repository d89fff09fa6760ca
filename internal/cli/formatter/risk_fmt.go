package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/scheduler"
)

const riskProgressBarWidth = 10

// FormatOrderRisks renders pending orders as a due-date dashboard, in the
// order given.
func FormatOrderRisks(orders []scheduler.OrderUrgency) string {
	var b strings.Builder

	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		name := o.OrderNumber
		if name == "" {
			name = ShortID(o.OrderID)
		}
		rows = append(rows, []string{
			Bold(name),
			RenderProgress(o.Scheduled, o.Total, riskProgressBarWidth),
			FormatMinutes(o.Risk.RemainingMin),
			DateOrDash(o.DueDate),
			daysLeft(o.Risk.DaysLeft),
			RiskIndicator(o.Risk.Level),
		})
	}
	b.WriteString(RenderTable([]string{"ORDER", "SCHEDULED", "REMAINING", "DUE", "LEFT", "RISK"}, rows))

	critical, atRisk, onTrack := countByRisk(orders)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s, %s, %s\n",
		StyleRed.Render(fmt.Sprintf("%d Critical", critical)),
		StyleYellow.Render(fmt.Sprintf("%d At Risk", atRisk)),
		StyleGreen.Render(fmt.Sprintf("%d On Track", onTrack)),
	))

	return RenderBox("Order risk", b.String())
}

func daysLeft(days *int) string {
	switch {
	case days == nil:
		return Dim("--")
	case *days <= 0:
		return StyleRed.Render("overdue")
	case *days == 1:
		return StyleRed.Render("1 day")
	case *days <= 3:
		return StyleYellow.Render(fmt.Sprintf("%d days", *days))
	default:
		return fmt.Sprintf("%d days", *days)
	}
}

func countByRisk(orders []scheduler.OrderUrgency) (critical, atRisk, onTrack int) {
	for _, o := range orders {
		switch o.Risk.Level {
		case domain.RiskCritical:
			critical++
		case domain.RiskAtRisk:
			atRisk++
		default:
			onTrack++
		}
	}
	return
}
