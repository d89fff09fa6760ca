package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// OrderStatusPill returns a colored indicator for an order's status.
func OrderStatusPill(status domain.OrderStatus) string {
	switch status {
	case domain.OrderPlanned:
		return StyleGreen.Render("✔ Planned")
	case domain.OrderPending:
		return StyleYellow.Render("○ Pending")
	default:
		return StyleDim.Render(string(status))
	}
}

// TaskStatusPill returns a colored indicator for an order task's status.
func TaskStatusPill(status domain.OrderTaskStatus) string {
	switch status {
	case domain.OrderTaskScheduled:
		return StyleGreen.Render("● Scheduled")
	case domain.OrderTaskPending:
		return StyleBlue.Render("○ Pending")
	default:
		return StyleDim.Render(string(status))
	}
}

// StateBadge renders a planning attempt's state.
func StateBadge(state scheduler.PlanState) string {
	label := strings.ToUpper(strings.ReplaceAll(string(state), "_", " "))
	switch state {
	case scheduler.StateSlotsFound, scheduler.StateCommitted:
		return StyleGreen.Render("● " + label)
	case scheduler.StateNoSlotsFound:
		return StyleRed.Render("● " + label)
	case scheduler.StateSearching:
		return StylePurple.Render("◌ " + label)
	default:
		return StyleDim.Render("● " + label)
	}
}

// RiskIndicator returns a colored risk indicator string such as "● CRITICAL".
func RiskIndicator(risk domain.RiskLevel) string {
	switch risk {
	case domain.RiskCritical:
		return StyleRed.Render("● CRITICAL")
	case domain.RiskAtRisk:
		return StyleYellow.Render("● AT RISK")
	case domain.RiskOnTrack:
		return StyleGreen.Render("● ON TRACK")
	default:
		return StyleDim.Render("● UNKNOWN")
	}
}

// KindBadge marks a resource as a machine or an external provider.
func KindBadge(kind domain.ResourceKind) string {
	if kind == domain.ResourceProvider {
		return StylePurple.Render("provider")
	}
	return StyleBlue.Render("machine")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
