package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/slotwise/internal/cli/formatter"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// slotwiseHuhTheme returns a huh theme using the formatter palette.
func slotwiseHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// validatePositiveInt accepts empty or a positive integer.
func validatePositiveInt(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

// validateOptionalDate accepts empty or a YYYY-MM-DD date string.
func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

func validateOptionalSize(s string) error {
	if s == "" {
		return nil
	}
	_, _, err := parseSize(s)
	return err
}

// orderForm collects the fields of a new order.
type orderForm struct {
	ProductID string
	Number    string
	Quantity  string
	Size      string
	Due       string
	Optional  []string
}

// wizardOrder builds the order form. The optional-step group only shows when
// the chosen product has optional steps.
func wizardOrder(products []*domain.Product, taskNames map[string]string, f *orderForm) *huh.Form {
	options := make([]huh.Option[string], 0, len(products))
	for _, p := range products {
		options = append(options, huh.NewOption(p.Name, p.ID))
	}
	if f.ProductID == "" && len(products) > 0 {
		f.ProductID = products[0].ID
	}

	optionalSteps := func() []huh.Option[string] {
		var opts []huh.Option[string]
		for _, p := range products {
			if p.ID != f.ProductID {
				continue
			}
			for _, s := range p.Workflow {
				if s.IsOptional {
					opts = append(opts, huh.NewOption(taskNames[s.TaskID], s.ID))
				}
			}
		}
		return opts
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Product").
				Options(options...).
				Value(&f.ProductID),
			huh.NewInput().
				Title("Order Number").
				Placeholder("optional").
				Value(&f.Number),
			huh.NewInput().
				Title("Quantity").
				Value(&f.Quantity).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("quantity is required")
					}
					return validatePositiveInt(s)
				}),
			huh.NewInput().
				Title("Size (WxH)").
				Placeholder("70x100").
				Value(&f.Size).
				Validate(validateOptionalSize),
			huh.NewInput().
				Title("Due Date (YYYY-MM-DD, blank for none)").
				Value(&f.Due).
				Validate(validateOptionalDate),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Optional Steps").
				OptionsFunc(optionalSteps, &f.ProductID).
				Value(&f.Optional),
		).WithHideFunc(func() bool { return len(optionalSteps()) == 0 }),
	).WithTheme(slotwiseHuhTheme()).WithShowHelp(false)
}

// wizardConfirm creates a huh form for a yes/no confirmation.
func wizardConfirm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(slotwiseHuhTheme()).WithShowHelp(false)
}

// slotChoice is one pickable placement: a slot and, for machines, the
// operator to run it.
type slotChoice struct {
	Slot     int
	Operator string
}

// slotChoices expands search slots into one choice per slot and operator.
func slotChoices(result scheduler.SearchResult, operatorNames map[string]string, loc *time.Location) []huh.Option[slotChoice] {
	var opts []huh.Option[slotChoice]
	for i, s := range result.Slots {
		label := fmt.Sprintf("%s  %s", formatter.SlotResource(s), formatter.Span(s.Start, s.End, loc))
		if s.Kind == domain.ResourceProvider {
			opts = append(opts, huh.NewOption(label+"  (provider)", slotChoice{Slot: i}))
			continue
		}
		for _, opID := range s.OperatorIDs {
			name := operatorNames[opID]
			if name == "" {
				name = formatter.ShortID(opID)
			}
			opts = append(opts, huh.NewOption(label+"  with "+name, slotChoice{Slot: i, Operator: opID}))
		}
	}
	return opts
}

// wizardPickSlot asks which slot to commit and confirms the choice.
func wizardPickSlot(options []huh.Option[slotChoice], choice *slotChoice, confirmed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[slotChoice]().
				Title("Which Slot?").
				Options(options...).
				Value(choice),
			huh.NewConfirm().
				Title("Commit this slot?").
				Affirmative("Commit").
				Negative("Cancel").
				Value(confirmed),
		),
	).WithTheme(slotwiseHuhTheme()).WithShowHelp(false)
}
