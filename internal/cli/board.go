package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/slotwise/internal/cli/formatter"
	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type boardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Operator key.Binding
	Commit   key.Binding
	Research key.Binding
	Cancel   key.Binding
}

func newBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev slot")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next slot")),
		Operator: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "operator")),
		Commit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "commit")),
		Research: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "search again")),
		Cancel:   key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "cancel")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Operator, k.Commit, k.Research, k.Cancel}
}

// boardSearchedMsg carries the outcome of a slot search.
type boardSearchedMsg struct {
	resp *contract.SearchSlotsResponse
	err  error
}

// boardCommittedMsg carries the outcome of a commit.
type boardCommittedMsg struct {
	resp *contract.CommitSlotResponse
	err  error
}

// boardModel walks one order task through search, choice and commit.
type boardModel struct {
	app           *App
	task          domain.OrderTask
	operatorNames map[string]string
	keys          boardKeyMap
	help          help.Model

	state    scheduler.PlanState
	result   scheduler.SearchResult
	cursor   int
	operator int
	err      error

	committed *contract.CommitSlotResponse
}

func newBoardModel(app *App, task domain.OrderTask, operatorNames map[string]string) *boardModel {
	state, _ := scheduler.StateIdle.Transition(scheduler.StateSearching)
	return &boardModel{
		app:           app,
		task:          task,
		operatorNames: operatorNames,
		keys:          newBoardKeyMap(),
		help:          help.New(),
		state:         state,
	}
}

func (m *boardModel) Init() tea.Cmd {
	return m.search()
}

func (m *boardModel) search() tea.Cmd {
	app, id := m.app, m.task.ID
	return func() tea.Msg {
		resp, err := app.searchSlotsUseCase().SearchSlots(context.Background(), app.searchRequest(id))
		return boardSearchedMsg{resp: resp, err: err}
	}
}

func (m *boardModel) commit(slot scheduler.Slot, operatorID string) tea.Cmd {
	app, id := m.app, m.task.ID
	return func() tea.Msg {
		req := contract.CommitFromSlot(id, slot, operatorID)
		now := app.now()
		req.Now = &now
		resp, err := app.commitSlotUseCase().Commit(context.Background(), req)
		return boardCommittedMsg{resp: resp, err: err}
	}
}

func (m *boardModel) selected() (scheduler.Slot, string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.result.Slots) {
		return scheduler.Slot{}, "", false
	}
	slot := m.result.Slots[m.cursor]
	if slot.Kind == domain.ResourceProvider || len(slot.OperatorIDs) == 0 {
		return slot, "", true
	}
	return slot, slot.OperatorIDs[m.operator%len(slot.OperatorIDs)], true
}

func (m *boardModel) moveTo(to scheduler.PlanState) bool {
	next, err := m.state.Transition(to)
	if err != nil {
		return false
	}
	m.state = next
	return true
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case boardSearchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.result = msg.resp.Result
		m.cursor, m.operator = 0, 0
		if len(m.result.Slots) > 0 {
			m.moveTo(scheduler.StateSlotsFound)
		} else {
			m.moveTo(scheduler.StateNoSlotsFound)
		}
		return m, nil

	case boardCommittedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.committed = msg.resp
		m.moveTo(scheduler.StateCommitted)
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.moveTo(scheduler.StateCancelled)
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.operator = 0
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.result.Slots)-1 {
				m.cursor++
				m.operator = 0
			}
		case key.Matches(msg, m.keys.Operator):
			m.operator++
		case key.Matches(msg, m.keys.Research):
			if m.moveTo(scheduler.StateSearching) {
				m.err = nil
				return m, m.search()
			}
		case key.Matches(msg, m.keys.Commit):
			if m.state != scheduler.StateSlotsFound {
				return m, nil
			}
			if slot, opID, ok := m.selected(); ok {
				m.err = nil
				return m, m.commit(slot, opID)
			}
		}
	}
	return m, nil
}

func (m *boardModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s\n", formatter.StyleHeader.Render("Plan "+m.task.TaskName), formatter.StateBadge(m.state))

	switch {
	case m.state == scheduler.StateSearching && m.err == nil:
		b.WriteString("\n  " + formatter.Dim("Searching...") + "\n")
	case len(m.result.Slots) > 0:
		b.WriteString("\n")
		_, opID, _ := m.selected()
		for i, s := range m.result.Slots {
			marker := "  "
			if i == m.cursor {
				marker = formatter.StyleHeader.Render("> ")
			}
			line := fmt.Sprintf("%s%s %s  %s", marker, formatter.KindBadge(s.Kind),
				formatter.Bold(formatter.SlotResource(s)), formatter.Span(s.Start, s.End, m.app.loc()))
			if len(s.OperatorIDs) > 0 {
				line += "  " + m.renderOperators(s, i == m.cursor, opID)
			}
			b.WriteString("  " + line + "\n")
		}
	}

	if len(m.result.Blockers) > 0 && m.state != scheduler.StateSearching {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(formatter.FormatBlockers(m.result.Blockers), "\n"), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	if m.state == scheduler.StateNoSlotsFound {
		b.WriteString("\n  " + formatter.StyleYellow.Render("No slot fits within the horizon.") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n  " + formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n  " + m.help.ShortHelpView(m.keys.ShortHelp()) + "\n")
	return b.String()
}

func (m *boardModel) renderOperators(s scheduler.Slot, active bool, chosen string) string {
	parts := make([]string, 0, len(s.OperatorIDs))
	for _, id := range s.OperatorIDs {
		name := m.operatorNames[id]
		if name == "" {
			name = formatter.ShortID(id)
		}
		if active && id == chosen {
			name = formatter.StyleGreen.Render("[" + name + "]")
		} else {
			name = formatter.Dim(name)
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}

func newPlanBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board [ORDER:STEP]",
		Short: "Pick and commit a slot interactively",
		Long:  "Pick and commit a slot interactively. Without an argument the first ready task is used.\n\n" + orderTaskHelp,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("the planning board needs a terminal; use 'plan slots' and 'plan commit'")
			}
			ctx := context.Background()

			var task domain.OrderTask
			if len(args) == 1 {
				t, err := resolveOrderTask(ctx, app, args[0])
				if err != nil {
					return err
				}
				task = t
			} else {
				ready, err := app.Planning.Frontier(ctx, "")
				if err != nil {
					return err
				}
				if len(ready) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing ready to plan.")
					return nil
				}
				task = ready[0]
			}

			names, err := loadCatalogNames(ctx, app)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(newBoardModel(app, task, names.operators)).Run()
			if err != nil {
				return err
			}
			board := final.(*boardModel)
			if board.committed == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing committed.")
				return nil
			}
			slot, opID, _ := board.selected()
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCommit(board.committed,
				formatter.SlotResource(slot), names.operators[opID], app.loc()))
			return nil
		},
	}
}
