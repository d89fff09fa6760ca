package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/slotwise/internal/cli/formatter"
	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/spf13/cobra"
)

const orderTaskHelp = `Order tasks are referenced as ORDER:STEP, where ORDER is the order number
or id and STEP is the task name or step id, or by an order task id prefix.`

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Find and commit production slots",
		Long:  "Find and commit production slots.\n\n" + orderTaskHelp,
	}

	cmd.AddCommand(
		newPlanReadyCmd(app),
		newPlanSlotsCmd(app),
		newPlanWindowsCmd(app),
		newPlanCommitCmd(app),
		newPlanBoardCmd(app),
	)

	return cmd
}

func orderNumbers(ctx context.Context, app *App) (map[string]string, error) {
	orders, err := app.Orders.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(orders))
	for _, o := range orders {
		out[o.ID] = o.DisplayID()
	}
	return out, nil
}

func newPlanReadyCmd(app *App) *cobra.Command {
	var orderRef string

	cmd := &cobra.Command{
		Use:   "ready",
		Short: "List order tasks whose prerequisites are all scheduled",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var orderID string
			if orderRef != "" {
				order, err := resolveOrder(ctx, app, orderRef)
				if err != nil {
					return err
				}
				orderID = order.ID
			}
			ready, err := app.Planning.Frontier(ctx, orderID)
			if err != nil {
				return err
			}
			if len(ready) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing ready to plan.")
				return nil
			}
			numbers, err := orderNumbers(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatFrontier(ready, numbers))
			return nil
		},
	}

	cmd.Flags().StringVar(&orderRef, "order", "", "Limit to one order")

	return cmd
}

func (a *App) searchRequest(orderTaskID string) contract.SearchSlotsRequest {
	req := contract.NewSearchSlotsRequest(orderTaskID)
	now := a.now()
	req.Now = &now
	return req
}

func newPlanSlotsCmd(app *App) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "slots ORDER:STEP",
		Short: "Propose the first free slot on every candidate resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if pick && !app.interactive() {
				return errors.New("--pick needs a terminal; use 'plan commit'")
			}
			task, err := resolveOrderTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			resp, err := app.searchSlotsUseCase().SearchSlots(ctx, app.searchRequest(task.ID))
			if err != nil {
				return err
			}
			names, err := loadCatalogNames(ctx, app)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatSearchResult(resp, names.operators, app.loc()))
			if err := resp.Result.Err(); err != nil || !pick {
				return err
			}

			var choice slotChoice
			confirmed := true
			options := slotChoices(resp.Result, names.operators, app.loc())
			if err := wizardPickSlot(options, &choice, &confirmed).Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(out, "Nothing committed.")
				return nil
			}

			slot := resp.Result.Slots[choice.Slot]
			req := contract.CommitFromSlot(task.ID, slot, choice.Operator)
			now := app.now()
			req.Now = &now
			committed, err := app.commitSlotUseCase().Commit(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatCommit(committed, formatter.SlotResource(slot), names.operators[choice.Operator], app.loc()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "Choose a slot interactively and commit it")

	return cmd
}

func newPlanWindowsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "windows ORDER:STEP",
		Short: "List every machine window inside the search horizon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			task, err := resolveOrderTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			resp, err := app.Planning.ListWindows(ctx, app.searchRequest(task.ID))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatWindows(resp, app.loc()))
			return nil
		},
	}
}

func newPlanCommitCmd(app *App) *cobra.Command {
	var start, machineRef, operatorRef, providerRef string

	cmd := &cobra.Command{
		Use:   "commit ORDER:STEP",
		Short: "Confirm a placement on a machine with an operator, or on a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if (machineRef == "") == (providerRef == "") {
				return errors.New("use either --machine with --operator or --provider")
			}
			task, err := resolveOrderTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			startAt, err := parseStart(start, app.loc())
			if err != nil {
				return err
			}
			now := app.now()
			req := contract.CommitSlotRequest{OrderTaskID: task.ID, Start: startAt, Now: &now}

			var resource, operator string
			if providerRef != "" {
				p, err := resolveProvider(ctx, app, providerRef)
				if err != nil {
					return err
				}
				req.ProviderID, resource = p.ID, p.Name
			} else {
				m, err := resolveMachine(ctx, app, machineRef)
				if err != nil {
					return err
				}
				if operatorRef == "" {
					return errors.New("--operator is required with --machine")
				}
				o, err := resolveOperator(ctx, app, operatorRef)
				if err != nil {
					return err
				}
				req.MachineID, req.OperatorID = m.ID, o.ID
				resource, operator = m.Name, o.Name
			}

			resp, err := app.commitSlotUseCase().Commit(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCommit(resp, resource, operator, app.loc()))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start time (YYYY-MM-DD HH:MM in the shop timezone)")
	cmd.Flags().StringVar(&machineRef, "machine", "", "Machine to run on")
	cmd.Flags().StringVar(&operatorRef, "operator", "", "Operator running the machine")
	cmd.Flags().StringVar(&providerRef, "provider", "", "Provider to outsource to")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func newScheduleCmd(app *App) *cobra.Command {
	var from string
	var days int

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show committed work per machine and provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			start, err := parseDate(from, app.loc())
			if err != nil {
				return err
			}
			if start == nil {
				now := app.now().In(app.loc())
				today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, app.loc())
				start = &today
			}
			end := start.AddDate(0, 0, days)
			resp, err := app.Planning.Timeline(ctx, contract.TimelineRequest{From: *start, To: end})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTimeline(resp, app.loc()))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to show")

	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a catalog of tasks, machines, operators, providers and products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.importCatalogUseCase().ImportCatalog(context.Background(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d tasks, %d machines (%d rules), %d operators, %d providers, %d products\n",
				result.TaskCount, result.MachineCount, result.RuleCount,
				result.OperatorCount, result.ProviderCount, result.ProductCount)
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "  %s %s\n", formatter.StyleYellow.Render("warning:"), w)
			}
			return nil
		},
	}
}
