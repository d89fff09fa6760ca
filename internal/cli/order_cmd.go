package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alexanderramin/slotwise/internal/cli/formatter"
	"github.com/alexanderramin/slotwise/internal/contract"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/spf13/cobra"
)

func newOrderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create and inspect production orders",
	}

	cmd.AddCommand(
		newOrderCreateCmd(app),
		newOrderListCmd(app),
		newOrderShowCmd(app),
		newOrderRiskCmd(app),
		newOrderRemoveCmd(app),
	)

	return cmd
}

// resolveStep finds a workflow step by id, task name or id prefix.
func resolveStep(p *domain.Product, taskNames map[string]string, ref string) (domain.WorkflowStep, error) {
	return resolveRef("step", ref, p.Workflow,
		func(s domain.WorkflowStep) string { return s.ID },
		func(s domain.WorkflowStep) string { return taskNames[s.TaskID] })
}

// stepKeyed rewrites a map keyed by step references into one keyed by step id.
func stepKeyed(p *domain.Product, taskNames map[string]string, in map[string]int) (map[string]int, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(in))
	for ref, n := range in {
		step, err := resolveStep(p, taskNames, ref)
		if err != nil {
			return nil, err
		}
		out[step.ID] = n
	}
	return out, nil
}

func newOrderCreateCmd(app *App) *cobra.Command {
	var (
		productRef, number, size, due string
		qty                           int
		with, passes, blocks          []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order and snapshot its tasks",
		Long: `Create an order for a product. Each applicable workflow step becomes an
order task whose candidate machines, operators and providers are frozen
at this moment. Steps are referenced by task name or step id.

Without --product or --qty on a terminal, an interactive form is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			names, err := loadCatalogNames(ctx, app)
			if err != nil {
				return err
			}

			var optionalIDs []string
			if productRef == "" || qty == 0 {
				if !app.interactive() {
					return fmt.Errorf("--product and --qty are required")
				}
				products, err := app.Products.List(ctx)
				if err != nil {
					return err
				}
				if len(products) == 0 {
					return fmt.Errorf("no products defined; add one with 'slotwise product add'")
				}
				f := orderForm{Number: number, Size: size, Due: due}
				if err := wizardOrder(products, names.tasks, &f).Run(); err != nil {
					return err
				}
				productRef, number, size, due = f.ProductID, f.Number, f.Size, f.Due
				qty, _ = strconv.Atoi(f.Quantity)
				optionalIDs = f.Optional
			}

			product, err := resolveProduct(ctx, app, productRef)
			if err != nil {
				return err
			}

			req := contract.CreateOrderRequest{ProductID: product.ID, OrderNumber: number, Quantity: qty}
			if size != "" {
				if req.Width, req.Height, err = parseSize(size); err != nil {
					return err
				}
			}
			if req.DueDate, err = parseDate(due, app.loc()); err != nil {
				return err
			}

			for _, ref := range with {
				step, err := resolveStep(product, names.tasks, ref)
				if err != nil {
					return err
				}
				optionalIDs = append(optionalIDs, step.ID)
			}
			req.Configs.OptionalSteps = optionalIDs

			passMap, err := parseKeyInts("passes", passes)
			if err != nil {
				return err
			}
			if req.Configs.Passes, err = stepKeyed(product, names.tasks, passMap); err != nil {
				return err
			}
			blockMap, err := parseKeyInts("block", blocks)
			if err != nil {
				return err
			}
			if req.Configs.BlockSizes, err = stepKeyed(product, names.tasks, blockMap); err != nil {
				return err
			}

			resp, err := app.createOrderUseCase().CreateOrder(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatOrderCreated(resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&productRef, "product", "", "Product name or id")
	cmd.Flags().IntVar(&qty, "qty", 0, "Quantity")
	cmd.Flags().StringVar(&number, "number", "", "Order number")
	cmd.Flags().StringVar(&size, "size", "", "Size as WxH")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&with, "with", nil, "Include an optional step (repeatable)")
	cmd.Flags().StringArrayVar(&passes, "passes", nil, "Pass count as STEP=N (repeatable)")
	cmd.Flags().StringArrayVar(&blocks, "block", nil, "Block size as STEP=N (repeatable)")

	return cmd
}

func newOrderListCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var filter *domain.OrderStatus
			if status != "" {
				st := domain.OrderStatus(status)
				if st != domain.OrderPending && st != domain.OrderPlanned {
					return fmt.Errorf("--status %q: use pending or planned", status)
				}
				filter = &st
			}
			orders, err := app.Orders.List(ctx, filter)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders found.")
				return nil
			}
			names, err := loadCatalogNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatOrderList(orders, names.products))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending or planned)")

	return cmd
}

func newOrderShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ORDER",
		Short: "Show an order's tasks and their schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			order, err := resolveOrder(ctx, app, args[0])
			if err != nil {
				return err
			}
			tasks, err := app.Orders.ListTasks(ctx, order.ID)
			if err != nil {
				return err
			}
			committed, err := app.Planning.ScheduledForOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			byTask := make(map[string]domain.ScheduledTask, len(committed))
			for _, st := range committed {
				byTask[st.OrderTaskID] = st
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  qty %d  %s\n",
				formatter.StyleHeader.Render("Order "+order.DisplayID()),
				formatter.OrderStatusPill(order.Status),
				order.Quantity,
				formatter.Size(order.Width, order.Height))
			fmt.Fprintln(out, formatter.FormatOrderTasks(tasks, byTask, app.loc()))
			return nil
		},
	}
}

var errOrderRemoveDeclined = errors.New("order removal cancelled")

func newOrderRiskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "risk",
		Short: "Rank pending orders by due-date risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			risks, err := app.Planning.OrderRisks(context.Background(), app.now())
			if err != nil {
				return err
			}
			if len(risks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending orders.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatOrderRisks(risks))
			return nil
		},
	}
}

func newOrderRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm ORDER",
		Short: "Remove an order that has no scheduled tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			order, err := resolveOrder(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !yes && app.interactive() {
				confirmed := false
				if err := wizardConfirm(fmt.Sprintf("Remove order %s?", order.DisplayID()), &confirmed).Run(); err != nil {
					return err
				}
				if !confirmed {
					return errOrderRemoveDeclined
				}
			}
			if err := app.Orders.Delete(ctx, order.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed order %s\n", order.DisplayID())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}
