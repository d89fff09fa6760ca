package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/slotwise/internal/cli/formatter"
	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task catalog",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Register a task type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := app.Tasks.Create(context.Background(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s [%s]\n", t.Name, formatter.TruncID(t.ID))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List task types",
			RunE: func(cmd *cobra.Command, args []string) error {
				tasks, err := app.Tasks.List(context.Background())
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskList(tasks))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm TASK",
			Short: "Remove a task type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				t, err := resolveTask(ctx, app, args[0])
				if err != nil {
					return err
				}
				if err := app.Tasks.Delete(ctx, t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", t.Name)
				return nil
			},
		},
	)

	return cmd
}

func newMachineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Manage machines and their work-time rules",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Register a machine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m := &domain.Machine{Name: args[0]}
				if err := app.Machines.Create(context.Background(), m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created machine %s [%s]\n", m.Name, formatter.TruncID(m.ID))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List machines",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				machines, err := app.Machines.List(ctx)
				if err != nil {
					return err
				}
				if len(machines) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No machines found.")
					return nil
				}
				names, err := loadCatalogNames(ctx, app)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatMachineList(machines, names.tasks))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show MACHINE",
			Short: "Show a machine's rules",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				m, err := resolveMachine(ctx, app, args[0])
				if err != nil {
					return err
				}
				names, err := loadCatalogNames(ctx, app)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatMachine(m, names.tasks))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm MACHINE",
			Short: "Remove a machine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				m, err := resolveMachine(ctx, app, args[0])
				if err != nil {
					return err
				}
				if err := app.Machines.Delete(ctx, m.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed machine %s\n", m.Name)
				return nil
			},
		},
		newMachineRuleCmd(app),
	)

	return cmd
}

func newMachineRuleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Set or remove a machine's rule for a task",
	}

	var (
		mode          = modeValue(domain.ModeSheet)
		rate          float64
		brackets      []string
		perPass       bool
		setup, finish int
	)
	set := &cobra.Command{
		Use:   "set MACHINE TASK",
		Short: "Create or replace the rule for a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			m, err := resolveMachine(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := resolveTask(ctx, app, args[1])
			if err != nil {
				return err
			}
			rm := domain.RuleMode(mode)

			work := domain.FlatRate(rm, rate)
			if len(brackets) > 0 {
				var bs []domain.SizeBracket
				for _, b := range brackets {
					br, err := parseBracket(b)
					if err != nil {
						return err
					}
					bs = append(bs, br)
				}
				work = domain.Bracketed(rm, bs...)
			}
			work.PerPass = perPass

			rule := &domain.MachineTaskRule{
				MachineID:     m.ID,
				TaskID:        t.ID,
				SetupTimeMin:  setup,
				FinishTimeMin: finish,
				WorkTime:      work,
			}
			if err := app.Machines.SetRule(ctx, rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s runs %s: %s\n", m.Name, t.Name, formatter.DescribeRule(work))
			return nil
		},
	}
	set.Flags().Var(&mode, "mode", "Work unit: sheet, unit or block")
	set.Flags().Float64Var(&rate, "rate", 0, "Units per hour (0 marks the machine unusable for the task)")
	set.Flags().StringArrayVar(&brackets, "bracket", nil, "Size-dependent rate WxH:RATE or any:RATE (repeatable)")
	set.Flags().BoolVar(&perPass, "per-pass", false, "Multiply the duration by the order's pass count")
	set.Flags().IntVar(&setup, "setup", 0, "Setup minutes")
	set.Flags().IntVar(&finish, "finish", 0, "Finish minutes")

	rm := &cobra.Command{
		Use:   "rm MACHINE TASK",
		Short: "Remove the rule for a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			m, err := resolveMachine(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := resolveTask(ctx, app, args[1])
			if err != nil {
				return err
			}
			if err := app.Machines.RemoveRule(ctx, m.ID, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s no longer runs %s\n", m.Name, t.Name)
			return nil
		},
	}

	cmd.AddCommand(set, rm)
	return cmd
}

// resolveMachineIDs maps machine references to ids.
func resolveMachineIDs(ctx context.Context, app *App, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		m, err := resolveMachine(ctx, app, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func newOperatorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage operators, their skills and shifts",
	}

	var (
		opType   string
		machines []string
		shifts   []string
	)
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register an operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			ids, err := resolveMachineIDs(ctx, app, machines)
			if err != nil {
				return err
			}
			schedule, err := parseShifts(shifts)
			if err != nil {
				return err
			}
			o := &domain.Operator{Name: args[0], Type: opType, MachineIDs: ids, Schedule: schedule}
			if err := app.Operators.Create(ctx, o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created operator %s [%s] %s\n",
				o.Name, formatter.TruncID(o.ID), formatter.DescribeSchedule(o.Schedule))
			return nil
		},
	}
	add.Flags().StringVar(&opType, "type", "", "Operator type (default \"operator\")")
	add.Flags().StringArrayVar(&machines, "machine", nil, "Machine the operator can run (repeatable)")
	add.Flags().StringArrayVar(&shifts, "shift", []string{"mon-fri 08:00-16:00"}, "Shift as DAYS HH:MM-HH:MM... (repeatable)")

	var skillMachines []string
	skills := &cobra.Command{
		Use:   "skills OPERATOR",
		Short: "Replace the machines an operator can run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			o, err := resolveOperator(ctx, app, args[0])
			if err != nil {
				return err
			}
			ids, err := resolveMachineIDs(ctx, app, skillMachines)
			if err != nil {
				return err
			}
			o.MachineIDs = ids
			if err := app.Operators.Update(ctx, o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s can run %d machine(s)\n", o.Name, len(o.MachineIDs))
			return nil
		},
	}
	skills.Flags().StringArrayVar(&skillMachines, "machine", nil, "Machine the operator can run (repeatable)")

	cmd.AddCommand(
		add,
		skills,
		&cobra.Command{
			Use:   "list",
			Short: "List operators",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				ops, err := app.Operators.List(ctx)
				if err != nil {
					return err
				}
				if len(ops) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No operators found.")
					return nil
				}
				names, err := loadCatalogNames(ctx, app)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatOperatorList(ops, names.machines))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm OPERATOR",
			Short: "Remove an operator",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				o, err := resolveOperator(ctx, app, args[0])
				if err != nil {
					return err
				}
				if err := app.Operators.Delete(ctx, o.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed operator %s\n", o.Name)
				return nil
			},
		},
	)

	return cmd
}

func newProviderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage external providers",
	}

	var taskDays []string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			days, err := parseKeyInts("task", taskDays)
			if err != nil {
				return err
			}
			p := &domain.Provider{Name: args[0]}
			for ref, n := range days {
				t, err := resolveTask(ctx, app, ref)
				if err != nil {
					return err
				}
				p.Rules = append(p.Rules, domain.ProviderTaskRule{TaskID: t.ID, DeliveryTimeDays: n})
			}
			if err := app.Providers.Create(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created provider %s [%s] with %d rule(s)\n", p.Name, formatter.TruncID(p.ID), len(p.Rules))
			return nil
		},
	}
	add.Flags().StringArrayVar(&taskDays, "task", nil, "Task the provider delivers as TASK=DAYS (repeatable)")

	var days int
	ruleSet := &cobra.Command{
		Use:   "rule PROVIDER TASK",
		Short: "Set the delivery days for a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProvider(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := resolveTask(ctx, app, args[1])
			if err != nil {
				return err
			}
			rule := &domain.ProviderTaskRule{ProviderID: p.ID, TaskID: t.ID, DeliveryTimeDays: days}
			if existing, ok := p.RuleFor(t.ID); ok {
				rule.ID = existing.ID
			}
			if err := app.Providers.SetRule(ctx, rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s delivers %s in %d day(s)\n", p.Name, t.Name, days)
			return nil
		},
	}
	ruleSet.Flags().IntVar(&days, "days", 1, "Delivery time in days")

	cmd.AddCommand(
		add,
		ruleSet,
		&cobra.Command{
			Use:   "list",
			Short: "List providers",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				providers, err := app.Providers.List(ctx)
				if err != nil {
					return err
				}
				if len(providers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No providers found.")
					return nil
				}
				names, err := loadCatalogNames(ctx, app)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProviderList(providers, names.tasks))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm PROVIDER",
			Short: "Remove a provider",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				p, err := resolveProvider(ctx, app, args[0])
				if err != nil {
					return err
				}
				if err := app.Providers.Delete(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed provider %s\n", p.Name)
				return nil
			},
		},
	)

	return cmd
}

func newProductCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products and their workflows",
	}

	var steps []string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Define a product workflow",
		Long: `Define a product and its workflow steps. Each --step is
ID=TASK[;after=A,B][;optional], where ID is a label local to this command
and after= lists the labels of prerequisite steps.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := buildProduct(ctx, app, args[0], steps)
			if err != nil {
				return err
			}
			if err := app.Products.Create(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created product %s [%s] with %d step(s)\n", p.Name, formatter.TruncID(p.ID), len(p.Workflow))
			return nil
		},
	}
	add.Flags().StringArrayVar(&steps, "step", nil, "Workflow step ID=TASK[;after=A,B][;optional] (repeatable)")
	_ = add.MarkFlagRequired("step")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "list",
			Short: "List products",
			RunE: func(cmd *cobra.Command, args []string) error {
				products, err := app.Products.List(context.Background())
				if err != nil {
					return err
				}
				if len(products) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No products found.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProductList(products))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show PRODUCT",
			Short: "Show a product's workflow",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				p, err := resolveProduct(ctx, app, args[0])
				if err != nil {
					return err
				}
				names, err := loadCatalogNames(ctx, app)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProduct(p, names.tasks))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm PRODUCT",
			Short: "Remove a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				p, err := resolveProduct(ctx, app, args[0])
				if err != nil {
					return err
				}
				if err := app.Products.Delete(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed product %s\n", p.Name)
				return nil
			},
		},
	)

	return cmd
}

// buildProduct turns --step values into a product with generated step ids.
func buildProduct(ctx context.Context, app *App, name string, values []string) (*domain.Product, error) {
	specs := make([]stepSpec, 0, len(values))
	ids := make(map[string]string, len(values))
	for _, v := range values {
		spec, err := parseStepSpec(v)
		if err != nil {
			return nil, err
		}
		if _, dup := ids[spec.ID]; dup {
			return nil, fmt.Errorf("step %q is defined twice", spec.ID)
		}
		ids[spec.ID] = uuid.New().String()
		specs = append(specs, spec)
	}

	p := &domain.Product{Name: name}
	for _, spec := range specs {
		t, err := resolveTask(ctx, app, spec.Task)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", spec.ID, err)
		}
		step := domain.WorkflowStep{ID: ids[spec.ID], TaskID: t.ID, IsOptional: spec.Optional}
		for _, pre := range spec.After {
			preID, ok := ids[pre]
			if !ok {
				return nil, fmt.Errorf("step %q: unknown prerequisite %q", spec.ID, pre)
			}
			step.Prerequisites = append(step.Prerequisites, preID)
		}
		p.Workflow = append(p.Workflow, step)
	}
	return p, nil
}
