package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// resolveRef picks one item by exact id, then case-insensitive name, then
// unique id prefix.
func resolveRef[T any](kind, input string, items []T, id, name func(T) string) (T, error) {
	var zero T
	if input == "" {
		return zero, fmt.Errorf("%s is required", kind)
	}

	for _, it := range items {
		if id(it) == input {
			return it, nil
		}
	}
	for _, it := range items {
		if strings.EqualFold(name(it), input) {
			return it, nil
		}
	}

	var matches []T
	for _, it := range items {
		if strings.HasPrefix(id(it), input) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%s prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

func resolveTask(ctx context.Context, app *App, input string) (*domain.Task, error) {
	tasks, err := app.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolveRef("task", input, tasks,
		func(t *domain.Task) string { return t.ID },
		func(t *domain.Task) string { return t.Name })
}

func resolveMachine(ctx context.Context, app *App, input string) (*domain.Machine, error) {
	machines, err := app.Machines.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolveRef("machine", input, machines,
		func(m *domain.Machine) string { return m.ID },
		func(m *domain.Machine) string { return m.Name })
}

func resolveOperator(ctx context.Context, app *App, input string) (*domain.Operator, error) {
	ops, err := app.Operators.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolveRef("operator", input, ops,
		func(o *domain.Operator) string { return o.ID },
		func(o *domain.Operator) string { return o.Name })
}

func resolveProvider(ctx context.Context, app *App, input string) (*domain.Provider, error) {
	providers, err := app.Providers.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolveRef("provider", input, providers,
		func(p *domain.Provider) string { return p.ID },
		func(p *domain.Provider) string { return p.Name })
}

func resolveProduct(ctx context.Context, app *App, input string) (*domain.Product, error) {
	products, err := app.Products.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolveRef("product", input, products,
		func(p *domain.Product) string { return p.ID },
		func(p *domain.Product) string { return p.Name })
}

// resolveOrder matches an order number before falling back to ids.
func resolveOrder(ctx context.Context, app *App, input string) (*domain.Order, error) {
	orders, err := app.Orders.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return resolveRef("order", input, orders,
		func(o *domain.Order) string { return o.ID },
		func(o *domain.Order) string { return o.OrderNumber })
}

// resolveOrderTask accepts "ORDER:STEP", where STEP is a workflow step id or
// a task name, or an order task id prefix.
func resolveOrderTask(ctx context.Context, app *App, input string) (domain.OrderTask, error) {
	if orderRef, step, ok := strings.Cut(input, ":"); ok {
		order, err := resolveOrder(ctx, app, orderRef)
		if err != nil {
			return domain.OrderTask{}, err
		}
		tasks, err := app.Orders.ListTasks(ctx, order.ID)
		if err != nil {
			return domain.OrderTask{}, err
		}
		return resolveRef("order task", step, tasks,
			func(t domain.OrderTask) string { return t.WorkflowStepID },
			func(t domain.OrderTask) string { return t.TaskName })
	}

	orders, err := app.Orders.List(ctx, nil)
	if err != nil {
		return domain.OrderTask{}, err
	}
	var all []domain.OrderTask
	for _, o := range orders {
		tasks, err := app.Orders.ListTasks(ctx, o.ID)
		if err != nil {
			return domain.OrderTask{}, err
		}
		all = append(all, tasks...)
	}
	return resolveRef("order task", input, all,
		func(t domain.OrderTask) string { return t.ID },
		func(domain.OrderTask) string { return "" })
}

// catalogNames loads the id to name maps used by formatters.
type catalogNames struct {
	tasks     map[string]string
	machines  map[string]string
	operators map[string]string
	products  map[string]string
}

func loadCatalogNames(ctx context.Context, app *App) (catalogNames, error) {
	names := catalogNames{
		tasks:     map[string]string{},
		machines:  map[string]string{},
		operators: map[string]string{},
		products:  map[string]string{},
	}
	tasks, err := app.Tasks.List(ctx)
	if err != nil {
		return names, err
	}
	for _, t := range tasks {
		names.tasks[t.ID] = t.Name
	}
	machines, err := app.Machines.List(ctx)
	if err != nil {
		return names, err
	}
	for _, m := range machines {
		names.machines[m.ID] = m.Name
	}
	ops, err := app.Operators.List(ctx)
	if err != nil {
		return names, err
	}
	for _, o := range ops {
		names.operators[o.ID] = o.Name
	}
	products, err := app.Products.List(ctx)
	if err != nil {
		return names, err
	}
	for _, p := range products {
		names.products[p.ID] = p.Name
	}
	return names, nil
}
