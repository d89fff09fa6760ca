package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/repository"
	"github.com/alexanderramin/slotwise/internal/scheduler"
	"github.com/alexanderramin/slotwise/internal/service"
	"github.com/alexanderramin/slotwise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday08 is the planning clock for CLI tests.
var monday08 = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	tasks := repository.NewSQLiteTaskRepo(database)
	machines := repository.NewSQLiteMachineRepo(database)
	operators := repository.NewSQLiteOperatorRepo(database)
	providers := repository.NewSQLiteProviderRepo(database)
	orders := repository.NewSQLiteOrderRepo(database)
	orderTasks := repository.NewSQLiteOrderTaskRepo(database)

	cfg := scheduler.DefaultSearchConfig()
	cfg.Location = time.UTC

	return &App{
		Tasks:     service.NewTaskService(tasks),
		Machines:  service.NewMachineService(machines, tasks, uow),
		Operators: service.NewOperatorService(operators, uow),
		Providers: service.NewProviderService(providers, tasks, uow),
		Products:  service.NewProductService(repository.NewSQLiteProductRepo(database), uow),
		Orders:    service.NewOrderService(orders, orderTasks, uow, scheduler.DefaultRatePolicy()),
		Planning: service.NewPlanningService(orders, orderTasks, repository.NewSQLiteScheduledTaskRepo(database),
			operators, machines, providers, uow, cfg),
		Import:   service.NewImportService(uow),
		Location: time.UTC,
		Now:      func() time.Time { return monday08 },
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return stripANSI(buf.String()), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "slotwise %v\n%s", args, out)
	return out
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// seedShop builds a two-step flyer shop through the CLI: Print runs on
// Press (60 sheets/h), Cut on Guillotine (120 sheets/h) or at Outsource in
// two days. Ana runs both machines, Ben only Press.
func seedShop(t *testing.T, app *App) {
	t.Helper()
	mustRun(t, app, "task", "add", "Print")
	mustRun(t, app, "task", "add", "Cut")
	mustRun(t, app, "machine", "add", "Press")
	mustRun(t, app, "machine", "add", "Guillotine")
	mustRun(t, app, "machine", "rule", "set", "Press", "Print", "--rate", "60")
	mustRun(t, app, "machine", "rule", "set", "Guillotine", "Cut", "--mode", "hoja", "--rate", "120")
	mustRun(t, app, "operator", "add", "Ana", "--machine", "Press", "--machine", "Guillotine")
	mustRun(t, app, "operator", "add", "Ben", "--machine", "Press")
	mustRun(t, app, "provider", "add", "Outsource", "--task", "Cut=2")
	mustRun(t, app, "product", "add", "Flyer", "--step", "p=Print", "--step", "c=Cut;after=p")
}

func TestCLI_CatalogListings(t *testing.T) {
	app := testApp(t)
	seedShop(t, app)

	out := mustRun(t, app, "machine", "show", "press")
	assert.Contains(t, out, "Print")
	assert.Contains(t, out, "sheet · 60/h")

	out = mustRun(t, app, "operator", "list")
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "mon 08:00-16:00")
	assert.NotContains(t, out, "sat")

	out = mustRun(t, app, "provider", "list")
	assert.Contains(t, out, "Outsource")

	out = mustRun(t, app, "product", "show", "Flyer")
	assert.Contains(t, out, "Print")
	assert.Contains(t, out, "Cut")
}

func TestCLI_PlanOrderEndToEnd(t *testing.T) {
	app := testApp(t)
	seedShop(t, app)

	out := mustRun(t, app, "order", "create", "--product", "flyer", "--qty", "120", "--size", "70x100", "--number", "A-1")
	assert.Contains(t, out, "Created order A-1 with 2 tasks")

	out = mustRun(t, app, "plan", "ready")
	assert.Contains(t, out, "A-1")
	assert.Contains(t, out, "Print")
	assert.NotContains(t, out, "Cut")

	out = mustRun(t, app, "plan", "slots", "A-1:print")
	assert.Contains(t, out, "SLOTS FOUND")
	assert.Contains(t, out, "Press")
	assert.Contains(t, out, "Mon 06 Jan 08:00 → 10:00")

	out = mustRun(t, app, "plan", "commit", "A-1:Print", "--start", "2025-01-06 08:00", "--machine", "Press", "--operator", "Ana")
	assert.Contains(t, out, "Scheduled on Press Mon 06 Jan 08:00 → 10:00 with Ana")
	assert.NotContains(t, out, "Order fully planned.")

	out = mustRun(t, app, "plan", "slots", "A-1:Cut")
	assert.Contains(t, out, "Guillotine")
	assert.Contains(t, out, "Outsource")
	assert.Contains(t, out, "Mon 06 Jan 10:00 → 11:00")

	out = mustRun(t, app, "plan", "commit", "A-1:Cut", "--start", "2025-01-06 10:00", "--provider", "Outsource")
	assert.Contains(t, out, "Order fully planned.")

	out = mustRun(t, app, "order", "list", "--status", "planned")
	assert.Contains(t, out, "A-1")

	out = mustRun(t, app, "order", "show", "A-1")
	assert.Contains(t, out, "Order A-1")
	assert.Contains(t, out, "Mon 06 Jan 08:00 → 10:00")

	out = mustRun(t, app, "schedule", "--from", "2025-01-06", "--days", "3")
	assert.Contains(t, out, "Press")
	assert.Contains(t, out, "Outsource")
	assert.Contains(t, out, "Ana")

	out = mustRun(t, app, "plan", "ready")
	assert.Contains(t, out, "Nothing ready to plan.")
}

func TestCLI_CommitConflictIsReported(t *testing.T) {
	app := testApp(t)
	seedShop(t, app)
	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "120", "--number", "A-1")
	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "120", "--number", "A-2")
	mustRun(t, app, "plan", "commit", "A-1:Print", "--start", "2025-01-06 08:00", "--machine", "Press", "--operator", "Ana")

	_, err := executeCmd(t, app, "plan", "commit", "A-2:Print", "--start", "2025-01-06 09:00", "--machine", "Press", "--operator", "Ben")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSlotConflict)

	out := mustRun(t, app, "plan", "slots", "A-2:Print")
	assert.Contains(t, out, "Mon 06 Jan 10:00 → 12:00")
}

func TestCLI_OrderCreateOptionsResolveSteps(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "task", "add", "Print")
	mustRun(t, app, "task", "add", "Varnish")
	mustRun(t, app, "machine", "add", "Press")
	mustRun(t, app, "machine", "rule", "set", "Press", "Print", "--rate", "60")
	mustRun(t, app, "machine", "add", "Coater")
	mustRun(t, app, "machine", "rule", "set", "Coater", "Varnish", "--rate", "60", "--per-pass")
	mustRun(t, app, "operator", "add", "Ana", "--machine", "Press", "--machine", "Coater")
	mustRun(t, app, "product", "add", "Card", "--step", "p=Print", "--step", "v=Varnish;after=p;optional")

	out := mustRun(t, app, "order", "create", "--product", "Card", "--qty", "30", "--number", "C-1")
	assert.Contains(t, out, "with 1 tasks")

	out = mustRun(t, app, "order", "create", "--product", "Card", "--qty", "30", "--number", "C-2",
		"--with", "varnish", "--passes", "Varnish=3")
	assert.Contains(t, out, "with 2 tasks")

	out = mustRun(t, app, "order", "show", "C-2")
	assert.Contains(t, out, "Coater 1h 30m")
}

func TestCLI_FlagErrors(t *testing.T) {
	app := testApp(t)
	seedShop(t, app)
	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "10", "--number", "A-1")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"order without qty off a terminal", []string{"order", "create", "--product", "Flyer"}, "--product and --qty are required"},
		{"machine and provider together", []string{"plan", "commit", "A-1:Print", "--start", "2025-01-06 08:00", "--machine", "Press", "--provider", "Outsource"}, "either --machine"},
		{"machine without operator", []string{"plan", "commit", "A-1:Print", "--start", "2025-01-06 08:00", "--machine", "Press"}, "--operator is required"},
		{"bad start", []string{"plan", "commit", "A-1:Print", "--start", "tomorrow", "--provider", "Outsource"}, "start \"tomorrow\""},
		{"unknown order", []string{"plan", "slots", "Z-9:Print"}, "order not found"},
		{"bad mode", []string{"machine", "rule", "set", "Press", "Print", "--mode", "sheets-ish"}, "--mode"},
		{"bad shift", []string{"operator", "add", "Cleo", "--shift", "fri-mon 08:00-12:00"}, "runs backwards"},
		{"board off a terminal", []string{"plan", "board"}, "needs a terminal"},
		{"non-positive days", []string{"schedule", "--days", "0"}, "--days must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCmd(t, app, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCLI_OrderRemove(t *testing.T) {
	app := testApp(t)
	seedShop(t, app)
	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "10", "--number", "A-1")
	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "10", "--number", "A-2")
	mustRun(t, app, "plan", "commit", "A-2:Print", "--start", "2025-01-06 08:00", "--machine", "Press", "--operator", "Ben")

	out := mustRun(t, app, "order", "rm", "A-1")
	assert.Contains(t, out, "Removed order A-1")

	_, err := executeCmd(t, app, "order", "rm", "A-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduled tasks")
}

func TestCLI_OrderRiskRanksLateOrdersFirst(t *testing.T) {
	app := testApp(t)
	seedShop(t, app)

	out := mustRun(t, app, "order", "risk")
	assert.Contains(t, out, "No pending orders.")

	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "120", "--number", "CALM", "--due", "2025-01-20")
	mustRun(t, app, "order", "create", "--product", "Flyer", "--qty", "120", "--number", "LATE", "--due", "2025-01-05")

	out = mustRun(t, app, "order", "risk")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "ON TRACK")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "1 Critical, 0 At Risk, 1 On Track")
	assert.Less(t, strings.Index(out, "LATE"), strings.Index(out, "CALM"))
}

func TestCLI_ImportCatalog(t *testing.T) {
	app := testApp(t)

	out := mustRun(t, app, "import", "../importer/testdata/catalog.json")
	assert.Contains(t, out, "Imported 3 tasks, 2 machines")
	assert.Contains(t, out, "warning:")

	out = mustRun(t, app, "machine", "list")
	assert.Contains(t, out, "Offset Press")
}
