package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepo_CreateGetList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	cut := testutil.NewTestTask("Cut")
	fold := testutil.NewTestTask("Fold")
	require.NoError(t, repo.Create(ctx, fold))
	require.NoError(t, repo.Create(ctx, cut))

	fetched, err := repo.GetByName(ctx, "cut")
	require.NoError(t, err)
	assert.Equal(t, cut.ID, fetched.ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cut", all[0].Name)

	assert.Error(t, repo.Create(ctx, testutil.NewTestTask("Cut")), "names are unique")
}

func TestTaskRepo_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), ErrNotFound)
}

func TestMachineRepo_RulesRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	tasks := NewSQLiteTaskRepo(db)
	repo := NewSQLiteMachineRepo(db)
	ctx := context.Background()

	printing := testutil.NewTestTask("Print")
	require.NoError(t, tasks.Create(ctx, printing))

	brackets := domain.Bracketed(domain.ModeSheet,
		domain.SizeBracket{MaxWidth: 70, MaxHeight: 100, Rate: 40},
		domain.SizeBracket{Rate: 10},
	)
	brackets.PerPass = true
	m := testutil.NewTestMachine("Offset", testutil.WithRule(printing.ID, brackets), testutil.WithSetupFinish(20, 10))
	require.NoError(t, repo.Create(ctx, m))

	fetched, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Rules, 1)
	rule := fetched.Rules[0]
	assert.Equal(t, 20, rule.SetupTimeMin)
	assert.Equal(t, 10, rule.FinishTimeMin)
	assert.Equal(t, brackets, rule.WorkTime)

	byTask, err := repo.ListRulesByTask(ctx, printing.ID)
	require.NoError(t, err)
	require.Len(t, byTask, 1)
	assert.Equal(t, m.ID, byTask[0].MachineID)
}

func TestMachineRepo_UpsertRuleReplacesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	tasks := NewSQLiteTaskRepo(db)
	repo := NewSQLiteMachineRepo(db)
	ctx := context.Background()

	cut := testutil.NewTestTask("Cut")
	require.NoError(t, tasks.Create(ctx, cut))
	m := testutil.NewTestMachine("Guillotine", testutil.WithRule(cut.ID, domain.FlatRate(domain.ModeSheet, 100)))
	require.NoError(t, repo.Create(ctx, m))

	replacement := domain.MachineTaskRule{ID: "other", MachineID: m.ID, TaskID: cut.ID, WorkTime: domain.FlatRate(domain.ModeSheet, 250)}
	require.NoError(t, repo.UpsertRule(ctx, &replacement))

	fetched, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Rules, 1)
	assert.Equal(t, 250.0, fetched.Rules[0].WorkTime.Rate)

	require.NoError(t, repo.DeleteRule(ctx, m.ID, cut.ID))
	assert.ErrorIs(t, repo.DeleteRule(ctx, m.ID, cut.ID), ErrNotFound)
}

func TestMachineRepo_ListLoadsRules(t *testing.T) {
	db := testutil.NewTestDB(t)
	tasks := NewSQLiteTaskRepo(db)
	repo := NewSQLiteMachineRepo(db)
	ctx := context.Background()

	cut := testutil.NewTestTask("Cut")
	require.NoError(t, tasks.Create(ctx, cut))
	require.NoError(t, repo.Create(ctx, testutil.NewTestMachine("B", testutil.WithRule(cut.ID, domain.FlatRate(domain.ModeUnit, 1)))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestMachine("A")))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name)
	assert.Empty(t, all[0].Rules)
	assert.Len(t, all[1].Rules, 1)
}

func TestOperatorRepo_ScheduleAndSkills(t *testing.T) {
	db := testutil.NewTestDB(t)
	machines := NewSQLiteMachineRepo(db)
	repo := NewSQLiteOperatorRepo(db)
	ctx := context.Background()

	m1 := testutil.NewTestMachine("Offset")
	m2 := testutil.NewTestMachine("Folder")
	require.NoError(t, machines.Create(ctx, m1))
	require.NoError(t, machines.Create(ctx, m2))

	schedule := domain.WeeklySchedule{
		domain.Monday: {{Start: "06:00", End: "10:00"}, {Start: "11:00", End: "14:00"}},
	}
	ana := testutil.NewTestOperator("Ana", testutil.WithSchedule(schedule), testutil.WithSkills(m1.ID, m2.ID))
	luis := testutil.NewTestOperator("Luis", testutil.WithSkills(m2.ID))
	require.NoError(t, repo.Create(ctx, ana))
	require.NoError(t, repo.Create(ctx, luis))

	fetched, err := repo.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule, fetched.Schedule)
	assert.ElementsMatch(t, []string{m1.ID, m2.ID}, fetched.MachineIDs)

	onFolder, err := repo.ListByMachine(ctx, m2.ID)
	require.NoError(t, err)
	require.Len(t, onFolder, 2)
	assert.Equal(t, "Ana", onFolder[0].Name)

	luis.MachineIDs = []string{m1.ID}
	require.NoError(t, repo.Update(ctx, luis))
	onFolder, err = repo.ListByMachine(ctx, m2.ID)
	require.NoError(t, err)
	assert.Len(t, onFolder, 1)
}

func TestOperatorRepo_SkillsCascadeWithMachine(t *testing.T) {
	db := testutil.NewTestDB(t)
	machines := NewSQLiteMachineRepo(db)
	repo := NewSQLiteOperatorRepo(db)
	ctx := context.Background()

	m := testutil.NewTestMachine("Offset")
	require.NoError(t, machines.Create(ctx, m))
	op := testutil.NewTestOperator("Ana", testutil.WithSkills(m.ID))
	require.NoError(t, repo.Create(ctx, op))

	require.NoError(t, machines.Delete(ctx, m.ID))

	fetched, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.MachineIDs)
}

func TestProviderRepo_RulesByTask(t *testing.T) {
	db := testutil.NewTestDB(t)
	tasks := NewSQLiteTaskRepo(db)
	repo := NewSQLiteProviderRepo(db)
	ctx := context.Background()

	lam := testutil.NewTestTask("Laminate")
	require.NoError(t, tasks.Create(ctx, lam))
	p := testutil.NewTestProvider("Laminates Inc", testutil.WithDelivery(lam.ID, 3))
	require.NoError(t, repo.Create(ctx, p))

	rules, err := repo.ListRulesByTask(ctx, lam.ID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 3, rules[0].DeliveryTimeDays)

	fetched, err := repo.GetByName(ctx, "laminates inc")
	require.NoError(t, err)
	assert.Len(t, fetched.Rules, 1)
}

func TestProductRepo_WorkflowRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	tasks := NewSQLiteTaskRepo(db)
	repo := NewSQLiteProductRepo(db)
	ctx := context.Background()

	printing := testutil.NewTestTask("Print")
	varnish := testutil.NewTestTask("Varnish")
	require.NoError(t, tasks.Create(ctx, printing))
	require.NoError(t, tasks.Create(ctx, varnish))

	p := testutil.NewTestProduct("Poster",
		testutil.NewTestStep("s-print", printing.ID),
		testutil.NewTestStep("s-varnish", varnish.ID, testutil.Optional(), testutil.After("s-print")),
	)
	require.NoError(t, repo.Create(ctx, p))

	fetched, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Workflow, 2)
	assert.Equal(t, "s-print", fetched.Workflow[0].ID)
	assert.Empty(t, fetched.Workflow[0].Prerequisites)
	assert.True(t, fetched.Workflow[1].IsOptional)
	assert.Equal(t, []string{"s-print"}, fetched.Workflow[1].Prerequisites)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Workflow, 2)
}
