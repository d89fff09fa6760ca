package importer

import (
	"testing"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *GeneratedCatalog {
	t.Helper()
	schema, err := LoadCatalogSchema("testdata/catalog.json")
	require.NoError(t, err)
	require.Empty(t, ValidateCatalogSchema(schema))
	out, err := Convert(schema)
	require.NoError(t, err)
	return out
}

func TestConvert_ResolvesRefs(t *testing.T) {
	out := loadFixture(t)

	require.Len(t, out.Tasks, 3)
	require.Len(t, out.Machines, 2)
	require.Len(t, out.Operators, 1)
	require.Len(t, out.Providers, 1)
	require.Len(t, out.Products, 1)
	assert.Equal(t, 3, out.RuleCount())

	taskByName := map[string]string{}
	for _, tk := range out.Tasks {
		taskByName[tk.Name] = tk.ID
	}

	offset := out.Machines[0]
	rule, ok := offset.RuleFor(taskByName["Print"])
	require.True(t, ok)
	assert.Equal(t, offset.ID, rule.MachineID)
	assert.Equal(t, 20, rule.SetupTimeMin)
	assert.Equal(t, 10, rule.FinishTimeMin)
	assert.Equal(t, domain.ModeSheet, rule.WorkTime.Mode)
	assert.Len(t, rule.WorkTime.Brackets, 3)

	op := out.Operators[0]
	assert.ElementsMatch(t, []string{out.Machines[0].ID, out.Machines[1].ID}, op.MachineIDs)
	assert.Equal(t, "Mensual", op.Type)
	assert.Len(t, op.Schedule[domain.Monday], 2)
	assert.Len(t, op.Schedule[domain.Friday], 1)
	require.NoError(t, op.Schedule.Validate())

	lamco := out.Providers[0]
	prule, ok := lamco.RuleFor(taskByName["Laminate"])
	require.True(t, ok)
	assert.Equal(t, 3, prule.DeliveryTimeDays)
}

func TestConvert_WorkflowPrerequisitesUseStepIDs(t *testing.T) {
	out := loadFixture(t)
	product := out.Products[0]
	require.Len(t, product.Workflow, 3)

	printing, laminate, cut := product.Workflow[0], product.Workflow[1], product.Workflow[2]
	assert.True(t, laminate.IsOptional)
	assert.Equal(t, []string{printing.ID}, laminate.Prerequisites)
	assert.Equal(t, []string{printing.ID, laminate.ID}, cut.Prerequisites)
	assert.Equal(t, 2, cut.Position)
	assert.Equal(t, product.ID, cut.ProductID)
	require.NoError(t, product.ValidateWorkflow())
}

func TestConvert_CollectsLegacyWarnings(t *testing.T) {
	out := loadFixture(t)

	require.Len(t, out.Warnings, 2)
	assert.Contains(t, out.Warnings[0], `machine "Offset Press"`)
	assert.Contains(t, out.Warnings[1], "size brackets")
}
