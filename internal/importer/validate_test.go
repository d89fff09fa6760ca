package importer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinimalSchema() *CatalogSchema {
	return &CatalogSchema{
		Tasks: []TaskImport{{Ref: "cut", Name: "Cut"}},
		Machines: []MachineImport{{
			Ref:  "g1",
			Name: "Guillotine",
			Tasks: []MachineTaskImport{{
				TaskRef:       "cut",
				WorkTimeRules: json.RawMessage(`{"mode":"sheet","rate":100}`),
			}},
		}},
		Operators: []OperatorImport{{
			Ref:         "ana",
			Name:        "Ana",
			Schedule:    map[string][]ShiftImport{"monday": {{Start: "08:00", End: "16:00"}}},
			MachineRefs: []string{"g1"},
		}},
		Products: []ProductImport{{
			Ref:      "flyer",
			Name:     "Flyer",
			Workflow: []StepImport{{Ref: "s1", TaskRef: "cut"}},
		}},
	}
}

func errorStrings(errs []error) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func TestValidateCatalogSchema_ValidMinimal(t *testing.T) {
	errs := ValidateCatalogSchema(validMinimalSchema())
	assert.Empty(t, errs)
}

func TestValidateCatalogSchema_ValidFixture(t *testing.T) {
	schema, err := LoadCatalogSchema("testdata/catalog.json")
	require.NoError(t, err)
	assert.Empty(t, ValidateCatalogSchema(schema))
}

func TestValidateCatalogSchema_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *CatalogSchema)
		wantErr string
	}{
		{"task without ref", func(s *CatalogSchema) { s.Tasks[0].Ref = "" }, "tasks[0].ref is required"},
		{"duplicate task ref", func(s *CatalogSchema) {
			s.Tasks = append(s.Tasks, TaskImport{Ref: "cut", Name: "Cut 2"})
		}, `tasks[1].ref: duplicate ref "cut"`},
		{"task without name", func(s *CatalogSchema) { s.Tasks[0].Name = "" }, "tasks[0].name is required"},
		{"machine unknown task", func(s *CatalogSchema) { s.Machines[0].Tasks[0].TaskRef = "fold" }, `ref "fold" not found in tasks`},
		{"machine duplicate rule", func(s *CatalogSchema) {
			s.Machines[0].Tasks = append(s.Machines[0].Tasks, s.Machines[0].Tasks[0])
		}, "already has a rule"},
		{"machine bad rule", func(s *CatalogSchema) {
			s.Machines[0].Tasks[0].WorkTimeRules = json.RawMessage(`{"mode":"fold","rate":1}`)
		}, "machines[0].tasks[0].work_time_rules.mode"},
		{"negative setup", func(s *CatalogSchema) {
			n := -5
			s.Machines[0].Tasks[0].SetupTimeMin = &n
		}, "must not be negative"},
		{"operator unknown day", func(s *CatalogSchema) {
			s.Operators[0].Schedule = map[string][]ShiftImport{"feriado": {{Start: "08:00", End: "12:00"}}}
		}, "operators[0].schedule: unknown day"},
		{"operator inverted shift", func(s *CatalogSchema) {
			s.Operators[0].Schedule = map[string][]ShiftImport{"lunes": {{Start: "12:00", End: "08:00"}}}
		}, "must be after start"},
		{"operator unknown machine", func(s *CatalogSchema) { s.Operators[0].MachineRefs = []string{"m9"} }, `machine_refs[0]: ref "m9" not found`},
		{"provider negative delivery", func(s *CatalogSchema) {
			s.Providers = []ProviderImport{{Ref: "p", Name: "P", Tasks: []ProviderTaskImport{{TaskRef: "cut", DeliveryTimeDays: -1}}}}
		}, "delivery_time_days must not be negative"},
		{"product without steps", func(s *CatalogSchema) { s.Products[0].Workflow = nil }, "at least one step"},
		{"product unknown prerequisite", func(s *CatalogSchema) {
			s.Products[0].Workflow[0].Prerequisites = []string{"s9"}
		}, "unknown prerequisite s9"},
		{"product cycle", func(s *CatalogSchema) {
			s.Products[0].Workflow = []StepImport{
				{Ref: "a", TaskRef: "cut", Prerequisites: []string{"b"}},
				{Ref: "b", TaskRef: "cut", Prerequisites: []string{"a"}},
			}
		}, "cycle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validMinimalSchema()
			tt.mutate(s)
			errs := ValidateCatalogSchema(s)
			require.NotEmpty(t, errs)
			assert.Contains(t, errorStrings(errs), tt.wantErr)
		})
	}
}

func TestValidateCatalogSchema_CollectsAllErrors(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks[0].Name = ""
	s.Operators[0].Name = ""
	s.Products[0].Name = ""

	errs := ValidateCatalogSchema(s)
	assert.Len(t, errs, 3)
}
