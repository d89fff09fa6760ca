package importer

import (
	"encoding/json"
	"fmt"
	"os"
)

// CatalogSchema is the top-level JSON structure for catalog import. Entities
// reference each other through file-local refs.
type CatalogSchema struct {
	Tasks     []TaskImport     `json:"tasks"`
	Machines  []MachineImport  `json:"machines,omitempty"`
	Operators []OperatorImport `json:"operators,omitempty"`
	Providers []ProviderImport `json:"providers,omitempty"`
	Products  []ProductImport  `json:"products,omitempty"`
}

type TaskImport struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
}

type MachineImport struct {
	Ref   string              `json:"ref"`
	Name  string              `json:"name"`
	Tasks []MachineTaskImport `json:"tasks,omitempty"`
}

// MachineTaskImport binds a machine to a task. WorkTimeRules is kept raw
// because several historical shapes are accepted; see NormalizeWorkTimeRules.
type MachineTaskImport struct {
	TaskRef       string          `json:"task_ref"`
	SetupTimeMin  *int            `json:"setup_time_min,omitempty"`
	FinishTimeMin *int            `json:"finish_time_min,omitempty"`
	WorkTimeRules json.RawMessage `json:"work_time_rules"`
}

// ShiftImport is one working period of an operator schedule day.
type ShiftImport struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type OperatorImport struct {
	Ref         string                   `json:"ref"`
	Name        string                   `json:"name"`
	Type        string                   `json:"type,omitempty"`
	Schedule    map[string][]ShiftImport `json:"schedule,omitempty"`
	MachineRefs []string                 `json:"machine_refs,omitempty"`
}

type ProviderImport struct {
	Ref   string               `json:"ref"`
	Name  string               `json:"name"`
	Tasks []ProviderTaskImport `json:"tasks,omitempty"`
}

type ProviderTaskImport struct {
	TaskRef          string `json:"task_ref"`
	DeliveryTimeDays int    `json:"delivery_time_days"`
}

type ProductImport struct {
	Ref      string       `json:"ref"`
	Name     string       `json:"name"`
	Workflow []StepImport `json:"workflow"`
}

// StepImport is a workflow step. Prerequisites name other steps of the same
// product by ref.
type StepImport struct {
	Ref           string   `json:"ref"`
	TaskRef       string   `json:"task_ref"`
	Optional      bool     `json:"optional,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// LoadCatalogSchema reads and parses a catalog import JSON file.
func LoadCatalogSchema(path string) (*CatalogSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogSchema(data)
}

func ParseCatalogSchema(data []byte) (*CatalogSchema, error) {
	var schema CatalogSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
