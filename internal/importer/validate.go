package importer

import (
	"fmt"

	"github.com/alexanderramin/slotwise/internal/domain"
)

type refSet map[string]bool

// claim records ref and reports a validation error if it is empty or taken.
func (s refSet) claim(prefix, ref string) error {
	if ref == "" {
		return fmt.Errorf("%s.ref is required", prefix)
	}
	if s[ref] {
		return fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)
	}
	s[ref] = true
	return nil
}

// ValidateCatalogSchema checks the catalog before conversion.
// Returns a slice of all validation errors found.
func ValidateCatalogSchema(schema *CatalogSchema) []error {
	var errs []error

	taskRefs := refSet{}
	for i, t := range schema.Tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		if err := taskRefs.claim(prefix, t.Ref); err != nil {
			errs = append(errs, err)
		}
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
	}

	machineRefs := refSet{}
	errs = append(errs, validateMachines(schema.Machines, taskRefs, machineRefs)...)
	errs = append(errs, validateOperators(schema.Operators, machineRefs)...)
	errs = append(errs, validateProviders(schema.Providers, taskRefs)...)
	errs = append(errs, validateProducts(schema.Products, taskRefs)...)

	return errs
}

func validateMachines(machines []MachineImport, taskRefs, machineRefs refSet) []error {
	var errs []error
	for i, m := range machines {
		prefix := fmt.Sprintf("machines[%d]", i)
		if err := machineRefs.claim(prefix, m.Ref); err != nil {
			errs = append(errs, err)
		}
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}

		seen := refSet{}
		for j, mt := range m.Tasks {
			tp := fmt.Sprintf("%s.tasks[%d]", prefix, j)
			switch {
			case mt.TaskRef == "":
				errs = append(errs, fmt.Errorf("%s.task_ref is required", tp))
			case !taskRefs[mt.TaskRef]:
				errs = append(errs, fmt.Errorf("%s.task_ref: ref %q not found in tasks", tp, mt.TaskRef))
			case seen[mt.TaskRef]:
				errs = append(errs, fmt.Errorf("%s.task_ref: machine already has a rule for %q", tp, mt.TaskRef))
			}
			seen[mt.TaskRef] = true

			if firstSet(0, mt.SetupTimeMin) < 0 || firstSet(0, mt.FinishTimeMin) < 0 {
				errs = append(errs, fmt.Errorf("%s: setup and finish times must not be negative", tp))
			}
			if _, _, err := NormalizeWorkTimeRules(mt.WorkTimeRules); err != nil {
				errs = append(errs, fmt.Errorf("%s.%w", tp, err))
			}
		}
	}
	return errs
}

func validateOperators(operators []OperatorImport, machineRefs refSet) []error {
	var errs []error
	operatorRefs := refSet{}
	for i, o := range operators {
		prefix := fmt.Sprintf("operators[%d]", i)
		if err := operatorRefs.claim(prefix, o.Ref); err != nil {
			errs = append(errs, err)
		}
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}

		schedule, err := NormalizeSchedule(o.Schedule)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.schedule: %w", prefix, err))
		} else if err := schedule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.%w", prefix, err))
		}

		for j, ref := range o.MachineRefs {
			if !machineRefs[ref] {
				errs = append(errs, fmt.Errorf("%s.machine_refs[%d]: ref %q not found in machines", prefix, j, ref))
			}
		}
	}
	return errs
}

func validateProviders(providers []ProviderImport, taskRefs refSet) []error {
	var errs []error
	providerRefs := refSet{}
	for i, p := range providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if err := providerRefs.claim(prefix, p.Ref); err != nil {
			errs = append(errs, err)
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		for j, pt := range p.Tasks {
			tp := fmt.Sprintf("%s.tasks[%d]", prefix, j)
			if !taskRefs[pt.TaskRef] {
				errs = append(errs, fmt.Errorf("%s.task_ref: ref %q not found in tasks", tp, pt.TaskRef))
			}
			if pt.DeliveryTimeDays < 0 {
				errs = append(errs, fmt.Errorf("%s.delivery_time_days must not be negative", tp))
			}
		}
	}
	return errs
}

func validateProducts(products []ProductImport, taskRefs refSet) []error {
	var errs []error
	productRefs := refSet{}
	for i, p := range products {
		prefix := fmt.Sprintf("products[%d]", i)
		if err := productRefs.claim(prefix, p.Ref); err != nil {
			errs = append(errs, err)
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if len(p.Workflow) == 0 {
			errs = append(errs, fmt.Errorf("%s.workflow must contain at least one step", prefix))
			continue
		}

		stepRefs := refSet{}
		shape := domain.Product{Name: p.Name}
		for j, s := range p.Workflow {
			sp := fmt.Sprintf("%s.workflow[%d]", prefix, j)
			if err := stepRefs.claim(sp, s.Ref); err != nil {
				errs = append(errs, err)
			}
			if !taskRefs[s.TaskRef] {
				errs = append(errs, fmt.Errorf("%s.task_ref: ref %q not found in tasks", sp, s.TaskRef))
			}
			shape.Workflow = append(shape.Workflow, domain.WorkflowStep{ID: s.Ref, Position: j, Prerequisites: s.Prerequisites})
		}
		if len(stepRefs) == len(p.Workflow) {
			if err := shape.ValidateWorkflow(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
			}
		}
	}
	return errs
}
