package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// DescribeRule summarizes a work-time rule, e.g. "sheet · 3000/h · per pass".
func DescribeRule(r domain.WorkTimeRule) string {
	parts := []string{string(r.Mode)}
	if r.SizeDependent {
		brackets := make([]string, 0, len(r.Brackets))
		for _, b := range r.Brackets {
			if b.IsCatchAll() {
				brackets = append(brackets, fmt.Sprintf("any:%g", b.Rate))
				continue
			}
			brackets = append(brackets, fmt.Sprintf("%gx%g:%g", b.MaxWidth, b.MaxHeight, b.Rate))
		}
		parts = append(parts, strings.Join(brackets, " "))
	} else {
		parts = append(parts, fmt.Sprintf("%g/h", r.Rate))
	}
	if r.PerPass {
		parts = append(parts, "per pass")
	}
	return strings.Join(parts, " · ")
}

// FormatTaskList renders the task catalog.
func FormatTaskList(tasks []*domain.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{TruncID(t.ID), Bold(t.Name)})
	}
	return RenderTable([]string{"ID", "TASK"}, rows)
}

// FormatMachineList renders machines with the tasks they can run.
func FormatMachineList(machines []*domain.Machine, taskNames map[string]string) string {
	rows := make([][]string, 0, len(machines))
	for _, m := range machines {
		var tasks []string
		for _, r := range m.Rules {
			tasks = append(tasks, nameOr(taskNames, r.TaskID))
		}
		sort.Strings(tasks)
		rows = append(rows, []string{TruncID(m.ID), Bold(m.Name), strings.Join(tasks, ", ")})
	}
	return RenderTable([]string{"ID", "MACHINE", "TASKS"}, rows)
}

// FormatMachine renders one machine with its rules.
func FormatMachine(m *domain.Machine, taskNames map[string]string) string {
	var b strings.Builder
	b.WriteString(Header(m.Name))
	b.WriteString("\n")
	b.WriteString(Dim("id " + m.ID))
	b.WriteString("\n\n")
	if len(m.Rules) == 0 {
		b.WriteString(Dim("No task rules."))
		b.WriteString("\n")
		return b.String()
	}
	rows := make([][]string, 0, len(m.Rules))
	for _, r := range m.Rules {
		rows = append(rows, []string{
			nameOr(taskNames, r.TaskID),
			DescribeRule(r.WorkTime),
			FormatMinutes(r.SetupTimeMin),
			FormatMinutes(r.FinishTimeMin),
		})
	}
	b.WriteString(RenderTable([]string{"TASK", "RULE", "SETUP", "FINISH"}, rows))
	return b.String()
}

// DescribeSchedule renders a weekly schedule as "mon 08:00-13:00 14:00-17:00; ...".
func DescribeSchedule(s domain.WeeklySchedule) string {
	var days []string
	for _, d := range domain.Weekdays {
		segs := s.Segments(d)
		if len(segs) == 0 {
			continue
		}
		spans := make([]string, 0, len(segs))
		for _, seg := range segs {
			spans = append(spans, seg.Start+"-"+seg.End)
		}
		days = append(days, string(d)[:3]+" "+strings.Join(spans, " "))
	}
	if len(days) == 0 {
		return Dim("no shifts")
	}
	return strings.Join(days, "; ")
}

// FormatOperatorList renders operators with their skills and shifts.
func FormatOperatorList(ops []*domain.Operator, machineNames map[string]string) string {
	rows := make([][]string, 0, len(ops))
	for _, o := range ops {
		skills := make([]string, 0, len(o.MachineIDs))
		for _, id := range o.MachineIDs {
			skills = append(skills, nameOr(machineNames, id))
		}
		sort.Strings(skills)
		rows = append(rows, []string{
			TruncID(o.ID),
			Bold(o.Name),
			Dim(o.Type),
			strings.Join(skills, ", "),
			DescribeSchedule(o.Schedule),
		})
	}
	return RenderTable([]string{"ID", "OPERATOR", "TYPE", "MACHINES", "SHIFTS"}, rows)
}

// FormatProviderList renders providers with their delivery times.
func FormatProviderList(providers []*domain.Provider, taskNames map[string]string) string {
	rows := make([][]string, 0, len(providers))
	for _, p := range providers {
		var rules []string
		for _, r := range p.Rules {
			rules = append(rules, fmt.Sprintf("%s (%dd)", nameOr(taskNames, r.TaskID), r.DeliveryTimeDays))
		}
		sort.Strings(rules)
		rows = append(rows, []string{TruncID(p.ID), Bold(p.Name), strings.Join(rules, ", ")})
	}
	return RenderTable([]string{"ID", "PROVIDER", "TASKS"}, rows)
}

// FormatProduct renders a product's workflow in position order.
func FormatProduct(p *domain.Product, taskNames map[string]string) string {
	var b strings.Builder
	b.WriteString(Header(p.Name))
	b.WriteString("\n")
	steps := append([]domain.WorkflowStep(nil), p.Workflow...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Position < steps[j].Position })

	stepTask := make(map[string]string, len(steps))
	for _, s := range steps {
		stepTask[s.ID] = nameOr(taskNames, s.TaskID)
	}

	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		flag := ""
		if s.IsOptional {
			flag = StyleYellow.Render("optional")
		}
		after := Dim("--")
		if len(s.Prerequisites) > 0 {
			names := make([]string, 0, len(s.Prerequisites))
			for _, pre := range s.Prerequisites {
				names = append(names, nameOr(stepTask, pre))
			}
			after = strings.Join(names, ", ")
		}
		rows = append(rows, []string{ShortID(s.ID), stepTask[s.ID], flag, after})
	}
	b.WriteString(RenderTable([]string{"STEP", "TASK", "", "AFTER"}, rows))
	return b.String()
}

// FormatProductList renders products with their step counts.
func FormatProductList(products []*domain.Product) string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{TruncID(p.ID), Bold(p.Name), fmt.Sprintf("%d", len(p.Workflow))})
	}
	return RenderTable([]string{"ID", "PRODUCT", "STEPS"}, rows)
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return ShortID(id)
}
