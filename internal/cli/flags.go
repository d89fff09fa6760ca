package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
	"github.com/alexanderramin/slotwise/internal/importer"
	"github.com/spf13/pflag"
)

const (
	dateLayout  = "2006-01-02"
	startLayout = "2006-01-02 15:04"
)

// modeValue is a --mode flag that accepts the import aliases (hoja, unidad,
// bloque) and stores the canonical rule mode.
type modeValue domain.RuleMode

var _ pflag.Value = (*modeValue)(nil)

func (m *modeValue) String() string { return string(*m) }
func (m *modeValue) Type() string   { return "mode" }

func (m *modeValue) Set(s string) error {
	rm, ok := importer.NormalizeMode(s)
	if !ok {
		return fmt.Errorf("use sheet, unit or block")
	}
	*m = modeValue(rm)
	return nil
}

// parseSize reads "WxH" in the shop's size unit.
func parseSize(s string) (width, height float64, err error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: use WIDTHxHEIGHT", s)
	}
	if width, err = strconv.ParseFloat(w, 64); err != nil {
		return 0, 0, fmt.Errorf("size %q: width: %w", s, err)
	}
	if height, err = strconv.ParseFloat(h, 64); err != nil {
		return 0, 0, fmt.Errorf("size %q: height: %w", s, err)
	}
	return width, height, nil
}

// parseBracket reads "WxH:RATE", or "any:RATE" for a catch-all bracket.
func parseBracket(s string) (domain.SizeBracket, error) {
	size, rate, ok := strings.Cut(s, ":")
	if !ok {
		return domain.SizeBracket{}, fmt.Errorf("bracket %q: use WxH:RATE or any:RATE", s)
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return domain.SizeBracket{}, fmt.Errorf("bracket %q: rate: %w", s, err)
	}
	if strings.EqualFold(size, "any") {
		return domain.SizeBracket{Rate: r}, nil
	}
	w, h, err := parseSize(size)
	if err != nil {
		return domain.SizeBracket{}, fmt.Errorf("bracket %q: %w", s, err)
	}
	return domain.SizeBracket{MaxWidth: w, MaxHeight: h, Rate: r}, nil
}

// parseKeyInts reads repeated "KEY=N" values into a map.
func parseKeyInts(flag string, values []string) (map[string]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(values))
	for _, v := range values {
		k, n, ok := strings.Cut(v, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--%s %q: use KEY=N", flag, v)
		}
		i, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("--%s %q: %w", flag, v, err)
		}
		out[k] = i
	}
	return out, nil
}

var dayAbbrev = map[string]domain.Weekday{
	"mon": domain.Monday, "tue": domain.Tuesday, "wed": domain.Wednesday,
	"thu": domain.Thursday, "fri": domain.Friday, "sat": domain.Saturday, "sun": domain.Sunday,
}

func parseDay(s string) (domain.Weekday, error) {
	if d, ok := dayAbbrev[strings.ToLower(s)]; ok {
		return d, nil
	}
	if d, ok := importer.NormalizeWeekday(s); ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown day %q", s)
}

func dayIndex(d domain.Weekday) int {
	for i, w := range domain.Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// parseDays reads "mon-fri", "sat" or "mon,wed,fri".
func parseDays(s string) ([]domain.Weekday, error) {
	var days []domain.Weekday
	for _, part := range strings.Split(s, ",") {
		from, to, isRange := strings.Cut(part, "-")
		first, err := parseDay(from)
		if err != nil {
			return nil, err
		}
		if !isRange {
			days = append(days, first)
			continue
		}
		last, err := parseDay(to)
		if err != nil {
			return nil, err
		}
		i, j := dayIndex(first), dayIndex(last)
		if j < i {
			return nil, fmt.Errorf("day range %q runs backwards", part)
		}
		days = append(days, domain.Weekdays[i:j+1]...)
	}
	return days, nil
}

// parseShifts builds a weekly schedule from values like
// "mon-fri 08:00-13:00 14:00-17:00". Later values append to earlier days.
func parseShifts(values []string) (domain.WeeklySchedule, error) {
	schedule := domain.WeeklySchedule{}
	for _, v := range values {
		fields := strings.Fields(v)
		if len(fields) < 2 {
			return nil, fmt.Errorf("shift %q: use DAYS HH:MM-HH:MM [HH:MM-HH:MM...]", v)
		}
		days, err := parseDays(fields[0])
		if err != nil {
			return nil, fmt.Errorf("shift %q: %w", v, err)
		}
		var segs []domain.ShiftSegment
		for _, f := range fields[1:] {
			start, end, ok := strings.Cut(f, "-")
			if !ok {
				return nil, fmt.Errorf("shift %q: segment %q needs START-END", v, f)
			}
			segs = append(segs, domain.ShiftSegment{Start: start, End: end})
		}
		for _, d := range days {
			schedule[d] = append(schedule[d], segs...)
		}
	}
	return schedule, nil
}

// parseStart reads a slot start in the shop's timezone. RFC 3339 values
// keep their own offset.
func parseStart(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(startLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("start %q: use %q or RFC 3339", s, startLayout)
}

func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("date %q: use YYYY-MM-DD", s)
	}
	return &t, nil
}

// stepSpec is a product workflow step given on the command line as
// "ID=TASK;after=A,B;optional".
type stepSpec struct {
	ID       string
	Task     string
	After    []string
	Optional bool
}

func parseStepSpec(s string) (stepSpec, error) {
	parts := strings.Split(s, ";")
	id, task, ok := strings.Cut(parts[0], "=")
	if !ok || id == "" || task == "" {
		return stepSpec{}, fmt.Errorf("step %q: use ID=TASK[;after=A,B][;optional]", s)
	}
	spec := stepSpec{ID: strings.TrimSpace(id), Task: strings.TrimSpace(task)}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "optional":
			spec.Optional = true
		case strings.HasPrefix(p, "after="):
			for _, a := range strings.Split(strings.TrimPrefix(p, "after="), ",") {
				if a = strings.TrimSpace(a); a != "" {
					spec.After = append(spec.After, a)
				}
			}
		case p == "":
		default:
			return stepSpec{}, fmt.Errorf("step %q: unknown option %q", s, p)
		}
	}
	return spec, nil
}
