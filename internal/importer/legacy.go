package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// firstSet returns the value behind the first non-nil pointer. Legacy rows
// spell the same optional field under several keys.
func firstSet[T any](fallback T, ptrs ...*T) T {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return fallback
}

var modeAliases = map[string]domain.RuleMode{
	"sheet":  domain.ModeSheet,
	"hoja":   domain.ModeSheet,
	"unit":   domain.ModeUnit,
	"unidad": domain.ModeUnit,
	"block":  domain.ModeBlock,
	"bloque": domain.ModeBlock,
}

var weekdayAliases = map[string]domain.Weekday{
	"lunes":     domain.Monday,
	"martes":    domain.Tuesday,
	"miercoles": domain.Wednesday,
	"miércoles": domain.Wednesday,
	"jueves":    domain.Thursday,
	"viernes":   domain.Friday,
	"sabado":    domain.Saturday,
	"sábado":    domain.Saturday,
	"domingo":   domain.Sunday,
}

// NormalizeMode maps English or Spanish mode names onto domain.RuleMode.
func NormalizeMode(s string) (domain.RuleMode, bool) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// NormalizeWeekday maps English or Spanish day names onto schedule keys.
func NormalizeWeekday(s string) (domain.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d := domain.Weekday(key); domain.ValidWeekdays[d] {
		return d, true
	}
	d, ok := weekdayAliases[key]
	return d, ok
}

// NormalizeSchedule converts an imported schedule into a WeeklySchedule.
// Two keys naming the same day (e.g. "monday" and "lunes") are an error.
func NormalizeSchedule(in map[string][]ShiftImport) (domain.WeeklySchedule, error) {
	out := make(domain.WeeklySchedule, len(in))
	for key, shifts := range in {
		day, ok := NormalizeWeekday(key)
		if !ok {
			return nil, fmt.Errorf("unknown day %q", key)
		}
		if _, dup := out[day]; dup {
			return nil, fmt.Errorf("day %s given twice", day)
		}
		segs := make([]domain.ShiftSegment, 0, len(shifts))
		for _, s := range shifts {
			segs = append(segs, domain.ShiftSegment{Start: s.Start, End: s.End})
		}
		out[day] = segs
	}
	return out, nil
}

// legacyBracket accepts both max_width/max_height and size_w/size_h.
type legacyBracket struct {
	MaxWidth  *float64 `json:"max_width"`
	MaxHeight *float64 `json:"max_height"`
	SizeW     *float64 `json:"size_w"`
	SizeH     *float64 `json:"size_h"`
	Rate      float64  `json:"rate"`
}

func (b legacyBracket) toDomain() domain.SizeBracket {
	return domain.SizeBracket{
		MaxWidth:  firstSet(0, b.MaxWidth, b.SizeW),
		MaxHeight: firstSet(0, b.MaxHeight, b.SizeH),
		Rate:      b.Rate,
	}
}

type legacyRuleObject struct {
	Mode          string          `json:"mode"`
	SizeDependent bool            `json:"size_dependent"`
	Rate          float64         `json:"rate"`
	Brackets      []legacyBracket `json:"size_brackets"`
	PerPass       *bool           `json:"per_pass"`
	Passes        *bool           `json:"passes"`
	PassesMode    string          `json:"passes_mode"`
}

func (o legacyRuleObject) perPass() bool {
	switch strings.ToLower(o.PassesMode) {
	case "per_pass", "multiply", "por_pasada":
		return true
	}
	return firstSet(false, o.PerPass, o.Passes)
}

// legacyRuleRow is one element of the array-of-rules shape.
type legacyRuleRow struct {
	legacyBracket
	Mode    string `json:"mode"`
	PerPass *bool  `json:"per_pass"`
	Passes  *bool  `json:"passes"`
}

// RuleNotes explains how a legacy rule was reshaped.
type RuleNotes []string

// NormalizeWorkTimeRules converts every accepted work_time_rules shape into
// the canonical WorkTimeRule:
//
//   - the canonical object (mode, size_dependent, rate, size_brackets, per_pass)
//   - the same object with size_w/size_h brackets, a boolean "passes" flag or
//     a "passes_mode" string
//   - an array of {size_w, size_h, rate, mode, per_pass} rows, which becomes
//     a size-dependent rule
//
// Spanish mode names are accepted. The result is validated.
func NormalizeWorkTimeRules(raw json.RawMessage) (domain.WorkTimeRule, RuleNotes, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules is required")
	}

	var rule domain.WorkTimeRule
	var notes RuleNotes
	if trimmed[0] == '[' {
		var err error
		rule, notes, err = normalizeRuleRows(trimmed)
		if err != nil {
			return domain.WorkTimeRule{}, nil, err
		}
	} else {
		var obj legacyRuleObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules: %w", err)
		}
		mode, ok := NormalizeMode(obj.Mode)
		if !ok {
			return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules.mode: invalid value %q", obj.Mode)
		}
		if mode != domain.RuleMode(strings.ToLower(obj.Mode)) {
			notes = append(notes, fmt.Sprintf("mode %q read as %q", obj.Mode, mode))
		}
		rule = domain.WorkTimeRule{Mode: mode, SizeDependent: obj.SizeDependent, PerPass: obj.perPass()}
		if obj.SizeDependent {
			for _, b := range obj.Brackets {
				rule.Brackets = append(rule.Brackets, b.toDomain())
			}
		} else {
			rule.Rate = obj.Rate
			if len(obj.Brackets) > 0 {
				notes = append(notes, "size_brackets ignored on a flat rule")
			}
		}
	}

	if err := rule.Validate(); err != nil {
		return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules: %w", err)
	}
	return rule, notes, nil
}

func normalizeRuleRows(data []byte) (domain.WorkTimeRule, RuleNotes, error) {
	var rows []legacyRuleRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules: %w", err)
	}
	if len(rows) == 0 {
		return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules: empty rule list")
	}

	rule := domain.WorkTimeRule{SizeDependent: true}
	for i, row := range rows {
		mode, ok := NormalizeMode(row.Mode)
		if !ok {
			return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules[%d].mode: invalid value %q", i, row.Mode)
		}
		if i == 0 {
			rule.Mode = mode
		} else if mode != rule.Mode {
			return domain.WorkTimeRule{}, nil, fmt.Errorf("work_time_rules[%d].mode: %q differs from %q", i, mode, rule.Mode)
		}
		if firstSet(false, row.PerPass, row.Passes) {
			rule.PerPass = true
		}
		rule.Brackets = append(rule.Brackets, row.legacyBracket.toDomain())
	}
	notes := RuleNotes{fmt.Sprintf("%d rule rows read as size brackets; rows were chosen by highest rate with rotation (planning.bracket_policy=fastest_fit, planning.allow_rotation=true)", len(rows))}
	return rule, notes, nil
}
