package domain

import (
	"errors"
	"fmt"
)

// SizeBracket is one row of a size-dependent rate table. A bracket with
// both limits at zero matches any order size.
type SizeBracket struct {
	MaxWidth  float64 `json:"max_width"`
	MaxHeight float64 `json:"max_height"`
	Rate      float64 `json:"rate"`
}

// IsCatchAll reports whether the bracket matches every order size.
func (b SizeBracket) IsCatchAll() bool {
	return b.MaxWidth == 0 && b.MaxHeight == 0
}

func (b SizeBracket) Area() float64 {
	return b.MaxWidth * b.MaxHeight
}

// WorkTimeRule maps an order's quantity and size to a production rate on a
// machine. SizeDependent is the variant tag: false uses Rate, true uses
// Brackets.
type WorkTimeRule struct {
	Mode          RuleMode      `json:"mode"`
	SizeDependent bool          `json:"size_dependent"`
	Rate          float64       `json:"rate,omitempty"`
	Brackets      []SizeBracket `json:"size_brackets,omitempty"`
	PerPass       bool          `json:"per_pass,omitempty"`
}

// FlatRate builds a size-independent rule.
func FlatRate(mode RuleMode, rate float64) WorkTimeRule {
	return WorkTimeRule{Mode: mode, Rate: rate}
}

// Bracketed builds a size-dependent rule.
func Bracketed(mode RuleMode, brackets ...SizeBracket) WorkTimeRule {
	return WorkTimeRule{Mode: mode, SizeDependent: true, Brackets: brackets}
}

// Validate checks the rule shape. It does not reject zero rates: a zero rate
// is a legal "machine cannot be used" configuration.
func (r WorkTimeRule) Validate() error {
	var errs []error
	if !ValidRuleModes[r.Mode] {
		errs = append(errs, fmt.Errorf("mode: invalid value %q", r.Mode))
	}
	if r.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate must not be negative"))
	}
	if r.SizeDependent {
		if len(r.Brackets) == 0 {
			errs = append(errs, fmt.Errorf("size-dependent rule requires at least one bracket"))
		}
		for i, b := range r.Brackets {
			if b.MaxWidth < 0 || b.MaxHeight < 0 {
				errs = append(errs, fmt.Errorf("bracket %d: size limits must not be negative", i))
			}
			if b.Rate < 0 {
				errs = append(errs, fmt.Errorf("bracket %d: rate must not be negative", i))
			}
		}
	} else if len(r.Brackets) > 0 {
		errs = append(errs, fmt.Errorf("flat rule must not carry size brackets"))
	}
	return errors.Join(errs...)
}

// MachineTaskRule binds a machine to a task it can perform.
type MachineTaskRule struct {
	ID            string
	MachineID     string
	TaskID        string
	SetupTimeMin  int
	FinishTimeMin int
	WorkTime      WorkTimeRule
}

// ProviderTaskRule binds an external provider to a task with a fixed lead time.
type ProviderTaskRule struct {
	ID               string
	ProviderID       string
	TaskID           string
	DeliveryTimeDays int
}
