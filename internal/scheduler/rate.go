package scheduler

import (
	"math"
	"sort"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// BracketPolicy decides which of several fitting size brackets supplies the rate.
type BracketPolicy string

const (
	// BracketSmallestFit picks the fitting bracket with the smallest area.
	BracketSmallestFit BracketPolicy = "smallest_fit"
	// BracketFastestFit picks the fitting bracket with the highest rate.
	BracketFastestFit BracketPolicy = "fastest_fit"
)

// ValidBracketPolicies is the canonical set of accepted policy strings.
var ValidBracketPolicies = map[BracketPolicy]bool{
	BracketSmallestFit: true, BracketFastestFit: true,
}

// RatePolicy tunes duration resolution.
type RatePolicy struct {
	Brackets BracketPolicy
	// AllowRotation lets an order fit a bracket when turned 90 degrees.
	AllowRotation bool
	// IncludeSetupFinish adds the machine rule's setup and finish minutes
	// to any positive duration.
	IncludeSetupFinish bool
}

func DefaultRatePolicy() RatePolicy {
	return RatePolicy{Brackets: BracketSmallestFit}
}

// DurationInput carries the order-side values that drive a duration.
type DurationInput struct {
	Quantity  int
	Width     float64
	Height    float64
	BlockSize int
	Passes    int
}

// SelectBracket chooses the bracket whose rate applies to an order of the
// given size. Sized brackets are ranked first; a catch-all (0x0) bracket is
// only used when no sized bracket fits.
func SelectBracket(brackets []domain.SizeBracket, width, height float64, policy RatePolicy) (domain.SizeBracket, bool) {
	var fitting []domain.SizeBracket
	var catchAll *domain.SizeBracket
	for i, b := range brackets {
		if b.IsCatchAll() {
			if catchAll == nil {
				catchAll = &brackets[i]
			}
			continue
		}
		if bracketFits(b, width, height, policy.AllowRotation) {
			fitting = append(fitting, b)
		}
	}

	if len(fitting) == 0 {
		if catchAll != nil {
			return *catchAll, true
		}
		return domain.SizeBracket{}, false
	}

	switch policy.Brackets {
	case BracketFastestFit:
		sort.SliceStable(fitting, func(i, j int) bool { return fitting[i].Rate > fitting[j].Rate })
	default:
		sort.SliceStable(fitting, func(i, j int) bool { return fitting[i].Area() < fitting[j].Area() })
	}
	return fitting[0], true
}

func bracketFits(b domain.SizeBracket, width, height float64, rotate bool) bool {
	if width <= b.MaxWidth && height <= b.MaxHeight {
		return true
	}
	if !rotate {
		return false
	}
	jobMax, jobMin := math.Max(width, height), math.Min(width, height)
	ruleMax, ruleMin := math.Max(b.MaxWidth, b.MaxHeight), math.Min(b.MaxWidth, b.MaxHeight)
	return jobMax <= ruleMax && jobMin <= ruleMin
}

// ResolveRate returns the units-per-hour rate a rule yields for an order
// size, or 0 when no rate applies.
func ResolveRate(rule domain.WorkTimeRule, width, height float64, policy RatePolicy) float64 {
	if !rule.SizeDependent {
		return rule.Rate
	}
	b, ok := SelectBracket(rule.Brackets, width, height, policy)
	if !ok {
		return 0
	}
	return b.Rate
}

// ResolveDuration computes task minutes for a work-time rule. A result of 0
// means the machine cannot be used for this order; it is not an error.
func ResolveDuration(rule domain.WorkTimeRule, in DurationInput, policy RatePolicy) int {
	rate := ResolveRate(rule, in.Width, in.Height, policy)
	if rate <= 0 || in.Quantity <= 0 {
		return 0
	}

	var base float64
	switch rule.Mode {
	case domain.ModeSheet, domain.ModeUnit:
		base = float64(in.Quantity) / rate * 60
	case domain.ModeBlock:
		if in.BlockSize <= 0 {
			return 0
		}
		blocks := math.Ceil(float64(in.Quantity) / float64(in.BlockSize))
		base = blocks / rate * 60
	default:
		return 0
	}

	if rule.PerPass {
		passes := in.Passes
		if passes <= 0 {
			passes = 1
		}
		base *= float64(passes)
	}
	return int(math.Round(base))
}

// ResolveMachineDuration applies ResolveDuration to a machine rule and, when
// the policy asks for it, adds setup and finish time.
func ResolveMachineDuration(rule domain.MachineTaskRule, in DurationInput, policy RatePolicy) int {
	d := ResolveDuration(rule.WorkTime, in, policy)
	if d > 0 && policy.IncludeSetupFinish {
		d += rule.SetupTimeMin + rule.FinishTimeMin
	}
	return d
}

// ProviderLeadMinutes converts a provider delivery time into minutes.
// Unset or non-positive delivery times count as one day.
func ProviderLeadMinutes(deliveryDays int) int {
	if deliveryDays <= 0 {
		deliveryDays = 1
	}
	return deliveryDays * 24 * 60
}
