package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned when the square footage is missing, not a number,
// or not positive. Callers must not display a breakdown.
var ErrInvalidInput = errors.New("invalid square footage")

// NoMatchError reports that no tier covers the requested square footage.
// Coverage gaps are a data authoring condition, so callers show a fallback
// instead of treating this as a fault.
type NoMatchError struct {
	Sqft int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no pricing tier covers %d sq ft", e.Sqft)
}

// IsNoMatch reports whether err is a *NoMatchError.
func IsNoMatch(err error) bool {
	var nm *NoMatchError
	return errors.As(err, &nm)
}

// Range is the validity range of a breakdown, taken from the primary tier.
type Range struct {
	Min     int
	Max     int
	Acreage string
}

// Label renders the range as "0–2500", with the acreage appended as
// "0–2500 (0.25 acres)" when present.
func (r Range) Label() string {
	label := fmt.Sprintf("%d–%d", r.Min, r.Max)
	if acreage := strings.TrimSpace(r.Acreage); acreage != "" {
		label += " (" + acreage + ")"
	}
	return label
}

// Breakdown is the resolved price for one square footage.
type Breakdown struct {
	Sqft   int
	Range  Range
	Format Format
}

// Resolve selects the tiers covering sqft and classifies them into a
// breakdown. Tier order is load-bearing: the first covering tier is primary.
func Resolve(sqft int, tiers []PricingTier) (*Breakdown, error) {
	if sqft <= 0 {
		return nil, ErrInvalidInput
	}

	matched := make([]PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Covers(sqft) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return nil, &NoMatchError{Sqft: sqft}
	}

	return newBreakdown(sqft, matched), nil
}

func newBreakdown(sqft int, matched []PricingTier) *Breakdown {
	primary := matched[0]
	format := Classify(matched)

	rng := Range{Min: primary.SqftMin, Max: primary.SqftMax}
	// Only the additive layout carries the acreage label.
	if format.Kind() == KindAdditiveBundle {
		rng.Acreage = primary.Acreage
	}

	return &Breakdown{Sqft: sqft, Range: rng, Format: format}
}

// Spans classifies the tiers sharing each distinct [SqftMin, SqftMax] range,
// in order of first appearance. Overlapping ranges stay separate, so every
// tier shows up in exactly one breakdown. Sqft is set to the range's upper
// bound.
func Spans(tiers []PricingTier) []*Breakdown {
	type span struct{ min, max int }
	groups := make(map[span][]PricingTier)
	var order []span
	for _, t := range tiers {
		key := span{t.SqftMin, t.SqftMax}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	out := make([]*Breakdown, 0, len(order))
	for _, key := range order {
		out = append(out, newBreakdown(key.max, groups[key]))
	}
	return out
}

// ResolveInput parses a free-text square footage and resolves it.
func ResolveInput(raw string, tiers []PricingTier) (*Breakdown, error) {
	sqft, err := ParseSqft(raw)
	if err != nil {
		return nil, err
	}
	return Resolve(sqft, tiers)
}

// ParseSqft parses user input such as "2000", "2,000" or "2000.5". Fractions
// are truncated. Empty, non-numeric and non-positive values yield
// ErrInvalidInput, as do values too large for an int.
func ParseSqft(raw string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, ErrInvalidInput
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidInput
	}
	if value >= math.MaxInt {
		return 0, ErrInvalidInput
	}
	sqft := int(math.Floor(value))
	if sqft <= 0 {
		return 0, ErrInvalidInput
	}
	return sqft, nil
}
