package pricing

import (
	"errors"
	"reflect"
	"testing"
	"testing/quick"
)

func mustResolve(t *testing.T, sqft int, tiers []PricingTier) *Breakdown {
	t.Helper()
	b, err := Resolve(sqft, tiers)
	if err != nil {
		t.Fatalf("Resolve(%d) returned error: %v", sqft, err)
	}
	return b
}

func TestResolve_FlatTierVerbatim(t *testing.T) {
	tiers := []PricingTier{{
		SqftMin:        0,
		SqftMax:        2500,
		FirstPrice:     "$125.00",
		RecurringPrice: "$120.00",
		ServiceType:    "Quarterly GPC",
		Acreage:        "0.25 acres",
	}}

	b := mustResolve(t, 1000, tiers)

	flat, ok := b.Format.(Flat)
	if !ok {
		t.Fatalf("expected Flat format, got %T", b.Format)
	}
	if flat.FirstPrice != "$125.00" || flat.RecurringPrice != "$120.00" || flat.ServiceType != "Quarterly GPC" {
		t.Fatalf("unexpected flat breakdown: %+v", flat)
	}
	if got := b.Range.Label(); got != "0–2500" {
		t.Fatalf("range label = %q, want %q", got, "0–2500")
	}
}

func TestResolve_LegacyBundle(t *testing.T) {
	tiers := []PricingTier{
		{SqftMin: 0, SqftMax: 2500, ServiceType: "Bundle Total", RecurringPrice: "$139.00"},
		{SqftMin: 0, SqftMax: 2500, ServiceType: "Component: Barrier360", RecurringPrice: ""},
		{SqftMin: 0, SqftMax: 2500, ServiceType: "Component: Mosquito", RecurringPrice: "$65.00"},
	}

	b := mustResolve(t, 2000, tiers)

	legacy, ok := b.Format.(LegacyBundle)
	if !ok {
		t.Fatalf("expected LegacyBundle format, got %T", b.Format)
	}
	if legacy.Total.Recurring != "$139.00" {
		t.Fatalf("total recurring = %q, want $139.00", legacy.Total.Recurring)
	}
	if len(legacy.Components) != 2 {
		t.Fatalf("expected 2 component lines, got %d", len(legacy.Components))
	}
	if legacy.Components[0].Name != "Barrier360" || !legacy.Components[0].Included() {
		t.Fatalf("expected Barrier360 to be included, got %+v", legacy.Components[0])
	}
	if legacy.Components[1].Name != "Mosquito" || legacy.Components[1].Price.Recurring != "$65.00" || legacy.Components[1].Included() {
		t.Fatalf("unexpected Mosquito line: %+v", legacy.Components[1])
	}
	if got := b.Range.Label(); got != "0–2500" {
		t.Fatalf("range label = %q, want %q", got, "0–2500")
	}
}

func TestResolve_LegacyMarkerOnNonPrimaryTier(t *testing.T) {
	tiers := []PricingTier{
		{SqftMin: 0, SqftMax: 3000, ServiceType: "Quarterly GPC", RecurringPrice: "$120.00"},
		{SqftMin: 0, SqftMax: 3000, ServiceType: "  Component:   Termite  ", FirstPrice: "$300.00"},
	}

	b := mustResolve(t, 100, tiers)

	legacy, ok := b.Format.(LegacyBundle)
	if !ok {
		t.Fatalf("expected LegacyBundle format, got %T", b.Format)
	}
	if !legacy.Total.IsEmpty() {
		t.Fatalf("expected empty total without a Bundle Total row, got %+v", legacy.Total)
	}
	if len(legacy.Components) != 1 || legacy.Components[0].Name != "Termite" {
		t.Fatalf("unexpected components: %+v", legacy.Components)
	}
}

func TestResolve_LegacyFirstBundleTotalWins(t *testing.T) {
	tiers := []PricingTier{
		{SqftMin: 0, SqftMax: 5000, ServiceType: "Bundle Total ", RecurringPrice: "$139.00"},
		{SqftMin: 1000, SqftMax: 5000, ServiceType: "Bundle Total", RecurringPrice: "$159.00"},
	}

	b := mustResolve(t, 2000, tiers)
	legacy := b.Format.(LegacyBundle)
	if legacy.Total.Recurring != "$139.00" {
		t.Fatalf("total recurring = %q, want $139.00", legacy.Total.Recurring)
	}
}

func TestResolve_AdditiveBundle(t *testing.T) {
	tiers := []PricingTier{{
		SqftMin: 0,
		SqftMax: 2500,
		Acreage: "0.25 acres",
		Components: []Component{
			{Name: "Mosquito", RecurringPrice: "$65"},
			{Name: "Termite", ShortCode: "TRM", RecurringPrice: "$35"},
			{Name: "Inspection"},
		},
		TotalRecurring: "$139",
		// legacy marker on an additive tier must not change the classification
		ServiceType: "Bundle Total",
	}}

	b := mustResolve(t, 1200, tiers)

	additive, ok := b.Format.(AdditiveBundle)
	if !ok {
		t.Fatalf("expected AdditiveBundle format, got %T", b.Format)
	}
	if len(additive.Components) != 3 {
		t.Fatalf("expected 3 components, got %d", len(additive.Components))
	}
	if additive.Components[0].Name != "Mosquito" || additive.Components[1].Name != "Termite" {
		t.Fatalf("components out of order: %+v", additive.Components)
	}
	if !additive.Components[2].FirstPrice.IsEmpty() || !additive.Components[2].RecurringPrice.IsEmpty() {
		t.Fatalf("expected unpriced component to stay unpriced: %+v", additive.Components[2])
	}
	if additive.Total.Recurring != "$139" || !additive.Total.First.IsEmpty() {
		t.Fatalf("unexpected total: %+v", additive.Total)
	}
	if got := b.Range.Label(); got != "0–2500 (0.25 acres)" {
		t.Fatalf("range label = %q, want %q", got, "0–2500 (0.25 acres)")
	}
}

func TestResolve_AcreageOnlyOnAdditivePath(t *testing.T) {
	legacy := []PricingTier{
		{SqftMin: 0, SqftMax: 2500, Acreage: "0.25 acres", ServiceType: "Bundle Total", RecurringPrice: "$139.00"},
	}
	b := mustResolve(t, 10, legacy)
	if got := b.Range.Label(); got != "0–2500" {
		t.Fatalf("legacy range label = %q, want %q", got, "0–2500")
	}
}

func TestResolve_FirstListedTierWins(t *testing.T) {
	tiers := []PricingTier{
		{SqftMin: 2001, SqftMax: 4000, ServiceType: "Large", RecurringPrice: "$150.00"},
		{SqftMin: 0, SqftMax: 3000, ServiceType: "Overlap A", RecurringPrice: "$120.00"},
		{SqftMin: 2500, SqftMax: 3000, ServiceType: "Overlap B", RecurringPrice: "$130.00"},
	}

	b := mustResolve(t, 2600, tiers)
	flat := b.Format.(Flat)
	if flat.ServiceType != "Large" {
		t.Fatalf("expected first listed tier to win, got %q", flat.ServiceType)
	}
	if b.Range.Min != 2001 || b.Range.Max != 4000 {
		t.Fatalf("unexpected range: %+v", b.Range)
	}
}

func TestResolve_InclusiveBounds(t *testing.T) {
	tiers := []PricingTier{{SqftMin: 1000, SqftMax: 2000, ServiceType: "Mid"}}

	for _, sqft := range []int{1000, 2000} {
		if _, err := Resolve(sqft, tiers); err != nil {
			t.Fatalf("Resolve(%d) expected match, got %v", sqft, err)
		}
	}
	for _, sqft := range []int{999, 2001} {
		if _, err := Resolve(sqft, tiers); !IsNoMatch(err) {
			t.Fatalf("Resolve(%d) expected NoMatch, got %v", sqft, err)
		}
	}
}

func TestResolve_NoMatchCarriesSqft(t *testing.T) {
	_, err := Resolve(9000, nil)
	var nm *NoMatchError
	if !errors.As(err, &nm) {
		t.Fatalf("expected *NoMatchError, got %v", err)
	}
	if nm.Sqft != 9000 {
		t.Fatalf("NoMatch sqft = %d, want 9000", nm.Sqft)
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	tiers := []PricingTier{{SqftMin: -100, SqftMax: 100, ServiceType: "Any"}}
	for _, sqft := range []int{0, -1, -5000} {
		if _, err := Resolve(sqft, tiers); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Resolve(%d) expected ErrInvalidInput, got %v", sqft, err)
		}
	}
}

func TestResolveInput_ParsesAndRejects(t *testing.T) {
	tiers := []PricingTier{{SqftMin: 0, SqftMax: 5000, ServiceType: "Any"}}

	for _, raw := range []string{"2000", " 2,000 ", "2000.9"} {
		b, err := ResolveInput(raw, tiers)
		if err != nil {
			t.Fatalf("ResolveInput(%q) returned error: %v", raw, err)
		}
		if b.Sqft != 2000 {
			t.Fatalf("ResolveInput(%q) sqft = %d, want 2000", raw, b.Sqft)
		}
	}

	for _, raw := range []string{"", "   ", "abc", "0", "-10", "0.5", "NaN", "Inf", "12ft"} {
		if _, err := ResolveInput(raw, tiers); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ResolveInput(%q) expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestResolveInput_LargeSqftIsNoMatch(t *testing.T) {
	tiers := []PricingTier{{SqftMin: 0, SqftMax: 5000, ServiceType: "Any"}}

	_, err := ResolveInput("3000000000", tiers)
	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
	if noMatch.Sqft != 3000000000 {
		t.Fatalf("sqft = %d", noMatch.Sqft)
	}

	if _, err := ResolveInput("1e30", tiers); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an overflowing value, got %v", err)
	}
}

func TestSpans_GroupsByRangeInOrder(t *testing.T) {
	tiers := []PricingTier{
		{SqftMin: 0, SqftMax: 5000, ServiceType: "Standard", FirstPrice: "$100"},
		{SqftMin: 2000, SqftMax: 3000, ServiceType: "Mid special", FirstPrice: "$80"},
		{SqftMin: 0, SqftMax: 5000, ServiceType: "Bundle Total", FirstPrice: "$150"},
		{SqftMin: 0, SqftMax: 5000, ServiceType: "Component: Mosquito"},
	}

	spans := Spans(tiers)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	legacy, ok := spans[0].Format.(LegacyBundle)
	if !ok {
		t.Fatalf("first span format = %T", spans[0].Format)
	}
	if legacy.Total.First != "$150" || len(legacy.Components) != 1 || !legacy.Components[0].Included() {
		t.Fatalf("legacy = %+v", legacy)
	}
	if spans[0].Range.Label() != "0–5000" || spans[0].Sqft != 5000 {
		t.Fatalf("first span range = %+v sqft %d", spans[0].Range, spans[0].Sqft)
	}

	flat, ok := spans[1].Format.(Flat)
	if !ok || flat.ServiceType != "Mid special" || flat.FirstPrice != "$80" {
		t.Fatalf("second span = %+v", spans[1].Format)
	}
	if spans[1].Range.Label() != "2000–3000" {
		t.Fatalf("second span range = %q", spans[1].Range.Label())
	}
}

func TestResolve_DoesNotAliasInput(t *testing.T) {
	tiers := []PricingTier{{
		SqftMin:    0,
		SqftMax:    100,
		Components: []Component{{Name: "Mosquito"}},
	}}
	b := mustResolve(t, 50, tiers)
	tiers[0].Components[0].Name = "Changed"

	if got := b.Format.(AdditiveBundle).Components[0].Name; got != "Mosquito" {
		t.Fatalf("breakdown changed with its input: %q", got)
	}
}

func TestResolve_PropertyNoCoveringTierMeansNoMatch(t *testing.T) {
	property := func(sqft uint16, bounds []uint16) bool {
		s := int(sqft) + 1
		tiers := make([]PricingTier, 0, len(bounds))
		for _, b := range bounds {
			lo := int(b)
			tiers = append(tiers, PricingTier{SqftMin: lo, SqftMax: lo + 50})
		}

		covered := false
		for _, tier := range tiers {
			if tier.SqftMin <= s && s <= tier.SqftMax {
				covered = true
			}
		}

		_, err := Resolve(s, tiers)
		if covered {
			return err == nil
		}
		return IsNoMatch(err)
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatalf("property failed: %v", err)
	}
}

func TestResolve_PropertyNonPositiveIsInvalid(t *testing.T) {
	property := func(n int32, bounds []int16) bool {
		sqft := -int(n&0x7fffffff) // always <= 0
		tiers := make([]PricingTier, 0, len(bounds))
		for _, b := range bounds {
			tiers = append(tiers, PricingTier{SqftMin: int(b) - 1000, SqftMax: int(b) + 1000})
		}
		_, err := Resolve(sqft, tiers)
		return errors.Is(err, ErrInvalidInput)
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatalf("property failed: %v", err)
	}
}

func TestResolve_PropertyDeterministic(t *testing.T) {
	property := func(sqft uint16, mins []uint16, prices []string) bool {
		tiers := make([]PricingTier, 0, len(mins))
		for i, m := range mins {
			tier := PricingTier{SqftMin: int(m), SqftMax: int(m) + 500}
			if i < len(prices) {
				tier.RecurringPrice = DisplayPrice(prices[i])
				if i%3 == 1 {
					tier.ServiceType = "Component: " + prices[i]
				}
				if i%4 == 2 {
					tier.Components = []Component{{Name: prices[i]}}
				}
			}
			tiers = append(tiers, tier)
		}

		s := int(sqft) + 1
		b1, err1 := Resolve(s, tiers)
		b2, err2 := Resolve(s, tiers)
		return reflect.DeepEqual(b1, b2) && reflect.DeepEqual(err1, err2)
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatalf("property failed: %v", err)
	}
}
