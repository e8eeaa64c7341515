package pricing

// FormatKind names the pricing layout of a resolved tier set.
type FormatKind string

const (
	KindFlat           FormatKind = "flat"
	KindLegacyBundle   FormatKind = "legacy_bundle"
	KindAdditiveBundle FormatKind = "additive_bundle"
)

// Format is the classified shape of a matched tier set. It is one of Flat,
// LegacyBundle or AdditiveBundle.
type Format interface {
	Kind() FormatKind
	isFormat()
}

// PricePair holds a first-service and a recurring price.
type PricePair struct {
	First     DisplayPrice `json:"first,omitempty"`
	Recurring DisplayPrice `json:"recurring,omitempty"`
}

// IsEmpty reports whether both prices are absent.
func (p PricePair) IsEmpty() bool {
	return p.First.IsEmpty() && p.Recurring.IsEmpty()
}

// Flat is a single first/recurring price pair taken from the primary tier.
type Flat struct {
	ServiceType    string
	FirstPrice     DisplayPrice
	RecurringPrice DisplayPrice
}

// LegacyLine is one "Component: <name>" row of a legacy bundle.
type LegacyLine struct {
	Name  string
	Price PricePair
}

// Included reports whether the line carries no price of its own. Renderers
// show such lines as "Included".
func (l LegacyLine) Included() bool {
	return l.Price.IsEmpty()
}

// LegacyBundle is the sibling-row encoding: a "Bundle Total" row plus any
// number of "Component:" rows.
type LegacyBundle struct {
	Total      PricePair
	Components []LegacyLine
}

// AdditiveBundle lists explicitly priced components summed into a total.
type AdditiveBundle struct {
	Components []Component
	Total      PricePair
}

func (Flat) Kind() FormatKind           { return KindFlat }
func (LegacyBundle) Kind() FormatKind   { return KindLegacyBundle }
func (AdditiveBundle) Kind() FormatKind { return KindAdditiveBundle }

func (Flat) isFormat()           {}
func (LegacyBundle) isFormat()   {}
func (AdditiveBundle) isFormat() {}

// Classify decides the format of a matched tier set. matched must be non-empty
// and in original order; matched[0] is the primary tier.
//
// Precedence: components on the primary tier, then any legacy marker row among
// all matched tiers, then flat.
func Classify(matched []PricingTier) Format {
	if len(matched) == 0 {
		return nil
	}
	primary := matched[0]

	if len(primary.Components) > 0 {
		components := make([]Component, len(primary.Components))
		copy(components, primary.Components)
		return AdditiveBundle{
			Components: components,
			Total:      PricePair{First: primary.TotalFirst, Recurring: primary.TotalRecurring},
		}
	}

	if hasLegacyMarker(matched) {
		return classifyLegacy(matched)
	}

	return Flat{
		ServiceType:    primary.ServiceType,
		FirstPrice:     primary.FirstPrice,
		RecurringPrice: primary.RecurringPrice,
	}
}

func hasLegacyMarker(matched []PricingTier) bool {
	for _, t := range matched {
		if t.IsBundleTotal() || t.IsLegacyComponent() {
			return true
		}
	}
	return false
}

func classifyLegacy(matched []PricingTier) LegacyBundle {
	var bundle LegacyBundle
	totalSeen := false
	for _, t := range matched {
		switch {
		case t.IsBundleTotal():
			// first "Bundle Total" row wins when several overlap
			if !totalSeen {
				bundle.Total = PricePair{First: t.FirstPrice, Recurring: t.RecurringPrice}
				totalSeen = true
			}
		case t.IsLegacyComponent():
			bundle.Components = append(bundle.Components, LegacyLine{
				Name:  t.LegacyComponentName(),
				Price: PricePair{First: t.FirstPrice, Recurring: t.RecurringPrice},
			})
		}
	}
	return bundle
}
