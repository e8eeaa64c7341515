package pricing

import "strings"

const (
	bundleTotalMarker     = "Bundle Total"
	componentMarkerPrefix = "Component:"
)

// DisplayPrice is a pre-formatted price such as "$65.00". The empty value means
// the price is absent; no arithmetic is ever done on it.
type DisplayPrice string

// IsEmpty reports whether the price is absent.
func (p DisplayPrice) IsEmpty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// String returns the trimmed display text.
func (p DisplayPrice) String() string {
	return strings.TrimSpace(string(p))
}

// Component is one line item inside an additive bundle tier.
type Component struct {
	Name           string       `json:"name"`
	ShortCode      string       `json:"shortCode,omitempty"`
	FirstPrice     DisplayPrice `json:"firstPrice,omitempty"`
	RecurringPrice DisplayPrice `json:"recurringPrice,omitempty"`
}

// PricingTier is one square-footage bounded row of priced service data.
type PricingTier struct {
	SqftMin        int          `json:"sqftMin"`
	SqftMax        int          `json:"sqftMax"`
	ServiceType    string       `json:"serviceType"`
	FirstPrice     DisplayPrice `json:"firstPrice,omitempty"`
	RecurringPrice DisplayPrice `json:"recurringPrice,omitempty"`
	Acreage        string       `json:"acreage,omitempty"`
	Components     []Component  `json:"components,omitempty"`
	TotalFirst     DisplayPrice `json:"totalFirst,omitempty"`
	TotalRecurring DisplayPrice `json:"totalRecurring,omitempty"`
}

// Covers reports whether sqft falls inside the tier's inclusive range.
func (t PricingTier) Covers(sqft int) bool {
	return t.SqftMin <= sqft && sqft <= t.SqftMax
}

// IsBundleTotal reports whether the tier is the aggregate row of a legacy bundle.
func (t PricingTier) IsBundleTotal() bool {
	return strings.TrimSpace(t.ServiceType) == bundleTotalMarker
}

// IsLegacyComponent reports whether the tier is a "Component: <name>" row.
func (t PricingTier) IsLegacyComponent() bool {
	return strings.HasPrefix(strings.TrimSpace(t.ServiceType), componentMarkerPrefix)
}

// LegacyComponentName strips the "Component:" marker from the service type.
func (t PricingTier) LegacyComponentName() string {
	name := strings.TrimPrefix(strings.TrimSpace(t.ServiceType), componentMarkerPrefix)
	return strings.TrimSpace(name)
}
