package pricing

import "encoding/json"

type rangeJSON struct {
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Acreage string `json:"acreage,omitempty"`
	Label   string `json:"label"`
}

type lineJSON struct {
	Name           string       `json:"name"`
	ShortCode      string       `json:"shortCode,omitempty"`
	FirstPrice     DisplayPrice `json:"firstPrice,omitempty"`
	RecurringPrice DisplayPrice `json:"recurringPrice,omitempty"`
	Included       bool         `json:"included,omitempty"`
}

type breakdownJSON struct {
	Sqft           int          `json:"sqft"`
	Range          rangeJSON    `json:"range"`
	Format         FormatKind   `json:"format"`
	ServiceType    string       `json:"serviceType,omitempty"`
	FirstPrice     DisplayPrice `json:"firstPrice,omitempty"`
	RecurringPrice DisplayPrice `json:"recurringPrice,omitempty"`
	Components     []lineJSON   `json:"components,omitempty"`
	Total          *PricePair   `json:"total,omitempty"`
}

// MarshalJSON flattens the format variant under a "format" discriminator.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	out := breakdownJSON{
		Sqft: b.Sqft,
		Range: rangeJSON{
			Min:     b.Range.Min,
			Max:     b.Range.Max,
			Acreage: b.Range.Acreage,
			Label:   b.Range.Label(),
		},
	}

	switch f := b.Format.(type) {
	case Flat:
		out.Format = KindFlat
		out.ServiceType = f.ServiceType
		out.FirstPrice = f.FirstPrice
		out.RecurringPrice = f.RecurringPrice
	case LegacyBundle:
		out.Format = KindLegacyBundle
		total := f.Total
		out.Total = &total
		out.Components = make([]lineJSON, 0, len(f.Components))
		for _, c := range f.Components {
			out.Components = append(out.Components, lineJSON{
				Name:           c.Name,
				FirstPrice:     c.Price.First,
				RecurringPrice: c.Price.Recurring,
				Included:       c.Included(),
			})
		}
	case AdditiveBundle:
		out.Format = KindAdditiveBundle
		total := f.Total
		out.Total = &total
		out.Components = make([]lineJSON, 0, len(f.Components))
		for _, c := range f.Components {
			out.Components = append(out.Components, lineJSON{
				Name:           c.Name,
				ShortCode:      c.ShortCode,
				FirstPrice:     c.FirstPrice,
				RecurringPrice: c.RecurringPrice,
			})
		}
	}

	return json.Marshal(out)
}
