package pricing

import (
	"fmt"
	"strings"
)

const includedLabel = "Included"

// NoMatchMessage is the fallback shown when no tier covers sqft.
func NoMatchMessage(sqft int) string {
	return fmt.Sprintf("Pricing for %d sq ft is not listed online. Please contact the office for a quote.", sqft)
}

// RenderText renders a breakdown as plain text. Lines keep their resolved
// order; additive components are joined with "+" and followed by "= Total".
func RenderText(b *Breakdown) string {
	if b == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Square footage: %s\n", b.Range.Label())

	switch f := b.Format.(type) {
	case Flat:
		sb.WriteString(f.ServiceType)
		sb.WriteString("\n")
		writePriceLines(&sb, "  ", PricePair{First: f.FirstPrice, Recurring: f.RecurringPrice})
	case AdditiveBundle:
		for i, c := range f.Components {
			prefix := "  "
			if i > 0 {
				prefix = "+ "
			}
			name := c.Name
			if c.ShortCode != "" {
				name += " (" + c.ShortCode + ")"
			}
			sb.WriteString(prefix + name)
			if desc := (PricePair{First: c.FirstPrice, Recurring: c.RecurringPrice}).Describe(); desc != "" {
				sb.WriteString(": " + desc)
			}
			sb.WriteString("\n")
		}
		writeTotal(&sb, f.Total)
	case LegacyBundle:
		for i, c := range f.Components {
			prefix := "  "
			if i > 0 {
				prefix = "+ "
			}
			fmt.Fprintf(&sb, "%s%s: %s\n", prefix, c.Name, c.Describe())
		}
		writeTotal(&sb, f.Total)
	}

	return sb.String()
}

func writeTotal(sb *strings.Builder, total PricePair) {
	if total.IsEmpty() {
		return
	}
	fmt.Fprintf(sb, "= Total: %s\n", total.Describe())
}

func writePriceLines(sb *strings.Builder, indent string, p PricePair) {
	if !p.First.IsEmpty() {
		fmt.Fprintf(sb, "%sFirst service: %s\n", indent, p.First)
	}
	if !p.Recurring.IsEmpty() {
		fmt.Fprintf(sb, "%sRecurring: %s\n", indent, p.Recurring)
	}
}

// Describe renders the pair as "$99 first, $45 recurring", omitting absent
// prices.
func (p PricePair) Describe() string {
	parts := make([]string, 0, 2)
	if !p.First.IsEmpty() {
		parts = append(parts, p.First.String()+" first")
	}
	if !p.Recurring.IsEmpty() {
		parts = append(parts, p.Recurring.String()+" recurring")
	}
	return strings.Join(parts, ", ")
}

// Describe renders the line's price, or "Included" when it has none.
func (l LegacyLine) Describe() string {
	if l.Included() {
		return includedLabel
	}
	return l.Price.Describe()
}
