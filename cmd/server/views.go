package main

import (
	"strings"

	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/pricing"
)

type directoryViewData struct {
	Clients []directory.Summary
}

type profileViewData struct {
	Client     directory.Client
	Website    string
	SqftInput  string
	InputError string
	Services   []serviceView
}

type serviceView struct {
	Name        string
	Slug        string
	Description string
	Quote       *quoteView
	Fallback    string
	Tiers       []quoteView
}

type quoteView struct {
	Range       string
	ServiceType string
	Lines       []lineView
	Total       string
}

type lineView struct {
	Prefix string
	Name   string
	Price  string
}

func newProfileViewData(c directory.Client, sqftInput string) profileViewData {
	data := profileViewData{Client: c, SqftInput: sqftInput}
	if c.Website != "" {
		data.Website = c.Website
		if !strings.Contains(data.Website, "://") {
			data.Website = "https://" + data.Website
		}
	}

	sqft := 0
	if sqftInput != "" {
		n, err := pricing.ParseSqft(sqftInput)
		if err != nil {
			data.InputError = "Please enter a valid square footage."
		} else {
			sqft = n
		}
	}

	for _, svc := range c.Services {
		view := serviceView{
			Name:        svc.Name,
			Slug:        directory.Slugify(svc.Name),
			Description: svc.Description,
			Tiers:       tierViews(svc.Tiers),
		}
		if sqft > 0 {
			b, err := pricing.Resolve(sqft, svc.Tiers)
			switch {
			case pricing.IsNoMatch(err):
				view.Fallback = pricing.NoMatchMessage(sqft)
			case err == nil:
				q := newQuoteView(b)
				view.Quote = &q
			}
		}
		data.Services = append(data.Services, view)
	}

	return data
}

// tierViews renders one price table per distinct range. Rows sharing a range,
// such as a legacy bundle spread over several rows, form a single table.
func tierViews(tiers []pricing.PricingTier) []quoteView {
	var views []quoteView
	for _, b := range pricing.Spans(tiers) {
		views = append(views, newQuoteView(b))
	}
	return views
}

func newQuoteView(b *pricing.Breakdown) quoteView {
	q := quoteView{Range: b.Range.Label()}

	switch f := b.Format.(type) {
	case pricing.Flat:
		q.ServiceType = f.ServiceType
		if !f.FirstPrice.IsEmpty() {
			q.Lines = append(q.Lines, lineView{Name: "First service", Price: f.FirstPrice.String()})
		}
		if !f.RecurringPrice.IsEmpty() {
			q.Lines = append(q.Lines, lineView{Name: "Recurring", Price: f.RecurringPrice.String()})
		}
	case pricing.AdditiveBundle:
		for i, c := range f.Components {
			name := c.Name
			if c.ShortCode != "" {
				name += " (" + c.ShortCode + ")"
			}
			q.Lines = append(q.Lines, lineView{
				Prefix: joinPrefix(i),
				Name:   name,
				Price:  pricing.PricePair{First: c.FirstPrice, Recurring: c.RecurringPrice}.Describe(),
			})
		}
		q.Total = f.Total.Describe()
	case pricing.LegacyBundle:
		for i, c := range f.Components {
			q.Lines = append(q.Lines, lineView{Prefix: joinPrefix(i), Name: c.Name, Price: c.Describe()})
		}
		q.Total = f.Total.Describe()
	}

	return q
}

func joinPrefix(i int) string {
	if i == 0 {
		return ""
	}
	return "+"
}
