// Package seed loads a demo client for local development.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/pricing"
	"github.com/Simplici0/pestdirectory/internal/store"
)

const DemoSlug = "demo-pest-co"

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the demo client unless it already exists.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	st := store.New(db)

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE slug = ? LIMIT 1)`, DemoSlug).Scan(&exists); err != nil {
		return Stats{}, fmt.Errorf("check demo client existence: %w", err)
	}
	if exists {
		return Stats{}, nil
	}

	tx, err := st.BeginTx(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	demo := DemoClient()
	if err := st.ReplaceClient(ctx, tx, demo); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	stats := Stats{Inserts: 1}
	for _, svc := range demo.Services {
		stats.Inserts += 1 + len(svc.Tiers)
	}
	return stats, nil
}

// DemoClient has one service of each pricing layout.
func DemoClient() directory.Client {
	return directory.Client{
		Slug:        DemoSlug,
		Name:        "Demo Pest Co",
		Phone:       "(512) 555-0142",
		Email:       "office@demopest.example.com",
		Website:     "demopest.example.com",
		Address:     "100 Congress Ave",
		City:        "Austin",
		State:       "TX",
		Zip:         "78701",
		Description: "Family owned pest control serving Central Texas.",
		Services: []directory.Service{
			{
				Name:        "General Pest",
				Description: "Quarterly interior and exterior treatment.",
				Tiers: []pricing.PricingTier{
					{SqftMin: 0, SqftMax: 2500, ServiceType: "Quarterly GPC", FirstPrice: "$125.00", RecurringPrice: "$95.00"},
					{SqftMin: 2501, SqftMax: 4000, ServiceType: "Quarterly GPC", FirstPrice: "$150.00", RecurringPrice: "$110.00"},
				},
			},
			{
				Name:        "Home Guard",
				Description: "Pest and mosquito coverage in one visit.",
				Tiers: []pricing.PricingTier{
					{SqftMin: 0, SqftMax: 2500, ServiceType: "Bundle Total", FirstPrice: "$199.00", RecurringPrice: "$139.00"},
					{SqftMin: 0, SqftMax: 2500, ServiceType: "Component: General Pest"},
					{SqftMin: 0, SqftMax: 2500, ServiceType: "Component: Mosquito", RecurringPrice: "$45.00"},
				},
			},
			{
				Name:        "Total Shield",
				Description: "Build your own plan.",
				Tiers: []pricing.PricingTier{
					{
						SqftMin: 0,
						SqftMax: 2500,
						Acreage: "0.25 acres",
						Components: []pricing.Component{
							{Name: "General Pest", ShortCode: "GP", FirstPrice: "$99.00", RecurringPrice: "$45.00"},
							{Name: "Mosquito", ShortCode: "MOS", RecurringPrice: "$65.00"},
							{Name: "Termite Monitoring", ShortCode: "TM", RecurringPrice: "$35.00"},
						},
						TotalFirst:     "$99.00",
						TotalRecurring: "$145.00",
					},
				},
			},
		},
	}
}
