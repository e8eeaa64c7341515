// Package importer loads the operator spreadsheets into the store.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Simplici0/pestdirectory/internal/cache"
	"github.com/Simplici0/pestdirectory/internal/events"
	"github.com/Simplici0/pestdirectory/internal/sheets"
	"github.com/Simplici0/pestdirectory/internal/store"
)

// Options selects the sheets to read.
type Options struct {
	ClientsSheet string
	PricingSheet string
	// Prune deletes stored clients that no longer appear in the sheet.
	Prune bool
}

// Stats summarises one import.
type Stats struct {
	RunID     string        `json:"runId"`
	Source    string        `json:"source"`
	Clients   int           `json:"clients"`
	Services  int           `json:"services"`
	Tiers     int           `json:"tiers"`
	Skipped   int           `json:"skipped"`
	Pruned    int           `json:"pruned"`
	Published int           `json:"published"`
	Errors    []string      `json:"errors"`
	Warnings  []string      `json:"warnings"`
	Duration  time.Duration `json:"duration"`
}

// Importer writes parsed sheets into the store and fans out change
// notifications once the transaction has committed.
type Importer struct {
	store     *store.Store
	cache     cache.Cache
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func New(st *store.Store, c cache.Cache, p events.Publisher, logger zerolog.Logger) *Importer {
	if c == nil {
		c = cache.Nop{}
	}
	if p == nil {
		p = events.Nop{}
	}
	return &Importer{store: st, cache: c, publisher: p, logger: logger, now: time.Now}
}

// Run imports both sheets from src. Either every valid client is written or
// none is.
func (im *Importer) Run(ctx context.Context, src sheets.Source, opts Options) (*Stats, error) {
	started := im.now()
	if opts.ClientsSheet == "" {
		opts.ClientsSheet = "Clients"
	}
	if opts.PricingSheet == "" {
		opts.PricingSheet = "Pricing"
	}

	stats := &Stats{
		RunID:    uuid.NewString(),
		Source:   sourceName(src),
		Errors:   []string{},
		Warnings: []string{},
	}

	clientsRows, err := src.Rows(ctx, opts.ClientsSheet)
	if err != nil {
		return nil, fmt.Errorf("read clients sheet: %w", err)
	}
	pricingRows, err := src.Rows(ctx, opts.PricingSheet)
	if err != nil {
		return nil, fmt.Errorf("read pricing sheet: %w", err)
	}

	parsed, err := sheets.Parse(clientsRows, pricingRows)
	if err != nil {
		return nil, fmt.Errorf("parse sheets: %w", err)
	}

	for _, rowErr := range parsed.Errors {
		stats.Errors = append(stats.Errors, rowErr.Error())
	}
	stats.Warnings = append(stats.Warnings, parsed.Warnings...)
	stats.Skipped = parsed.Skipped()

	var existing []string
	if opts.Prune {
		if existing, err = im.store.Slugs(ctx); err != nil {
			return nil, err
		}
	}

	tx, err := im.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	imported := make(map[string]struct{}, len(parsed.Clients))
	for _, c := range parsed.Clients {
		c.UpdatedAt = started.UTC()
		if err := im.store.ReplaceClient(ctx, tx, c); err != nil {
			return nil, err
		}
		imported[c.Slug] = struct{}{}
		stats.Clients++
		stats.Services += len(c.Services)
		for _, svc := range c.Services {
			stats.Tiers += len(svc.Tiers)
		}
	}

	var pruned []string
	if opts.Prune {
		for _, slug := range existing {
			if _, ok := imported[slug]; ok {
				continue
			}
			if err := im.store.DeleteClient(ctx, tx, slug); err != nil {
				return nil, err
			}
			pruned = append(pruned, slug)
		}
		stats.Pruned = len(pruned)
	}

	finished := im.now()
	stats.Duration = finished.Sub(started)

	run := store.ImportRun{
		ID:         stats.RunID,
		Source:     stats.Source,
		StartedAt:  started,
		FinishedAt: finished,
		Clients:    stats.Clients,
		Services:   stats.Services,
		Tiers:      stats.Tiers,
		Skipped:    stats.Skipped,
		Warnings:   append(append([]string{}, stats.Errors...), stats.Warnings...),
	}
	if err := im.store.RecordImportRun(ctx, tx, run); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	changed := make([]string, 0, len(parsed.Clients)+len(pruned))
	for _, c := range parsed.Clients {
		changed = append(changed, c.Slug)
	}
	changed = append(changed, pruned...)

	if err := im.cache.Invalidate(ctx, changed...); err != nil {
		im.logger.Warn().Err(err).Str("run_id", stats.RunID).Msg("invalidate profile cache")
	}

	for _, slug := range changed {
		if err := im.publisher.PublishClientUpdated(ctx, slug); err != nil {
			im.logger.Warn().Err(err).Str("client", slug).Msg("publish client.updated")
			continue
		}
		stats.Published++
	}

	im.logger.Info().
		Str("run_id", stats.RunID).
		Str("source", stats.Source).
		Int("clients", stats.Clients).
		Int("services", stats.Services).
		Int("tiers", stats.Tiers).
		Int("skipped", stats.Skipped).
		Int("pruned", stats.Pruned).
		Dur("duration", stats.Duration).
		Msg("import finished")

	return stats, nil
}

func sourceName(src sheets.Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
