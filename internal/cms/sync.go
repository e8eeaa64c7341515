package cms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/pricing"
)

// ProfileSource is the read side of the store used by the syncer.
type ProfileSource interface {
	Slugs(ctx context.Context) ([]string, error)
	GetClient(ctx context.Context, slug string) (*directory.Client, error)
}

// ItemWriter is satisfied by *Client.
type ItemWriter interface {
	UpsertItem(ctx context.Context, item Item) error
}

// SyncStats counts the outcome of a full sync.
type SyncStats struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// Syncer copies stored profiles into the CMS, one client at a time.
type Syncer struct {
	source ProfileSource
	writer ItemWriter
	logger zerolog.Logger
}

func NewSyncer(source ProfileSource, writer ItemWriter, logger zerolog.Logger) *Syncer {
	return &Syncer{source: source, writer: writer, logger: logger}
}

// SyncAll pushes every stored client. A failing client is logged and counted;
// only cancellation or a failure to list clients aborts the run.
func (s *Syncer) SyncAll(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	slugs, err := s.source.Slugs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list clients for cms sync: %w", err)
	}
	stats.Total = len(slugs)

	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := s.SyncClient(ctx, slug); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			s.logger.Error().Err(err).Str("client", slug).Msg("cms sync failed")
			continue
		}
		stats.Synced++
	}

	s.logger.Info().Int("total", stats.Total).Int("synced", stats.Synced).Int("failed", stats.Failed).Msg("cms sync finished")
	return stats, nil
}

// SyncClient pushes a single client.
func (s *Syncer) SyncClient(ctx context.Context, slug string) error {
	c, err := s.source.GetClient(ctx, slug)
	if err != nil {
		return fmt.Errorf("load client %s: %w", slug, err)
	}
	return s.writer.UpsertItem(ctx, BuildItem(*c))
}

// BuildItem maps a client into a CMS item. Each service is rendered from the
// rows sharing its first tier's range, so the text shows the smallest home
// size the company prices.
func BuildItem(c directory.Client) Item {
	item := Item{
		Slug:        c.Slug,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		Website:     c.Website,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		Zip:         c.Zip,
		Description: c.Description,
		LogoURL:     c.LogoURL,
		Pricing:     []ServicePricing{},
	}

	for _, svc := range c.Services {
		if len(svc.Tiers) == 0 {
			continue
		}
		b := pricing.Spans(svc.Tiers)[0]
		item.Pricing = append(item.Pricing, ServicePricing{
			Service:     svc.Name,
			Description: svc.Description,
			Range:       b.Range.Label(),
			Text:        pricing.RenderText(b),
		})
	}

	return item
}
