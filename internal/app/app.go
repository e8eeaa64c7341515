// Package app builds the collaborators shared by the server and the CLI from
// a loaded config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Simplici0/pestdirectory/internal/cache"
	"github.com/Simplici0/pestdirectory/internal/cms"
	"github.com/Simplici0/pestdirectory/internal/config"
	"github.com/Simplici0/pestdirectory/internal/events"
	"github.com/Simplici0/pestdirectory/internal/sheets"
	"github.com/Simplici0/pestdirectory/internal/store"
)

var ErrCMSDisabled = errors.New("cms sync is not configured (CMS_BASE_URL, CMS_COLLECTION_ID)")

// OpenSource returns the spreadsheet source selected by SHEET_SOURCE.
func OpenSource(ctx context.Context, cfg config.Config) (sheets.Source, error) {
	switch cfg.SheetSource {
	case "google":
		opts := sheets.CredentialOptions(cfg.GoogleCredentialsPath, cfg.GoogleCredentialsJSON)
		src, err := sheets.NewGoogleSource(ctx, cfg.SpreadsheetID, opts...)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		if cfg.XLSXPath == "" {
			return nil, fmt.Errorf("XLSX_PATH is not set")
		}
		return sheets.XLSXSource{Path: cfg.XLSXPath}, nil
	}
}

// OpenCache connects to redis when REDIS_ADDR is set. An unreachable redis
// is logged and replaced by the no-op cache.
func OpenCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.Nop{}
	}
	c, err := cache.Dial(ctx, cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("profile cache disabled")
		return cache.Nop{}
	}
	return c
}

// NewPublisher returns a kafka publisher, or a no-op one without brokers.
func NewPublisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// NewSyncer wires the CMS client to the store.
func NewSyncer(cfg config.Config, st *store.Store, logger zerolog.Logger) (*cms.Syncer, error) {
	if !cfg.CMSEnabled() {
		return nil, ErrCMSDisabled
	}
	client := cms.NewClient(cfg.CMSBaseURL, cfg.CMSToken, cfg.CMSCollectionID, cfg.CMSRatePerSec, nil)
	return cms.NewSyncer(st, client, logger), nil
}
