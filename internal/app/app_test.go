package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Simplici0/pestdirectory/internal/cache"
	"github.com/Simplici0/pestdirectory/internal/config"
	"github.com/Simplici0/pestdirectory/internal/events"
	"github.com/Simplici0/pestdirectory/internal/sheets"
)

func TestOpenSource(t *testing.T) {
	ctx := context.Background()

	src, err := OpenSource(ctx, config.Config{SheetSource: "xlsx", XLSXPath: "/data/directory.xlsx"})
	if err != nil {
		t.Fatalf("open xlsx source: %v", err)
	}
	if x, ok := src.(sheets.XLSXSource); !ok || x.Path != "/data/directory.xlsx" {
		t.Fatalf("unexpected source %#v", src)
	}

	if _, err := OpenSource(ctx, config.Config{SheetSource: "google"}); err == nil {
		t.Fatalf("expected error without spreadsheet id")
	}
}

func TestOptionalCollaboratorsFallBackToNop(t *testing.T) {
	cfg := config.Config{}

	if _, ok := OpenCache(context.Background(), cfg, zerolog.New(io.Discard)).(cache.Nop); !ok {
		t.Fatalf("expected no-op cache without REDIS_ADDR")
	}
	if _, ok := NewPublisher(cfg).(events.Nop); !ok {
		t.Fatalf("expected no-op publisher without brokers")
	}
	if _, err := NewSyncer(cfg, nil, zerolog.New(io.Discard)); !errors.Is(err, ErrCMSDisabled) {
		t.Fatalf("expected ErrCMSDisabled, got %v", err)
	}
}

func TestNewPublisher_Kafka(t *testing.T) {
	p := NewPublisher(config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "directory-clients"})
	defer p.Close()

	if _, ok := p.(*events.KafkaPublisher); !ok {
		t.Fatalf("expected kafka publisher, got %T", p)
	}
}
