package importer

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Simplici0/pestdirectory/internal/db"
	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/migrations"
	"github.com/Simplici0/pestdirectory/internal/store"
)

type sheetSource map[string][][]string

func (s sheetSource) Rows(_ context.Context, sheet string) ([][]string, error) {
	rows, ok := s[sheet]
	if !ok {
		return nil, errors.New("no such sheet: " + sheet)
	}
	return rows, nil
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) GetProfile(context.Context, string) (*directory.Client, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) SetProfile(context.Context, *directory.Client) error { return nil }

func (c *recordingCache) Invalidate(_ context.Context, slugs ...string) error {
	c.invalidated = append(c.invalidated, slugs...)
	return nil
}

type recordingPublisher struct {
	slugs []string
	err   error
}

func (p *recordingPublisher) PublishClientUpdated(_ context.Context, slug string) error {
	if p.err != nil {
		return p.err
	}
	p.slugs = append(p.slugs, slug)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func openStore(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "import-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return store.New(database)
}

func workbook() sheetSource {
	return sheetSource{
		"Clients": {
			{"slug", "name", "city", "state"},
			{"acme", "Acme Pest", "Austin", "TX"},
			{"bugs", "Bugs Be Gone", "Reno", "NV"},
		},
		"Pricing": {
			{"client", "service", "sqft_min", "sqft_max", "service_type", "first_price", "recurring_price"},
			{"acme", "General Pest", "0", "2500", "Quarterly", "$125", "$95"},
			{"acme", "General Pest", "2501", "4000", "Quarterly", "$150", "$110"},
			{"bugs", "Termite", "0", "3000", "Annual", "$300", "$40"},
			{"nobody", "Termite", "0", "3000", "Annual", "$300", "$40"},
		},
	}
}

func TestRun_ImportsAndIsIdempotent(t *testing.T) {
	st := openStore(t)
	c := &recordingCache{}
	p := &recordingPublisher{}
	im := New(st, c, p, zerolog.New(io.Discard))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		stats, err := im.Run(ctx, workbook(), Options{})
		if err != nil {
			t.Fatalf("run import (iteration=%d): %v", i, err)
		}
		if stats.Clients != 2 || stats.Services != 2 || stats.Tiers != 3 || stats.Skipped != 1 {
			t.Fatalf("unexpected stats in iteration %d: %+v", i, stats)
		}
		if len(stats.Errors) != 1 || stats.Published != 2 {
			t.Fatalf("unexpected errors/published in iteration %d: %+v", i, stats)
		}
		if stats.RunID == "" || stats.Source == "" {
			t.Fatalf("expected run id and source, got %+v", stats)
		}
	}

	clients, err := st.ListClients(ctx)
	if err != nil {
		t.Fatalf("list clients: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients after two imports, got %d", len(clients))
	}

	tiers, err := st.ServiceTiers(ctx, "acme", "General Pest")
	if err != nil {
		t.Fatalf("service tiers: %v", err)
	}
	if len(tiers) != 2 || tiers[0].SqftMax != 2500 {
		t.Fatalf("unexpected tiers: %+v", tiers)
	}

	run, err := st.LastImportRun(ctx)
	if err != nil {
		t.Fatalf("last import run: %v", err)
	}
	if run.Clients != 2 || run.Skipped != 1 || len(run.Warnings) != 1 {
		t.Fatalf("unexpected import run: %+v", run)
	}

	if len(c.invalidated) != 4 || len(p.slugs) != 4 {
		t.Fatalf("expected 2 invalidations and events per run, got %v / %v", c.invalidated, p.slugs)
	}
}

func TestRun_PrunesMissingClients(t *testing.T) {
	st := openStore(t)
	p := &recordingPublisher{}
	im := New(st, nil, p, zerolog.New(io.Discard))
	ctx := context.Background()

	if _, err := im.Run(ctx, workbook(), Options{}); err != nil {
		t.Fatalf("first import: %v", err)
	}

	smaller := workbook()
	smaller["Clients"] = smaller["Clients"][:2]
	stats, err := im.Run(ctx, smaller, Options{Prune: true})
	if err != nil {
		t.Fatalf("pruning import: %v", err)
	}
	if stats.Pruned != 1 {
		t.Fatalf("pruned=%d, want 1", stats.Pruned)
	}

	if _, err := st.GetClient(ctx, "bugs"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected pruned client to be gone, got %v", err)
	}

	got := append([]string{}, p.slugs[2:]...)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "acme" || got[1] != "bugs" {
		t.Fatalf("expected events for kept and pruned clients, got %v", got)
	}
}

func TestRun_FatalParseErrorLeavesStoreUntouched(t *testing.T) {
	st := openStore(t)
	im := New(st, nil, nil, zerolog.New(io.Discard))
	ctx := context.Background()

	src := workbook()
	src["Pricing"] = [][]string{{"client", "service"}}
	if _, err := im.Run(ctx, src, Options{}); err == nil {
		t.Fatalf("expected parse error")
	}

	clients, err := st.ListClients(ctx)
	if err != nil {
		t.Fatalf("list clients: %v", err)
	}
	if len(clients) != 0 {
		t.Fatalf("expected no clients, got %d", len(clients))
	}
	if _, err := st.LastImportRun(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no import run, got %v", err)
	}
}

func TestRun_PublishFailureDoesNotFailImport(t *testing.T) {
	st := openStore(t)
	im := New(st, nil, &recordingPublisher{err: errors.New("broker down")}, zerolog.New(io.Discard))

	stats, err := im.Run(context.Background(), workbook(), Options{})
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if stats.Published != 0 || stats.Clients != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRun_MissingSheet(t *testing.T) {
	st := openStore(t)
	im := New(st, nil, nil, zerolog.New(io.Discard))

	if _, err := im.Run(context.Background(), sheetSource{}, Options{}); err == nil {
		t.Fatalf("expected error for missing clients sheet")
	}
}
