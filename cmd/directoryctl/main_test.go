package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/xuri/excelize/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_MigrateSeedResolve(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	out, err := run(t, "--db", dbPath, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema version 2") {
		t.Fatalf("unexpected migrate output: %q", out)
	}

	if out, err = run(t, "--db", dbPath, "seed"); err != nil || !strings.Contains(out, "Inserted demo client") {
		t.Fatalf("seed: %q %v", out, err)
	}
	if out, err = run(t, "--db", dbPath, "seed"); err != nil || !strings.Contains(out, "already present") {
		t.Fatalf("second seed: %q %v", out, err)
	}

	out, err = run(t, "--db", dbPath, "resolve", "--client", "demo-pest-co", "--service", "home-guard", "--sqft", "2000")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := "Square footage: 0–2500\n  General Pest: Included\n+ Mosquito: $45.00 recurring\n= Total: $199.00 first, $139.00 recurring\n"
	if out != want {
		t.Fatalf("resolve output=%q, want %q", out, want)
	}

	out, err = run(t, "--db", dbPath, "resolve", "--client", "demo-pest-co", "--service", "general-pest", "--sqft", "99999")
	if err != nil || !strings.Contains(out, "not listed online") {
		t.Fatalf("no match: %q %v", out, err)
	}

	if _, err = run(t, "--db", dbPath, "resolve", "--client", "demo-pest-co", "--service", "general-pest", "--sqft", "zero"); err == nil {
		t.Fatalf("expected invalid square footage error")
	}

	out, err = run(t, "--db", dbPath, "resolve", "--client", "demo-pest-co", "--service", "total-shield", "--sqft", "1000", "--json")
	if err != nil || !strings.Contains(out, `"format": "additive_bundle"`) {
		t.Fatalf("json resolve: %q %v", out, err)
	}
}

func TestCLI_ImportXLSX(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	xlsxPath := filepath.Join(dir, "directory.xlsx")

	f := excelize.NewFile()
	if _, err := f.NewSheet("Clients"); err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	if _, err := f.NewSheet("Pricing"); err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	f.SetSheetRow("Clients", "A1", &[]interface{}{"slug", "name"})
	f.SetSheetRow("Clients", "A2", &[]interface{}{"acme", "Acme Pest"})
	f.SetSheetRow("Pricing", "A1", &[]interface{}{"client", "service", "sqft_min", "sqft_max", "service_type", "first_price", "recurring_price"})
	f.SetSheetRow("Pricing", "A2", &[]interface{}{"acme", "General Pest", 0, 2500, "Quarterly", "$125", "$95"})
	f.SetSheetRow("Pricing", "A3", &[]interface{}{"acme", "General Pest", "abc", 4000, "Quarterly", "$150", "$110"})
	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()

	out, err := run(t, "--db", dbPath, "import", "--xlsx", xlsxPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, expected := range []string{"Clients:  1", "Tiers:    1", "Skipped:  1 row(s)", "pricing row 3"} {
		if !strings.Contains(out, expected) {
			t.Fatalf("expected import output to contain %q, got %q", expected, out)
		}
	}

	out, err = run(t, "--db", dbPath, "resolve", "--client", "acme", "--service", "General Pest", "--sqft", "1,800")
	if err != nil || !strings.Contains(out, "First service: $125") {
		t.Fatalf("resolve imported: %q %v", out, err)
	}
}

func TestCLI_SyncCMS(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	var puts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.Header.Get("Authorization") == "Bearer test-token" {
			puts.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("CMS_BASE_URL", srv.URL)
	t.Setenv("CMS_TOKEN", "test-token")
	t.Setenv("CMS_COLLECTION_ID", "profiles")
	t.Setenv("CMS_RATE_PER_SEC", "100")

	if _, err := run(t, "--db", dbPath, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := run(t, "--db", dbPath, "sync-cms")
	if err != nil {
		t.Fatalf("sync-cms: %v", err)
	}
	if !strings.Contains(out, "Synced 1 of 1 client(s), 0 failed") || puts.Load() != 1 {
		t.Fatalf("unexpected sync: %q puts=%d", out, puts.Load())
	}

	if _, err := run(t, "--db", dbPath, "sync-cms", "--follow"); err == nil {
		t.Fatalf("expected --follow to require kafka brokers")
	}
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "directoryctl version dev") {
		t.Fatalf("version: %q %v", out, err)
	}
}
