package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDBPath        = "./directory.db"
	defaultPort          = "8080"
	defaultEnv           = "development"
	defaultLogLevel      = "info"
	defaultSheetSource   = "xlsx"
	defaultXLSXPath      = "./directory.xlsx"
	defaultClientsSheet  = "Clients"
	defaultPricingSheet  = "Pricing"
	defaultCacheTTL      = 10 * time.Minute
	defaultKafkaTopic    = "directory-clients"
	defaultCMSRatePerSec = 1.0
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env      string
	Port     string
	DBPath   string
	LogLevel string

	SheetSource           string
	XLSXPath              string
	SpreadsheetID         string
	GoogleCredentialsPath string
	GoogleCredentialsJSON string
	ClientsSheet          string
	PricingSheet          string

	RedisAddr string
	CacheTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	CMSBaseURL      string
	CMSToken        string
	CMSCollectionID string
	CMSRatePerSec   float64

	warnings []string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	cfg := Config{}

	// Best-effort: local .env for development. Real deployments inject env.
	if err := loadDotEnv(".env"); err != nil {
		cfg.warn("failed to read .env: %v", err)
	}

	cfg.Env = getenv("APP_ENV", defaultEnv)
	cfg.Port = strings.TrimPrefix(getenv("PORT", defaultPort), ":")
	cfg.DBPath = getenv("DB_PATH", defaultDBPath)
	cfg.LogLevel = getenv("LOG_LEVEL", defaultLogLevel)

	cfg.SheetSource = strings.ToLower(getenv("SHEET_SOURCE", defaultSheetSource))
	cfg.XLSXPath = getenv("XLSX_PATH", defaultXLSXPath)
	cfg.SpreadsheetID = os.Getenv("GOOGLE_SPREADSHEET_ID")
	cfg.GoogleCredentialsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	cfg.GoogleCredentialsJSON = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	cfg.ClientsSheet = getenv("CLIENTS_SHEET", defaultClientsSheet)
	cfg.PricingSheet = getenv("PRICING_SHEET", defaultPricingSheet)

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.CacheTTL = cfg.duration("CACHE_TTL", defaultCacheTTL)

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenv("KAFKA_TOPIC", defaultKafkaTopic)

	cfg.CMSBaseURL = strings.TrimRight(os.Getenv("CMS_BASE_URL"), "/")
	cfg.CMSToken = os.Getenv("CMS_TOKEN")
	cfg.CMSCollectionID = os.Getenv("CMS_COLLECTION_ID")
	cfg.CMSRatePerSec = cfg.float("CMS_RATE_PER_SEC", defaultCMSRatePerSec)

	switch cfg.SheetSource {
	case "xlsx":
	case "google":
		if cfg.SpreadsheetID == "" {
			cfg.warn("GOOGLE_SPREADSHEET_ID is not set")
		}
		if cfg.GoogleCredentialsPath == "" && cfg.GoogleCredentialsJSON == "" {
			cfg.warn("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_APPLICATION_CREDENTIALS_JSON is set")
		}
	default:
		cfg.warn("unknown SHEET_SOURCE %q, falling back to xlsx", cfg.SheetSource)
		cfg.SheetSource = defaultSheetSource
	}

	if cfg.CMSBaseURL != "" && cfg.CMSToken == "" {
		cfg.warn("CMS_BASE_URL is set but CMS_TOKEN is not")
	}

	return cfg
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

// CMSEnabled reports whether CMS sync is configured.
func (c Config) CMSEnabled() bool {
	return c.CMSBaseURL != "" && c.CMSCollectionID != ""
}

// Warnings returns the non-fatal problems found while loading.
func (c Config) Warnings() []string {
	return c.warnings
}

func (c *Config) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		c.warn("%s=%q is not a valid duration, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func (c *Config) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		c.warn("%s=%q must be a positive number, using %v", key, raw, fallback)
		return fallback
	}
	return v
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
