// Package directory holds the client profile model shared by the sheet
// importer, the store, the HTTP server and the CMS sync.
package directory

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/Simplici0/pestdirectory/internal/pricing"
)

var (
	ErrMissingName    = errors.New("client name is required")
	ErrInvalidSlug    = errors.New("client slug is invalid")
	ErrInvalidWebsite = errors.New("client website is not a valid domain")
	ErrInvalidRange   = errors.New("tier sqft range is invalid")
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Client is a pest-control company listed in the directory.
type Client struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Website     string    `json:"website,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Zip         string    `json:"zip,omitempty"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	Services    []Service `json:"services"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service is a priced offering of a client. Tier order is row order.
type Service struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Tiers       []pricing.PricingTier `json:"tiers"`
}

// Summary is the short listing form of a client.
type Summary struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// Slugify derives a URL slug from a display name.
func Slugify(name string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

// Summary returns the listing form of the client.
func (c Client) Summary() Summary {
	return Summary{Slug: c.Slug, Name: c.Name, City: c.City, State: c.State}
}

// Service looks a service up by name, case-insensitively.
func (c Client) Service(name string) (Service, bool) {
	want := strings.TrimSpace(name)
	for _, s := range c.Services {
		if strings.EqualFold(s.Name, want) || strings.EqualFold(Slugify(s.Name), want) {
			return s, true
		}
	}
	return Service{}, false
}

// Validate checks the client-level fields.
func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if c.Slug == "" || c.Slug != Slugify(c.Slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, c.Slug)
	}
	if c.Website != "" {
		if err := ValidateWebsite(c.Website); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWebsite accepts "example.com" or "https://example.com/path"; the
// host must be a valid (possibly internationalised) domain name.
func ValidateWebsite(raw string) error {
	candidate := strings.TrimSpace(raw)
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("%w: %q", ErrInvalidWebsite, raw)
	}
	host := u.Hostname()
	if !strings.Contains(host, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidWebsite, raw)
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidWebsite, raw)
	}
	return nil
}

// ValidateTier checks the structural invariants of a tier row.
func ValidateTier(t pricing.PricingTier) error {
	if t.SqftMin < 0 || t.SqftMin > t.SqftMax {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, t.SqftMin, t.SqftMax)
	}
	return nil
}
