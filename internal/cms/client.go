// Package cms pushes client profiles into a collection-based headless CMS
// over its REST API.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// StatusError is returned when the CMS answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms responded %d: %s", e.Code, e.Body)
}

// Item is the CMS representation of a client profile.
type Item struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Phone       string           `json:"phone,omitempty"`
	Email       string           `json:"email,omitempty"`
	Website     string           `json:"website,omitempty"`
	Address     string           `json:"address,omitempty"`
	City        string           `json:"city,omitempty"`
	State       string           `json:"state,omitempty"`
	Zip         string           `json:"zip,omitempty"`
	Description string           `json:"description,omitempty"`
	LogoURL     string           `json:"logo-url,omitempty"`
	Pricing     []ServicePricing `json:"pricing"`
}

// ServicePricing carries the rendered price text of one service.
type ServicePricing struct {
	Service     string `json:"service"`
	Description string `json:"description,omitempty"`
	Range       string `json:"range"`
	Text        string `json:"text"`
}

type itemEnvelope struct {
	IsArchived bool `json:"isArchived"`
	IsDraft    bool `json:"isDraft"`
	FieldData  Item `json:"fieldData"`
}

// Client talks to one CMS collection. Requests are paced by a token bucket
// because the CMS rate limits per token.
type Client struct {
	baseURL    string
	token      string
	collection string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client allowing perSecond requests with a burst of one.
func NewClient(baseURL, token, collection string, perSecond float64, httpClient *http.Client) *Client {
	if perSecond <= 0 {
		perSecond = 1
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		collection: collection,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// UpsertItem creates or replaces the item whose slug matches item.Slug.
func (c *Client) UpsertItem(ctx context.Context, item Item) error {
	body, err := json.Marshal(itemEnvelope{FieldData: item})
	if err != nil {
		return fmt.Errorf("encode cms item %s: %w", item.Slug, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for cms rate limit: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/items/%s", c.baseURL, url.PathEscape(c.collection), url.PathEscape(item.Slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build cms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put cms item %s: %w", item.Slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("put cms item %s: %w", item.Slug, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))})
	}
	io.Copy(io.Discard, resp.Body)

	return nil
}
