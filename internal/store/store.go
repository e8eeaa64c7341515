// Package store persists directory clients, their services and pricing tiers
// in SQLite. Tier and component order is kept in explicit position columns.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/pricing"
)

// ErrNotFound is returned when a client or service does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the database connection.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store over an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB exposes the underlying handle for callers that manage transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// BeginTx starts a transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

// ReplaceClient writes c and all of its services and tiers inside tx,
// discarding whatever was stored for the same slug before.
func (s *Store) ReplaceClient(ctx context.Context, tx *sql.Tx, c directory.Client) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now().UTC()
	}

	var clientID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO clients (slug, name, phone, email, website, address, city, state, zip, description, logo_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			website = excluded.website,
			address = excluded.address,
			city = excluded.city,
			state = excluded.state,
			zip = excluded.zip,
			description = excluded.description,
			logo_url = excluded.logo_url,
			updated_at = excluded.updated_at
		RETURNING id
	`, c.Slug, c.Name, c.Phone, c.Email, c.Website, c.Address, c.City, c.State, c.Zip, c.Description, c.LogoURL, updatedAt).Scan(&clientID)
	if err != nil {
		return fmt.Errorf("upsert client %s: %w", c.Slug, err)
	}

	if err := deleteServices(ctx, tx, clientID); err != nil {
		return fmt.Errorf("clear services of %s: %w", c.Slug, err)
	}

	for i, svc := range c.Services {
		if err := insertService(ctx, tx, clientID, i, svc); err != nil {
			return fmt.Errorf("insert service %q of %s: %w", svc.Name, c.Slug, err)
		}
	}

	return nil
}

func deleteServices(ctx context.Context, tx *sql.Tx, clientID int64) error {
	statements := []string{
		`DELETE FROM tier_components WHERE tier_id IN (
			SELECT t.id FROM pricing_tiers t JOIN services s ON s.id = t.service_id WHERE s.client_id = ?
		)`,
		`DELETE FROM pricing_tiers WHERE service_id IN (SELECT id FROM services WHERE client_id = ?)`,
		`DELETE FROM services WHERE client_id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, clientID); err != nil {
			return err
		}
	}
	return nil
}

func insertService(ctx context.Context, tx *sql.Tx, clientID int64, position int, svc directory.Service) error {
	var serviceID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO services (client_id, position, name, description)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, clientID, position, svc.Name, svc.Description).Scan(&serviceID)
	if err != nil {
		return err
	}

	for i, tier := range svc.Tiers {
		var tierID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO pricing_tiers (
				service_id, position, sqft_min, sqft_max, service_type,
				first_price, recurring_price, acreage, total_first, total_recurring
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`,
			serviceID, i, tier.SqftMin, tier.SqftMax, tier.ServiceType,
			string(tier.FirstPrice), string(tier.RecurringPrice), tier.Acreage,
			string(tier.TotalFirst), string(tier.TotalRecurring),
		).Scan(&tierID)
		if err != nil {
			return fmt.Errorf("insert tier %d: %w", i, err)
		}

		for j, comp := range tier.Components {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tier_components (tier_id, position, name, short_code, first_price, recurring_price)
				VALUES (?, ?, ?, ?, ?, ?)
			`, tierID, j, comp.Name, comp.ShortCode, string(comp.FirstPrice), string(comp.RecurringPrice)); err != nil {
				return fmt.Errorf("insert component %d of tier %d: %w", j, i, err)
			}
		}
	}

	return nil
}

// DeleteClient removes a client and everything it owns.
func (s *Store) DeleteClient(ctx context.Context, tx *sql.Tx, slug string) error {
	var clientID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM clients WHERE slug = ?`, slug).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query client %s: %w", slug, err)
	}
	if err := deleteServices(ctx, tx, clientID); err != nil {
		return fmt.Errorf("clear services of %s: %w", slug, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, clientID); err != nil {
		return fmt.Errorf("delete client %s: %w", slug, err)
	}
	return nil
}

// ListClients returns the directory listing ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]directory.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, name, city, state
		FROM clients
		ORDER BY name COLLATE NOCASE, slug
	`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]directory.Summary, 0)
	for rows.Next() {
		var c directory.Summary
		if err := rows.Scan(&c.Slug, &c.Name, &c.City, &c.State); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// Slugs returns every stored client slug.
func (s *Store) Slugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug FROM clients ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("query client slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan client slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client slugs: %w", err)
	}
	return slugs, nil
}

// GetClient loads a full client profile.
func (s *Store) GetClient(ctx context.Context, slug string) (*directory.Client, error) {
	var (
		c        directory.Client
		clientID int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, phone, email, website, address, city, state, zip, description, logo_url, updated_at
		FROM clients
		WHERE slug = ?
	`, slug).Scan(
		&clientID, &c.Slug, &c.Name, &c.Phone, &c.Email, &c.Website, &c.Address,
		&c.City, &c.State, &c.Zip, &c.Description, &c.LogoURL, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query client %s: %w", slug, err)
	}

	services, err := s.loadServices(ctx, clientID)
	if err != nil {
		return nil, err
	}
	c.Services = services

	return &c, nil
}

// ServiceTiers returns the tiers of one service in authored order.
func (s *Store) ServiceTiers(ctx context.Context, slug, service string) ([]pricing.PricingTier, error) {
	client, err := s.GetClient(ctx, slug)
	if err != nil {
		return nil, err
	}
	svc, ok := client.Service(service)
	if !ok {
		return nil, fmt.Errorf("service %q of %s: %w", service, slug, ErrNotFound)
	}
	return svc.Tiers, nil
}

type tierRow struct {
	serviceID int64
	tierID    int64
	tier      pricing.PricingTier
}

func (s *Store) loadServices(ctx context.Context, clientID int64) ([]directory.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description
		FROM services
		WHERE client_id = ?
		ORDER BY position
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	services := make([]directory.Service, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			id  int64
			svc directory.Service
		)
		if err := rows.Scan(&id, &svc.Name, &svc.Description); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		svc.Tiers = make([]pricing.PricingTier, 0)
		index[id] = len(services)
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	if len(services) == 0 {
		return services, nil
	}

	tiers, err := s.loadTiers(ctx, clientID)
	if err != nil {
		return nil, err
	}
	components, err := s.loadComponents(ctx, clientID)
	if err != nil {
		return nil, err
	}

	for _, tr := range tiers {
		i, ok := index[tr.serviceID]
		if !ok {
			continue
		}
		tier := tr.tier
		tier.Components = components[tr.tierID]
		services[i].Tiers = append(services[i].Tiers, tier)
	}

	return services, nil
}

func (s *Store) loadTiers(ctx context.Context, clientID int64) ([]tierRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.service_id, t.id, t.sqft_min, t.sqft_max, t.service_type,
			t.first_price, t.recurring_price, t.acreage, t.total_first, t.total_recurring
		FROM pricing_tiers t
		JOIN services s ON s.id = t.service_id
		WHERE s.client_id = ?
		ORDER BY s.position, t.position
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query tiers: %w", err)
	}
	defer rows.Close()

	var tiers []tierRow
	for rows.Next() {
		var (
			tr                                                     tierRow
			firstPrice, recurringPrice, totalFirst, totalRecurring string
		)
		if err := rows.Scan(
			&tr.serviceID, &tr.tierID, &tr.tier.SqftMin, &tr.tier.SqftMax, &tr.tier.ServiceType,
			&firstPrice, &recurringPrice, &tr.tier.Acreage, &totalFirst, &totalRecurring,
		); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tr.tier.FirstPrice = pricing.DisplayPrice(firstPrice)
		tr.tier.RecurringPrice = pricing.DisplayPrice(recurringPrice)
		tr.tier.TotalFirst = pricing.DisplayPrice(totalFirst)
		tr.tier.TotalRecurring = pricing.DisplayPrice(totalRecurring)
		tiers = append(tiers, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiers: %w", err)
	}
	return tiers, nil
}

func (s *Store) loadComponents(ctx context.Context, clientID int64) (map[int64][]pricing.Component, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.tier_id, c.name, c.short_code, c.first_price, c.recurring_price
		FROM tier_components c
		JOIN pricing_tiers t ON t.id = c.tier_id
		JOIN services s ON s.id = t.service_id
		WHERE s.client_id = ?
		ORDER BY c.tier_id, c.position
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	components := make(map[int64][]pricing.Component)
	for rows.Next() {
		var (
			tierID                     int64
			comp                       pricing.Component
			firstPrice, recurringPrice string
		)
		if err := rows.Scan(&tierID, &comp.Name, &comp.ShortCode, &firstPrice, &recurringPrice); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		comp.FirstPrice = pricing.DisplayPrice(firstPrice)
		comp.RecurringPrice = pricing.DisplayPrice(recurringPrice)
		components[tierID] = append(components[tierID], comp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}
	return components, nil
}
