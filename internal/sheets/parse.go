package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/pricing"
)

const (
	ClientsSheet = "clients"
	PricingSheet = "pricing"
)

var (
	ErrEmptySheet    = errors.New("sheet has no header row")
	ErrMissingColumn = errors.New("required column missing")
	ErrUnknownClient = errors.New("pricing row references an unknown client")
	ErrDuplicateSlug = errors.New("duplicate client slug")
	ErrInvalidSqft   = errors.New("invalid square footage cell")
)

// RowError reports a row that was skipped.
type RowError struct {
	Sheet string
	Row   int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// ParseResult is the outcome of parsing both sheets. Clients keep sheet order,
// services keep first-appearance order and tiers keep row order.
type ParseResult struct {
	Clients  []directory.Client
	Errors   []RowError
	Warnings []string
}

// Skipped is the number of rows that did not make it into Clients.
func (r ParseResult) Skipped() int {
	return len(r.Errors)
}

// Parse builds clients from the clients sheet and attaches services and
// tiers from the pricing sheet. Only a missing header or required column is
// fatal; bad rows are collected in Errors.
func Parse(clientsRows, pricingRows [][]string) (ParseResult, error) {
	var result ParseResult

	clientCols, err := newHeader(ClientsSheet, clientsRows, "name")
	if err != nil {
		return result, err
	}
	pricingCols, err := newHeader(PricingSheet, pricingRows, "client", "service", "sqft_min", "sqft_max")
	if err != nil {
		return result, err
	}

	index := make(map[string]int)
	for i, row := range clientsRows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		c := directory.Client{
			Slug:        strings.ToLower(clientCols.get(row, "slug")),
			Name:        clientCols.get(row, "name"),
			Phone:       clientCols.get(row, "phone"),
			Email:       clientCols.get(row, "email"),
			Website:     clientCols.get(row, "website"),
			Address:     clientCols.get(row, "address"),
			City:        clientCols.get(row, "city"),
			State:       clientCols.get(row, "state"),
			Zip:         clientCols.get(row, "zip"),
			Description: clientCols.get(row, "description"),
			LogoURL:     clientCols.get(row, "logo_url"),
			Services:    []directory.Service{},
		}
		if c.Slug == "" {
			c.Slug = directory.Slugify(c.Name)
		}

		if err := c.Validate(); err != nil {
			result.Errors = append(result.Errors, RowError{Sheet: ClientsSheet, Row: rowNum, Err: err})
			continue
		}
		if _, dup := index[c.Slug]; dup {
			result.Errors = append(result.Errors, RowError{Sheet: ClientsSheet, Row: rowNum, Err: fmt.Errorf("%w: %s", ErrDuplicateSlug, c.Slug)})
			continue
		}

		index[c.Slug] = len(result.Clients)
		result.Clients = append(result.Clients, c)
	}

	for i, row := range pricingRows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		ref := pricingCols.get(row, "client")
		ci, ok := index[strings.ToLower(ref)]
		if !ok {
			ci, ok = index[directory.Slugify(ref)]
		}
		if !ok {
			result.Errors = append(result.Errors, RowError{Sheet: PricingSheet, Row: rowNum, Err: fmt.Errorf("%w: %q", ErrUnknownClient, ref)})
			continue
		}

		serviceName := pricingCols.get(row, "service")
		if serviceName == "" {
			result.Errors = append(result.Errors, RowError{Sheet: PricingSheet, Row: rowNum, Err: errors.New("service name is empty")})
			continue
		}

		tier, warnings, err := parseTier(pricingCols, row)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Sheet: PricingSheet, Row: rowNum, Err: err})
			continue
		}
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s row %d: %s", PricingSheet, rowNum, w))
		}

		client := &result.Clients[ci]
		svc := findService(client, serviceName)
		if svc.Description == "" {
			svc.Description = pricingCols.get(row, "service_description")
		}
		svc.Tiers = append(svc.Tiers, tier)
	}

	return result, nil
}

func findService(c *directory.Client, name string) *directory.Service {
	for i := range c.Services {
		if strings.EqualFold(c.Services[i].Name, name) {
			return &c.Services[i]
		}
	}
	c.Services = append(c.Services, directory.Service{Name: name})
	return &c.Services[len(c.Services)-1]
}

func parseTier(cols header, row []string) (pricing.PricingTier, []string, error) {
	var warnings []string

	sqftMin, err := parseSqftCell(cols.get(row, "sqft_min"))
	if err != nil {
		return pricing.PricingTier{}, nil, fmt.Errorf("sqft_min: %w", err)
	}
	sqftMax, err := parseSqftCell(cols.get(row, "sqft_max"))
	if err != nil {
		return pricing.PricingTier{}, nil, fmt.Errorf("sqft_max: %w", err)
	}

	tier := pricing.PricingTier{
		SqftMin:        sqftMin,
		SqftMax:        sqftMax,
		ServiceType:    cols.get(row, "service_type"),
		FirstPrice:     pricing.DisplayPrice(cols.get(row, "first_price")),
		RecurringPrice: pricing.DisplayPrice(cols.get(row, "recurring_price")),
		Acreage:        cols.get(row, "acreage"),
		TotalFirst:     pricing.DisplayPrice(cols.get(row, "total_first")),
		TotalRecurring: pricing.DisplayPrice(cols.get(row, "total_recurring")),
	}
	if err := directory.ValidateTier(tier); err != nil {
		return pricing.PricingTier{}, nil, err
	}

	if raw := cols.get(row, "components"); raw != "" {
		var components []pricing.Component
		if err := json.Unmarshal([]byte(raw), &components); err != nil {
			warnings = append(warnings, fmt.Sprintf("components ignored: %v", err))
		} else if len(components) > 0 {
			tier.Components = components
		}
	}

	return tier, warnings, nil
}

// parseSqftCell accepts whole numbers with optional thousands separators.
// Spreadsheet exports sometimes render integers as "2500.0".
func parseSqftCell(raw string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSqft)
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSqft, raw)
	}
	return int(f), nil
}

type header struct {
	sheet   string
	columns map[string]int
}

func newHeader(sheet string, rows [][]string, required ...string) (header, error) {
	if len(rows) == 0 || blank(rows[0]) {
		return header{}, fmt.Errorf("%s: %w", sheet, ErrEmptySheet)
	}

	h := header{sheet: sheet, columns: make(map[string]int, len(rows[0]))}
	for i, name := range rows[0] {
		key := normalizeColumn(name)
		if key == "" {
			continue
		}
		if _, seen := h.columns[key]; !seen {
			h.columns[key] = i
		}
	}

	for _, col := range required {
		if _, ok := h.columns[col]; !ok {
			return header{}, fmt.Errorf("%s: %w: %s", sheet, ErrMissingColumn, col)
		}
	}
	return h, nil
}

func (h header) get(row []string, column string) string {
	i, ok := h.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// normalizeColumn maps "Sqft Min" and "sqft-min" to "sqft_min".
func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
