package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSource reads sheets from a Google spreadsheet through the Sheets API.
type GoogleSource struct {
	spreadsheetID string
	service       *sheets.Service
}

// NewGoogleSource creates a read-only Sheets client for spreadsheetID.
func NewGoogleSource(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*GoogleSource, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("google spreadsheet id is required")
	}

	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}, opts...)
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &GoogleSource{spreadsheetID: spreadsheetID, service: service}, nil
}

// CredentialOptions picks the service account credentials: inline JSON wins
// over a file path. Both empty falls back to application default credentials.
func CredentialOptions(credentialsFile, credentialsJSON string) []option.ClientOption {
	switch {
	case credentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentialsJSON))}
	case credentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
	default:
		return nil
	}
}

func (s *GoogleSource) Rows(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheet).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *GoogleSource) String() string {
	return "google:" + s.spreadsheetID
}
