package google

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type SheetsClient struct {
	svc *sheets.Service
}

// NewSheetsClient returns a Sheets client over httpClient. A nil httpClient
// yields a client whose calls fail with a missing credentials error.
func NewSheetsClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*SheetsClient, error) {
	if httpClient == nil {
		return &SheetsClient{}, nil
	}
	svc, err := sheets.NewService(ctx, serviceOptions(httpClient, opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{svc: svc}, nil
}

// AppendRow adds values as a new row after the last row of tab.
func (s *SheetsClient) AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) error {
	if s.svc == nil {
		return errNoCredentials()
	}
	_, err := s.svc.Spreadsheets.Values.
		Append(spreadsheetID, tab, &sheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
