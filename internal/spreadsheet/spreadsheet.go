// Package spreadsheet is a thin client over one Google Sheets document. The
// whitelist directory, the access logger and the reference data gateway all
// share a single Client.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const userEntered = "USER_ENTERED"

// Client reads and appends cell values on a fixed spreadsheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New creates a Client for spreadsheetID. Credentials and endpoint come from
// opts, typically option.WithCredentialsJSON with the service account key.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet: id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Values returns the cells of rng, row by row. An empty range yields an
// empty slice.
func (c *Client) Values(ctx context.Context, rng string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading range %s: %w", rng, err)
	}
	if resp.Values == nil {
		return [][]any{}, nil
	}
	return resp.Values, nil
}

// AppendRow appends one row after the last non-empty row of rng. Values are
// parsed as if typed by a user.
func (c *Client) AppendRow(ctx context.Context, rng string, row []any) error {
	body := &sheets.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, body).
		ValueInputOption(userEntered).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", rng, err)
	}
	return nil
}
