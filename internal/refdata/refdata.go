// Package refdata serves the lookup lists (subjects, forms, rooms, document
// types) the upload form offers. Each list is column A of its own sheet,
// below a one-row header, read fresh on every call.
package refdata

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned for a category outside the fixed set.
var ErrUnknownCategory = errors.New("unknown reference category")

var sheetByCategory = map[string]string{
	"subjects": "Subjects",
	"forms":    "Forms",
	"rooms":    "Rooms",
	"types":    "Types",
}

// ValueReader reads a block of cells. *spreadsheet.Client satisfies it.
type ValueReader interface {
	Values(ctx context.Context, rng string) ([][]any, error)
}

// Gateway reads reference lists from the spreadsheet.
type Gateway struct {
	reader ValueReader
}

// New creates a Gateway.
func New(reader ValueReader) *Gateway {
	return &Gateway{reader: reader}
}

// Categories returns the supported category names.
func Categories() []string {
	return []string{"subjects", "forms", "rooms", "types"}
}

// List returns the values of category in sheet order, flattened into one
// slice. Blank cells are skipped.
func (g *Gateway) List(ctx context.Context, category string) ([]string, error) {
	sheet, ok := sheetByCategory[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	rows, err := g.reader.Values(ctx, sheet+"!A2:A")
	if err != nil {
		return nil, fmt.Errorf("fetching data from sheet %s: %w", sheet, err)
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, c := range row {
			s, ok := c.(string)
			if !ok {
				s = fmt.Sprint(c)
			}
			if s != "" {
				values = append(values, s)
			}
		}
	}
	return values, nil
}
