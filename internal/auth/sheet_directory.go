package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/schoolarchive/archive/internal/identity"
)

// UsersRange holds email, profile, display name and optional comma
// separated permission codes, one user per row.
const UsersRange = "Users!A2:D"

// ValueReader reads a block of cells. *spreadsheet.Client satisfies it.
type ValueReader interface {
	Values(ctx context.Context, rng string) ([][]any, error)
}

// SheetDirectory resolves users against the flat whitelist sheet. The sheet
// has no activity flag, so presence alone authorizes.
type SheetDirectory struct {
	reader ValueReader
}

// NewSheetDirectory creates a Directory backed by the Users sheet.
func NewSheetDirectory(reader ValueReader) *SheetDirectory {
	return &SheetDirectory{reader: reader}
}

// Lookup scans the sheet top to bottom; the first row whose email equals
// the identity email exactly wins.
func (d *SheetDirectory) Lookup(ctx context.Context, id identity.VerifiedIdentity) (*Authorization, error) {
	rows, err := d.reader.Values(ctx, UsersRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, row := range rows {
		if cell(row, 0) != id.Email {
			continue
		}
		return &Authorization{
			UserID:      id.SubjectID,
			Profile:     cell(row, 1),
			Name:        cell(row, 2),
			GoogleID:    id.SubjectID,
			GoogleName:  id.DisplayName,
			Permissions: splitCodes(cell(row, 3)),
		}, nil
	}

	return nil, ErrNotAuthorized
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprint(row[i])
}

func splitCodes(s string) []string {
	codes := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}
