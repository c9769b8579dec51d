// Package changelog appends audit entries to the JSONB changelog column that
// tracked tables carry alongside their data.
package changelog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRecordNotFound is returned when the target row does not exist.
var ErrRecordNotFound = errors.New("changelog target record not found")

// Entry is one element of a changelog array. The JSON keys match the
// column contents already stored in production rows.
type Entry struct {
	Date          time.Time `json:"date"`
	EditorEmail   string    `json:"user_who_made_change"`
	EditorUserID  string    `json:"id_user_who_made_change"`
	FieldModified string    `json:"field_modified"`
	PreviousValue any       `json:"previous_value"`
	CurrentValue  any       `json:"current_value"`
}

// Querier is the subset of a pgx connection the recorder needs. It is
// satisfied by *pgxpool.Conn, *pgxpool.Pool, pgx.Tx and *pgx.Conn.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Change describes one modified field.
type Change struct {
	Field    string
	Previous any
	Current  any
}

// Editor identifies who made a change.
type Editor struct {
	Email  string
	UserID string
}

// Recorder reads, extends and writes back changelog arrays. It runs on the
// caller's connection and opens no transaction of its own.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a Recorder using the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// NewRecorderWithClock creates a Recorder with a fixed time source.
func NewRecorderWithClock(now func() time.Time) *Recorder {
	return &Recorder{now: now}
}

// Record appends one entry for change to the changelog of table.recordID.
// A NULL changelog starts a new array; a malformed or non-array value is
// replaced by a new array and a warning is logged.
func (r *Recorder) Record(ctx context.Context, q Querier, table string, recordID any, change Change, editor Editor) error {
	ident := pgx.Identifier{table}.Sanitize()

	var raw []byte
	err := q.QueryRow(ctx, "SELECT changelog FROM "+ident+" WHERE id = $1", recordID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("reading changelog of %s: %w", table, err)
	}

	entry := Entry{
		Date:          r.now().UTC(),
		EditorEmail:   editor.Email,
		EditorUserID:  editor.UserID,
		FieldModified: change.Field,
		PreviousValue: change.Previous,
		CurrentValue:  change.Current,
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding changelog entry: %w", err)
	}
	entries := append(decode(raw, table, recordID), encoded)

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding changelog: %w", err)
	}

	if _, err := q.Exec(ctx, "UPDATE "+ident+" SET changelog = $2::jsonb WHERE id = $1", recordID, string(data)); err != nil {
		return fmt.Errorf("writing changelog of %s: %w", table, err)
	}

	slog.Debug("changelog entry recorded", "table", table, "recordId", fmt.Sprint(recordID), "field", change.Field)
	return nil
}

// decode keeps existing entries as raw JSON so that fields written by other
// tools survive the round trip untouched.
func decode(raw []byte, table string, recordID any) []json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return []json.RawMessage{}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		slog.Warn("changelog is not a JSON array, starting a new one",
			"table", table, "recordId", fmt.Sprint(recordID), "error", err)
		return []json.RawMessage{}
	}
	return entries
}
