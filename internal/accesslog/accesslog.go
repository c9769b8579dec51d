// Package accesslog appends one row per authentication event to the
// Access_Logs sheet. Writes are best-effort: the caller never sees an error.
package accesslog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schoolarchive/archive/internal/metrics"
)

// Range is the target of every appended row.
const Range = "Access_Logs!A:N"

const (
	notAvailable = "N/A"
	dateLayout   = "Mon, 2 Jan 2006"
	timeLayout   = "15:04:05"
)

// EventKind classifies an access-log entry.
type EventKind string

const (
	EventLogin             EventKind = "login"
	EventLogout            EventKind = "logout"
	EventDeniedLogin       EventKind = "denied_login"
	EventInvalidTokenLogin EventKind = "invalid_token_login"
)

// Actor is the user an event is attributed to. Any field may be empty.
type Actor struct {
	Name    string
	Email   string
	Profile string
}

// DeviceInfo is the device description the frontend sends along.
type DeviceInfo struct {
	DeviceType     string `json:"deviceType"`
	OS             string `json:"os"`
	OSVersion      string `json:"osVersion"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion"`
}

// ClientContext is the optional client-side clock and device data. Missing
// fields are written as "N/A".
type ClientContext struct {
	TimeZone   string      `json:"timeZone"`
	DateLocal  string      `json:"dateLocal"`
	TimeLocal  string      `json:"timeLocal"`
	DeviceInfo *DeviceInfo `json:"deviceInfo"`
}

// RowAppender appends a row to a sheet range. *spreadsheet.Client satisfies it.
type RowAppender interface {
	AppendRow(ctx context.Context, rng string, row []any) error
}

// Logger writes access-log rows.
type Logger struct {
	sink RowAppender
	now  func() time.Time
}

// New creates a Logger writing to sink.
func New(sink RowAppender) *Logger {
	return &Logger{sink: sink, now: time.Now}
}

// NewWithClock creates a Logger with a fixed time source.
func NewWithClock(sink RowAppender, now func() time.Time) *Logger {
	return &Logger{sink: sink, now: now}
}

// Log appends one entry and returns once the write has completed or failed.
// Failures, including panics in the sink, are logged and counted only.
func (l *Logger) Log(ctx context.Context, actor Actor, kind EventKind, cc ClientContext) {
	metrics.AuthEvents.WithLabelValues(string(kind)).Inc()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.SinkFailures.WithLabelValues("access_log").Inc()
			slog.Error("access log write panicked", "event", string(kind), "email", actor.Email, "panic", fmt.Sprint(rec))
		}
	}()

	row := l.row(actor, kind, cc)
	if err := l.sink.AppendRow(ctx, Range, row); err != nil {
		metrics.SinkFailures.WithLabelValues("access_log").Inc()
		slog.Error("failed to write access log", "event", string(kind), "email", actor.Email, "error", err)
		return
	}
	slog.Info("access event logged", "event", string(kind), "email", actor.Email, "profile", orNA(actor.Profile))
}

// row renders the entry in sheet column order A through N.
func (l *Logger) row(actor Actor, kind EventKind, cc ClientContext) []any {
	now := l.now().UTC()
	d := cc.Device()
	return []any{
		actor.Name,
		actor.Email,
		actor.Profile,
		now.Format(dateLayout),
		now.Format(timeLayout),
		string(kind),
		orNA(cc.TimeZone),
		orNA(cc.DateLocal),
		orNA(cc.TimeLocal),
		d.DeviceType,
		d.OS,
		d.OSVersion,
		d.Browser,
		d.BrowserVersion,
	}
}

// Device returns the device info with every missing field set to "N/A".
func (cc ClientContext) Device() DeviceInfo {
	var d DeviceInfo
	if cc.DeviceInfo != nil {
		d = *cc.DeviceInfo
	}
	return DeviceInfo{
		DeviceType:     orNA(d.DeviceType),
		OS:             orNA(d.OS),
		OSVersion:      orNA(d.OSVersion),
		Browser:        orNA(d.Browser),
		BrowserVersion: orNA(d.BrowserVersion),
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
