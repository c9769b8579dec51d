package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/schoolarchive/archive/internal/api/response"
)

const pingTimeout = 2 * time.Second

// DBPinger checks database connectivity. *database.DB satisfies it.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// authorization directory is not relational.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthResponse struct {
	response.Status
	State    string          `json:"status"`
	Version  string          `json:"version"`
	Database *databaseStatus `json:"database,omitempty"`
}

// ServeHTTP handles the health check request. A failed database ping
// degrades the status but still answers 200.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := healthResponse{
		Status:  response.OK(""),
		State:   "healthy",
		Version: h.version,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		connected := h.db.Ping(ctx) == nil
		body.Database = &databaseStatus{Connected: connected}
		if !connected {
			body.State = "degraded"
		}
	}

	response.JSON(w, http.StatusOK, body)
}
