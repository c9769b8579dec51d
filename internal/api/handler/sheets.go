package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolarchive/archive/internal/api/middleware"
	"github.com/schoolarchive/archive/internal/api/response"
	"github.com/schoolarchive/archive/internal/refdata"
)

// ReferenceLister lists reference values. *refdata.Gateway satisfies it.
type ReferenceLister interface {
	List(ctx context.Context, category string) ([]string, error)
}

// SheetsHandler serves the reference lists used by the upload form.
type SheetsHandler struct {
	lister ReferenceLister
}

// NewSheetsHandler creates a new SheetsHandler.
func NewSheetsHandler(lister ReferenceLister) *SheetsHandler {
	return &SheetsHandler{lister: lister}
}

// List handles GET /api/sheets/{category} and responds with a bare JSON
// array of values.
func (h *SheetsHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	category := chi.URLParam(r, "category")

	values, err := h.lister.List(r.Context(), category)
	if err != nil {
		if errors.Is(err, refdata.ErrUnknownCategory) {
			response.ErrWithDetails(w, http.StatusNotFound, "NOT_FOUND", "Unknown reference list: "+category,
				map[string][]string{"categories": refdata.Categories()}, requestID)
			return
		}
		slog.Error("failed to read reference list", "category", category, "requestId", requestID, "error", err)
		response.Err(w, http.StatusInternalServerError, "REMOTE_ERROR", "Failed to read "+category, requestID)
		return
	}
	response.JSON(w, http.StatusOK, values)
}
