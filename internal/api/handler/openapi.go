package handler

import (
	"log/slog"
	"net/http"

	"sigs.k8s.io/yaml"

	"github.com/schoolarchive/archive/internal/api/middleware"
	"github.com/schoolarchive/archive/internal/api/response"
)

// OpenAPIHandler serves the OpenAPI document as JSON.
type OpenAPIHandler struct {
	jsonSpec []byte
	jsonErr  error
}

// NewOpenAPIHandler converts the YAML document to JSON once, up front. A
// conversion error is reported on every request instead of at startup.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	h := &OpenAPIHandler{}
	h.jsonSpec, h.jsonErr = yaml.YAMLToJSON(yamlSpec)
	if h.jsonErr != nil {
		slog.Error("failed to convert OpenAPI spec to JSON", "error", h.jsonErr)
	}
	return h
}

// ServeHTTP writes the converted document.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.jsonErr != nil {
		requestID := middleware.GetRequestID(r.Context())
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert OpenAPI spec", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		slog.Error("failed to write OpenAPI spec response", "error", err)
	}
}
