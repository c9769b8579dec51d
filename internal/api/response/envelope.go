package response

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// Status is embedded at the top level of every JSON body the API returns.
// Handlers embed it in their payload structs so fields stay flat:
// {"success": true, "name": "..."}.
type Status struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Message is a body that carries only a Status.
type Message struct {
	Status
}

// OK returns a successful Status.
func OK(message string) Status {
	return Status{Success: true, Message: message}
}

// JSON writes body as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes {"success": true, "message": message}.
func Success(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Message{Status: OK(message)})
}

// Err writes {"success": false, "code": code, "message": message}.
func Err(w http.ResponseWriter, status int, code string, message string, requestID string) {
	JSON(w, status, Message{Status: Status{
		Success:   false,
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}})
}

// ErrWithDetails writes an error body with additional details.
func ErrWithDetails(w http.ResponseWriter, status int, code string, message string, details any, requestID string) {
	JSON(w, status, Message{Status: Status{
		Success:   false,
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}})
}
