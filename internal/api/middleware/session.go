package middleware

import (
	"net/http"
	"strings"

	"github.com/schoolarchive/archive/internal/api/response"
	"github.com/schoolarchive/archive/internal/session"
)

// ClaimsParser validates a session token. *session.Issuer satisfies it.
type ClaimsParser interface {
	Parse(raw string) (*session.Claims, error)
}

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Session rejects requests without a valid session token with 401 and
// stores the parsed claims in the request context otherwise.
func Session(parser ClaimsParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			raw := BearerToken(r)
			if raw == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session token is required", requestID)
				return
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session token is invalid or expired", requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithClaims(r.Context(), claims)))
		})
	}
}
