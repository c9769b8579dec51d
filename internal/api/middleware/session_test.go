package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolarchive/archive/internal/api/middleware"
	"github.com/schoolarchive/archive/internal/session"
)

func newIssuer(t *testing.T, now time.Time) *session.Issuer {
	t.Helper()
	iss, err := session.NewIssuer("test-secret", session.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return iss
}

func TestSession_ValidToken(t *testing.T) {
	// Arrange
	iss := newIssuer(t, time.Now())
	token, _, err := iss.Issue(session.Subject{
		UserID:  "u-1",
		Email:   "mario.rossi@school.example",
		Name:    "Mario Rossi",
		Profile: "Teacher",
	})
	require.NoError(t, err)

	var got *session.Claims
	handler := middleware.Session(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/drive/years", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "mario.rossi@school.example", got.Email)
	assert.Equal(t, "Teacher", got.Profile)
}

func TestSession_Rejects(t *testing.T) {
	now := time.Now()
	iss := newIssuer(t, now)
	expired, _, err := newIssuer(t, now.Add(-2*time.Hour)).Issue(session.Subject{UserID: "u-1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not.a.jwt"},
		{"expired", "Bearer " + expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := middleware.Session(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/drive/years", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Empty(t, middleware.BearerToken(req))

	req.Header.Set("Authorization", "bearer  abc.def ")
	assert.Equal(t, "abc.def", middleware.BearerToken(req))
}
