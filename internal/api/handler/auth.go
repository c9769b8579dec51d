package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/schoolarchive/archive/internal/accesslog"
	"github.com/schoolarchive/archive/internal/api/middleware"
	"github.com/schoolarchive/archive/internal/api/response"
	"github.com/schoolarchive/archive/internal/auth"
	"github.com/schoolarchive/archive/internal/identity"
	"github.com/schoolarchive/archive/internal/session"
)

const (
	msgInvalidIDToken = "ID Token not provided or invalid."
	msgAuthFailed     = "Authorization service unavailable. Please try again later."
	msgLogout         = "Logout successful."
	msgLogoutNoEmail  = "Logout successful (user email not provided for log in)."

	// Client-context bodies are tiny; anything larger is ignored.
	maxClientContextBytes = 64 << 10
	unknownActor          = "unknown"
	notAvailable          = "N/A"
)

// TokenIssuer signs session tokens. *session.Issuer satisfies it.
type TokenIssuer interface {
	Issue(s session.Subject) (string, time.Time, error)
}

// AccessLogger records authentication events. *accesslog.Logger satisfies it.
type AccessLogger interface {
	Log(ctx context.Context, actor accesslog.Actor, kind accesslog.EventKind, cc accesslog.ClientContext)
}

type loginResponse struct {
	response.Status
	Name          string    `json:"name"`
	Profile       string    `json:"profile"`
	Email         string    `json:"email"`
	GoogleName    string    `json:"googleName"`
	GooglePicture string    `json:"googlePicture"`
	EmailVerified bool      `json:"emailVerified"`
	Locale        string    `json:"locale"`
	GoogleID      string    `json:"googleId"`
	Permissions   []string  `json:"permissions"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type logoutRequest struct {
	accesslog.ClientContext
	Email   string `json:"email"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

// AuthHandler handles the login and logout endpoints.
type AuthHandler struct {
	verifier  identity.Verifier
	directory auth.Directory
	issuer    TokenIssuer
	access    AccessLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(verifier identity.Verifier, directory auth.Directory, issuer TokenIssuer, access AccessLogger) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		directory: directory,
		issuer:    issuer,
		access:    access,
	}
}

// GoogleLogin handles POST /api/auth/google-login.
//
// Every outcome writes exactly one access-log entry before the response.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// Access rows must survive the client hanging up mid-request.
	logCtx := context.WithoutCancel(ctx)
	requestID := middleware.GetRequestID(ctx)
	cc := decodeOptional[accesslog.ClientContext](w, r)

	rawToken := middleware.BearerToken(r)
	if rawToken == "" {
		slog.Warn("login without identity token", "requestId", requestID)
		h.access.Log(logCtx, accesslog.Actor{Name: notAvailable, Email: unknownActor, Profile: notAvailable}, accesslog.EventInvalidTokenLogin, cc)
		response.Err(w, http.StatusUnauthorized, "INVALID_TOKEN", msgInvalidIDToken, requestID)
		return
	}

	id, err := h.verifier.Verify(ctx, rawToken)
	if err != nil {
		slog.Warn("identity token rejected", "requestId", requestID, "error", err)
		h.access.Log(logCtx, accesslog.Actor{Name: unknownActor, Email: unknownActor, Profile: notAvailable}, accesslog.EventInvalidTokenLogin, cc)
		response.Err(w, http.StatusUnauthorized, "INVALID_TOKEN", msgInvalidIDToken, requestID)
		return
	}

	denied := accesslog.Actor{Name: id.DisplayName, Email: id.Email, Profile: notAvailable}

	grant, err := h.directory.Lookup(ctx, *id)
	if err != nil {
		h.access.Log(logCtx, denied, accesslog.EventDeniedLogin, cc)
		if errors.Is(err, auth.ErrNotAuthorized) {
			slog.Info("login denied", "requestId", requestID, "email", id.Email)
			response.Err(w, http.StatusForbidden, "FORBIDDEN",
				"Access denied. The account "+id.Email+" is not on the authorized users list.", requestID)
			return
		}
		slog.Error("authorization lookup failed", "requestId", requestID, "email", id.Email, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgAuthFailed, requestID)
		return
	}

	token, expiresAt, err := h.issuer.Issue(session.Subject{
		UserID:      grant.UserID,
		Email:       id.Email,
		Name:        grant.Name,
		GoogleName:  grant.GoogleName,
		Profile:     grant.Profile,
		Permissions: grant.Permissions,
	})
	if err != nil {
		slog.Error("failed to issue session token", "requestId", requestID, "email", id.Email, "error", err)
		h.access.Log(logCtx, denied, accesslog.EventDeniedLogin, cc)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgAuthFailed, requestID)
		return
	}

	h.access.Log(logCtx, accesslog.Actor{Name: id.DisplayName, Email: id.Email, Profile: grant.Profile}, accesslog.EventLogin, cc)

	perms := grant.Permissions
	if perms == nil {
		perms = []string{}
	}
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin-allow-popups")
	response.JSON(w, http.StatusOK, loginResponse{
		Status:        response.Status{Success: true},
		Name:          grant.Name,
		Profile:       grant.Profile,
		Email:         id.Email,
		GoogleName:    id.DisplayName,
		GooglePicture: id.PictureURL,
		EmailVerified: id.EmailVerified,
		Locale:        id.Locale,
		GoogleID:      id.SubjectID,
		Permissions:   perms,
		Token:         token,
		ExpiresAt:     expiresAt,
	})
}

// Logout handles POST /api/auth/logout. It always succeeds; the session
// token itself is dropped client-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	req := decodeOptional[logoutRequest](w, r)
	if req.Email == "" {
		slog.Warn("logout without user email", "requestId", middleware.GetRequestID(r.Context()))
		response.Success(w, http.StatusOK, msgLogoutNoEmail)
		return
	}

	actor := accesslog.Actor{Name: req.Name, Email: req.Email, Profile: req.Profile}
	if actor.Name == "" {
		actor.Name = unknownActor
	}
	if actor.Profile == "" {
		actor.Profile = notAvailable
	}
	h.access.Log(context.WithoutCancel(r.Context()), actor, accesslog.EventLogout, req.ClientContext)
	response.Success(w, http.StatusOK, msgLogout)
}

// decodeOptional decodes a JSON body into T. A missing or malformed body
// yields the zero value.
func decodeOptional[T any](w http.ResponseWriter, r *http.Request) T {
	var v T
	if r.Body == nil {
		return v
	}
	body := http.MaxBytesReader(w, r.Body, maxClientContextBytes)
	if err := json.NewDecoder(body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("ignoring unreadable request body", "path", r.URL.Path, "error", err)
		var zero T
		return zero
	}
	return v
}
