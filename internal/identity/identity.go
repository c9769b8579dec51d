// Package identity verifies Google ID tokens presented at login and maps
// their claims onto a VerifiedIdentity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// ErrInvalidToken is returned for any token that fails verification:
// empty, malformed, expired, wrong audience or issuer, bad signature.
var ErrInvalidToken = errors.New("invalid identity token")

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// VerifiedIdentity holds the claims extracted from a verified token.
// It lives for one request and is never persisted.
type VerifiedIdentity struct {
	Email         string
	DisplayName   string
	PictureURL    string
	SubjectID     string
	Locale        string
	EmailVerified bool
}

// Verifier validates an opaque identity token.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*VerifiedIdentity, error)
}

// PayloadValidator is the subset of *idtoken.Validator used by GoogleVerifier.
type PayloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier checks tokens against Google's published keys for a single
// OAuth client id. Each call makes one verification attempt.
type GoogleVerifier struct {
	validator PayloadValidator
	audience  string
}

// NewGoogleVerifier creates a verifier for the given OAuth client id.
func NewGoogleVerifier(ctx context.Context, audience string) (*GoogleVerifier, error) {
	if strings.TrimSpace(audience) == "" {
		return nil, errors.New("identity: audience is required")
	}
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("creating id token validator: %w", err)
	}
	return &GoogleVerifier{validator: v, audience: audience}, nil
}

// NewVerifierWithValidator builds a GoogleVerifier around an existing validator.
func NewVerifierWithValidator(v PayloadValidator, audience string) *GoogleVerifier {
	return &GoogleVerifier{validator: v, audience: audience}
}

// Verify validates rawToken and returns its identity claims.
func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*VerifiedIdentity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	payload, err := g.validator.Validate(ctx, rawToken, g.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if payload == nil || !googleIssuers[payload.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}

	id := &VerifiedIdentity{
		Email:         claimString(payload.Claims, "email"),
		DisplayName:   claimString(payload.Claims, "name"),
		PictureURL:    claimString(payload.Claims, "picture"),
		Locale:        claimString(payload.Claims, "locale"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		SubjectID:     payload.Subject,
	}
	if id.Email == "" || id.SubjectID == "" {
		return nil, fmt.Errorf("%w: email or subject missing", ErrInvalidToken)
	}
	return id, nil
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// email_verified arrives as a JSON bool from Google but some issuers send
// the string "true".
func claimBool(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}
