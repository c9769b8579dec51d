// Package session issues and validates the signed bearer tokens handed out
// after a successful login.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TTL is the fixed lifetime of every issued token.
	TTL    = time.Hour
	issuer = "school-archive"
)

var (
	// ErrInvalidToken indicates the token failed signature or claim validation.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrMissingSecret is returned when the issuer is built without a key.
	ErrMissingSecret = errors.New("session signing secret is not configured")
)

// Claims is the payload carried by a session token.
type Claims struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	GoogleName  string   `json:"googleName,omitempty"`
	Profile     string   `json:"profile"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Subject describes the user a token is issued for.
type Subject struct {
	UserID      string
	Email       string
	Name        string
	GoogleName  string
	Profile     string
	Permissions []string
}

// Issuer signs and parses HS256 session tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer. An empty secret is rejected.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	i := &Issuer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for s that expires TTL from now.
func (i *Issuer) Issue(s Subject) (string, time.Time, error) {
	if strings.TrimSpace(s.UserID) == "" {
		return "", time.Time{}, errors.New("userID is required")
	}

	now := i.now().UTC()
	expiresAt := now.Add(TTL)
	perms := s.Permissions
	if perms == nil {
		perms = []string{}
	}
	claims := Claims{
		UserID:      s.UserID,
		Email:       s.Email,
		Name:        s.Name,
		GoogleName:  s.GoogleName,
		Profile:     s.Profile,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, algorithm, issuer and expiry.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type ctxKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// FromContext extracts the session claims placed by the auth middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}
