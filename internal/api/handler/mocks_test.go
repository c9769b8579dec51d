package handler_test

import (
	"context"
	"sync"
	"time"

	"github.com/schoolarchive/archive/internal/accesslog"
	"github.com/schoolarchive/archive/internal/archive"
	"github.com/schoolarchive/archive/internal/auth"
	"github.com/schoolarchive/archive/internal/identity"
	"github.com/schoolarchive/archive/internal/session"
)

// --- Mock Verifier ---

type mockVerifier struct {
	verifyFn func(ctx context.Context, raw string) (*identity.VerifiedIdentity, error)
	calls    int
}

func (m *mockVerifier) Verify(ctx context.Context, raw string) (*identity.VerifiedIdentity, error) {
	m.calls++
	if m.verifyFn != nil {
		return m.verifyFn(ctx, raw)
	}
	return nil, identity.ErrInvalidToken
}

// --- Mock Directory ---

type mockDirectory struct {
	lookupFn func(ctx context.Context, id identity.VerifiedIdentity) (*auth.Authorization, error)
}

func (m *mockDirectory) Lookup(ctx context.Context, id identity.VerifiedIdentity) (*auth.Authorization, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, id)
	}
	return nil, auth.ErrNotAuthorized
}

// --- Mock Issuer ---

type mockIssuer struct {
	issueFn func(s session.Subject) (string, time.Time, error)
	issued  []session.Subject
}

func (m *mockIssuer) Issue(s session.Subject) (string, time.Time, error) {
	m.issued = append(m.issued, s)
	if m.issueFn != nil {
		return m.issueFn(s)
	}
	return "signed-token", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), nil
}

// --- Recording AccessLogger ---

type loggedEvent struct {
	Actor  accesslog.Actor
	Kind   accesslog.EventKind
	Client accesslog.ClientContext
}

type recordingAccessLog struct {
	mu     sync.Mutex
	events []loggedEvent
}

func (l *recordingAccessLog) Log(_ context.Context, actor accesslog.Actor, kind accesslog.EventKind, cc accesslog.ClientContext) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, loggedEvent{Actor: actor, Kind: kind, Client: cc})
}

func (l *recordingAccessLog) kinds() []accesslog.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]accesslog.EventKind, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

// --- Mock DocumentGateway ---

type mockGateway struct {
	listYearsFn   func(ctx context.Context) ([]string, error)
	listAllFn     func(ctx context.Context, req archive.Requester, author string) ([]archive.Document, error)
	uploadFn      func(ctx context.Context, u archive.Upload) (*archive.Document, error)
	downloadFn    func(ctx context.Context, id string) (*archive.Content, error)
	deleteFn      func(ctx context.Context, id string) error
	storageInfoFn func(ctx context.Context) (*archive.StorageInfo, error)
}

func (m *mockGateway) ListYears(ctx context.Context) ([]string, error) {
	if m.listYearsFn != nil {
		return m.listYearsFn(ctx)
	}
	return []string{}, nil
}

func (m *mockGateway) ListAll(ctx context.Context, req archive.Requester, author string) ([]archive.Document, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, req, author)
	}
	return []archive.Document{}, nil
}

func (m *mockGateway) Upload(ctx context.Context, u archive.Upload) (*archive.Document, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, u)
	}
	return &archive.Document{ID: "new-file"}, nil
}

func (m *mockGateway) Download(ctx context.Context, id string) (*archive.Content, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, id)
	}
	return nil, archive.ErrNotFound
}

func (m *mockGateway) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockGateway) StorageInfo(ctx context.Context) (*archive.StorageInfo, error) {
	if m.storageInfoFn != nil {
		return m.storageInfoFn(ctx)
	}
	return &archive.StorageInfo{Unlimited: true, Total: "Unlimited"}, nil
}
