package auth

import (
	"context"
	"time"
)

// SocketAuthenticator adapts the auth services to the realtime gateway's
// credential checks. Bearer tokens resolve to the user's ID; API keys are
// service credentials and resolve to a key-scoped subject with no user.
type SocketAuthenticator struct {
	svc  *Service
	keys *KeyService
	now  func() time.Time
}

// NewSocketAuthenticator constructs a SocketAuthenticator. now may be nil,
// in which case time.Now is used.
func NewSocketAuthenticator(svc *Service, keys *KeyService, now func() time.Time) *SocketAuthenticator {
	if now == nil {
		now = time.Now
	}
	return &SocketAuthenticator{svc: svc, keys: keys, now: now}
}

// AuthenticateBearer verifies an access token and returns the user ID.
func (a *SocketAuthenticator) AuthenticateBearer(ctx context.Context, accessToken string) (string, error) {
	view, err := a.svc.Verify(ctx, accessToken, a.now())
	if err != nil {
		return "", err
	}
	return view.ID, nil
}

// AuthenticateAPIKey resolves a raw API key to a key-scoped subject.
func (a *SocketAuthenticator) AuthenticateAPIKey(ctx context.Context, rawKey string) (string, error) {
	view, err := a.keys.Authenticate(ctx, rawKey)
	if err != nil {
		return "", err
	}
	return "key:" + view.ID, nil
}
