package authapi

import (
	"context"
	"time"

	"hub/cmd/internal/auth"
)

// Verifier resolves request credentials to an Identity for the gate.
type Verifier struct {
	auth *auth.Service
	keys *auth.KeyService
}

// NewVerifier constructs a Verifier.
func NewVerifier(authSvc *auth.Service, keys *auth.KeyService) *Verifier {
	return &Verifier{auth: authSvc, keys: keys}
}

// VerifyBearer checks an access token and returns the user identity.
func (v *Verifier) VerifyBearer(ctx context.Context, accessToken string, now time.Time) (Identity, error) {
	view, err := v.auth.Verify(ctx, accessToken, now)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: view.ID, Subject: view.ID}, nil
}

// VerifyAPIKey checks a raw API key. The returned identity is anonymous:
// key auth is device-level, not user-level.
func (v *Verifier) VerifyAPIKey(ctx context.Context, rawKey string) (Identity, error) {
	view, err := v.keys.Authenticate(ctx, rawKey)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Subject: "key:" + view.ID}, nil
}
