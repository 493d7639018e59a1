package authapi

import "context"

// Identity is the authenticated principal a request carries after passing
// the gate. API-key principals are anonymous: Subject is set, UserID is not.
type Identity struct {
	// UserID is the authenticated user, or empty for API-key auth.
	UserID string

	// Subject labels the principal for logs: a user ID or "key:<id>".
	Subject string
}

type identityKey struct{}

// WithIdentity attaches an identity to the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the identity set by the gate, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
