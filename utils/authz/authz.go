// Package authz holds the request identity and the ownership policy
// applied to every mutation endpoint.
package authz

import "context"

type contextKey string

const identityKey contextKey = "identity"

// Identity is the decoded token payload attached to authenticated requests.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// CanMutate reports whether actor may mutate a resource owned by ownerID.
// Callers must resolve the resource first; ownership of an absent resource
// is never evaluated.
func CanMutate(actor Identity, ownerID string) bool {
	return actor.IsAdmin || actor.UserID == ownerID
}

// WithIdentity attaches the identity to the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity set by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
