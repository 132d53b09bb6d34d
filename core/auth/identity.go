package auth

import "context"

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
