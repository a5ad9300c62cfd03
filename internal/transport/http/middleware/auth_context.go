package middleware

import "context"

type ctxKey string

const ctxIdentity ctxKey = "identity"

// Identity is what Auth learned from a verified token.
type Identity struct {
	AccountID string
	Email     string
	Role      string
	Token     string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxIdentity).(Identity)
	return v, ok && v.AccountID != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.AccountID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.Role, ok && id.Role != ""
}
