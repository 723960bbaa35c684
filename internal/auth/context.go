package auth

import (
	"context"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

type contextKey int

const (
	identityKey contextKey = iota
	tokenKey
)

// WithIdentity stores the verified identity and its raw bearer token on the
// request context. The token is kept so outbound service calls can forward
// the caller's own credential.
func WithIdentity(ctx context.Context, ident domain.Identity, rawToken string) context.Context {
	ctx = context.WithValue(ctx, identityKey, ident)
	return context.WithValue(ctx, tokenKey, rawToken)
}

func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(domain.Identity)
	return ident, ok
}

func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
