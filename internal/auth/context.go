package auth

import (
	"context"
	"strings"
)

// AuthContext is the immutable identity binding produced once by the
// authentication gate and threaded explicitly through a request. Downstream
// code never re-derives or mutates it; the tenant id in particular is only
// ever taken from here.
type AuthContext struct {
	IdentityID string
	TenantID   string
	Role       Role
}

type authContextKey struct{}
type tokenContextKey struct{}

// ContextWithAuth attaches the authenticated caller to the context.
func ContextWithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// FromContext extracts the authenticated caller from the context.
func FromContext(ctx context.Context) (AuthContext, bool) {
	if ctx == nil {
		return AuthContext{}, false
	}
	ac, ok := ctx.Value(authContextKey{}).(AuthContext)
	if !ok || ac.IdentityID == "" || ac.TenantID == "" {
		return AuthContext{}, false
	}
	return ac, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if strings.TrimSpace(token) == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
