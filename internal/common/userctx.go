package common

import (
	"context"
)

// UserContext holds the authenticated identity for a request, populated by
// the bearer-token middleware from verified token claims (or the dev-mode
// identity when token verification is bypassed).
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or "default" when no user
// context is present. Used by services and storage operations that need a
// user scope.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil && uc.UserID != "" {
		return uc.UserID
	}
	return "default"
}

// ResolveEmail returns the authenticated email from context, or empty string.
func ResolveEmail(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.Email
	}
	return ""
}
