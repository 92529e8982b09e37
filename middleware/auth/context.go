package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

// AuthContext is the request-scoped identity attached after a successful
// token verification. It lives only for the duration of one request.
type AuthContext struct {
	UserID    string
	Email     string
	SessionID string
}

type contextKey struct{}

// WithAuthContext returns a child context carrying the authenticated
// identity. Identity travels as an explicit context value through the
// request call chain, never as ambient state.
func WithAuthContext(ctx context.Context, authCtx AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, authCtx)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	authCtx, ok := ctx.Value(contextKey{}).(AuthContext)
	return authCtx, ok
}

// GetAuthContext reads the identity from an echo request, if one was
// attached by RequireAuth or OptionalAuth.
func GetAuthContext(c echo.Context) (AuthContext, bool) {
	return FromContext(c.Request().Context())
}
