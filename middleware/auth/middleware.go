package auth

import (
	"errors"
	"strings"

	"github.com/cgchat/authkit/apierror"
	"github.com/cgchat/authkit/services/auth"
	"github.com/cgchat/authkit/services/user"
	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// RequireAuth rejects any request without a valid access token belonging to
// a live, verified user. Store failures during the user lookup propagate as
// errors: an unreachable store must never authenticate anyone.
func RequireAuth(issuer *auth.Service, users user.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return apierror.Unauthorized(c, apierror.CodeUnauthorized, "Missing or invalid authorization header")
			}

			claims, err := issuer.VerifyAccessToken(token)
			if err != nil {
				return apierror.Unauthorized(c, apierror.CodeInvalidToken, "Invalid or expired token")
			}

			u, err := users.GetUser(claims.Subject)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					return apierror.Unauthorized(c, apierror.CodeUserNotFound, "User not found")
				}
				return err
			}

			if !u.Verified {
				return apierror.Forbidden(c, apierror.CodeEmailNotVerified, "Email verification required")
			}

			ctx := WithAuthContext(c.Request().Context(), AuthContext{
				UserID:    u.ID,
				Email:     u.Email,
				SessionID: claims.SessionID,
			})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// OptionalAuth runs the same checks as RequireAuth but swallows every
// failure: the request continues anonymously with no identity attached.
// Used for endpoints with mixed anonymous/authenticated behaviour.
func OptionalAuth(issuer *auth.Service, users user.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return next(c)
			}

			claims, err := issuer.VerifyAccessToken(token)
			if err != nil {
				return next(c)
			}

			u, err := users.GetUser(claims.Subject)
			if err != nil || !u.Verified {
				return next(c)
			}

			ctx := WithAuthContext(c.Request().Context(), AuthContext{
				UserID:    u.ID,
				Email:     u.Email,
				SessionID: claims.SessionID,
			})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", false
	}

	return token, true
}
