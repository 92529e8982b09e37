// Package apierror renders the JSON error envelope shared by the auth and
// rate limit boundaries. Client-facing messages stay generic; internal
// detail belongs in logs, not responses.
package apierror

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeEmailNotVerified  = "EMAIL_NOT_VERIFIED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
)

type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	RequestID  string `json:"requestId,omitempty"`
	Timestamp  string `json:"timestamp"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func Respond(c echo.Context, status int, code string, message string) error {
	return respond(c, status, code, message, 0)
}

// RespondRetryAfter is the 429 variant; retryAfter is whole seconds until
// the current window ends.
func RespondRetryAfter(c echo.Context, status int, code string, message string, retryAfter int) error {
	return respond(c, status, code, message, retryAfter)
}

func respond(c echo.Context, status int, code string, message string, retryAfter int) error {
	return c.JSON(status, Body{
		Error: Detail{
			Message:    message,
			Code:       code,
			RequestID:  requestID(c),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			RetryAfter: retryAfter,
		},
	})
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

func Unauthorized(c echo.Context, code string, message string) error {
	return Respond(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c echo.Context, code string, message string) error {
	return Respond(c, http.StatusForbidden, code, message)
}
