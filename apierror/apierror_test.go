package apierror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) Body {
	t.Helper()
	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespond(t *testing.T) {
	c, rec := newContext(t)

	require.NoError(t, Unauthorized(c, CodeInvalidToken, "Invalid or expired token"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, CodeInvalidToken, body.Error.Code)
	assert.Equal(t, "Invalid or expired token", body.Error.Message)
	assert.Zero(t, body.Error.RetryAfter)

	_, err := time.Parse(time.RFC3339, body.Error.Timestamp)
	assert.NoError(t, err)
}

func TestRespondRetryAfter(t *testing.T) {
	c, rec := newContext(t)

	require.NoError(t, RespondRetryAfter(c, http.StatusTooManyRequests,
		CodeRateLimitExceeded, "Too many requests. Please try again later.", 42))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, CodeRateLimitExceeded, body.Error.Code)
	assert.Equal(t, 42, body.Error.RetryAfter)
}

func TestRequestIDPropagation(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Forbidden(c, CodeEmailNotVerified, "Email verification required"))

	body := decodeBody(t, rec)
	assert.Equal(t, "req-123", body.Error.RequestID)
}
