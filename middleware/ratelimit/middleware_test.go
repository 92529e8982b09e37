package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cgchat/authkit/apierror"
	"github.com/cgchat/authkit/middleware/auth"
	"github.com/cgchat/authkit/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoke(t *testing.T, mw echo.MiddlewareFunc, path, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if forwardedFor != "" {
		req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, mw(handler)(c))
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) apierror.Detail {
	t.Helper()
	var body apierror.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestMiddleware_ThresholdAndBlock(t *testing.T) {
	db := testutils.SetupTestDB(t, &RateLimitRecord{})
	store := NewDatabaseStore(db, nil)

	mw := Middleware(&Config{
		Store:       store,
		Window:      time.Minute,
		MaxRequests: 3,
	})

	for i := 0; i < 3; i++ {
		rec := invoke(t, mw, "/api/chat", "203.0.113.9")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := invoke(t, mw, "/api/chat", "203.0.113.9")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	detail := decodeDetail(t, rec)
	assert.Equal(t, apierror.CodeRateLimitExceeded, detail.Code)
	assert.Greater(t, detail.RetryAfter, 0)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	t.Run("record is blocked with timestamps", func(t *testing.T) {
		var record RateLimitRecord
		require.NoError(t, db.Where("identity = ?", "203.0.113.9").First(&record).Error)
		assert.True(t, record.Blocked)
		assert.NotNil(t, record.BlockedAt)
		assert.GreaterOrEqual(t, record.Attempts, 3)
	})

	t.Run("blocked record is not mutated further", func(t *testing.T) {
		var before RateLimitRecord
		require.NoError(t, db.Where("identity = ?", "203.0.113.9").First(&before).Error)

		invoke(t, mw, "/api/chat", "203.0.113.9")

		var after RateLimitRecord
		require.NoError(t, db.Where("identity = ?", "203.0.113.9").First(&after).Error)
		assert.Equal(t, before.Attempts, after.Attempts)
	})
}

func TestMiddleware_ScopesAreIndependent(t *testing.T) {
	db := testutils.SetupTestDB(t, &RateLimitRecord{})
	mw := Middleware(&Config{
		Store:       NewDatabaseStore(db, nil),
		Window:      time.Minute,
		MaxRequests: 1,
	})

	assert.Equal(t, http.StatusOK, invoke(t, mw, "/api/chat", "203.0.113.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, invoke(t, mw, "/api/chat", "203.0.113.9").Code)

	t.Run("different endpoint, same identity", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, invoke(t, mw, "/api/login", "203.0.113.9").Code)
	})

	t.Run("different identity, same endpoint", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, invoke(t, mw, "/api/chat", "198.51.100.1").Code)
	})
}

func TestMiddleware_NewWindowAfterExpiry(t *testing.T) {
	db := testutils.SetupTestDB(t, &RateLimitRecord{})
	mw := Middleware(&Config{
		Store:       NewDatabaseStore(db, nil),
		Window:      time.Minute,
		MaxRequests: 2,
	})

	assert.Equal(t, http.StatusOK, invoke(t, mw, "/api/chat", "203.0.113.9").Code)
	assert.Equal(t, http.StatusOK, invoke(t, mw, "/api/chat", "203.0.113.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, invoke(t, mw, "/api/chat", "203.0.113.9").Code)

	// Force the window into the past; the blocked record stays terminal but
	// no longer covers the current instant.
	require.NoError(t, db.Model(&RateLimitRecord{}).
		Where("identity = ?", "203.0.113.9").
		Updates(map[string]any{
			"window_start": time.Now().Add(-2 * time.Minute),
			"window_end":   time.Now().Add(-time.Minute),
		}).Error)

	assert.Equal(t, http.StatusOK, invoke(t, mw, "/api/chat", "203.0.113.9").Code)

	t.Run("fresh record starts at one attempt", func(t *testing.T) {
		var record RateLimitRecord
		require.NoError(t, db.Where("identity = ? AND window_end >= ?", "203.0.113.9", time.Now()).
			First(&record).Error)
		assert.Equal(t, 1, record.Attempts)
		assert.False(t, record.Blocked)
	})

	t.Run("old record rows are preserved", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&RateLimitRecord{}).
			Where("identity = ?", "203.0.113.9").Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

type failingStore struct{}

func (failingStore) FindLive(context.Context, string, string, time.Time) (*RateLimitRecord, error) {
	return nil, errors.New("store unreachable")
}

func (failingStore) Create(context.Context, *RateLimitRecord) error {
	return errors.New("store unreachable")
}

func (failingStore) Increment(context.Context, string, bool, time.Time) error {
	return errors.New("store unreachable")
}

func TestMiddleware_FailOpen(t *testing.T) {
	mw := Middleware(&Config{
		Store:       failingStore{},
		Window:      time.Minute,
		MaxRequests: 1,
	})

	for i := 0; i < 5; i++ {
		rec := invoke(t, mw, "/api/chat", "203.0.113.9")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMiddleware_Defaults(t *testing.T) {
	cfg := &Config{}
	mw := Middleware(cfg)

	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, 20, cfg.MaxRequests)
	assert.NotNil(t, cfg.Store)
	assert.NotNil(t, cfg.KeyGenerator)

	rec := invoke(t, mw, "/api/chat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDefaultKeyGenerator(t *testing.T) {
	e := echo.New()

	newCtx := func(forwardedFor string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if forwardedFor != "" {
			req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
		}
		return e.NewContext(req, httptest.NewRecorder())
	}

	t.Run("authenticated user id wins", func(t *testing.T) {
		c := newCtx("203.0.113.9")
		ctx := auth.WithAuthContext(c.Request().Context(), auth.AuthContext{UserID: "user-1"})
		c.SetRequest(c.Request().WithContext(ctx))

		assert.Equal(t, "user-1", DefaultKeyGenerator(c))
	})

	t.Run("forwarded address", func(t *testing.T) {
		assert.Equal(t, "203.0.113.9", DefaultKeyGenerator(newCtx("203.0.113.9")))
	})

	t.Run("first hop of a forwarded chain", func(t *testing.T) {
		assert.Equal(t, "203.0.113.9", DefaultKeyGenerator(newCtx("203.0.113.9, 10.0.0.1")))
	})

	t.Run("unknown fallback", func(t *testing.T) {
		assert.Equal(t, "unknown", DefaultKeyGenerator(newCtx("")))
	})
}
