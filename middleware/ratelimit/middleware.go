package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cgchat/authkit/apierror"
	"github.com/cgchat/authkit/middleware/auth"
	"github.com/cgchat/authkit/services/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Config struct {
	Store        Store
	Window       time.Duration
	MaxRequests  int
	KeyGenerator func(c echo.Context) string
	Logger       *logging.Service
}

// Middleware gates requests per (identity, endpoint) against a fixed
// window. The per-scope state machine is Fresh -> Counting -> Blocked;
// Blocked is terminal until the window ends, after which a new record
// starts the cycle again.
//
// Store failures are deliberately fail-open: availability wins over strict
// enforcement here, unlike the auth path which fails closed.
func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 20
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			endpoint := c.Request().URL.Path
			now := time.Now()
			ctx := c.Request().Context()

			record, err := cfg.Store.FindLive(ctx, key, endpoint, now)
			if err != nil {
				cfg.Logger.Error("rate limiter store read failed - allowing request",
					zap.Error(err),
					zap.String("identity", key),
					zap.String("endpoint", endpoint))
				return next(c)
			}

			if record != nil {
				if record.Blocked || record.Attempts >= cfg.MaxRequests {
					retryAfter := int(math.Ceil(record.WindowEnd.Sub(now).Seconds()))
					if retryAfter < 1 {
						retryAfter = 1
					}

					c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
					return apierror.RespondRetryAfter(c, http.StatusTooManyRequests,
						apierror.CodeRateLimitExceeded,
						"Too many requests. Please try again later.", retryAfter)
				}

				block := record.Attempts+1 >= cfg.MaxRequests
				if err := cfg.Store.Increment(ctx, record.ID, block, now); err != nil {
					cfg.Logger.Error("rate limiter store write failed - allowing request",
						zap.Error(err),
						zap.String("identity", key),
						zap.String("endpoint", endpoint))
				}

				return next(c)
			}

			fresh := &RateLimitRecord{
				Identity:    key,
				Endpoint:    endpoint,
				Attempts:    1,
				WindowStart: now,
				WindowEnd:   now.Add(cfg.Window),
			}
			if err := cfg.Store.Create(ctx, fresh); err != nil {
				cfg.Logger.Error("rate limiter store write failed - allowing request",
					zap.Error(err),
					zap.String("identity", key),
					zap.String("endpoint", endpoint))
			}

			return next(c)
		}
	}
}

// DefaultKeyGenerator prefers the authenticated user id, falls back to the
// forwarded origin address, then to the literal "unknown".
func DefaultKeyGenerator(c echo.Context) string {
	if authCtx, ok := auth.GetAuthContext(c); ok && authCtx.UserID != "" {
		return authCtx.UserID
	}

	if forwarded := c.Request().Header.Get(echo.HeaderXForwardedFor); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}

	return "unknown"
}
