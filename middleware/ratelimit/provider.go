package ratelimit

import (
	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/services/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewStore(cfg *config.RateLimitConfig, db *gorm.DB, logger *logging.Service) Store {
	switch cfg.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedisStore(client)
	case "memory":
		return NewMemoryStore()
	case "database":
		fallthrough
	default:
		return NewDatabaseStore(db, logger)
	}
}

type StoreParams struct {
	fx.In

	Config *config.Config
	DB     *gorm.DB `optional:"true"`
	Logger *logging.Service
}

func ProvideRateLimitStore(p StoreParams) Store {
	return NewStore(&p.Config.RateLimit, p.DB, p.Logger)
}

var Options = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)
