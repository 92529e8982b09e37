package refreshtoken

import (
	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRefreshTokenStore(db *gorm.DB, cfg *config.Config, logger *logging.Service) Store {
	service := NewService(db, cfg, logger)

	if cfg.RefreshToken.CleanupInterval > 0 {
		service.StartCleanupWorker()
	}

	return service
}

var Options = fx.Options(
	fx.Provide(ProvideRefreshTokenStore),
)
