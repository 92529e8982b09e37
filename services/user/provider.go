package user

import (
	"github.com/cgchat/authkit/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserService(db *gorm.DB, logger *logging.Service) Provider {
	return NewService(db, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideUserService),
)
