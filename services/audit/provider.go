package audit

import (
	"github.com/cgchat/authkit/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideAuditSink(db *gorm.DB, logger *logging.Service) Sink {
	return NewService(db, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideAuditSink),
)
