package auth

import (
	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/services/audit"
	"github.com/cgchat/authkit/services/jwt"
	"github.com/cgchat/authkit/services/logging"
	"github.com/cgchat/authkit/services/refreshtoken"
	"github.com/cgchat/authkit/services/user"
	"go.uber.org/fx"
)

type ServiceParams struct {
	fx.In

	Config *config.Config
	Codec  *jwt.Service
	Store  refreshtoken.Store
	Users  user.Provider
	Audit  audit.Sink `optional:"true"`
	Logger *logging.Service
}

func ProvideAuthService(p ServiceParams) *Service {
	return NewService(p.Config, p.Codec, p.Store, p.Users, p.Audit, p.Logger)
}

var Options = fx.Options(
	fx.Provide(ProvideAuthService),
)
