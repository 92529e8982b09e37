package logging

import (
	"github.com/cgchat/authkit/config"
	"go.uber.org/fx"
)

func ProvideLoggingService(cfg *config.Config) (*Service, error) {
	return NewService(Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	})
}

var Options = fx.Options(
	fx.Provide(ProvideLoggingService),
)
