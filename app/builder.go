package app

import (
	"fmt"

	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/database"
	"github.com/cgchat/authkit/middleware/ratelimit"
	"github.com/cgchat/authkit/server"
	"github.com/cgchat/authkit/services/audit"
	"github.com/cgchat/authkit/services/auth"
	"github.com/cgchat/authkit/services/jwt"
	"github.com/cgchat/authkit/services/logging"
	"github.com/cgchat/authkit/services/refreshtoken"
	"github.com/cgchat/authkit/services/user"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	services  map[string]bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		services:  make(map[string]bool),
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithDatabase(models ...any) *AppBuilder {
	b.services["database"] = true
	b.models = append(b.models, models...)
	return b
}

// WithAuth wires the full token lifecycle: codec, refresh token store,
// issuer/rotation, user lookup and the audit sink, plus their models.
func (b *AppBuilder) WithAuth() *AppBuilder {
	b.services["auth"] = true
	b.services["database"] = true
	b.models = append(b.models,
		&user.User{},
		&refreshtoken.RefreshToken{},
		&audit.AuditLog{},
	)
	return b
}

func (b *AppBuilder) WithRateLimit() *AppBuilder {
	b.services["ratelimit"] = true
	if b.config == nil || b.config.RateLimit.Store == "database" {
		b.services["database"] = true
		b.models = append(b.models, &ratelimit.RateLimitRecord{})
	}
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, fmt.Errorf("configuration errors: %v", b.errors)
		}
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.NewService(logging.Config{
		Level:      b.config.Log.Level,
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{
		config: b.config,
		logger: logger,
	}

	options := []fx.Option{
		fx.Supply(b.config),
		fx.Supply(logger),
		fx.NopLogger,
	}

	if b.services["database"] {
		db, err := database.ProvideDatabase(*b.config, database.WithModels(b.models...), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
		options = append(options, fx.Supply(db))
	}

	if b.services["auth"] {
		options = append(options,
			jwt.Options,
			refreshtoken.Options,
			user.Options,
			audit.Options,
			auth.Options,
		)
	}

	if b.services["ratelimit"] {
		options = append(options, ratelimit.Options)
	}

	options = append(options, server.NewProvider())
	options = append(options, b.fxOptions...)
	options = append(options, fx.Invoke(func(srv *server.Server) {
		app.server = srv
	}))

	app.fx = fx.New(options...)
	if err := app.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to assemble application: %w", err)
	}

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}
