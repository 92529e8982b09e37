package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// MinSecretLength is the minimum number of bytes accepted for the JWT
// signing secret and for generated refresh token secrets.
const MinSecretLength = 32

type Config struct {
	Server       ServerConfig       `envPrefix:"AUTHKIT_SERVER_"`
	Log          LogConfig          `envPrefix:"AUTHKIT_LOG_"`
	Database     DatabaseConfig     `envPrefix:"AUTHKIT_DB_"`
	JWT          JWTConfig          `envPrefix:"AUTHKIT_JWT_"`
	RefreshToken RefreshTokenConfig `envPrefix:"AUTHKIT_REFRESH_"`
	RateLimit    RateLimitConfig    `envPrefix:"AUTHKIT_RATELIMIT_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"authkit.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET"`
	Issuer       string        `env:"ISSUER" envDefault:"cg-chatbot"`
	Audience     string        `env:"AUDIENCE" envDefault:"cg-customers"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
}

type RefreshTokenConfig struct {
	Expiry          time.Duration `env:"EXPIRY" envDefault:"168h"`
	SecretLength    int           `env:"SECRET_LENGTH" envDefault:"32"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
}

type RateLimitConfig struct {
	Store       string        `env:"STORE" envDefault:"database"`
	Window      time.Duration `env:"WINDOW" envDefault:"60s"`
	MaxRequests int           `env:"MAX_REQUESTS" envDefault:"20"`
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return cfg.Validate()
}

// Validate rejects configurations that would silently weaken token security.
// A short signing secret is a fatal configuration error, not a warning.
func (c *Config) Validate() error {
	if len(c.JWT.SecretKey) < MinSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes, got %d", MinSecretLength, len(c.JWT.SecretKey))
	}

	if c.RefreshToken.SecretLength < MinSecretLength {
		return fmt.Errorf("refresh token secret length must be at least %d bytes, got %d", MinSecretLength, c.RefreshToken.SecretLength)
	}

	return nil
}
