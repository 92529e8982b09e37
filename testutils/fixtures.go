package testutils

import (
	"time"

	"github.com/cgchat/authkit/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		JWT: config.JWTConfig{
			SecretKey:    "test-secret-key-32-characters!!!",
			Issuer:       "cg-chatbot",
			Audience:     "cg-customers",
			AccessExpiry: 15 * time.Minute,
		},
		RefreshToken: config.RefreshTokenConfig{
			Expiry:       7 * 24 * time.Hour,
			SecretLength: 32,
		},
		RateLimit: config.RateLimitConfig{
			Store:       "memory",
			Window:      time.Minute,
			MaxRequests: 20,
		},
	}
}
