package refreshtoken

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/services/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTokenNotFound         = errors.New("refresh token not found")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")
)

// Store is the persistence contract for refresh token records.
type Store interface {
	Create(record *RefreshToken) error
	FindByToken(token string) (*RefreshToken, error)
	Revoke(id string, reason string) error
	RevokeFamily(familyID string, reason string) (int64, error)
	RevokeAllUserTokens(userID string, reason string) (int64, error)
	NewOpaqueToken() (id string, token string, err error)
	Expiry() time.Duration
	CleanupExpiredTokens() error
}

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	logger.Info("initializing refresh token service",
		zap.Duration("token_expiry", cfg.RefreshToken.Expiry),
		zap.Int("secret_length", cfg.RefreshToken.SecretLength),
		zap.Duration("cleanup_interval", cfg.RefreshToken.CleanupInterval))

	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) Expiry() time.Duration {
	return s.config.RefreshToken.Expiry
}

// NewOpaqueToken returns a fresh record id and the opaque token value handed
// to clients: "rt_<id>.<high-entropy secret>".
func (s *Service) NewOpaqueToken() (string, string, error) {
	id := uuid.New().String()

	secretBytes := make([]byte, s.config.RefreshToken.SecretLength)
	if _, err := rand.Read(secretBytes); err != nil {
		s.logger.Error("failed to generate refresh token secret", zap.Error(err))
		return "", "", ErrTokenGenerationFailed
	}

	token := fmt.Sprintf("rt_%s.%s", id, base64.RawURLEncoding.EncodeToString(secretBytes))
	return id, token, nil
}

func (s *Service) Create(record *RefreshToken) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	if err := s.db.Create(record).Error; err != nil {
		s.logger.Error("failed to store refresh token", zap.Error(err))
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.Info("refresh token stored",
		zap.String("token_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("family_id", record.FamilyID),
		zap.Time("expires_at", record.ExpiresAt))

	return nil
}

func (s *Service) FindByToken(token string) (*RefreshToken, error) {
	var record RefreshToken
	err := s.db.Where("token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("refresh token lookup failed - token not found")
			return nil, ErrTokenNotFound
		}
		s.logger.Error("refresh token lookup failed - database error", zap.Error(err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &record, nil
}

// Revoke marks a single record revoked. Revoking an already-revoked record
// is a no-op: RevokedAt is never overwritten once set, so the first
// revocation (and its reason) stands.
func (s *Service) Revoke(id string, reason string) error {
	result := s.db.Model(&RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]any{
			"revoked_at":     time.Now(),
			"revoked_reason": reason,
		})

	if result.Error != nil {
		s.logger.Error("failed to revoke refresh token",
			zap.Error(result.Error),
			zap.String("token_id", id))
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}

	s.logger.Info("refresh token revoked",
		zap.String("token_id", id),
		zap.String("reason", reason),
		zap.Int64("affected_rows", result.RowsAffected))

	return nil
}

// RevokeFamily revokes every live record sharing a family id in a single
// bulk update over the family index.
func (s *Service) RevokeFamily(familyID string, reason string) (int64, error) {
	result := s.db.Model(&RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Updates(map[string]any{
			"revoked_at":     time.Now(),
			"revoked_reason": reason,
		})

	if result.Error != nil {
		s.logger.Error("failed to revoke token family",
			zap.Error(result.Error),
			zap.String("family_id", familyID))
		return 0, fmt.Errorf("failed to revoke token family: %w", result.Error)
	}

	s.logger.Warn("token family revoked",
		zap.String("family_id", familyID),
		zap.String("reason", reason),
		zap.Int64("count", result.RowsAffected))

	return result.RowsAffected, nil
}

func (s *Service) RevokeAllUserTokens(userID string, reason string) (int64, error) {
	result := s.db.Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]any{
			"revoked_at":     time.Now(),
			"revoked_reason": reason,
		})

	if result.Error != nil {
		s.logger.Error("failed to revoke all user refresh tokens",
			zap.Error(result.Error),
			zap.String("user_id", userID))
		return 0, fmt.Errorf("failed to revoke all user refresh tokens: %w", result.Error)
	}

	s.logger.Info("all user refresh tokens revoked",
		zap.String("user_id", userID),
		zap.Int64("count", result.RowsAffected))

	return result.RowsAffected, nil
}

// CleanupExpiredTokens deletes records whose expiry has passed. Revoked rows
// inside their expiry window are kept: they are what makes reuse detection
// possible.
func (s *Service) CleanupExpiredTokens() error {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&RefreshToken{})

	if result.Error != nil {
		s.logger.Error("failed to cleanup expired refresh tokens", zap.Error(result.Error))
		return fmt.Errorf("failed to cleanup expired tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("cleaned up expired refresh tokens",
			zap.Int64("count", result.RowsAffected))
	}

	return nil
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.RefreshToken.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpiredTokens(); err != nil {
				s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
			}
		}
	}()

	s.logger.Info("started refresh token cleanup worker",
		zap.Duration("interval", s.config.RefreshToken.CleanupInterval))
}
