package user

import (
	"errors"
	"fmt"

	"github.com/cgchat/authkit/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// Provider is the lookup contract the auth boundary depends on.
type Provider interface {
	GetUser(id string) (*User, error)
}

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// GetUser loads a user by id. Soft-deleted users are reported as not found;
// callers must not be able to tell the difference.
func (s *Service) GetUser(id string) (*User, error) {
	var u User
	err := s.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("user lookup failed - database error",
			zap.Error(err),
			zap.String("user_id", id))
		return nil, fmt.Errorf("database error: %w", err)
	}

	if u.DeletedAt != nil {
		s.logger.Warn("user lookup rejected - user soft-deleted",
			zap.String("user_id", id))
		return nil, ErrUserNotFound
	}

	return &u, nil
}
