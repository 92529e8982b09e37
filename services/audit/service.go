package audit

import (
	"encoding/json"
	"fmt"

	"github.com/cgchat/authkit/services/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sink receives structured security events. Implementations append; they
// never mutate history.
type Sink interface {
	Record(event Event) error
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

func (s *Service) Record(event Event) error {
	severity := event.Severity
	if severity == "" {
		severity = SeverityInfo
	}

	entity := event.Entity
	if entity == "" {
		entity = "auth"
	}

	metadata := ""
	if len(event.Metadata) > 0 {
		if data, err := json.Marshal(event.Metadata); err == nil {
			metadata = string(data)
		}
	}

	row := AuditLog{
		ID:        uuid.New().String(),
		UserID:    event.UserID,
		Action:    event.Action,
		Entity:    entity,
		Metadata:  metadata,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Severity:  severity,
	}

	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Error("failed to record audit event",
			zap.Error(err),
			zap.String("action", event.Action),
			zap.String("user_id", event.UserID))
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	s.logger.Debug("audit event recorded",
		zap.String("action", event.Action),
		zap.String("user_id", event.UserID),
		zap.String("severity", severity))

	return nil
}
