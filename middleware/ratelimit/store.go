package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cgchat/authkit/services/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store persists rate limit records. FindLive returns (nil, nil) when no
// record covers the current instant; callers then start a new window.
//
// Reads and writes are discrete operations: two concurrent requests can
// both read below the threshold and both increment, overshooting the limit
// slightly under bursty concurrency. That relaxed guarantee is accepted.
type Store interface {
	FindLive(ctx context.Context, identity, endpoint string, now time.Time) (*RateLimitRecord, error)
	Create(ctx context.Context, record *RateLimitRecord) error
	Increment(ctx context.Context, id string, block bool, now time.Time) error
}

// DatabaseStore keeps records in the relational store; superseded windows
// remain as rows for offline inspection.
type DatabaseStore struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewDatabaseStore(db *gorm.DB, logger *logging.Service) *DatabaseStore {
	return &DatabaseStore{
		db:     db,
		logger: logger,
	}
}

func (s *DatabaseStore) FindLive(ctx context.Context, identity, endpoint string, now time.Time) (*RateLimitRecord, error) {
	var record RateLimitRecord
	err := s.db.WithContext(ctx).
		Where("identity = ? AND endpoint = ? AND window_end >= ?", identity, endpoint, now).
		Order("window_start DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query rate limit record: %w", err)
	}

	return &record, nil
}

func (s *DatabaseStore) Create(ctx context.Context, record *RateLimitRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create rate limit record: %w", err)
	}

	return nil
}

func (s *DatabaseStore) Increment(ctx context.Context, id string, block bool, now time.Time) error {
	updates := map[string]any{
		"attempts": gorm.Expr("attempts + 1"),
	}
	if block {
		updates["blocked"] = true
		updates["blocked_at"] = now
	}

	err := s.db.WithContext(ctx).Model(&RateLimitRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to increment rate limit record: %w", err)
	}

	return nil
}

// CleanupExpired removes records whose window ended before the cutoff.
func (s *DatabaseStore) CleanupExpired(ctx context.Context, cutoff time.Time) error {
	result := s.db.WithContext(ctx).
		Where("window_end < ?", cutoff).
		Delete(&RateLimitRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to cleanup rate limit records: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Debug("cleaned up expired rate limit records",
			zap.Int64("count", result.RowsAffected))
	}

	return nil
}
