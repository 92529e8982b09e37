package ratelimit

import (
	"time"
)

// RateLimitRecord counts requests for one (identity, endpoint) pair within
// a fixed window. Window bounds are immutable once created: expiry is
// handled by creating a new record, never by sliding the bounds.
type RateLimitRecord struct {
	ID          string     `json:"id" gorm:"primaryKey;size:120"`
	Identity    string     `json:"identity" gorm:"size:100;not null;index:idx_rate_limit_scope"`
	Endpoint    string     `json:"endpoint" gorm:"size:255;not null;index:idx_rate_limit_scope"`
	Attempts    int        `json:"attempts" gorm:"not null;default:0"`
	WindowStart time.Time  `json:"window_start" gorm:"not null"`
	WindowEnd   time.Time  `json:"window_end" gorm:"not null;index"`
	Blocked     bool       `json:"blocked" gorm:"not null;default:false"`
	BlockedAt   *time.Time `json:"blocked_at"`
}

func (RateLimitRecord) TableName() string {
	return "rate_limit_records"
}
