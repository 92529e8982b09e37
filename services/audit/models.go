package audit

import (
	"time"
)

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

const (
	ActionTokenGenerated = "token.generated"
	ActionTokenRefreshed = "token.refreshed"
	ActionTokenRevoked   = "token.revoked"
	ActionReuseDetected  = "token.reuse_detected"
)

// AuditLog rows are append-only; nothing in this package updates or
// deletes them.
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;index"`
	Action    string    `json:"action" gorm:"size:50;not null;index"`
	Entity    string    `json:"entity" gorm:"size:50;not null"`
	Metadata  string    `json:"metadata" gorm:"size:2000"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	UserAgent string    `json:"user_agent" gorm:"size:500"`
	Severity  string    `json:"severity" gorm:"size:10;not null;default:'info'"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Event is the structured input to the audit sink.
type Event struct {
	UserID    string
	Action    string
	Entity    string
	Metadata  map[string]string
	IPAddress string
	UserAgent string
	Severity  string
}
