package refreshtoken

import (
	"time"
)

// Revocation reasons written to refresh token records. Once a record is
// revoked the reason is never overwritten.
const (
	ReasonRotation    = "rotation"
	ReasonReuse       = "security: token family compromised"
	ReasonLogout      = "logout"
	ReasonUserRevoked = "all user tokens revoked"
)

// RefreshToken is one link in a token family: the set of records descending
// from a single login. A record is live until it expires or RevokedAt is set.
type RefreshToken struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	UserID        string     `json:"user_id" gorm:"size:36;not null;index"`
	Token         string     `json:"-" gorm:"uniqueIndex;size:255;not null"`
	FamilyID      string     `json:"family_id" gorm:"size:36;not null;index"`
	ExpiresAt     time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt     *time.Time `json:"revoked_at"`
	RevokedReason string     `json:"revoked_reason" gorm:"size:100"`
	DeviceID      string     `json:"device_id" gorm:"size:100"`
	DeviceName    string     `json:"device_name" gorm:"size:100"`
	UserAgent     string     `json:"user_agent" gorm:"size:500"`
	IPAddress     string     `json:"ip_address" gorm:"size:45"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Live reports whether the record can still be exchanged during rotation.
func (r *RefreshToken) Live(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}
