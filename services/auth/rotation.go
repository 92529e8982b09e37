package auth

import (
	"errors"
	"time"

	"github.com/cgchat/authkit/services/audit"
	"github.com/cgchat/authkit/services/refreshtoken"
	"go.uber.org/zap"
)

// RefreshTokens exchanges a live refresh token for a new pair in the same
// token family. Presenting an already-revoked token is treated as evidence
// of theft: the whole family is revoked and the caller must force
// re-authentication.
//
// Two concurrent calls presenting the same live token can both pass the
// revocation check before either writes, each minting a pair. Closing that
// race needs a conditional write in the store; see DESIGN.md.
func (s *Service) RefreshTokens(presentedToken string, device DeviceContext) (*TokenPair, error) {
	record, err := s.store.FindByToken(presentedToken)
	if err != nil {
		return nil, err
	}

	if record.RevokedAt != nil {
		s.handleSuspiciousRefresh(record)
		return nil, ErrTokenReused
	}

	if time.Now().After(record.ExpiresAt) {
		s.logger.Warn("refresh rejected - token expired",
			zap.String("token_id", record.ID),
			zap.String("user_id", record.UserID),
			zap.Time("expired_at", record.ExpiresAt))
		return nil, ErrTokenExpired
	}

	u, err := s.users.GetUser(record.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Revoke(record.ID, refreshtoken.ReasonRotation); err != nil {
		return nil, err
	}

	pair, err := s.generateTokenPair(u, record.FamilyID, device)
	if err != nil {
		return nil, err
	}

	s.logger.Info("refresh token rotated",
		zap.String("user_id", record.UserID),
		zap.String("family_id", record.FamilyID),
		zap.String("old_token_id", record.ID))

	return pair, nil
}

// RevokeToken revokes a single refresh token, e.g. on logout. Revoking a
// token that is absent or already revoked is a no-op.
func (s *Service) RevokeToken(token string, reason string) error {
	record, err := s.store.FindByToken(token)
	if err != nil {
		if errors.Is(err, refreshtoken.ErrTokenNotFound) {
			return nil
		}
		return err
	}

	if record.RevokedAt != nil {
		return nil
	}

	if err := s.store.Revoke(record.ID, reason); err != nil {
		return err
	}

	s.recordAudit(audit.Event{
		UserID:   record.UserID,
		Action:   audit.ActionTokenRevoked,
		Metadata: map[string]string{"reason": reason, "family_id": record.FamilyID},
	})

	return nil
}

// RevokeTokenFamily revokes every live token descending from one login.
// Idempotent: an already-dead family revokes zero rows without error.
func (s *Service) RevokeTokenFamily(familyID string, reason string) error {
	count, err := s.store.RevokeFamily(familyID, reason)
	if err != nil {
		return err
	}

	if count > 0 {
		s.logger.Info("token family revoked",
			zap.String("family_id", familyID),
			zap.String("reason", reason),
			zap.Int64("count", count))
	}

	return nil
}

// handleSuspiciousRefresh cascades revocation across the family of a reused
// token. A failed cascade is logged but the reuse error still reaches the
// caller: either way nothing is issued.
func (s *Service) handleSuspiciousRefresh(record *refreshtoken.RefreshToken) {
	s.logger.Warn("refresh token reuse detected - revoking token family",
		zap.String("token_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("family_id", record.FamilyID))

	if _, err := s.store.RevokeFamily(record.FamilyID, refreshtoken.ReasonReuse); err != nil {
		s.logger.Error("failed to revoke compromised token family",
			zap.Error(err),
			zap.String("family_id", record.FamilyID))
	}

	s.recordAudit(audit.Event{
		UserID:   record.UserID,
		Action:   audit.ActionReuseDetected,
		Metadata: map[string]string{"family_id": record.FamilyID},
		Severity: audit.SeverityWarning,
	})
}
