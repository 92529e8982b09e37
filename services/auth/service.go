package auth

import (
	"fmt"
	"time"

	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/services/audit"
	"github.com/cgchat/authkit/services/jwt"
	"github.com/cgchat/authkit/services/logging"
	"github.com/cgchat/authkit/services/refreshtoken"
	"github.com/cgchat/authkit/services/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service issues access/refresh token pairs and rotates them. Access tokens
// are stateless signed tokens; refresh tokens are opaque values persisted in
// the refresh token store and linked into families for cascade revocation.
type Service struct {
	config *config.Config
	codec  *jwt.Service
	store  refreshtoken.Store
	users  user.Provider
	audit  audit.Sink
	logger *logging.Service
}

func NewService(cfg *config.Config, codec *jwt.Service, store refreshtoken.Store, users user.Provider, auditSink audit.Sink, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		codec:  codec,
		store:  store,
		users:  users,
		audit:  auditSink,
		logger: logger,
	}
}

// GenerateTokenPair creates a fresh token family for a new login.
func (s *Service) GenerateTokenPair(u *user.User, device DeviceContext) (*TokenPair, error) {
	familyID := uuid.New().String()
	return s.generateTokenPair(u, familyID, device)
}

// VerifyAccessToken verifies signature, expiry, issuer and audience, and
// additionally rejects any token that is not of type "access". A refresh
// token must never pass as an access token.
func (s *Service) VerifyAccessToken(tokenString string) (*jwt.Claims, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != jwt.TokenTypeAccess {
		s.logger.Warn("access token verification failed - wrong token type",
			zap.String("token_type", claims.TokenType))
		return nil, jwt.ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) generateTokenPair(u *user.User, familyID string, device DeviceContext) (*TokenPair, error) {
	sessionID := uuid.New().String()
	fingerprint := Fingerprint(device)

	accessToken, err := s.codec.Sign(jwt.Payload{
		Subject:     u.ID,
		Email:       u.Email,
		TokenType:   jwt.TokenTypeAccess,
		JTI:         "at_" + uuid.New().String(),
		Fingerprint: fingerprint,
		SessionID:   sessionID,
	}, s.config.JWT.AccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	recordID, refreshToken, err := s.store.NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	record := &refreshtoken.RefreshToken{
		ID:         recordID,
		UserID:     u.ID,
		Token:      refreshToken,
		FamilyID:   familyID,
		ExpiresAt:  time.Now().Add(s.config.RefreshToken.Expiry),
		DeviceID:   device.DeviceID,
		DeviceName: deviceName(device),
		UserAgent:  device.UserAgent,
		IPAddress:  device.IPAddress,
	}

	if err := s.store.Create(record); err != nil {
		return nil, err
	}

	s.recordAudit(audit.Event{
		UserID: u.ID,
		Action: audit.ActionTokenGenerated,
		Metadata: map[string]string{
			"device_id":   device.DeviceID,
			"device_name": record.DeviceName,
			"family_id":   familyID,
		},
		IPAddress: device.IPAddress,
		UserAgent: device.UserAgent,
	})

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int(s.config.JWT.AccessExpiry.Seconds()),
		RefreshExpiresIn: int(s.config.RefreshToken.Expiry.Seconds()),
	}, nil
}

// recordAudit never fails issuance: a broken audit sink costs us a log
// entry, not a login.
func (s *Service) recordAudit(event audit.Event) {
	if s.audit == nil {
		return
	}

	if err := s.audit.Record(event); err != nil {
		s.logger.Warn("failed to record audit event",
			zap.Error(err),
			zap.String("action", event.Action),
			zap.String("user_id", event.UserID))
	}
}
