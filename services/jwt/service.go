package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cgchat/authkit/config"
	"github.com/cgchat/authkit/services/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid JWT token")
	ErrExpiredToken     = errors.New("JWT token has expired")
	ErrMalformedToken   = errors.New("malformed JWT token")
	ErrInvalidSignature = errors.New("invalid JWT token signature")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried inside a signed token. The subject is the user id; the
// fingerprint is a weak device binding signal, not a security boundary.
type Claims struct {
	Email       string `json:"email,omitempty"`
	TokenType   string `json:"type"`
	Fingerprint string `json:"fingerprint,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Payload is the caller-supplied portion of a token. Issuer, audience and
// expiry are owned by the codec.
type Payload struct {
	Subject     string
	Email       string
	TokenType   string
	JTI         string
	Fingerprint string
	SessionID   string
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if len(cfg.JWT.SecretKey) < config.MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d bytes, got %d", config.MinSecretLength, len(cfg.JWT.SecretKey))
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

func (s *Service) GetAccessExpirySeconds() int {
	return int(s.config.JWT.AccessExpiry.Seconds())
}

func (s *Service) Sign(payload Payload, ttl time.Duration) (string, error) {
	now := time.Now()

	jti := payload.JTI
	if jti == "" {
		jti = uuid.New().String()
	}

	claims := Claims{
		Email:       payload.Email,
		TokenType:   payload.TokenType,
		Fingerprint: payload.Fingerprint,
		SessionID:   payload.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   payload.Subject,
			Issuer:    s.config.JWT.Issuer,
			Audience:  []string{s.config.JWT.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWT.SecretKey))
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}

		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}

		return []byte(s.config.JWT.SecretKey), nil
	},
		jwt.WithIssuer(s.config.JWT.Issuer),
		jwt.WithAudience(s.config.JWT.Audience),
	)

	if err != nil {
		s.logger.Warn("token validation failed", zap.Error(err))

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
