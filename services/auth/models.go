package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mileusna/useragent"
)

var (
	ErrTokenExpired = errors.New("refresh token expired")
	ErrTokenReused  = errors.New("refresh token reuse detected")
)

// TokenPair is what a successful login or rotation hands back to the client.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

// DeviceContext carries per-request client metadata used for token binding
// and audit trails.
type DeviceContext struct {
	DeviceID   string
	DeviceName string
	UserAgent  string
	IPAddress  string
}

// Fingerprint derives a stable, non-reversible device binding signal. It is
// a weak signal only, never an independent security boundary.
func Fingerprint(device DeviceContext) string {
	data := fmt.Sprintf("%s:%s:%s", device.DeviceID, device.UserAgent, device.IPAddress)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}

// deviceName falls back to a browser description parsed from the user agent
// when the client did not name the device itself.
func deviceName(device DeviceContext) string {
	if device.DeviceName != "" {
		return device.DeviceName
	}

	if device.UserAgent == "" {
		return ""
	}

	ua := useragent.Parse(device.UserAgent)
	if ua.Name == "" {
		return ""
	}

	if ua.Version != "" {
		return ua.Name + " " + ua.Version
	}
	return ua.Name
}
