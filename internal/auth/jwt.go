// Package auth provides JWT token issuance and validation for device
// sessions.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry is the lifetime of an issued device token.
const TokenExpiry = 24 * time.Hour

// DefaultLeeway tolerates small clock skew during validation.
const DefaultLeeway = 30 * time.Second

// ErrInvalidToken is returned when token validation fails.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the custom JWT claims carried by device tokens.
type Claims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"device_id"`
}

// Service signs and validates device tokens.
type Service struct {
	secret []byte
	leeway time.Duration
}

// NewService creates a token service with the given signing secret.
func NewService(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		leeway: DefaultLeeway,
	}
}

// GenerateToken issues a signed token for a device.
func (s *Service) GenerateToken(deviceID string) (string, error) {
	if deviceID == "" {
		return "", errors.New("deviceID cannot be empty")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
		DeviceID: deviceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.DeviceID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
