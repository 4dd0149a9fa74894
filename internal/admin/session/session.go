// Package session authenticates operators with a PIN and issues short
// bearer tokens for the admin API.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"safeline/internal/platform/middleware"
	dErrors "safeline/pkg/domain-errors"
)

// Claims are the JWT claims carried by an admin session token.
type Claims struct {
	jwt.RegisteredClaims
}

// Service verifies the operator PIN and mints HS256 session tokens.
type Service struct {
	pinHash    string
	signingKey []byte
	ttl        time.Duration
}

// New creates a session Service. pinHash must be a bcrypt hash; use
// HashPIN to produce one.
func New(pinHash, signingKey string, ttl time.Duration) *Service {
	return &Service{
		pinHash:    pinHash,
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// HashPIN creates a bcrypt hash of the operator PIN for storage in
// configuration.
func HashPIN(pin string) (string, error) {
	if pin == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "pin cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash pin: %w", err)
	}
	return string(hashed), nil
}

// Login verifies the PIN and returns a signed session token.
func (s *Service) Login(pin string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.pinHash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid pin")
		}
		return "", fmt.Errorf("could not verify pin: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "safeline",
			Audience:  []string{"safeline-admin"},
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateSessionToken checks signature and expiry, satisfying
// middleware.AdminSessionValidator.
func (s *Service) ValidateSessionToken(tokenString string) (*middleware.AdminSession, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	return &middleware.AdminSession{SessionID: claims.ID}, nil
}
