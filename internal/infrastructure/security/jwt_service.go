package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
)

// Claims are the signed contents of a session credential. The session
// row is the authority; the credential only points at it.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates session credentials.
type TokenService interface {
	// Issue binds the session identity and user role into a signed token.
	Issue(userID uuid.UUID, sessionID uuid.UUID, tokenID string, role string) (string, error)
	// Validate parses and verifies a credential, returning its claims.
	Validate(tokenString string) (*Claims, error)
}

type hmacTokenService struct {
	secret   []byte
	tokenTTL time.Duration
	issuer   string
}

// NewHMACTokenService creates a TokenService signing with HS256.
func NewHMACTokenService(secret string, tokenTTL time.Duration, issuer string) TokenService {
	return &hmacTokenService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		issuer:   issuer,
	}
}

func (s *hmacTokenService) Issue(userID uuid.UUID, sessionID uuid.UUID, tokenID string, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID.String(),
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *hmacTokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainErrors.ErrExpiredToken
		}
		return nil, domainErrors.ErrInvalidToken
	}
	if !token.Valid {
		return nil, domainErrors.ErrInvalidToken
	}
	return claims, nil
}
