package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleIssuer = "issuer"
	RoleBuyer  = "buyer"
)

var (
	// ErrInvalidToken indicates a token that fails parsing or validation
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidRole indicates a role outside issuer/buyer
	ErrInvalidRole = errors.New("role must be issuer or buyer")
)

// Claims bind a session to a wallet address and marketplace role
type Claims struct {
	Address string `json:"address"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and validates wallet-bound session tokens
type Service struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewService(secret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), tokenTTL: tokenTTL}
}

// IssueToken mints a signed session token for a wallet address.
// Proof of wallet ownership is out of scope for the proof of concept;
// production would verify a signed challenge before issuing.
func (s *Service) IssueToken(address, role string) (string, error) {
	if role != RoleIssuer && role != RoleBuyer {
		return "", ErrInvalidRole
	}
	now := time.Now()
	claims := Claims{
		Address: address,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
