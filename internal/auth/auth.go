// Package auth issues and verifies the guest tokens players present
// when opening a game connection. There are no accounts; a token just
// binds a generated player id and display name to the connection.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by a guest token. The player id lives in the standard
// subject claim.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Service signs and verifies guest tokens with an HMAC secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a token service. ttl bounds how long a guest token
// stays valid.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// IssueGuest mints a token for a fresh guest identity and returns the
// token together with the generated player id.
func (s *Service) IssueGuest(name string) (string, uuid.UUID, error) {
	playerID := uuid.New()
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("sign guest token: %w", err)
	}
	return token, playerID, nil
}

// Verify checks the signature and expiry and returns the player id and
// display name bound to the token.
func (s *Service) Verify(token string) (uuid.UUID, string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("verify token: %w", err)
	}
	playerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("token subject is not a player id: %w", err)
	}
	return playerID, claims.Name, nil
}
