package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired inspects the current token's exp claim without verifying the
// signature (the client never holds the signing key). Purely advisory: the
// server remains the authority on whether the token is accepted. Returns false
// when anonymous, when the token is not a JWT, or when it carries no expiry.
func (m *Manager) TokenExpired() bool {
	token, ok := m.Token()
	if !ok {
		return false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
