// Package authtest mints signed tokens for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
)

type Signer struct {
	key *rsa.PrivateKey
}

func NewSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}
	return &Signer{key: key}
}

func (s *Signer) Verifier() *auth.Verifier {
	return auth.NewVerifier(&s.key.PublicKey)
}

// Token signs a Keycloak-shaped access token for the given subject and roles.
func (s *Signer) Token(t *testing.T, subject, username string, roles ...string) string {
	t.Helper()
	return s.TokenExpiringAt(t, subject, username, time.Now().Add(time.Hour), roles...)
}

func (s *Signer) TokenExpiringAt(t *testing.T, subject, username string, expiry time.Time, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":                subject,
		"preferred_username": username,
		"realm_access":       map[string]any{"roles": roles},
		"exp":                expiry.Unix(),
		"iat":                time.Now().Add(-time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
