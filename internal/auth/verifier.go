package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
)

// Verifier validates RS256 bearer tokens against a trusted public key and
// extracts the caller's identity. Key rotation is out of scope; the key is
// loaded once at startup.
type Verifier struct {
	key *rsa.PublicKey
}

func NewVerifier(key *rsa.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// NewVerifierFromFile loads a PEM-encoded RSA public key.
func NewVerifierFromFile(path string) (*Verifier, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return NewVerifier(key), nil
}

// tokenClaims follows the Keycloak access-token layout: roles live under
// realm_access and the display name under preferred_username.
type tokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	jwt.RegisteredClaims
}

// Verify is a pure function of the token and the trusted key. It never
// accepts a token it cannot fully validate.
func (v *Verifier) Verify(raw string) (domain.Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, classify(err)
	}

	ident := domain.Identity{
		Subject:  claims.Subject,
		Username: claims.PreferredUsername,
	}
	for _, r := range claims.RealmAccess.Roles {
		switch domain.Role(r) {
		case domain.RoleAdmin, domain.RoleCustomer:
			ident.Roles = append(ident.Roles, domain.Role(r))
		}
	}
	return ident, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}
