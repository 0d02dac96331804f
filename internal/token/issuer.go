// Package token mints and verifies the two credential shapes: short-lived
// signed access tokens (stateless, claims-bearing) and long-lived opaque
// refresh/action tokens (random, store-verified via hash).
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every access-token failure (bad signature, expired,
// malformed). Callers must not distinguish the cause externally.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims are the claims embedded in a signed access token.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints access tokens with a shared HMAC secret and opaque tokens from
// crypto/rand. Opaque tokens are never signed: they must survive a signing-key
// rotation and are probe-matched via hash instead of decoded.
type Issuer struct {
	secret    []byte
	accessTTL time.Duration
}

func NewIssuer(secret string, accessTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL}
}

// AccessToken signs a token carrying the user's id, email and primary role.
func (i *Issuer) AccessToken(userID uuid.UUID, email, role string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// VerifyAccessToken checks signature and expiry without a store lookup.
func (i *Issuer) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessTTLSeconds is the lifetime handed to clients as expires_in.
func (i *Issuer) AccessTTLSeconds() int {
	return int(i.accessTTL.Seconds())
}

// OpaqueToken returns a cryptographically random token with 32 bytes of
// entropy, base64url-encoded. Used for refresh, password-reset and
// email-verification credentials.
func OpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SubjectID parses the user id out of verified access-token claims.
func (c *AccessClaims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
