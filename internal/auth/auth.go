// Package auth verifies the two credential forms the API accepts:
// HS256 session tokens minted by the SSO frontend, and long-lived API
// keys whose secrets are stored as argon2id digests. This package only
// verifies credentials; it never mints tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eveexchange/backend/internal/domain"
)

// Claims is the JWT payload carried by session tokens.
type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Verifier checks session tokens and API keys against the configured
// secret and the settings store.
type Verifier struct {
	secret   []byte
	tokenTTL time.Duration
	settings domain.SettingsStore
}

// NewVerifier creates a Verifier.
func NewVerifier(secret string, tokenTTL time.Duration, settings domain.SettingsStore) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		settings: settings,
	}
}

// VerifyToken parses an HS256 session token and returns the user id.
// Tokens older than the configured TTL are rejected even when they carry
// no explicit expiry.
func (v *Verifier) VerifyToken(tokenString string) (int64, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("auth: parse token: %w", domain.ErrUnauthorized)
	}
	if claims.UserID == 0 {
		return 0, fmt.Errorf("auth: token missing user id: %w", domain.ErrUnauthorized)
	}
	if claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > v.tokenTTL {
		return 0, fmt.Errorf("auth: token expired: %w", domain.ErrUnauthorized)
	}
	return claims.UserID, nil
}

// VerifyKey checks an API key of the form "<keyID>.<secret>" against the
// stored argon2id digest and returns the owning user id.
func (v *Verifier) VerifyKey(ctx context.Context, key string) (int64, error) {
	keyID, secret, ok := strings.Cut(key, ".")
	if !ok || keyID == "" || secret == "" {
		return 0, fmt.Errorf("auth: malformed api key: %w", domain.ErrUnauthorized)
	}

	stored, err := v.settings.GetAPIKey(ctx, keyID)
	if err != nil {
		return 0, fmt.Errorf("auth: api key lookup: %w", domain.ErrUnauthorized)
	}
	if !VerifySecret(secret, stored.SecretHash) {
		return 0, fmt.Errorf("auth: api key mismatch: %w", domain.ErrUnauthorized)
	}
	return stored.UserID, nil
}

// NewKeyID returns a fresh random public key id.
func NewKeyID() (string, error) {
	return randomToken(12)
}

// NewKeySecret returns a fresh random key secret.
func NewKeySecret() (string, error) {
	return randomToken(24)
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// timingSafeEqual compares two digests in constant time.
func timingSafeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
