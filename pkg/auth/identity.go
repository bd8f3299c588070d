// Package auth holds the caller identity resolved from a bearer token, the
// admin allow-list and the setup-key check used by the provisioning
// endpoints.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken is returned for tokens the identity provider rejects.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken is returned before any network call when the token's
	// exp claim is already in the past.
	ErrExpiredToken = errors.New("auth: token expired")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the identity in ctx, or nil for anonymous requests.
func FromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// BearerToken extracts the token from an "Authorization: Bearer x" header.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// Signature verification is the identity provider's job; the claim is only
// used to short-circuit expired tokens and to bound cache lifetimes.
// Returns the zero time when the token is not a JWT or has no exp.
func TokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// AllowList is the static set of admin email addresses.
type AllowList map[string]struct{}

// NewAllowList builds an allow-list; comparisons are case-insensitive.
func NewAllowList(emails ...string) AllowList {
	list := make(AllowList, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			list[e] = struct{}{}
		}
	}
	return list
}

// Contains reports whether email is an admin.
func (l AllowList) Contains(email string) bool {
	_, ok := l[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// HashSetupKey returns the bcrypt hash to place in SETUP_KEY_HASH.
func HashSetupKey(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

// CheckSetupKey compares a candidate key against the configured hash.
// An empty hash disables setup-key access entirely.
func CheckSetupKey(hash, candidate string) bool {
	if hash == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
