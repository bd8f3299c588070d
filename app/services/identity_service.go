package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/cache"
	apphttp "github.com/mmartin-estofados/storefront/pkg/http"
	"github.com/mmartin-estofados/storefront/pkg/logger"
)

const (
	identityCachePrefix = "identity:"
	identityDefaultTTL  = 5 * time.Minute
	identityMaxTTL      = time.Hour
)

// IdentityService resolves bearer tokens against the external identity
// provider (a Firebase-style accounts:lookup endpoint).
type IdentityService struct {
	url    string
	apiKey string
	now    func() time.Time
}

func NewIdentityService(lookupURL, apiKey string) *IdentityService {
	return &IdentityService{url: lookupURL, apiKey: apiKey, now: time.Now}
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// Resolve returns the identity behind token. Expired JWTs are rejected
// without a network call, and successful lookups are cached in Redis until
// the token expires.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*auth.Identity, error) {
	now := s.now()
	exp := auth.TokenExpiry(token)
	if !exp.IsZero() && !exp.After(now) {
		return nil, auth.ErrExpiredToken
	}

	key := identityCacheKey(token)
	var cached auth.Identity
	if cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	resp, err := apphttp.Post(s.lookupURL()).
		WithContext(ctx).
		Body(map[string]string{"idToken": token}).
		Timeout(5 * time.Second).
		Retry(2, 200*time.Millisecond).
		Send()
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return nil, auth.ErrInvalidToken
	}
	if err := resp.Throw(); err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}

	var body lookupResponse
	if err := resp.JSON(&body); err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	if len(body.Users) == 0 || body.Users[0].LocalID == "" {
		return nil, auth.ErrInvalidToken
	}

	id := &auth.Identity{UserID: body.Users[0].LocalID, Email: body.Users[0].Email}
	if err := cache.Set(ctx, key, id, identityTTL(exp, now)); err != nil {
		logger.WithCtx(ctx).Warn("identity: cache write failed", "error", err)
	}
	return id, nil
}

func (s *IdentityService) lookupURL() string {
	if s.apiKey == "" {
		return s.url
	}
	return s.url + "?key=" + url.QueryEscape(s.apiKey)
}

func identityCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return identityCachePrefix + hex.EncodeToString(sum[:])
}

// identityTTL caches until the token expires, bounded to an hour.
func identityTTL(exp, now time.Time) time.Duration {
	if exp.IsZero() {
		return identityDefaultTTL
	}
	ttl := exp.Sub(now)
	if ttl > identityMaxTTL {
		ttl = identityMaxTTL
	}
	return ttl
}
