package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/response"
)

// IdentityResolver turns a bearer token into the caller's identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

// Authenticate resolves the bearer token, if any, and stores the identity in
// the request context, flagging admins from the allow-list. Requests with a
// missing or rejected token continue anonymously; RequireUser and the rbac
// guards decide what anonymous callers may reach.
func Authenticate(resolver IdentityResolver, admins auth.AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log := logger.WithCtx(r.Context())
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
					log.Debug("auth: token rejected", "error", err)
				} else {
					log.Warn("auth: identity lookup failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			id.Admin = admins.Contains(id.Email)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireUser answers 401 unless Authenticate resolved an identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromCtx(r.Context()) == nil {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
