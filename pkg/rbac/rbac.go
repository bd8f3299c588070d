// Package rbac guards admin-only routes. The storefront has two roles:
// customers (any resolved identity) and admins (identities whose email is
// on the ADMIN_EMAILS allow-list).
package rbac

import (
	"net/http"

	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/response"
)

// SetupKeyHeader carries the provisioning key accepted by AdminOrSetupKey.
const SetupKeyHeader = "X-Setup-Key"

// Admin answers 401 for anonymous callers and 403 for non-admins.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.FromCtx(r.Context())
		switch {
		case id == nil:
			response.Unauthorized(w)
		case !id.Admin:
			response.Forbidden(w)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// AdminOrSetupKey lets admins through, and also anonymous callers that
// present the setup key matching hash. It is used on init-db and
// seed-data so a fresh deployment can be provisioned before any admin
// account exists.
func AdminOrSetupKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := auth.FromCtx(r.Context()); id != nil && id.Admin {
				next.ServeHTTP(w, r)
				return
			}
			if auth.CheckSetupKey(hash, r.Header.Get(SetupKeyHeader)) {
				next.ServeHTTP(w, r)
				return
			}
			if auth.FromCtx(r.Context()) == nil {
				response.Unauthorized(w)
				return
			}
			response.Forbidden(w)
		})
	}
}
