package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmartin-estofados/storefront/pkg/auth"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func request(id *auth.Identity, setupKey string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/init-db", nil)
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), id))
	}
	if setupKey != "" {
		req.Header.Set(SetupKeyHeader, setupKey)
	}
	return req
}

func serve(h http.Handler, r *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Code
}

func TestAdmin(t *testing.T) {
	h := Admin(ok)

	assert.Equal(t, http.StatusUnauthorized, serve(h, request(nil, "")))
	assert.Equal(t, http.StatusForbidden, serve(h, request(&auth.Identity{UserID: "u"}, "")))
	assert.Equal(t, http.StatusOK, serve(h, request(&auth.Identity{UserID: "a", Admin: true}, "")))
}

func TestAdminOrSetupKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	h := AdminOrSetupKey(string(hash))(ok)

	assert.Equal(t, http.StatusOK, serve(h, request(nil, "s3cret")))
	assert.Equal(t, http.StatusUnauthorized, serve(h, request(nil, "wrong")))
	assert.Equal(t, http.StatusForbidden, serve(h, request(&auth.Identity{UserID: "u"}, "")))
	assert.Equal(t, http.StatusOK, serve(h, request(&auth.Identity{UserID: "a", Admin: true}, "")))
}

func TestAdminOrSetupKey_EmptyHashDisablesKey(t *testing.T) {
	h := AdminOrSetupKey("")(ok)
	assert.Equal(t, http.StatusUnauthorized, serve(h, request(nil, "anything")))
}
