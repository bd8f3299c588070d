package ctx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/pkg/auth"
	appctx "github.com/mmartin-estofados/storefront/pkg/ctx"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Success([]string{})
	})(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, 200, env.Status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestNullDataIsEncoded(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) { c.Success(nil) })(rec, req)

	assert.Contains(t, rec.Body.String(), `"data":null`)
}

func TestParamAndQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "abc", c.Param("id"))
		assert.Equal(t, 3, c.QueryInt("page", 1))
		assert.Equal(t, 20, c.QueryInt("limit", 20))
		assert.True(t, c.QueryBool("all"))
		assert.Equal(t, "pending", c.DefaultQuery("status", "pending"))
		c.NoContent()
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/abc?page=3&limit=x&all=1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBindJSONValid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Sofá Lisboa","price":1899.9}`))

	appctx.Wrap(func(c *appctx.Context) {
		var in struct {
			Name  string  `json:"name"  validate:"required"`
			Price float64 `json:"price" validate:"gt=0"`
		}
		require.True(t, c.BindJSON(&in))
		assert.Equal(t, "Sofá Lisboa", in.Name)
		c.Created(in)
	})(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBindJSONValidationFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))

	appctx.Wrap(func(c *appctx.Context) {
		var in struct {
			Name string `json:"name" validate:"required"`
		}
		assert.False(t, c.BindJSON(&in))
		assert.Equal(t, http.StatusUnprocessableEntity, c.WrittenStatus())
	})(rec, req)

	env := decode(t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "name")
}

func TestBindJSONMalformed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))

	appctx.Wrap(func(c *appctx.Context) {
		var in map[string]any
		assert.False(t, c.BindJSON(&in))
	})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBindJSONEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	appctx.Wrap(func(c *appctx.Context) {
		var in map[string]any
		assert.False(t, c.BindJSON(&in))
	})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Message, "empty")
}

func TestIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "u1", Admin: true}))

	appctx.Wrap(func(c *appctx.Context) {
		require.NotNil(t, c.Identity())
		assert.Equal(t, "u1", c.Identity().UserID)
		assert.True(t, c.IsAdmin())
		c.NotFound("Order")
	})(rec, req)

	assert.Equal(t, "Order not found", decode(t, rec).Message)
}
