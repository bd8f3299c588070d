// Package ctx wraps a request/response pair so handlers take a single
// argument:
//
//	func (pc *ProductController) Show(c *ctx.Context) {
//	    p, err := pc.catalog.Find(c.Context(), c.Param("id"))
//	    ...
//	    c.Success(p)
//	}
//
//	r.Get("/products/{id}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/bind"
	"github.com/mmartin-estofados/storefront/pkg/orm"
	"github.com/mmartin-estofados/storefront/pkg/response"
	"github.com/mmartin-estofados/storefront/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc into an http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context is the per-request handle given to controllers.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request ──────────────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

func (c *Context) Query(key string) string {
	return strings.TrimSpace(c.R.URL.Query().Get(key))
}

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// QueryInt parses an integer query value; malformed or missing values yield def.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// QueryBool accepts "true", "1" and "yes".
func (c *Context) QueryBool(key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Pagination reads ?page= and ?limit=.
func (c *Context) Pagination() orm.Pagination {
	return orm.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", orm.DefaultLimit))
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Identity returns the authenticated caller, or nil.
func (c *Context) Identity() *auth.Identity {
	return auth.FromCtx(c.R.Context())
}

// IsAdmin reports whether the caller is on the admin allow-list.
func (c *Context) IsAdmin() bool {
	id := c.Identity()
	return id != nil && id.Admin
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure the 400 or
// 422 response has already been written and false is returned.
//
//	var in services.OrderInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response ─────────────────────────────────────────────────────────────────

// JSON writes v as-is with the given status code.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

func (c *Context) envelope(body response.Envelope) {
	c.status = body.Status
	response.Write(c.W, body.Status, body)
}

// Success sends a 200 envelope. A nil slice is still encoded as data:null,
// callers that promise a list pass an empty slice.
func (c *Context) Success(data any) {
	c.envelope(response.Envelope{Status: http.StatusOK, Data: data})
}

func (c *Context) Created(data any) {
	c.envelope(response.Envelope{Status: http.StatusCreated, Data: data})
}

// Message sends a 200 envelope with a message and optional data.
func (c *Context) Message(message string, data any) {
	c.envelope(response.Envelope{Status: http.StatusOK, Message: message, Data: data})
}

// Paginated sends a page of items plus its metadata.
func (c *Context) Paginated(items any, p orm.Pagination) {
	c.status = http.StatusOK
	response.Paginated(c.W, items, p)
}

func (c *Context) Error(code int, message string) {
	c.envelope(response.Envelope{Status: code, Message: message})
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.envelope(response.Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func (c *Context) Unauthorized() { c.Error(http.StatusUnauthorized, "Unauthorized") }
func (c *Context) Forbidden()    { c.Error(http.StatusForbidden, "Forbidden") }

// NotFound sends a 404 naming the missing resource.
func (c *Context) NotFound(what string) {
	if what == "" {
		what = "Resource"
	}
	c.Error(http.StatusNotFound, what+" not found")
}

// NoContent writes a bare 204.
func (c *Context) NoContent() {
	c.status = http.StatusNoContent
	c.W.WriteHeader(http.StatusNoContent)
}

// WrittenStatus returns the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
