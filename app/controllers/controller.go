// Package controllers adapts HTTP requests to the services in
// app/services. Every handler answers with the JSON envelope of
// pkg/response through pkg/ctx.
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
	"github.com/mmartin-estofados/storefront/pkg/logger"
)

// fail maps a service error onto a response. Errors it does not recognise
// are logged and answered with a generic 500.
func fail(c *ctx.Context, err error) {
	var (
		verr *services.ValidationError
		nf   *services.NotFoundError
		item *services.ItemError
	)

	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.As(err, &nf):
		c.NotFound(nf.What)
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("")
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden()
	case errors.As(err, &item) && errors.Is(err, services.ErrInsufficientStock):
		c.Error(http.StatusConflict, item.Error())
	case errors.As(err, &item):
		c.ValidationError(map[string]string{
			fmt.Sprintf("items.%d.product_id", item.Index): item.Error(),
		})
	case errors.Is(err, services.ErrConflict):
		c.Error(http.StatusConflict, sentence(err, services.ErrConflict))
	case errors.Is(err, services.ErrPaymentNotConfigured),
		errors.Is(err, services.ErrDocumentStoreDisabled):
		c.Error(http.StatusServiceUnavailable, sentence(err, nil))
	case errors.Is(err, services.ErrPaymentGateway):
		logger.WithCtx(c.Context()).Error("payment gateway failed", "error", err)
		c.Error(http.StatusBadGateway, "Payment gateway unavailable, please try again")
	default:
		logger.WithCtx(c.Context()).Error("request failed", "error", err)
		c.Error(http.StatusInternalServerError, "Internal Server Error")
	}
}

// degrade answers a failed read with empty data instead of an error, so a
// storefront page still renders while the store is down. Client errors are
// still reported.
func degrade(c *ctx.Context, err error, empty any) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.ValidationError(verr.Fields)
		return
	}
	logger.WithCtx(c.Context()).Warn("read degraded", "path", c.R.URL.Path, "error", err)
	c.Success(empty)
}

// sentence turns "order is cancelled: conflict" into "Order is cancelled".
func sentence(err, sentinel error) string {
	msg := err.Error()
	if sentinel != nil {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// uintParam parses a numeric path parameter. On failure the 404 has been
// written and ok is false.
func uintParam(c *ctx.Context, key, what string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		c.NotFound(what)
		return 0, false
	}
	return uint(n), true
}
