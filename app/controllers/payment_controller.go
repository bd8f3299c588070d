package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
	"github.com/mmartin-estofados/storefront/pkg/logger"
)

const maxNotificationBytes = 64 << 10

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// Store starts the payment of an order with the chosen method.
func (pc *PaymentController) Store(c *ctx.Context) {
	var in services.PaymentInput
	if !c.BindJSON(&in) {
		return
	}
	result, err := pc.payments.Initiate(c.Context(), in, c.Identity())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(result)
}

func (pc *PaymentController) Show(c *ctx.Context) {
	id, ok := uintParam(c, "orderID", "Order")
	if !ok {
		return
	}
	status, err := pc.payments.Status(c.Context(), id, c.Identity())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(status)
}

// Webhook receives gateway notifications. The gateway sends the topic and
// payment id in the JSON body, the query string, or both.
func (pc *PaymentController) Webhook(c *ctx.Context) {
	n, err := readNotification(c.R)
	if err != nil {
		c.Error(http.StatusBadRequest, "Malformed notification")
		return
	}
	if n.Data.ID == "" {
		logger.WithCtx(c.Context()).Debug("payment: notification without id ignored", "type", n.Type)
		c.Message("Ignored", nil)
		return
	}

	if err := pc.payments.HandleNotification(c.Context(), n); err != nil {
		fail(c, err)
		return
	}
	c.Message("Processed", nil)
}

func readNotification(r *http.Request) (services.Notification, error) {
	var n services.Notification

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		return n, err
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &n); err != nil {
			return n, err
		}
	}

	q := r.URL.Query()
	if n.Type == "" {
		n.Type = q.Get("type")
	}
	if n.Type == "" {
		n.Type = q.Get("topic")
	}
	if n.Data.ID == "" {
		n.Data.ID = q.Get("data.id")
	}
	if n.Data.ID == "" {
		n.Data.ID = q.Get("id")
	}
	return n, nil
}
