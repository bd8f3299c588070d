package controllers

import (
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

// DocumentOrderController serves the /functions endpoints backed by the
// document store.
type DocumentOrderController struct {
	documents *services.DocumentOrderService
}

func NewDocumentOrderController(documents *services.DocumentOrderService) *DocumentOrderController {
	return &DocumentOrderController{documents: documents}
}

func (dc *DocumentOrderController) enabled(c *ctx.Context) bool {
	if !dc.documents.Enabled() {
		fail(c, services.ErrDocumentStoreDisabled)
		return false
	}
	return true
}

func (dc *DocumentOrderController) CreateOrder(c *ctx.Context) {
	if !dc.enabled(c) {
		return
	}
	var in services.OrderInput
	if !c.BindJSON(&in) {
		return
	}

	var userID string
	if id := c.Identity(); id != nil {
		userID = id.UserID
	}
	doc, err := dc.documents.Create(c.Context(), in, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(doc)
}

func (dc *DocumentOrderController) ProcessPayment(c *ctx.Context) {
	if !dc.enabled(c) {
		return
	}
	var in services.DocumentPaymentInput
	if !c.BindJSON(&in) {
		return
	}
	result, err := dc.documents.ProcessPayment(c.Context(), in, c.Identity())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(result)
}

func (dc *DocumentOrderController) Show(c *ctx.Context) {
	if !dc.enabled(c) {
		return
	}
	doc, err := dc.documents.Find(c.Context(), c.Param("id"), c.Identity())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(doc)
}
