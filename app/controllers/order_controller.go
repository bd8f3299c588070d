package controllers

import (
	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Store places an order. Signed-in callers become its owner.
func (oc *OrderController) Store(c *ctx.Context) {
	var in services.OrderInput
	if !c.BindJSON(&in) {
		return
	}

	var userID string
	if id := c.Identity(); id != nil {
		userID = id.UserID
	}

	order, err := oc.orders.Create(c.Context(), in, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(order)
}

func (oc *OrderController) Index(c *ctx.Context) {
	p := c.Pagination()
	orders, page, err := oc.orders.List(c.Context(), c.Query("status"), p)
	if err != nil {
		degrade(c, err, map[string]any{"items": []models.Order{}, "pagination": p})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.Paginated(orders, page)
}

func (oc *OrderController) Mine(c *ctx.Context) {
	orders, err := oc.orders.ListMine(c.Context(), c.Identity())
	if err != nil {
		degrade(c, err, []models.Order{})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.Success(orders)
}

func (oc *OrderController) Show(c *ctx.Context) {
	id, ok := uintParam(c, "id", "Order")
	if !ok {
		return
	}
	order, err := oc.orders.FindFor(c.Context(), id, c.Identity())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) Update(c *ctx.Context) {
	id, ok := uintParam(c, "id", "Order")
	if !ok {
		return
	}
	var in services.OrderUpdate
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.Update(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) Destroy(c *ctx.Context) {
	id, ok := uintParam(c, "id", "Order")
	if !ok {
		return
	}
	if err := oc.orders.Delete(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Message("Order deleted", nil)
}
