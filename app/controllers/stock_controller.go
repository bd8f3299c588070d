package controllers

import (
	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

type StockController struct {
	stock *services.StockService
}

func NewStockController(stock *services.StockService) *StockController {
	return &StockController{stock: stock}
}

func (sc *StockController) Index(c *ctx.Context) {
	levels, err := sc.stock.Levels(c.Context())
	if err != nil {
		degrade(c, err, []models.StockLevel{})
		return
	}
	c.Success(levels)
}

// Show is public: the storefront uses it to disable the buy button.
func (sc *StockController) Show(c *ctx.Context) {
	row, err := sc.stock.Find(c.Context(), c.Param("productID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(row)
}

func (sc *StockController) Update(c *ctx.Context) {
	var in services.StockInput
	if !c.BindJSON(&in) {
		return
	}
	row, err := sc.stock.Set(c.Context(), c.Param("productID"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(row)
}

func (sc *StockController) Adjust(c *ctx.Context) {
	var in services.AdjustInput
	if !c.BindJSON(&in) {
		return
	}
	row, err := sc.stock.Adjust(c.Context(), c.Param("productID"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(row)
}

func (sc *StockController) Destroy(c *ctx.Context) {
	if err := sc.stock.Delete(c.Context(), c.Param("productID")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Stock deleted", nil)
}
