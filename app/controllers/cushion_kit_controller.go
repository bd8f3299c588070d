package controllers

import (
	"encoding/json"

	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

type CushionKitController struct {
	kits *services.CushionKitService
}

func NewCushionKitController(kits *services.CushionKitService) *CushionKitController {
	return &CushionKitController{kits: kits}
}

func (kc *CushionKitController) Show(c *ctx.Context) {
	cfg, err := kc.kits.Get(c.Context())
	if err != nil {
		degrade(c, err, nil)
		return
	}
	if cfg == nil {
		c.Success(nil)
		return
	}
	c.Success(cfg)
}

// Save replaces the kit configuration with the request body.
func (kc *CushionKitController) Save(c *ctx.Context) {
	var body json.RawMessage
	if !c.BindJSON(&body) {
		return
	}
	cfg, err := kc.kits.Put(c.Context(), body)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cfg)
}

func (kc *CushionKitController) Destroy(c *ctx.Context) {
	if err := kc.kits.Delete(c.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Message("Cushion kit reset", nil)
}
