package controllers

import (
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

type SetupController struct {
	setup *services.SetupService
}

func NewSetupController(setup *services.SetupService) *SetupController {
	return &SetupController{setup: setup}
}

func (sc *SetupController) InitDB(c *ctx.Context) {
	ran, err := sc.setup.InitDB(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if ran == nil {
		ran = []string{}
	}
	c.Message("Database ready", map[string]any{"migrations": ran})
}

func (sc *SetupController) Seed(c *ctx.Context) {
	created, err := sc.setup.Seed(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Seed complete", map[string]any{"created": created})
}
