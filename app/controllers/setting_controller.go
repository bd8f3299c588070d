package controllers

import (
	"encoding/json"

	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

type SettingController struct {
	settings *services.SettingService
}

func NewSettingController(settings *services.SettingService) *SettingController {
	return &SettingController{settings: settings}
}

func (sc *SettingController) Index(c *ctx.Context) {
	all, err := sc.settings.All(c.Context())
	if err != nil {
		degrade(c, err, map[string]json.RawMessage{})
		return
	}
	c.Success(all)
}

// Show answers data:null for a key that was never set.
func (sc *SettingController) Show(c *ctx.Context) {
	value, err := sc.settings.Get(c.Context(), c.Param("key"))
	if err != nil {
		degrade(c, err, nil)
		return
	}
	if value == nil {
		c.Success(nil)
		return
	}
	c.Success(value)
}

// Update stores the body's "value" at the key.
func (sc *SettingController) Update(c *ctx.Context) {
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if !c.BindJSON(&body) {
		return
	}
	setting, err := sc.settings.Put(c.Context(), c.Param("key"), body.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{
		"key":        setting.Key,
		"value":      json.RawMessage(setting.Value),
		"updated_at": setting.UpdatedAt,
	})
}

func (sc *SettingController) Destroy(c *ctx.Context) {
	if err := sc.settings.Delete(c.Context(), c.Param("key")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Setting deleted", nil)
}

// UpdateCredentials stores the gateway access token. The token is never
// echoed back.
func (sc *SettingController) UpdateCredentials(c *ctx.Context) {
	var in services.CredentialsInput
	if !c.BindJSON(&in) {
		return
	}
	if err := sc.settings.SetPaymentCredentials(c.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.Message("Payment credentials saved", nil)
}
