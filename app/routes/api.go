// Package routes declares the storefront's HTTP surface.
package routes

import (
	"net/http"

	"github.com/mmartin-estofados/storefront/app/controllers"
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
	"github.com/mmartin-estofados/storefront/pkg/middleware"
	"github.com/mmartin-estofados/storefront/pkg/rbac"
	"github.com/mmartin-estofados/storefront/pkg/router"
)

// Deps is what RegisterAPI builds the route table from.
type Deps struct {
	Services *services.Registry
	Health   *controllers.HealthController
	// Live serves the admin order feed. nil leaves the route out.
	Live http.Handler
	// SetupKeyHash is the bcrypt hash accepted by the provisioning routes.
	SetupKeyHash string
}

func RegisterAPI(r *router.Router, d Deps) {
	svc := d.Services

	products := controllers.NewProductController(svc.Catalog)
	stock := controllers.NewStockController(svc.Stock)
	orders := controllers.NewOrderController(svc.Orders)
	payments := controllers.NewPaymentController(svc.Payments)
	settings := controllers.NewSettingController(svc.Settings)
	reviews := controllers.NewReviewController(svc.Reviews)
	kits := controllers.NewCushionKitController(svc.CushionKit)
	setup := controllers.NewSetupController(svc.Setup)
	documents := controllers.NewDocumentOrderController(svc.Documents)

	health := d.Health
	if health == nil {
		health = controllers.NewHealthController(nil, nil)
	}
	r.Get("/health", "health", ctx.Wrap(health.Show))

	api := r.Group("/api")
	user := api.Group("", middleware.RequireUser)
	admin := api.Group("", rbac.Admin)
	provisioning := api.Group("", rbac.AdminOrSetupKey(d.SetupKeyHash))

	// Catalogue
	api.Get("/products", "products.index", ctx.Wrap(products.Index))
	api.Get("/products/{id}", "products.show", ctx.Wrap(products.Show))
	admin.Post("/products", "products.store", ctx.Wrap(products.Store))
	admin.Put("/products/{id}", "products.update", ctx.Wrap(products.Update))
	admin.Patch("/products/{id}", "products.patch", ctx.Wrap(products.Update))
	admin.Delete("/products/{id}", "products.destroy", ctx.Wrap(products.Destroy))
	admin.Post("/products/{id}/images", "products.images", ctx.Wrap(products.UploadImage))

	// Stock
	admin.Get("/stock", "stock.index", ctx.Wrap(stock.Index))
	api.Get("/stock/{productID}", "stock.show", ctx.Wrap(stock.Show))
	admin.Put("/stock/{productID}", "stock.update", ctx.Wrap(stock.Update))
	admin.Post("/stock/{productID}/adjust", "stock.adjust", ctx.Wrap(stock.Adjust))
	admin.Delete("/stock/{productID}", "stock.destroy", ctx.Wrap(stock.Destroy))

	// Orders
	api.Post("/orders", "orders.store", ctx.Wrap(orders.Store))
	admin.Get("/orders", "orders.index", ctx.Wrap(orders.Index))
	user.Get("/orders/mine", "orders.mine", ctx.Wrap(orders.Mine))
	user.Get("/orders/{id}", "orders.show", ctx.Wrap(orders.Show))
	admin.Put("/orders/{id}", "orders.update", ctx.Wrap(orders.Update))
	admin.Patch("/orders/{id}", "orders.patch", ctx.Wrap(orders.Update))
	admin.Delete("/orders/{id}", "orders.destroy", ctx.Wrap(orders.Destroy))
	if d.Live != nil {
		admin.Get("/admin/orders/live", "orders.live", d.Live.ServeHTTP)
	}

	// Payments
	api.Post("/payment", "payment.store", ctx.Wrap(payments.Store))
	api.Post("/payment/webhook", "payment.webhook", ctx.Wrap(payments.Webhook))
	user.Get("/payment/{orderID}", "payment.show", ctx.Wrap(payments.Show))

	// Settings
	api.Get("/settings", "settings.index", ctx.Wrap(settings.Index))
	api.Get("/settings/{key}", "settings.show", ctx.Wrap(settings.Show))
	admin.Put("/settings/payment/credentials", "settings.credentials", ctx.Wrap(settings.UpdateCredentials))
	admin.Put("/settings/{key}", "settings.update", ctx.Wrap(settings.Update))
	admin.Delete("/settings/{key}", "settings.destroy", ctx.Wrap(settings.Destroy))

	// Reviews
	api.Get("/reviews", "reviews.index", ctx.Wrap(reviews.Index))
	api.Get("/reviews/summary", "reviews.summary", ctx.Wrap(reviews.Summary))
	api.Post("/reviews", "reviews.store", ctx.Wrap(reviews.Store))
	admin.Put("/reviews/{id}", "reviews.update", ctx.Wrap(reviews.Update))
	admin.Delete("/reviews/{id}", "reviews.destroy", ctx.Wrap(reviews.Destroy))

	// Cushion kit
	api.Get("/cushion-kit", "cushion_kit.show", ctx.Wrap(kits.Show))
	admin.Put("/cushion-kit", "cushion_kit.update", ctx.Wrap(kits.Save))
	admin.Post("/cushion-kit", "cushion_kit.store", ctx.Wrap(kits.Save))
	admin.Delete("/cushion-kit", "cushion_kit.destroy", ctx.Wrap(kits.Destroy))

	// Provisioning
	provisioning.Post("/init-db", "setup.init_db", ctx.Wrap(setup.InitDB))
	provisioning.Post("/seed-data", "setup.seed", ctx.Wrap(setup.Seed))

	// Document order path
	fn := r.Group("/functions")
	fn.Post("/createOrder", "functions.create_order", ctx.Wrap(documents.CreateOrder))
	fn.Post("/processPayment", "functions.process_payment", ctx.Wrap(documents.ProcessPayment))
	fn.Get("/orders/{id}", "functions.orders.show", ctx.Wrap(documents.Show))
}
