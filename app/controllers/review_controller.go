package controllers

import (
	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// Index lists approved reviews. Admins pass all=true for the moderation
// queue.
func (rc *ReviewController) Index(c *ctx.Context) {
	reviews, err := rc.reviews.List(c.Context(), c.Query("product_id"), c.IsAdmin() && c.QueryBool("all"))
	if err != nil {
		degrade(c, err, []models.Review{})
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	c.Success(reviews)
}

func (rc *ReviewController) Summary(c *ctx.Context) {
	summary, err := rc.reviews.Summary(c.Context(), c.Query("product_id"))
	if err != nil {
		degrade(c, err, models.ReviewSummary{ProductID: c.Query("product_id")})
		return
	}
	c.Success(summary)
}

func (rc *ReviewController) Store(c *ctx.Context) {
	var in services.ReviewInput
	if !c.BindJSON(&in) {
		return
	}
	review, err := rc.reviews.Create(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(review)
}

func (rc *ReviewController) Update(c *ctx.Context) {
	id, ok := uintParam(c, "id", "Review")
	if !ok {
		return
	}
	var in services.ReviewPatch
	if !c.BindJSON(&in) {
		return
	}
	review, err := rc.reviews.Update(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(review)
}

func (rc *ReviewController) Destroy(c *ctx.Context) {
	id, ok := uintParam(c, "id", "Review")
	if !ok {
		return
	}
	if err := rc.reviews.Delete(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Message("Review deleted", nil)
}
