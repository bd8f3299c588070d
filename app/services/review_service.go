package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/validate"
)

// ReviewInput is the body of POST /api/reviews.
type ReviewInput struct {
	ProductID  string `json:"product_id"  validate:"required,max=100"`
	AuthorName string `json:"author_name" validate:"required,max=120"`
	Rating     int    `json:"rating"      validate:"required,between=1,5"`
	Comment    string `json:"comment"     validate:"max=2000"`
}

// ReviewPatch is the body of PUT /api/reviews/{id}.
type ReviewPatch struct {
	Approved *bool   `json:"approved"`
	Comment  *string `json:"comment" validate:"nullable,max=2000"`
	Rating   *int    `json:"rating"  validate:"nullable,between=1,5"`
}

type ReviewService struct {
	reviews  *repositories.ReviewRepository
	products *repositories.ProductRepository
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		reviews:  repositories.NewReviewRepository(db),
		products: repositories.NewProductRepository(db),
	}
}

// List returns approved reviews, or every review when includeUnapproved.
func (s *ReviewService) List(ctx context.Context, productID string, includeUnapproved bool) ([]models.Review, error) {
	return s.reviews.List(ctx, productID, includeUnapproved)
}

func (s *ReviewService) Summary(ctx context.Context, productID string) (models.ReviewSummary, error) {
	if productID == "" {
		return models.ReviewSummary{}, invalid("product_id", "The product_id field is required.")
	}
	return s.reviews.Summary(ctx, productID)
}

// Create stores an unapproved review of an existing product.
func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (*models.Review, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	exists, err := s.products.Exists(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, invalid("product_id", "The selected product_id is invalid.")
	}

	rv := &models.Review{
		ProductID:  in.ProductID,
		AuthorName: strings.TrimSpace(in.AuthorName),
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// Update moderates a review.
func (s *ReviewService) Update(ctx context.Context, id uint, in ReviewPatch) (*models.Review, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	rv, err := s.reviews.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Review")
	}
	if err != nil {
		return nil, err
	}

	if in.Approved != nil {
		rv.Approved = *in.Approved
	}
	if in.Comment != nil {
		rv.Comment = strings.TrimSpace(*in.Comment)
	}
	if in.Rating != nil {
		rv.Rating = *in.Rating
	}
	if err := s.reviews.Save(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	n, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Review")
	}
	return nil
}
