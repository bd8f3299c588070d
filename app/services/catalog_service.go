package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/cache"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/storage"
	"github.com/mmartin-estofados/storefront/pkg/validate"
)

const productsVersionKey = "products:version"

// imageTypes maps accepted upload content types to file extensions.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ProductInput is the body of POST /api/products.
type ProductInput struct {
	ID            string           `json:"id"             validate:"required,slug,max=100"`
	Name          string           `json:"name"           validate:"required,max=255"`
	Category      string           `json:"category"       validate:"required,max=100"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Images        []string         `json:"images"`
	Features      []string         `json:"features"`
	Fabrics       []string         `json:"fabrics"`
	Dimensions    string           `json:"dimensions"     validate:"max=255"`
	Featured      bool             `json:"featured"`
	Active        *bool            `json:"active"`
	IsKit         bool             `json:"is_kit"`
	KitPieces     int              `json:"kit_pieces"     validate:"gte=0"`
	StockManaged  bool             `json:"stock_managed"`
	InitialStock  *int             `json:"initial_stock"  validate:"nullable,gte=0"`
	MinStock      int              `json:"min_stock"      validate:"gte=0"`
}

// Validate checks the tagged fields plus the price rules.
func (in ProductInput) Validate() map[string]string {
	errs := validate.Struct(in)
	if !in.Price.IsPositive() {
		errs["price"] = "The price must be greater than 0."
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		errs["original_price"] = "The original_price may not be negative."
	}
	return errs
}

// ProductPatch is the body of PUT /api/products/{id}. Only fields present
// in the body are changed.
type ProductPatch struct {
	Name          *string          `json:"name"          validate:"nullable,max=255"`
	Category      *string          `json:"category"      validate:"nullable,max=100"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Images        *[]string        `json:"images"`
	Features      *[]string        `json:"features"`
	Fabrics       *[]string        `json:"fabrics"`
	Dimensions    *string          `json:"dimensions"    validate:"nullable,max=255"`
	Featured      *bool            `json:"featured"`
	Active        *bool            `json:"active"`
	IsKit         *bool            `json:"is_kit"`
	KitPieces     *int             `json:"kit_pieces"    validate:"nullable,gte=0"`
	StockManaged  *bool            `json:"stock_managed"`
	// ClearOriginalPrice removes a promotion.
	ClearOriginalPrice bool `json:"clear_original_price"`
}

func (p ProductPatch) Validate() map[string]string {
	errs := validate.Struct(p)
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs["name"] = "The name field is required."
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		errs["category"] = "The category field is required."
	}
	if p.Price != nil && !p.Price.IsPositive() {
		errs["price"] = "The price must be greater than 0."
	}
	return errs
}

func (p ProductPatch) apply(dst *models.Product) {
	if p.Name != nil {
		dst.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		dst.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		dst.OriginalPrice = p.OriginalPrice
	}
	if p.ClearOriginalPrice {
		dst.OriginalPrice = nil
	}
	if p.Images != nil {
		dst.Images = stringSlice(*p.Images)
	}
	if p.Features != nil {
		dst.Features = stringSlice(*p.Features)
	}
	if p.Fabrics != nil {
		dst.Fabrics = stringSlice(*p.Fabrics)
	}
	if p.Dimensions != nil {
		dst.Dimensions = *p.Dimensions
	}
	if p.Featured != nil {
		dst.Featured = *p.Featured
	}
	if p.Active != nil {
		dst.Active = *p.Active
	}
	if p.IsKit != nil {
		dst.IsKit = *p.IsKit
	}
	if p.KitPieces != nil {
		dst.KitPieces = *p.KitPieces
	}
	if p.StockManaged != nil {
		dst.StockManaged = *p.StockManaged
	}
}

func stringSlice(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CatalogService owns products and their images.
type CatalogService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	stock    *repositories.StockRepository
	disk     storage.Disk
	cacheTTL time.Duration
}

func NewCatalogService(db *gorm.DB, disk storage.Disk, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		db:       db,
		products: repositories.NewProductRepository(db),
		stock:    repositories.NewStockRepository(db),
		disk:     disk,
		cacheTTL: cacheTTL,
	}
}

// List returns the catalogue matching f, served from Redis when warm.
// The cache key embeds a generation number that every write bumps.
func (s *CatalogService) List(ctx context.Context, f repositories.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	err := cache.Remember(ctx, s.listKey(ctx, f), "products", s.cacheTTL, &products, func() (interface{}, error) {
		return s.products.List(ctx, f)
	})
	return products, err
}

func (s *CatalogService) listKey(ctx context.Context, f repositories.ProductFilter) string {
	raw := fmt.Sprintf("%s|%s|%t|%t", f.Category, strings.ToLower(strings.TrimSpace(f.Search)), f.FeaturedOnly, f.IncludeInactive)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("products:v%d:%s", cache.Version(ctx, productsVersionKey), hex.EncodeToString(sum[:8]))
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := cache.Bump(ctx, productsVersionKey); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "error", err)
	}
}

// Find returns one product, active or not.
func (s *CatalogService) Find(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Product")
	}
	return p, err
}

// Create inserts a product and, when InitialStock is set, its stock row in
// the same transaction.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if errs := in.Validate(); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := &models.Product{
		ID:            in.ID,
		Name:          strings.TrimSpace(in.Name),
		Category:      strings.TrimSpace(in.Category),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Images:        stringSlice(in.Images),
		Features:      stringSlice(in.Features),
		Fabrics:       stringSlice(in.Fabrics),
		Dimensions:    in.Dimensions,
		Featured:      in.Featured,
		Active:        active,
		IsKit:         in.IsKit,
		KitPieces:     in.KitPieces,
		StockManaged:  in.StockManaged || in.InitialStock != nil,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		exists, err := products.Exists(ctx, p.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("product %q already exists: %w", p.ID, ErrConflict)
		}
		if err := products.Create(ctx, p); err != nil {
			return err
		}
		if in.InitialStock == nil {
			return nil
		}
		return s.stock.WithTx(tx).Upsert(ctx, &models.Stock{
			ProductID:   p.ID,
			Quantity:    *in.InitialStock,
			MinQuantity: in.MinStock,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("catalog: product created", "product_id", p.ID)
	return p, nil
}

// Update applies the fields present in patch.
func (s *CatalogService) Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	if errs := patch.Validate(); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	p, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(p)
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return p, nil
}

// Delete removes the product and its stock row together.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.stock.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		n, err := s.products.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("Product")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// UploadImage stores an image on the configured disk and appends its public
// URL to the product.
func (s *CatalogService) UploadImage(ctx context.Context, id, contentType string, r io.Reader) (*models.Product, error) {
	ext, ok := imageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, invalid("image", "The image must be a JPEG, PNG or WebP file.")
	}

	p, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("products", p.ID, uuid.NewString()+ext)
	if err := s.disk.Put(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	p.Images = append(p.Images, s.disk.URL(key))
	if err := s.products.Save(ctx, p); err != nil {
		if delErr := s.disk.Delete(ctx, key); delErr != nil {
			logger.WithCtx(ctx).Warn("catalog: orphaned image", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.invalidate(ctx)
	return p, nil
}
