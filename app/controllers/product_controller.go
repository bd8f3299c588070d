package controllers

import (
	"errors"
	"net/http"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

const maxImageBytes = 8 << 20

type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Index lists active products. Admins may pass include_inactive=true.
func (pc *ProductController) Index(c *ctx.Context) {
	products, err := pc.catalog.List(c.Context(), repositories.ProductFilter{
		Category:        c.Query("category"),
		Search:          c.Query("search"),
		FeaturedOnly:    c.QueryBool("featured"),
		IncludeInactive: c.IsAdmin() && c.QueryBool("include_inactive"),
	})
	if err != nil {
		degrade(c, err, []models.Product{})
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.Success(products)
}

func (pc *ProductController) Show(c *ctx.Context) {
	p, err := pc.catalog.Find(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.Create(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}

func (pc *ProductController) Update(c *ctx.Context) {
	var in services.ProductPatch
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	if err := pc.catalog.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Product deleted", nil)
}

// UploadImage stores the multipart "image" field and appends its URL to
// the product.
func (pc *ProductController) UploadImage(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, maxImageBytes)
	if err := c.R.ParseMultipartForm(maxImageBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Error(http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		c.Error(http.StatusBadRequest, "Expected a multipart form")
		return
	}
	defer c.R.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := c.R.FormFile("image")
	if err != nil {
		c.ValidationError(map[string]string{"image": "The image field is required."})
		return
	}
	defer file.Close()

	p, err := pc.catalog.UploadImage(c.Context(), c.Param("id"), header.Header.Get("Content-Type"), file)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}
