package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/storage"
)

func newCatalog(t *testing.T) (*CatalogService, *storage.LocalDisk) {
	t.Helper()
	disk := storage.NewLocalDiskAt(t.TempDir(), "https://cdn.loja.test")
	return NewCatalogService(newTestDB(t), disk, time.Minute), disk
}

func productInput(id string) ProductInput {
	return ProductInput{
		ID:       id,
		Name:     "Sofá " + id,
		Category: "sofas",
		Price:    decimal.RequireFromString("2490.00"),
		Fabrics:  []string{"Linho", " ", "Veludo"},
	}
}

func TestCatalogCreate_WithInitialStock(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	in := productInput("sofa-oslo")
	qty := 7
	in.InitialStock = &qty
	in.MinStock = 2

	p, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, p.Active)
	assert.True(t, p.StockManaged)
	assert.Equal(t, []string{"Linho", "Veludo"}, []string(p.Fabrics))

	row, err := svc.stock.Find(ctx, "sofa-oslo")
	require.NoError(t, err)
	assert.Equal(t, 7, row.Quantity)
	assert.Equal(t, 2, row.MinQuantity)

	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCatalogCreate_Validation(t *testing.T) {
	svc, _ := newCatalog(t)

	in := productInput("Not A Slug")
	in.Price = decimal.Zero
	in.Name = ""

	_, err := svc.Create(context.Background(), in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "id")
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "price")
}

func TestCatalogListFilters(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	a := productInput("sofa-a")
	a.Featured = true
	a.Description = "Sofá retrátil"
	b := productInput("poltrona-b")
	b.Category = "poltronas"
	off := false
	c := productInput("sofa-c")
	c.Active = &off

	for _, in := range []ProductInput{a, b, c} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, repositories.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "sofa-a", all[0].ID)

	sofas, err := svc.List(ctx, repositories.ProductFilter{Category: "sofas", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, sofas, 2)

	featured, err := svc.List(ctx, repositories.ProductFilter{FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, featured, 1)

	found, err := svc.List(ctx, repositories.ProductFilter{Search: "RETRÁTIL"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCatalogUpdateAndDelete(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	in := productInput("sofa-x")
	qty := 3
	in.InitialStock = &qty
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	name := "Sofá X Plus"
	promo := decimal.RequireFromString("2990.00")
	p, err := svc.Update(ctx, "sofa-x", ProductPatch{Name: &name, OriginalPrice: &promo})
	require.NoError(t, err)
	assert.Equal(t, "Sofá X Plus", p.Name)
	assert.True(t, p.OnSale())
	assert.Equal(t, "sofas", p.Category)

	bad := decimal.RequireFromString("-1")
	_, err = svc.Update(ctx, "sofa-x", ProductPatch{Price: &bad})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	require.NoError(t, svc.Delete(ctx, "sofa-x"))
	_, err = svc.Find(ctx, "sofa-x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.stock.Find(ctx, "sofa-x")
	assert.Error(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "sofa-x"), ErrNotFound)
}

func TestCatalogUploadImage(t *testing.T) {
	svc, disk := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, productInput("sofa-img"))
	require.NoError(t, err)

	p, err := svc.UploadImage(ctx, "sofa-img", "image/png", strings.NewReader("\x89PNG fake"))
	require.NoError(t, err)
	require.Len(t, p.Images, 1)
	assert.True(t, strings.HasPrefix(p.Images[0], "https://cdn.loja.test/products/sofa-img/"))
	assert.True(t, strings.HasSuffix(p.Images[0], ".png"))

	key := strings.TrimPrefix(p.Images[0], "https://cdn.loja.test/")
	_, err = os.Stat(filepath.Join(disk.Root(), filepath.FromSlash(key)))
	assert.NoError(t, err)

	_, err = svc.UploadImage(ctx, "sofa-img", "application/pdf", strings.NewReader("%PDF"))
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.UploadImage(ctx, "missing", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}
