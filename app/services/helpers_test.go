package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/pkg/database"
	"github.com/mmartin-estofados/storefront/pkg/docstore"
	"github.com/mmartin-estofados/storefront/pkg/migration"
)

// newTestDB returns a migrated in-memory SQLite database private to t.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db).Run(context.Background())
	require.NoError(t, err)
	return db
}

type productOpt func(*models.Product)

func inactive(p *models.Product)  { p.Active = false }
func untracked(p *models.Product) { p.StockManaged = false }

func createProduct(t *testing.T, db *gorm.DB, id, price string, opts ...productOpt) *models.Product {
	t.Helper()

	p := &models.Product{
		ID:           id,
		Name:         "Produto " + id,
		Category:     "sofas",
		Price:        decimal.RequireFromString(price),
		Images:       datatypes.JSONSlice[string]{},
		Features:     datatypes.JSONSlice[string]{},
		Fabrics:      datatypes.JSONSlice[string]{},
		Active:       true,
		StockManaged: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func createStock(t *testing.T, db *gorm.DB, productID string, qty, min int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Stock{ProductID: productID, Quantity: qty, MinQuantity: min}).Error)
}

func stockOf(t *testing.T, db *gorm.DB, productID string) int {
	t.Helper()
	var s models.Stock
	require.NoError(t, db.Where("product_id = ?", productID).First(&s).Error)
	return s.Quantity
}

func customer() models.Customer {
	return models.Customer{
		Name:     "Maria Silva",
		Email:    "maria@example.com",
		Phone:    "11999990000",
		Document: "12345678900",
		Address:  "Rua das Flores, 10",
		City:     "São Paulo",
		State:    "SP",
		Zip:      "01000-000",
	}
}

// memDocuments is an in-memory OrderDocumentStore.
type memDocuments struct {
	mu   sync.Mutex
	docs map[string]*docstore.OrderDocument
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: map[string]*docstore.OrderDocument{}}
}

func (m *memDocuments) InsertOrder(_ context.Context, doc *docstore.OrderDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocuments) MirrorOrder(ctx context.Context, doc *docstore.OrderDocument) error {
	return m.InsertOrder(ctx, doc)
}

func (m *memDocuments) FindOrder(_ context.Context, id string) (*docstore.OrderDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocuments) UpdatePayment(_ context.Context, id string, p docstore.Payment, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	doc.Payment = &p
	if status != "" {
		doc.Status = status
	}
	return nil
}
