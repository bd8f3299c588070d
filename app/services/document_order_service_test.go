package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/pkg/auth"
)

func TestDocumentOrders_Disabled(t *testing.T) {
	db := newTestDB(t)
	svc := NewDocumentOrderService(db, nil, NewPaymentService(db, paymentConfig(), nil, nil))

	assert.False(t, svc.Enabled())
	_, err := svc.Create(context.Background(), orderInput(line("sofa", 1)), "")
	assert.ErrorIs(t, err, ErrDocumentStoreDisabled)
	_, err = svc.Find(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrDocumentStoreDisabled)
}

func TestDocumentOrders_CreateFindPay(t *testing.T) {
	db := newTestDB(t)
	createProduct(t, db, "sofa", "3490.00")
	createStock(t, db, "sofa", 1, 0)
	docs := newMemDocuments()
	svc := NewDocumentOrderService(db, docs, NewPaymentService(db, paymentConfig(), docs, nil))
	ctx := context.Background()
	mockGateway(t)

	doc, err := svc.Create(ctx, orderInput(line("sofa", 2)), "uid-7")
	require.NoError(t, err)
	assert.Len(t, doc.ID, 36)
	assert.Equal(t, "6980.00", doc.Total)
	assert.Equal(t, models.OrderPending, doc.Status)
	assert.Equal(t, 1, stockOf(t, db, "sofa"), "document orders do not touch stock")

	_, err = svc.Find(ctx, doc.ID, &auth.Identity{UserID: "other"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Find(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := svc.ProcessPayment(ctx, DocumentPaymentInput{OrderID: doc.ID, Method: models.PaymentWhatsApp}, &auth.Identity{UserID: "uid-7"})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, res.OrderID)
	assert.Contains(t, res.URL, "https://wa.me/5511999990000")

	stored, err := svc.Find(ctx, doc.ID, &auth.Identity{UserID: "admin", Admin: true})
	require.NoError(t, err)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, models.PaymentWhatsApp, stored.Payment.Method)
}

func TestDocumentOrders_MirrorListener(t *testing.T) {
	db := newTestDB(t)
	docs := newMemDocuments()
	svc := NewDocumentOrderService(db, docs, nil)

	uid := "uid-1"
	o := &models.Order{
		ID:               12,
		Status:           models.OrderPending,
		Total:            decimal.RequireFromString("100.5"),
		PaymentMethod:    models.PaymentPix,
		PaymentReference: "555",
		UserID:           &uid,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	require.NoError(t, svc.MirrorListener(context.Background(), o))
	require.NoError(t, svc.MirrorListener(context.Background(), "not an order"))

	doc, err := docs.FindOrder(context.Background(), "sql-12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), doc.SQLOrderID)
	assert.Equal(t, "100.50", doc.Total)
	assert.Equal(t, "uid-1", doc.UserID)
	require.NotNil(t, doc.Payment)
	assert.Equal(t, "555", doc.Payment.Reference)
}
