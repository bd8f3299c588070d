package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/pkg/auth"
	apphttp "github.com/mmartin-estofados/storefront/pkg/http"
	"github.com/mmartin-estofados/storefront/pkg/testkit"
)

const (
	gatewayURL = "https://mp.test"
	guestEmail = "maria@example.com"
)

func paymentConfig() PaymentConfig {
	return PaymentConfig{
		GatewayURL:      gatewayURL,
		AccessToken:     "TEST-env-token",
		NotificationURL: "https://api.loja.test/api/payment/webhook",
		StoreURL:        "https://loja.test",
		WhatsAppNumber:  "+55 (11) 99999-0000",
	}
}

func mockGateway(t *testing.T, steps ...testkit.MockStep) *testkit.MockTransport {
	t.Helper()
	mt := testkit.NewMockTransport(steps...).Strict()
	apphttp.DefaultClient.Transport = mt
	t.Cleanup(apphttp.ResetTransport)
	return mt
}

func placeOrder(t *testing.T, db *gorm.DB, userID string) *models.Order {
	t.Helper()
	createProduct(t, db, "sofa", "3490.00", untracked)
	order, err := NewOrderService(db, nil).Create(context.Background(), orderInput(line("sofa", 1)), userID)
	require.NoError(t, err)
	return order
}

func TestPaymentInitiate_MercadoPagoPreference(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "")
	mt := mockGateway(t, testkit.Respond("POST", gatewayURL+"/checkout/preferences", 201, map[string]string{
		"id":         "pref-123",
		"init_point": "https://mp.test/checkout?pref_id=pref-123",
	}))

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	res, err := svc.Initiate(context.Background(), PaymentInput{OrderID: order.ID, Method: models.PaymentMercadoPago, Email: guestEmail}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pref-123", res.Reference)
	assert.Equal(t, "https://mp.test/checkout?pref_id=pref-123", res.URL)

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer TEST-env-token", calls[0].Header.Get("Authorization"))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	assert.Equal(t, "1", sent["external_reference"])
	items := sent["items"].([]interface{})
	assert.EqualValues(t, 3490, items[0].(map[string]interface{})["unit_price"])

	stored, err := NewOrderService(db, nil).Find(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pref-123", stored.PaymentReference)
	assert.Equal(t, models.PaymentMercadoPago, stored.PaymentMethod)
	assert.Empty(t, stored.Notes)
}

func TestPaymentInitiate_PixUsesIdempotencyKey(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "")
	mt := mockGateway(t, testkit.Respond("POST", gatewayURL+"/v1/payments", 201, map[string]interface{}{
		"id":     555,
		"status": "pending",
		"point_of_interaction": map[string]interface{}{
			"transaction_data": map[string]string{
				"qr_code":        "00020126...",
				"qr_code_base64": "iVBORw0KGgo=",
				"ticket_url":     "https://mp.test/pix/555",
			},
		},
	}))

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	res, err := svc.Initiate(context.Background(), PaymentInput{OrderID: order.ID, Method: models.PaymentPix, Email: guestEmail}, nil)
	require.NoError(t, err)
	assert.Equal(t, "555", res.Reference)
	assert.Equal(t, "00020126...", res.QRCode)
	assert.Equal(t, "pending", res.Status)

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].Header.Get("X-Idempotency-Key"))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	assert.Equal(t, "pix", sent["payment_method_id"])
}

func TestPaymentInitiate_WhatsAppHandoff(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "")
	mockGateway(t)

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	res, err := svc.Initiate(context.Background(), PaymentInput{OrderID: order.ID, Method: models.PaymentWhatsApp, Email: guestEmail}, nil)
	require.NoError(t, err)

	u, err := url.Parse(res.URL)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5511999990000", u.Path)
	assert.Contains(t, u.Query().Get("text"), "Produto sofa")
	assert.Contains(t, u.Query().Get("text"), "R$ 3490,00")
}

func TestPaymentInitiate_Guards(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "owner")
	mockGateway(t)
	ctx := context.Background()

	cfg := paymentConfig()
	cfg.AccessToken = ""
	svc := NewPaymentService(db, cfg, nil, nil)

	_, err := svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: models.PaymentPix}, &auth.Identity{UserID: "intruder"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: models.PaymentPix}, &auth.Identity{UserID: "owner"})
	assert.ErrorIs(t, err, ErrPaymentNotConfigured)

	_, err = svc.Initiate(ctx, PaymentInput{OrderID: 404, Method: models.PaymentPix}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: "boleto"}, nil)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestPaymentInitiate_GuestOrderNeedsCustomerEmail(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "")
	mockGateway(t)
	ctx := context.Background()
	svc := NewPaymentService(db, paymentConfig(), nil, nil)

	for _, email := range []string{"", "outro@example.com"} {
		_, err := svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: models.PaymentWhatsApp, Email: email}, nil)
		assert.ErrorIs(t, err, ErrForbidden, email)
	}

	_, err := svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: models.PaymentWhatsApp}, &auth.Identity{UserID: "someone"})
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: models.PaymentWhatsApp, Email: " Maria@Example.com "}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.URL, "wa.me")

	_, err = svc.Initiate(ctx, PaymentInput{OrderID: order.ID, Method: models.PaymentWhatsApp}, &auth.Identity{UserID: "uid-admin", Admin: true})
	assert.NoError(t, err)
}

func TestPaymentInitiate_GatewayFailure(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "")
	mockGateway(t, testkit.Respond("POST", gatewayURL+"/checkout/preferences", 400, map[string]string{"message": "invalid payer"}))

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	_, err := svc.Initiate(context.Background(), PaymentInput{OrderID: order.ID, Method: models.PaymentMercadoPago, Email: guestEmail}, nil)
	assert.ErrorIs(t, err, ErrPaymentGateway)
}

func TestPaymentAccessToken_PrefersStoredCredential(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "")
	mt := mockGateway(t, testkit.Respond("POST", gatewayURL+"/checkout/preferences", 201, map[string]string{"id": "p", "init_point": "x"}))

	require.NoError(t, NewSettingService(db).SetPaymentCredentials(context.Background(), CredentialsInput{AccessToken: "APP_USR-stored"}))

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	_, err := svc.Initiate(context.Background(), PaymentInput{OrderID: order.ID, Method: models.PaymentMercadoPago, Email: guestEmail}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer APP_USR-stored", mt.Calls()[0].Header.Get("Authorization"))
}

func TestPaymentNotification_ApprovedMarksOrderPaid(t *testing.T) {
	db := newTestDB(t)
	order := placeOrder(t, db, "owner")
	mockGateway(t, testkit.Respond("GET", gatewayURL+"/v1/payments/777", 200, map[string]interface{}{
		"id":                 777,
		"status":             "approved",
		"external_reference": "1",
	}))

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","data":{"id":777}}`), &n))
	assert.Equal(t, "777", n.Data.ID)

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	require.NoError(t, svc.HandleNotification(context.Background(), n))

	status, err := svc.Status(context.Background(), order.ID, &auth.Identity{UserID: "owner"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, status.OrderStatus)
	assert.Equal(t, "approved", status.Status)
	assert.Equal(t, "777", status.Reference)
}

func TestPaymentNotification_RejectedKeepsOrderStatus(t *testing.T) {
	for _, gatewayStatus := range []string{"rejected", "cancelled"} {
		t.Run(gatewayStatus, func(t *testing.T) {
			db := newTestDB(t)
			order := placeOrder(t, db, "owner")
			mockGateway(t, testkit.Respond("GET", gatewayURL+"/v1/payments/778", 200, map[string]interface{}{
				"id":                 778,
				"status":             gatewayStatus,
				"external_reference": "1",
			}))

			n := Notification{Type: "payment"}
			n.Data.ID = "778"
			svc := NewPaymentService(db, paymentConfig(), nil, nil)
			require.NoError(t, svc.HandleNotification(context.Background(), n))

			status, err := svc.Status(context.Background(), order.ID, &auth.Identity{UserID: "owner"})
			require.NoError(t, err)
			assert.Equal(t, models.OrderPending, status.OrderStatus)
			assert.Equal(t, gatewayStatus, status.Status)
			assert.Equal(t, "778", status.Reference)
		})
	}
}

func TestPaymentNotification_IgnoresOtherTopics(t *testing.T) {
	db := newTestDB(t)
	mt := mockGateway(t)

	svc := NewPaymentService(db, paymentConfig(), nil, nil)
	require.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "merchant_order"}))
	assert.Empty(t, mt.Calls())
}

func TestPaymentNotification_DocumentOrder(t *testing.T) {
	db := newTestDB(t)
	createProduct(t, db, "sofa", "100.00")
	docs := newMemDocuments()
	payments := NewPaymentService(db, paymentConfig(), docs, nil)
	doc, err := NewDocumentOrderService(db, docs, payments).Create(context.Background(), orderInput(line("sofa", 1)), "")
	require.NoError(t, err)

	mockGateway(t, testkit.Respond("GET", gatewayURL+"/v1/payments/9", 200, map[string]interface{}{
		"id":                 9,
		"status":             "approved",
		"external_reference": documentRefPrefix + doc.ID,
	}))

	n := Notification{Type: "payment"}
	n.Data.ID = "9"
	require.NoError(t, payments.HandleNotification(context.Background(), n))

	stored, err := docs.FindOrder(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, "9", stored.Payment.Reference)
}
