package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apphttp "github.com/mmartin-estofados/storefront/pkg/http"
)

// MercadoPago is the payment gateway client. Every call resolves the
// access token first, so a credential rotated in settings takes effect on
// the next request.
type MercadoPago struct {
	baseURL string
	token   func(ctx context.Context) (string, error)
}

func NewMercadoPago(baseURL string, token func(ctx context.Context) (string, error)) *MercadoPago {
	return &MercadoPago{baseURL: baseURL, token: token}
}

type PreferenceItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id"`
}

type Payer struct {
	Name           string          `json:"name,omitempty"`
	FirstName      string          `json:"first_name,omitempty"`
	Email          string          `json:"email"`
	Identification *Identification `json:"identification,omitempty"`
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type Preference struct {
	Items             []PreferenceItem `json:"items"`
	Payer             Payer            `json:"payer"`
	ExternalReference string           `json:"external_reference"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

type PreferenceResult struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type PixCharge struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Description       string          `json:"description"`
	PaymentMethodID   string          `json:"payment_method_id"`
	Payer             Payer           `json:"payer"`
	ExternalReference string          `json:"external_reference"`
	NotificationURL   string          `json:"notification_url,omitempty"`
}

// Payment is the part of a gateway payment the storefront reads.
type Payment struct {
	ID                 int64  `json:"id"`
	Status             string `json:"status"`
	StatusDetail       string `json:"status_detail"`
	ExternalReference  string `json:"external_reference"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePreference starts a redirect checkout.
func (m *MercadoPago) CreatePreference(ctx context.Context, pref Preference) (*PreferenceResult, error) {
	var out PreferenceResult
	if err := m.call(ctx, apphttp.Post(m.baseURL+"/checkout/preferences").Body(pref), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePix creates a PIX charge. The idempotency key makes the gateway
// collapse retried attempts into one charge.
func (m *MercadoPago) CreatePix(ctx context.Context, charge PixCharge) (*Payment, error) {
	charge.PaymentMethodID = "pix"
	req := apphttp.Post(m.baseURL+"/v1/payments").
		Header("X-Idempotency-Key", uuid.NewString()).
		Body(charge)

	var out Payment
	if err := m.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment fetches a payment by gateway id.
func (m *MercadoPago) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var out Payment
	if err := m.call(ctx, apphttp.Get(m.baseURL+"/v1/payments/"+url.PathEscape(id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MercadoPago) call(ctx context.Context, req *apphttp.Request, out interface{}) error {
	token, err := m.token(ctx)
	if err != nil {
		return err
	}

	resp, err := req.WithContext(ctx).
		Bearer(token).
		Timeout(10*time.Second).
		Retry(3, 300*time.Millisecond).
		Send()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return nil
}
