package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/crypt"
	"github.com/mmartin-estofados/storefront/pkg/docstore"
	"github.com/mmartin-estofados/storefront/pkg/event"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
	"github.com/mmartin-estofados/storefront/pkg/validate"
)

// documentRefPrefix marks gateway references that point at a document
// order rather than a relational one.
const documentRefPrefix = "doc:"

// PaymentConfig holds the environment fallbacks of the payment settings.
type PaymentConfig struct {
	GatewayURL      string
	AccessToken     string
	NotificationURL string
	StoreURL        string
	WhatsAppNumber  string
}

// PaymentInput is the body of POST /api/payment.
type PaymentInput struct {
	OrderID uint   `json:"order_id" validate:"required"`
	Method  string `json:"method"   validate:"required,in=whatsapp|mercadopago|pix"`
	// Email must match the customer email of a guest order.
	Email string `json:"email" validate:"nullable,email"`
}

// PaymentResult tells the client where to complete the payment.
type PaymentResult struct {
	OrderID      string `json:"order_id"`
	Method       string `json:"method"`
	Status       string `json:"status"`
	Reference    string `json:"reference,omitempty"`
	URL          string `json:"url,omitempty"`
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
}

// PaymentStatus is the answer of GET /api/payment/{orderID}.
type PaymentStatus struct {
	OrderID     uint   `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	URL         string `json:"url"`
}

// Notification is a gateway webhook body. Only payment notifications are
// acted on.
type Notification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// UnmarshalJSON accepts data.id as a string or a number.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type   string `json:"type"`
		Topic  string `json:"topic"`
		Action string `json:"action"`
		Data   struct {
			ID json.Number `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.Type = raw.Type
	if n.Type == "" {
		n.Type = raw.Topic
	}
	n.Action = raw.Action
	n.Data.ID = raw.Data.ID.String()
	return nil
}

// paymentSettings is the JSON stored at the "payment" setting.
type paymentSettings struct {
	Methods        []string `json:"methods"`
	WhatsAppNumber string   `json:"whatsapp_number"`
}

// paymentCredentials is the JSON stored at "payment.credentials".
type paymentCredentials struct {
	AccessToken string `json:"access_token"`
}

// checkout is what the gateway needs to know about an order, whichever
// store it lives in.
type checkout struct {
	Reference string
	Label     string
	Customer  models.Customer
	Items     []models.OrderItem
	Total     decimal.Decimal
}

type PaymentService struct {
	cfg       PaymentConfig
	orders    *repositories.OrderRepository
	settings  *repositories.SettingRepository
	gateway   *MercadoPago
	documents OrderDocumentStore
	bus       *event.Bus
}

// NewPaymentService wires the gateway client. documents may be nil.
func NewPaymentService(db *gorm.DB, cfg PaymentConfig, documents OrderDocumentStore, bus *event.Bus) *PaymentService {
	s := &PaymentService{
		cfg:       cfg,
		orders:    repositories.NewOrderRepository(db),
		settings:  repositories.NewSettingRepository(db),
		documents: documents,
		bus:       bus,
	}
	s.gateway = NewMercadoPago(strings.TrimRight(cfg.GatewayURL, "/"), s.accessToken)
	return s
}

// accessToken prefers the encrypted credential saved from the admin panel
// and falls back to MP_ACCESS_TOKEN.
func (s *PaymentService) accessToken(ctx context.Context) (string, error) {
	setting, err := s.settings.Find(ctx, models.SettingPaymentCredentials)
	switch {
	case err == nil:
		var creds paymentCredentials
		if err := json.Unmarshal(setting.Value, &creds); err != nil {
			return "", fmt.Errorf("payment credentials: %w", err)
		}
		if creds.AccessToken != "" {
			token, err := crypt.Decrypt(creds.AccessToken)
			if err != nil {
				return "", fmt.Errorf("payment credentials: %w", err)
			}
			return token, nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", err
	}

	if s.cfg.AccessToken == "" {
		return "", ErrPaymentNotConfigured
	}
	return s.cfg.AccessToken, nil
}

func (s *PaymentService) paymentSettings(ctx context.Context) paymentSettings {
	var ps paymentSettings
	setting, err := s.settings.Find(ctx, models.SettingPayment)
	if err == nil {
		if err := json.Unmarshal(setting.Value, &ps); err != nil {
			logger.WithCtx(ctx).Warn("payment: malformed payment setting", "error", err)
		}
	}
	if ps.WhatsAppNumber == "" {
		ps.WhatsAppNumber = s.cfg.WhatsAppNumber
	}
	return ps
}

func (ps paymentSettings) enabled(method string) bool {
	if len(ps.Methods) == 0 {
		return true
	}
	for _, m := range ps.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Initiate starts the payment of a relational order and records the
// gateway reference on it.
func (s *PaymentService) Initiate(ctx context.Context, in PaymentInput, caller *auth.Identity) (*PaymentResult, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	order, err := s.orders.Find(ctx, in.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order")
	}
	if err != nil {
		return nil, err
	}
	if !canPay(order, caller, in.Email) {
		return nil, ErrForbidden
	}
	if err := payable(order.Status); err != nil {
		return nil, err
	}

	result, err := s.charge(ctx, in.Method, checkout{
		Reference: strconv.FormatUint(uint64(order.ID), 10),
		Label:     "#" + strconv.FormatUint(uint64(order.ID), 10),
		Customer:  order.Customer.Data(),
		Items:     order.Items,
		Total:     order.Total,
	})
	if err != nil {
		return nil, err
	}

	err = s.orders.UpdatePayment(ctx, order.ID, map[string]interface{}{
		"payment_method":    result.Method,
		"payment_reference": result.Reference,
		"payment_status":    result.Status,
		"payment_url":       result.URL,
	})
	if err != nil {
		return nil, err
	}

	s.bus.FireAsync(ctx, event.OrderPaymentUpdate, result)
	return result, nil
}

// canPay lets owners and admins pay an order. A guest order has no owner,
// so the caller must name its customer email.
func canPay(o *models.Order, caller *auth.Identity, email string) bool {
	if canSee(o, caller) {
		return true
	}
	if o.UserID != nil {
		return false
	}
	email = strings.TrimSpace(email)
	return email != "" && strings.EqualFold(email, strings.TrimSpace(o.Customer.Data().Email))
}

func payable(status string) error {
	switch status {
	case models.OrderCancelled:
		return fmt.Errorf("order is cancelled: %w", ErrConflict)
	case models.OrderPaid, models.OrderProcessing, models.OrderShipped, models.OrderDelivered:
		return fmt.Errorf("order is already paid: %w", ErrConflict)
	}
	return nil
}

// charge runs one payment method against c.
func (s *PaymentService) charge(ctx context.Context, method string, c checkout) (result *PaymentResult, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.PaymentRequests.WithLabelValues(method, outcome).Inc()
	}()

	ps := s.paymentSettings(ctx)
	if !ps.enabled(method) {
		return nil, fmt.Errorf("%s: %w", method, ErrPaymentNotConfigured)
	}

	switch method {
	case models.PaymentWhatsApp:
		return s.whatsApp(ps.WhatsAppNumber, c)
	case models.PaymentMercadoPago:
		return s.preference(ctx, c)
	case models.PaymentPix:
		return s.pix(ctx, c)
	}
	return nil, invalid("method", "The selected method is invalid.")
}

func (s *PaymentService) whatsApp(number string, c checkout) (*PaymentResult, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return nil, fmt.Errorf("whatsapp number: %w", ErrPaymentNotConfigured)
	}

	return &PaymentResult{
		OrderID: c.Reference,
		Method:  models.PaymentWhatsApp,
		Status:  "awaiting_contact",
		URL:     "https://wa.me/" + digits + "?text=" + url.QueryEscape(whatsAppSummary(c)),
	}, nil
}

func whatsAppSummary(c checkout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá! Gostaria de finalizar o pedido %s.\n\n", c.Label)
	for _, item := range c.Items {
		fmt.Fprintf(&b, "%dx %s", item.Quantity, item.Name)
		if item.Fabric != "" {
			fmt.Fprintf(&b, " (%s", item.Fabric)
			if item.Color != "" {
				fmt.Fprintf(&b, ", %s", item.Color)
			}
			b.WriteString(")")
		}
		fmt.Fprintf(&b, " - %s\n", formatBRL(item.Subtotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s\nNome: %s", formatBRL(c.Total), c.Customer.Name)
	return b.String()
}

func formatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func (s *PaymentService) preference(ctx context.Context, c checkout) (*PaymentResult, error) {
	items := make([]PreferenceItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, PreferenceItem{
			ID:         item.ProductID,
			Title:      item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			CurrencyID: "BRL",
		})
	}

	back := s.cfg.StoreURL + "/pedido/" + url.PathEscape(c.Reference)
	pref, err := s.gateway.CreatePreference(ctx, Preference{
		Items:             items,
		Payer:             Payer{Name: c.Customer.Name, Email: c.Customer.Email},
		ExternalReference: c.Reference,
		BackURLs: BackURLs{
			Success: back + "?status=success",
			Failure: back + "?status=failure",
			Pending: back + "?status=pending",
		},
		AutoReturn:      "approved",
		NotificationURL: s.cfg.NotificationURL,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentResult{
		OrderID:   c.Reference,
		Method:    models.PaymentMercadoPago,
		Status:    "pending",
		Reference: pref.ID,
		URL:       pref.InitPoint,
	}, nil
}

func (s *PaymentService) pix(ctx context.Context, c checkout) (*PaymentResult, error) {
	payer := Payer{Email: c.Customer.Email, FirstName: firstName(c.Customer.Name)}
	if doc := strings.TrimSpace(c.Customer.Document); doc != "" {
		payer.Identification = &Identification{Type: "CPF", Number: doc}
	}

	p, err := s.gateway.CreatePix(ctx, PixCharge{
		TransactionAmount: c.Total,
		Description:       "Pedido " + c.Label,
		Payer:             payer,
		ExternalReference: c.Reference,
		NotificationURL:   s.cfg.NotificationURL,
	})
	if err != nil {
		return nil, err
	}

	td := p.PointOfInteraction.TransactionData
	return &PaymentResult{
		OrderID:      c.Reference,
		Method:       models.PaymentPix,
		Status:       p.Status,
		Reference:    strconv.FormatInt(p.ID, 10),
		URL:          td.TicketURL,
		QRCode:       td.QRCode,
		QRCodeBase64: td.QRCodeBase64,
	}, nil
}

func firstName(full string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first
}

// Status reports the payment state of an order.
func (s *PaymentService) Status(ctx context.Context, orderID uint, caller *auth.Identity) (*PaymentStatus, error) {
	order, err := s.orders.Find(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order")
	}
	if err != nil {
		return nil, err
	}
	if !canSee(order, caller) {
		return nil, ErrForbidden
	}

	return &PaymentStatus{
		OrderID:     order.ID,
		OrderStatus: order.Status,
		Method:      order.PaymentMethod,
		Status:      order.PaymentStatus,
		Reference:   order.PaymentReference,
		URL:         order.PaymentURL,
	}, nil
}

// HandleNotification applies a gateway notification. The payment is
// fetched from the gateway rather than trusting the body; an approved
// payment moves a pending or confirmed order to paid.
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) error {
	if n.Type != "payment" || n.Data.ID == "" {
		return nil
	}

	p, err := s.gateway.GetPayment(ctx, n.Data.ID)
	if err != nil {
		return err
	}
	log := logger.WithCtx(ctx).With("payment_id", p.ID, "payment_status", p.Status, "reference", p.ExternalReference)

	if strings.HasPrefix(p.ExternalReference, documentRefPrefix) {
		return s.applyToDocument(ctx, strings.TrimPrefix(p.ExternalReference, documentRefPrefix), p)
	}

	id, err := strconv.ParseUint(p.ExternalReference, 10, 64)
	if err != nil {
		log.Warn("payment: notification for unknown reference")
		return nil
	}
	order, err := s.orders.Find(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("payment: notification for missing order")
		return nil
	}
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"payment_reference": strconv.FormatInt(p.ID, 10),
		"payment_status":    p.Status,
	}
	if p.Status == "approved" && (order.Status == models.OrderPending || order.Status == models.OrderConfirmed) {
		fields["status"] = models.OrderPaid
	}
	if err := s.orders.UpdatePayment(ctx, order.ID, fields); err != nil {
		return err
	}

	log.Info("payment: notification applied", "order_id", order.ID)
	if to, ok := fields["status"].(string); ok {
		s.bus.FireAsync(ctx, event.OrderStatusChanged, StatusChange{OrderID: order.ID, From: order.Status, To: to})
	}
	return nil
}

func (s *PaymentService) applyToDocument(ctx context.Context, id string, p *Payment) error {
	if s.documents == nil {
		return ErrDocumentStoreDisabled
	}
	doc, err := s.documents.FindOrder(ctx, id)
	if err != nil {
		return err
	}

	block := docstore.Payment{Method: models.PaymentMercadoPago}
	if doc.Payment != nil {
		block = *doc.Payment
	}
	block.Reference = strconv.FormatInt(p.ID, 10)
	block.Status = p.Status

	status := ""
	if p.Status == "approved" && doc.Status == models.OrderPending {
		status = models.OrderPaid
	}
	return s.documents.UpdatePayment(ctx, id, block, status)
}
