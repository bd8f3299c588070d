package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/docstore"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
	"github.com/mmartin-estofados/storefront/pkg/validate"
)

// OrderDocumentStore is the subset of *docstore.Store the services use.
type OrderDocumentStore interface {
	InsertOrder(ctx context.Context, doc *docstore.OrderDocument) error
	MirrorOrder(ctx context.Context, doc *docstore.OrderDocument) error
	FindOrder(ctx context.Context, id string) (*docstore.OrderDocument, error)
	UpdatePayment(ctx context.Context, id string, p docstore.Payment, status string) error
}

// DocumentPaymentInput is the body of POST /functions/processPayment.
type DocumentPaymentInput struct {
	OrderID string `json:"order_id" validate:"required,max=64"`
	Method  string `json:"method"   validate:"required,in=whatsapp|mercadopago|pix"`
}

// DocumentOrderService is the order path backed by the document store.
// Prices are checked against the relational catalogue; stock is not
// touched.
type DocumentOrderService struct {
	store    OrderDocumentStore
	products *repositories.ProductRepository
	payments *PaymentService
}

// NewDocumentOrderService returns a service whose calls fail with
// ErrDocumentStoreDisabled when store is nil.
func NewDocumentOrderService(db *gorm.DB, store OrderDocumentStore, payments *PaymentService) *DocumentOrderService {
	return &DocumentOrderService{
		store:    store,
		products: repositories.NewProductRepository(db),
		payments: payments,
	}
}

// Enabled reports whether a document store is configured.
func (s *DocumentOrderService) Enabled() bool { return s.store != nil }

// Create validates and prices in, then stores it as a pending document.
func (s *DocumentOrderService) Create(ctx context.Context, in OrderInput, userID string) (*docstore.OrderDocument, error) {
	if s.store == nil {
		return nil, ErrDocumentStoreDisabled
	}
	if errs := in.Validate(); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for i, line := range in.Items {
		p, err := s.products.Find(ctx, line.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.Active) {
			return nil, &ItemError{Err: ErrInvalidItem, Index: i, ProductID: line.ProductID, Name: line.Name}
		}
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  line.Quantity,
			Fabric:    strings.TrimSpace(line.Fabric),
			Color:     strings.TrimSpace(line.Color),
		})
	}

	now := time.Now().UTC()
	doc := &docstore.OrderDocument{
		ID:        uuid.NewString(),
		Customer:  toDocCustomer(in.Customer),
		Items:     toDocItems(items),
		Total:     orderTotal(items).StringFixed(2),
		Status:    models.OrderPending,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertOrder(ctx, doc); err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues("document").Inc()
	logger.WithCtx(ctx).Info("order: document created", "order_id", doc.ID, "total", doc.Total)
	return doc, nil
}

// Find returns a document order the caller may see. Orders placed
// anonymously are readable by anyone holding their id.
func (s *DocumentOrderService) Find(ctx context.Context, id string, caller *auth.Identity) (*docstore.OrderDocument, error) {
	if s.store == nil {
		return nil, ErrDocumentStoreDisabled
	}
	doc, err := s.store.FindOrder(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, notFound("Order")
	}
	if err != nil {
		return nil, err
	}
	if doc.UserID != "" && (caller == nil || (!caller.Admin && caller.UserID != doc.UserID)) {
		return nil, ErrForbidden
	}
	return doc, nil
}

// ProcessPayment charges a document order through the same gateway client
// as relational orders and stores the result on the document.
func (s *DocumentOrderService) ProcessPayment(ctx context.Context, in DocumentPaymentInput, caller *auth.Identity) (*PaymentResult, error) {
	if s.store == nil {
		return nil, ErrDocumentStoreDisabled
	}
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	doc, err := s.Find(ctx, in.OrderID, caller)
	if err != nil {
		return nil, err
	}
	if err := payable(doc.Status); err != nil {
		return nil, err
	}

	items, total, err := fromDocItems(doc.Items)
	if err != nil {
		return nil, err
	}
	result, err := s.payments.charge(ctx, in.Method, checkout{
		Reference: documentRefPrefix + doc.ID,
		Label:     shortID(doc.ID),
		Customer:  fromDocCustomer(doc.Customer),
		Items:     items,
		Total:     total,
	})
	if err != nil {
		return nil, err
	}
	result.OrderID = doc.ID

	block := docstore.Payment{
		Method:    result.Method,
		Reference: result.Reference,
		Status:    result.Status,
		URL:       result.URL,
	}
	if err := s.store.UpdatePayment(ctx, doc.ID, block, ""); err != nil {
		return nil, err
	}
	return result, nil
}

// MirrorListener is the event.OrderCreated listener that copies relational
// orders into the document store.
func (s *DocumentOrderService) MirrorListener(ctx context.Context, payload interface{}) error {
	o, ok := payload.(*models.Order)
	if !ok || s.store == nil {
		return nil
	}
	return s.store.MirrorOrder(ctx, MirrorDocument(o))
}

// MirrorDocument converts a relational order into its mirrored document.
func MirrorDocument(o *models.Order) *docstore.OrderDocument {
	doc := &docstore.OrderDocument{
		ID:         "sql-" + strconv.FormatUint(uint64(o.ID), 10),
		SQLOrderID: o.ID,
		Customer:   toDocCustomer(o.Customer.Data()),
		Items:      toDocItems(o.Items),
		Total:      o.Total.StringFixed(2),
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if o.UserID != nil {
		doc.UserID = *o.UserID
	}
	if o.PaymentReference != "" {
		doc.Payment = &docstore.Payment{
			Method:    o.PaymentMethod,
			Reference: o.PaymentReference,
			Status:    o.PaymentStatus,
			URL:       o.PaymentURL,
			UpdatedAt: o.UpdatedAt,
		}
	}
	return doc
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func toDocItems(items []models.OrderItem) []docstore.Item {
	out := make([]docstore.Item, 0, len(items))
	for _, item := range items {
		out = append(out, docstore.Item{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.StringFixed(2),
			Quantity:  item.Quantity,
			Fabric:    item.Fabric,
			Color:     item.Color,
		})
	}
	return out
}

func fromDocItems(items []docstore.Item) ([]models.OrderItem, decimal.Decimal, error) {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, decimal.Zero, err
		}
		out = append(out, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
			Fabric:    item.Fabric,
			Color:     item.Color,
		})
	}
	return out, orderTotal(out), nil
}

func toDocCustomer(c models.Customer) docstore.Customer {
	return docstore.Customer(c)
}

func fromDocCustomer(c docstore.Customer) models.Customer {
	return models.Customer(c)
}
