// Package docstore keeps order documents in MongoDB. It backs the
// /functions/* order path and mirrors relational orders for reporting.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("docstore: document not found")

const ordersCollection = "orders"

// Item is one order line. Money is kept as a decimal string so that no
// precision is lost in BSON.
type Item struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name"       json:"name"`
	Price     string `bson:"price"      json:"price"`
	Quantity  int    `bson:"quantity"   json:"quantity"`
	Fabric    string `bson:"fabric,omitempty" json:"fabric,omitempty"`
	Color     string `bson:"color,omitempty"  json:"color,omitempty"`
}

// Customer mirrors the checkout contact details.
type Customer struct {
	Name     string `bson:"name"     json:"name"`
	Email    string `bson:"email"    json:"email"`
	Phone    string `bson:"phone"    json:"phone"`
	Document string `bson:"document" json:"document"`
	Address  string `bson:"address"  json:"address"`
	City     string `bson:"city"     json:"city"`
	State    string `bson:"state"    json:"state"`
	Zip      string `bson:"zip"      json:"zip"`
}

// Payment holds the gateway side of an order.
type Payment struct {
	Method    string    `bson:"method"     json:"method"`
	Reference string    `bson:"reference"  json:"reference"`
	Status    string    `bson:"status"     json:"status"`
	URL       string    `bson:"url"        json:"url"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OrderDocument is one order in the orders collection.
type OrderDocument struct {
	ID         string    `bson:"_id"                    json:"id"`
	SQLOrderID uint      `bson:"sql_order_id,omitempty" json:"sql_order_id,omitempty"`
	Customer   Customer  `bson:"customer"               json:"customer"`
	Items      []Item    `bson:"items"                  json:"items"`
	Total      string    `bson:"total"                  json:"total"`
	Status     string    `bson:"status"                 json:"status"`
	Payment    *Payment  `bson:"payment,omitempty"      json:"payment"`
	UserID     string    `bson:"user_id,omitempty"      json:"user_id,omitempty"`
	CreatedAt  time.Time `bson:"created_at"             json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"             json:"updated_at"`
}

// Store is a connected order document store.
type Store struct {
	client *mongo.Client
	orders *mongo.Collection
}

// Connect dials uri, pings it and ensures the collection indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("docstore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}

	orders := client.Database(database).Collection(ordersCollection)
	_, err = orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "payment.reference", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("docstore: create indexes: %w", err)
	}

	return &Store{client: client, orders: orders}, nil
}

// Ping checks the connection. Used by /health.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// InsertOrder stores a new document. doc.ID must be set.
func (s *Store) InsertOrder(ctx context.Context, doc *OrderDocument) error {
	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("docstore: insert %s: %w", doc.ID, err)
	}
	return nil
}

// MirrorOrder inserts or replaces doc, keyed by its id.
func (s *Store) MirrorOrder(ctx context.Context, doc *OrderDocument) error {
	_, err := s.orders.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("docstore: mirror %s: %w", doc.ID, err)
	}
	return nil
}

// FindOrder returns the document with id or ErrNotFound.
func (s *Store) FindOrder(ctx context.Context, id string) (*OrderDocument, error) {
	var doc OrderDocument
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: find %s: %w", id, err)
	}
	return &doc, nil
}

// UpdatePayment replaces the payment block of id. A non-empty status also
// updates the order status.
func (s *Store) UpdatePayment(ctx context.Context, id string, p Payment, status string) error {
	now := time.Now().UTC()
	p.UpdatedAt = now

	set := bson.M{"payment": p, "updated_at": now}
	if status != "" {
		set["status"] = status
	}

	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("docstore: update payment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
