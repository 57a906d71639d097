package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{collection: db.Collection("orders")}
}

func (m *mongoOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"order_id": externalID})
}

func (m *mongoOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"checkout_session_id": sessionID})
}

func (m *mongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (m *mongoOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) SetCheckoutSession(ctx context.Context, externalID, provider, sessionID string) error {
	update := bson.M{"$set": bson.M{
		"payment_provider":    provider,
		"checkout_session_id": sessionID,
		"updated_at":          time.Now(),
	}}
	res, err := m.collection.UpdateOne(ctx, bson.M{"order_id": externalID}, update)
	if err != nil {
		return fmt.Errorf("failed to set checkout session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkPaid transitions an order from PENDING to PAID. The status filter makes
// the write conditional, so only one of several racing webhook deliveries
// observes updated == true.
func (m *mongoOrderRepository) MarkPaid(ctx context.Context, externalID, paymentID string, paidAt time.Time) (bool, error) {
	filter := bson.M{
		"order_id":       externalID,
		"payment_status": domain.PaymentStatusPending,
	}
	update := bson.M{"$set": bson.M{
		"payment_status": domain.PaymentStatusPaid,
		"payment_id":     paymentID,
		"paid_at":        paidAt,
		"updated_at":     time.Now(),
	}}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (m *mongoOrderRepository) SetStatus(ctx context.Context, externalID string, from, to domain.PaymentStatus) (bool, error) {
	filter := bson.M{
		"order_id":       externalID,
		"payment_status": from,
	}
	update := bson.M{"$set": bson.M{
		"payment_status": to,
		"updated_at":     time.Now(),
	}}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// MarkEmailSent records the confirmation-email marker at most once.
func (m *mongoOrderRepository) MarkEmailSent(ctx context.Context, externalID string, at time.Time) (bool, error) {
	filter := bson.M{
		"order_id":      externalID,
		"email_sent_at": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"email_sent_at": at,
		"updated_at":    time.Now(),
	}}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark email sent: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (m *mongoOrderRepository) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	filter := bson.M{
		"payment_status": domain.PaymentStatusPending,
		"created_at":     bson.M{"$lt": olderThan},
	}
	update := bson.M{"$set": bson.M{
		"payment_status": domain.PaymentStatusExpired,
		"updated_at":     time.Now(),
	}}
	res, err := m.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending orders: %w", err)
	}
	return res.ModifiedCount, nil
}
