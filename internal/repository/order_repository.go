package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spec-kit/order-service/internal/domain"
)

// OrderRepository defines persistence access for active orders.
type OrderRepository interface {
	// Create stores order and assigns its ID.
	Create(ctx context.Context, order *domain.Order) (domain.InsertResult, error)
	// Search returns orders whose customerName contains term, ignoring case.
	// An empty term returns every order.
	Search(ctx context.Context, term string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (domain.UpdateResult, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
}

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository returns a MongoDB-backed implementation.
func NewOrderRepository(collection *mongo.Collection) OrderRepository {
	return &orderRepository{collection: collection}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) (domain.InsertResult, error) {
	oid := primitive.NewObjectID()
	doc := orderToDocument(*order)
	doc[domain.OrderFieldID] = oid

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return domain.InsertResult{}, fmt.Errorf("insert order: %w", err)
	}
	order.ID = oid.Hex()
	return domain.InsertResult{Acknowledged: true, InsertedID: order.ID}, nil
}

func (r *orderRepository) Search(ctx context.Context, term string) ([]domain.Order, error) {
	filter := bson.M{}
	if term != "" {
		filter[domain.OrderFieldCustomerName] = bson.M{
			"$regex":   regexp.QuoteMeta(term),
			"$options": "i",
		}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, orderFromDocument(doc))
	}
	return orders, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc bson.M
	if err := r.collection.FindOne(ctx, bson.M{domain.OrderFieldID: oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	order := orderFromDocument(doc)
	return &order, nil
}

func (r *orderRepository) UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (domain.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.UpdateResult{}, ErrInvalidID
	}

	var totalPay any
	if update.TotalPay != nil {
		totalPay = *update.TotalPay
	}
	patch := bson.M{"$set": bson.M{
		domain.OrderFieldTotalPay: totalPay,
		domain.OrderFieldStatus:   string(update.Status),
		domain.OrderFieldSeller:   update.Seller,
		domain.OrderFieldSellTime: update.SellTime,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{domain.OrderFieldID: oid}, patch)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update order: %w", err)
	}
	return toUpdateResult(res), nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.DeleteResult{}, ErrInvalidID
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{domain.OrderFieldID: oid})
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete order: %w", err)
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
