package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/order-service/internal/domain"
)

// UserRepository defines persistence access for registered users.
type UserRepository interface {
	// UpsertByEmail inserts user if no record has its email, otherwise only
	// refreshes last_loggedIn. Both happen in one store operation.
	UpsertByEmail(ctx context.Context, user *domain.User, now time.Time) (domain.UpdateResult, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository returns a MongoDB-backed implementation.
func NewUserRepository(collection *mongo.Collection) UserRepository {
	return &userRepository{collection: collection}
}

func (r *userRepository) UpsertByEmail(ctx context.Context, user *domain.User, now time.Time) (domain.UpdateResult, error) {
	onInsert := bson.M{}
	for k, v := range user.Profile {
		if !domain.IsReservedUserField(k) {
			onInsert[k] = v
		}
	}
	onInsert[domain.UserFieldCreatedAt] = now
	onInsert[domain.UserFieldRole] = string(domain.UserRoleCustomer)

	filter := bson.M{domain.UserFieldEmail: user.Email}
	update := bson.M{
		"$set":         bson.M{domain.UserFieldLastLoggedIn: now},
		"$setOnInsert": onInsert,
	}
	opts := options.Update().SetUpsert(true)

	res, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert for the same email won the insert; ours becomes the refresh.
		res, err = r.collection.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("upsert user: %w", err)
	}
	return toUpdateResult(res), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{domain.UserFieldEmail: email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return userFromDocument(doc), nil
}
