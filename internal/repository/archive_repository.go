package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spec-kit/order-service/internal/domain"
)

// ArchiveRepository defines persistence access for archived orders. Records
// are append-only; originalId is unique.
type ArchiveRepository interface {
	// Insert stores archived under a new ID. It returns ErrAlreadyArchived when
	// a record with the same OriginalID exists.
	Insert(ctx context.Context, archived *domain.ArchivedOrder) (domain.InsertResult, error)
	GetByOriginalID(ctx context.Context, originalID string) (*domain.ArchivedOrder, error)
}

type archiveRepository struct {
	collection *mongo.Collection
}

// NewArchiveRepository returns a MongoDB-backed implementation.
func NewArchiveRepository(collection *mongo.Collection) ArchiveRepository {
	return &archiveRepository{collection: collection}
}

func (r *archiveRepository) Insert(ctx context.Context, archived *domain.ArchivedOrder) (domain.InsertResult, error) {
	oid := primitive.NewObjectID()
	doc := archiveToDocument(*archived)
	doc[domain.OrderFieldID] = oid

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.InsertResult{}, ErrAlreadyArchived
		}
		return domain.InsertResult{}, fmt.Errorf("insert archived order: %w", err)
	}
	archived.ID = oid.Hex()
	return domain.InsertResult{Acknowledged: true, InsertedID: archived.ID}, nil
}

func (r *archiveRepository) GetByOriginalID(ctx context.Context, originalID string) (*domain.ArchivedOrder, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{domain.ArchiveFieldOriginalID: originalID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find archived order: %w", err)
	}
	archived := archiveFromDocument(doc)
	return &archived, nil
}
