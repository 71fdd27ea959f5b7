package persistence

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/config"
	"github.com/spec-kit/order-service/internal/domain"
)

// IndexSpec is a single-field unique index on a collection.
type IndexSpec struct {
	Collection string
	Field      string
	Name       string
}

// RequiredIndexes lists the indexes the repositories rely on.
func RequiredIndexes(cfg config.MongoConfig) []IndexSpec {
	return []IndexSpec{
		{Collection: cfg.UsersCollection, Field: domain.UserFieldEmail, Name: "uniq_email"},
		{Collection: cfg.ArchiveCollection, Field: domain.ArchiveFieldOriginalID, Name: "uniq_original_id"},
	}
}

// EnsureIndexes creates the unique indexes backing user upserts and
// archive idempotency. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, m *Mongo, specs []IndexSpec, logger *zap.Logger) error {
	if !m.Enabled() {
		logger.Warn("no mongodb connection available; skipping index setup")
		return nil
	}

	for _, spec := range specs {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: spec.Field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(spec.Name),
		}
		logger.Info("ensuring index", zap.String("collection", spec.Collection), zap.String("index", spec.Name))
		if _, err := m.Collection(spec.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s on %s: %w", spec.Name, spec.Collection, err)
		}
	}

	logger.Info("indexes ensured", zap.Int("count", len(specs)))
	return nil
}
