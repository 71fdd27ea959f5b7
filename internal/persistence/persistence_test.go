package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/config"
)

func TestNewMongo_DisabledWithoutURI(t *testing.T) {
	m, err := NewMongo(context.Background(), config.MongoConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, m.Enabled())
	assert.Error(t, m.Ping(context.Background()))
	assert.NoError(t, m.Close(context.Background()))
	assert.NoError(t, EnsureIndexes(context.Background(), m, RequiredIndexes(config.MongoConfig{}), zap.NewNop()))
}

func TestRequiredIndexes(t *testing.T) {
	specs := RequiredIndexes(config.MongoConfig{UsersCollection: "users", ArchiveCollection: "deletedOrder"})

	require.Len(t, specs, 2)
	assert.Equal(t, IndexSpec{Collection: "users", Field: "email", Name: "uniq_email"}, specs[0])
	assert.Equal(t, IndexSpec{Collection: "deletedOrder", Field: "originalId", Name: "uniq_original_id"}, specs[1])
}

func TestNewRedis_DisabledWithoutAddr(t *testing.T) {
	r := NewRedis(config.RedisConfig{}, zap.NewNop())

	assert.False(t, r.Enabled())
	assert.ErrorIs(t, r.Ping(context.Background()), errRedisDisabled)
	assert.ErrorIs(t, r.Publish(context.Background(), "orders.events", []byte("{}")), errRedisDisabled)
	r.Close()
}
