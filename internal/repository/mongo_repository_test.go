package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/spec-kit/order-service/internal/domain"
)

const duplicateKeyCode = 11000

func newMockMongo(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    duplicateKeyCode,
		Message: "E11000 duplicate key error",
	})
}

func emptyCursor(mt *mtest.T) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch)
}

func decodeRaw(t *testing.T, raw bson.Raw) bson.M {
	t.Helper()
	var out bson.M
	require.NoError(t, bson.Unmarshal(raw, &out))
	return out
}

func TestUserRepository_UpsertByEmail(t *testing.T) {
	mt := newMockMongo(t)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	user := &domain.User{
		Email: "a@x.com",
		Profile: map[string]any{
			"name":          "Ann",
			"role":          "admin",
			"_id":           "forged",
			"created_at":    "yesterday",
			"last_loggedIn": "never",
		},
	}

	mt.Run("sends set and setOnInsert as one upsert", func(mt *mtest.T) {
		upsertedID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: upsertedID}}}},
		))

		res, err := NewUserRepository(mt.Coll).UpsertByEmail(context.Background(), user, now)
		require.NoError(t, err)
		assert.True(t, res.Inserted())
		require.NotNil(t, res.UpsertedID)
		assert.Equal(t, upsertedID.Hex(), *res.UpsertedID)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "update", evt.CommandName)
		cmd := evt.Command

		assert.Equal(t, "a@x.com", cmd.Lookup("updates", "0", "q", "email").StringValue())
		assert.True(t, cmd.Lookup("updates", "0", "upsert").Boolean())
		assert.Equal(t, now.UnixMilli(), cmd.Lookup("updates", "0", "u", "$set", "last_loggedIn").DateTime())
		assert.Len(t, decodeRaw(t, cmd.Lookup("updates", "0", "u", "$set").Document()), 1)

		onInsert := decodeRaw(t, cmd.Lookup("updates", "0", "u", "$setOnInsert").Document())
		assert.Equal(t, bson.M{
			"name":       "Ann",
			"role":       "customer",
			"created_at": primitive.NewDateTimeFromTime(now),
		}, onInsert)
	})

	mt.Run("retries once after a concurrent insert", func(mt *mtest.T) {
		mt.AddMockResponses(
			duplicateKeyResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		res, err := NewUserRepository(mt.Coll).UpsertByEmail(context.Background(), user, now)
		require.NoError(t, err)
		assert.False(t, res.Inserted())
		assert.Equal(t, int64(1), res.MatchedCount)
		assert.Equal(t, int64(1), res.ModifiedCount)

		events := mt.GetAllStartedEvents()
		require.Len(t, events, 2)
		for _, evt := range events {
			assert.Equal(t, "update", evt.CommandName)
			assert.True(t, evt.Command.Lookup("updates", "0", "upsert").Boolean())
		}
		assert.Equal(t,
			decodeRaw(t, events[0].Command.Lookup("updates", "0", "u").Document()),
			decodeRaw(t, events[1].Command.Lookup("updates", "0", "u").Document()))
	})

	mt.Run("gives up after the second duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyResponse(), duplicateKeyResponse())

		_, err := NewUserRepository(mt.Coll).UpsertByEmail(context.Background(), user, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upsert user")
		assert.Len(t, mt.GetAllStartedEvents(), 2)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("found", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "email", Value: "a@x.com"},
			{Key: "role", Value: "customer"},
			{Key: "name", Value: "Ann"},
		}))

		user, err := NewUserRepository(mt.Coll).GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, oid.Hex(), user.ID)
		assert.Equal(t, domain.UserRoleCustomer, user.Role)
		assert.Equal(t, "Ann", user.Profile["name"])

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "a@x.com", evt.Command.Lookup("filter", "email").StringValue())
	})

	mt.Run("missing maps to not found", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(mt))

		_, err := NewUserRepository(mt.Coll).GetByEmail(context.Background(), "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderRepository_Search(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("empty term sends an empty filter", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "customerName", Value: "Ann"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "customerName", Value: "Bob"}},
		))

		orders, err := NewOrderRepository(mt.Coll).Search(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, orders, 2)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "find", evt.CommandName)
		assert.Empty(t, decodeRaw(t, evt.Command.Lookup("filter").Document()))
	})

	mt.Run("term is quoted and case insensitive", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(mt))

		orders, err := NewOrderRepository(mt.Coll).Search(context.Background(), "a.b(")
		require.NoError(t, err)
		assert.Empty(t, orders)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		filter := evt.Command.Lookup("filter", "customerName")
		assert.Equal(t, `a\.b\(`, filter.Document().Lookup("$regex").StringValue())
		assert.Equal(t, "i", filter.Document().Lookup("$options").StringValue())
	})
}

func TestOrderRepository_CreateAndUpdate(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("create assigns an object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		order := &domain.Order{
			CustomerName: "Ann",
			Status:       domain.OrderStatusPending,
			Extra:        map[string]any{"note": "fragile"},
		}
		res, err := NewOrderRepository(mt.Coll).Create(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, order.ID, res.InsertedID)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "insert", evt.CommandName)
		doc := evt.Command.Lookup("documents", "0")
		assert.Equal(t, order.ID, doc.Document().Lookup("_id").ObjectID().Hex())
		assert.Equal(t, "Ann", doc.Document().Lookup("customerName").StringValue())
		assert.Equal(t, "fragile", doc.Document().Lookup("note").StringValue())
	})

	mt.Run("update sale sets the sale fields by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		oid := primitive.NewObjectID()
		pay := 120.5
		sellTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		res, err := NewOrderRepository(mt.Coll).UpdateSale(context.Background(), oid.Hex(), domain.SaleUpdate{
			TotalPay: &pay,
			Status:   domain.OrderStatusSold,
			Seller:   "s@x.com",
			SellTime: sellTime,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ModifiedCount)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		cmd := evt.Command
		assert.Equal(t, oid, cmd.Lookup("updates", "0", "q", "_id").ObjectID())
		set := cmd.Lookup("updates", "0", "u", "$set").Document()
		assert.Equal(t, 120.5, set.Lookup("totalPay").Double())
		assert.Equal(t, "sold", set.Lookup("status").StringValue())
		assert.Equal(t, "s@x.com", set.Lookup("seller").StringValue())
		assert.Equal(t, sellTime.UnixMilli(), set.Lookup("sellTime").DateTime())
	})
}

func TestOrderRepository_GetByID(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("malformed id is rejected before any command", func(mt *mtest.T) {
		_, err := NewOrderRepository(mt.Coll).GetByID(context.Background(), "not-an-id")
		assert.ErrorIs(t, err, ErrInvalidID)
		assert.Empty(t, mt.GetAllStartedEvents())
	})

	mt.Run("missing maps to not found", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(mt))

		oid := primitive.NewObjectID()
		_, err := NewOrderRepository(mt.Coll).GetByID(context.Background(), oid.Hex())
		assert.ErrorIs(t, err, ErrNotFound)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, oid, evt.Command.Lookup("filter", "_id").ObjectID())
	})
}

func TestArchiveRepository(t *testing.T) {
	mt := newMockMongo(t)
	archived := func() *domain.ArchivedOrder {
		return &domain.ArchivedOrder{
			OriginalID: primitive.NewObjectID().Hex(),
			DeletedAt:  time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC),
			Order:      domain.Order{ID: "ignored", CustomerName: "Ann"},
		}
	}

	mt.Run("insert stores originalId under a fresh id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		record := archived()
		res, err := NewArchiveRepository(mt.Coll).Insert(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, record.ID, res.InsertedID)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		doc := evt.Command.Lookup("documents", "0").Document()
		assert.Equal(t, record.ID, doc.Lookup("_id").ObjectID().Hex())
		assert.Equal(t, record.OriginalID, doc.Lookup("originalId").StringValue())
		assert.Equal(t, "Ann", doc.Lookup("customerName").StringValue())
	})

	mt.Run("duplicate originalId maps to already archived", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyResponse())

		_, err := NewArchiveRepository(mt.Coll).Insert(context.Background(), archived())
		assert.ErrorIs(t, err, ErrAlreadyArchived)
	})

	mt.Run("missing maps to not found", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(mt))

		_, err := NewArchiveRepository(mt.Coll).GetByOriginalID(context.Background(), "abc")
		assert.ErrorIs(t, err, ErrNotFound)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "abc", evt.Command.Lookup("filter", "originalId").StringValue())
	})
}
