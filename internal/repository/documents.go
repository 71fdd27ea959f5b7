package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spec-kit/order-service/internal/domain"
)

func orderToDocument(order domain.Order) bson.M {
	doc := bson.M{}
	for k, v := range order.Fields() {
		doc[k] = v
	}
	delete(doc, domain.OrderFieldID)
	if order.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(order.ID); err == nil {
			doc[domain.OrderFieldID] = oid
		}
	}
	if order.Status != "" {
		doc[domain.OrderFieldStatus] = string(order.Status)
	}
	return doc
}

// orderFromDocument maps typed fields when the stored value has the expected
// type; anything else, including mistyped known keys, lands in Extra.
func orderFromDocument(doc bson.M) domain.Order {
	var order domain.Order
	extra := map[string]any{}

	for k, v := range doc {
		switch k {
		case domain.OrderFieldID:
			order.ID = idString(v)
			continue
		case domain.OrderFieldCustomerName:
			if s, ok := v.(string); ok {
				order.CustomerName = s
				continue
			}
		case domain.OrderFieldStatus:
			if s, ok := v.(string); ok {
				order.Status = domain.OrderStatus(s)
				continue
			}
		case domain.OrderFieldOrderTime:
			if t, ok := toTime(v); ok {
				order.OrderTime = t
				continue
			}
		case domain.OrderFieldTotalPay:
			if f, ok := toFloat(v); ok {
				order.TotalPay = &f
				continue
			}
			if v == nil {
				continue
			}
		case domain.OrderFieldSeller:
			if s, ok := v.(string); ok {
				order.Seller = s
				continue
			}
			if v == nil {
				continue
			}
		case domain.OrderFieldSellTime:
			if t, ok := toTime(v); ok {
				order.SellTime = &t
				continue
			}
		}
		extra[k] = normalize(v)
	}

	if len(extra) > 0 {
		order.Extra = extra
	}
	return order
}

func archiveToDocument(archived domain.ArchivedOrder) bson.M {
	snapshot := archived.Order
	snapshot.ID = ""
	doc := orderToDocument(snapshot)
	doc[domain.ArchiveFieldOriginalID] = archived.OriginalID
	doc[domain.ArchiveFieldDeletedAt] = archived.DeletedAt
	return doc
}

func archiveFromDocument(doc bson.M) domain.ArchivedOrder {
	var archived domain.ArchivedOrder
	rest := bson.M{}
	for k, v := range doc {
		switch k {
		case domain.OrderFieldID:
			archived.ID = idString(v)
		case domain.ArchiveFieldOriginalID:
			archived.OriginalID = idString(v)
		case domain.ArchiveFieldDeletedAt:
			archived.DeletedAt, _ = toTime(v)
		default:
			rest[k] = v
		}
	}
	archived.Order = orderFromDocument(rest)
	return archived
}

func userFromDocument(doc bson.M) *domain.User {
	user := &domain.User{}
	profile := map[string]any{}

	for k, v := range doc {
		switch k {
		case domain.UserFieldID:
			user.ID = idString(v)
		case domain.UserFieldEmail:
			user.Email, _ = v.(string)
		case domain.UserFieldRole:
			role, _ := v.(string)
			user.Role = domain.UserRole(role)
		case domain.UserFieldCreatedAt:
			user.CreatedAt, _ = toTime(v)
		case domain.UserFieldLastLoggedIn:
			user.LastLoggedIn, _ = toTime(v)
		default:
			profile[k] = normalize(v)
		}
	}

	if len(profile) > 0 {
		user.Profile = profile
	}
	return user
}

func toUpdateResult(res *mongo.UpdateResult) domain.UpdateResult {
	out := domain.UpdateResult{Acknowledged: true}
	if res == nil {
		return out
	}
	out.MatchedCount = res.MatchedCount
	out.ModifiedCount = res.ModifiedCount
	out.UpsertedCount = res.UpsertedCount
	if res.UpsertedID != nil {
		id := idString(res.UpsertedID)
		out.UpsertedID = &id
	}
	return out
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	}
	return ""
}

// toTime accepts BSON dates and the ISO-8601 strings written by earlier
// versions of the service.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// normalize converts driver-specific values into plain Go values so they
// render as ordinary JSON.
func normalize(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, elem := range val {
			out[elem.Key] = normalize(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
