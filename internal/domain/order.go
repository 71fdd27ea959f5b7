package domain

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is a free-form lifecycle marker; callers may set any value.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSold    OrderStatus = "sold"
)

// Document keys of the orders and archive collections.
const (
	OrderFieldID           = "_id"
	OrderFieldCustomerName = "customerName"
	OrderFieldStatus       = "status"
	OrderFieldOrderTime    = "orderTime"
	OrderFieldTotalPay     = "totalPay"
	OrderFieldSeller       = "seller"
	OrderFieldSellTime     = "sellTime"

	ArchiveFieldOriginalID = "originalId"
	ArchiveFieldDeletedAt  = "deletedAt"
)

// Order is an active order. Fields the service does not know about are kept
// in Extra and written back unchanged.
type Order struct {
	ID           string
	CustomerName string
	Status       OrderStatus
	OrderTime    time.Time
	TotalPay     *float64
	Seller       string
	SellTime     *time.Time
	Extra        map[string]any
}

// NewID returns a fresh store identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed store identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// IsKnownOrderField reports whether key maps to a typed Order field.
func IsKnownOrderField(key string) bool {
	switch key {
	case OrderFieldID, "id", OrderFieldCustomerName, OrderFieldStatus, OrderFieldOrderTime,
		OrderFieldTotalPay, OrderFieldSeller, OrderFieldSellTime:
		return true
	}
	return false
}

// Fields flattens the order into a single document, typed fields winning over Extra.
func (o Order) Fields() map[string]any {
	out := make(map[string]any, len(o.Extra)+7)
	for k, v := range o.Extra {
		out[k] = v
	}
	if o.ID != "" {
		out[OrderFieldID] = o.ID
	}
	if o.CustomerName != "" {
		out[OrderFieldCustomerName] = o.CustomerName
	}
	if o.Status != "" {
		out[OrderFieldStatus] = o.Status
	}
	if !o.OrderTime.IsZero() {
		out[OrderFieldOrderTime] = o.OrderTime
	}
	if o.TotalPay != nil {
		out[OrderFieldTotalPay] = *o.TotalPay
	}
	if o.Seller != "" {
		out[OrderFieldSeller] = o.Seller
	}
	if o.SellTime != nil {
		out[OrderFieldSellTime] = *o.SellTime
	}
	return out
}

func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Fields())
}

// UnmarshalJSON accepts both "_id" and "id" as the identifier. A known key
// whose value has an unexpected type is kept in Extra under the same key, so
// no caller field is rejected or dropped.
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Order{}
	extra := make(map[string]any)
	for k, v := range raw {
		if !o.setKnown(k, v) {
			extra[k] = v
		}
	}
	if o.ID == "" {
		if alt, ok := raw["id"].(string); ok {
			o.ID = alt
			delete(extra, "id")
		}
	}
	if len(extra) > 0 {
		o.Extra = extra
	}
	return nil
}

// setKnown assigns v to the typed field for key. It reports false when key is
// not a typed field or v does not fit it.
func (o *Order) setKnown(key string, v any) bool {
	if v == nil {
		return IsKnownOrderField(key)
	}
	switch key {
	case OrderFieldID:
		id, ok := v.(string)
		o.ID = id
		return ok
	case "id":
		_, ok := v.(string)
		return ok
	case OrderFieldCustomerName:
		name, ok := v.(string)
		o.CustomerName = name
		return ok
	case OrderFieldStatus:
		status, ok := v.(string)
		o.Status = OrderStatus(status)
		return ok
	case OrderFieldOrderTime:
		t, ok := parseTime(v)
		o.OrderTime = t
		return ok
	case OrderFieldTotalPay:
		pay, ok := v.(float64)
		if ok {
			o.TotalPay = &pay
		}
		return ok
	case OrderFieldSeller:
		seller, ok := v.(string)
		o.Seller = seller
		return ok
	case OrderFieldSellTime:
		t, ok := parseTime(v)
		if ok {
			o.SellTime = &t
		}
		return ok
	}
	return false
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SaleUpdate is the patch applied when an order is sold or its status changes.
type SaleUpdate struct {
	Status   OrderStatus
	TotalPay *float64
	Seller   string
	SellTime time.Time
}

// ArchivedOrder is the append-only copy of an order removed from the active set.
type ArchivedOrder struct {
	ID         string
	OriginalID string
	DeletedAt  time.Time
	// Order is the snapshot supplied by the caller, without its identifier.
	Order Order
}

// Fields flattens the archive record into a single document.
func (a ArchivedOrder) Fields() map[string]any {
	out := a.Order.Fields()
	delete(out, OrderFieldID)
	if a.ID != "" {
		out[OrderFieldID] = a.ID
	}
	out[ArchiveFieldOriginalID] = a.OriginalID
	out[ArchiveFieldDeletedAt] = a.DeletedAt
	return out
}

func (a ArchivedOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields())
}
