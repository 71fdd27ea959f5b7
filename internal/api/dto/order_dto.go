package dto

import (
	"github.com/spec-kit/order-service/internal/domain"
)

// UpdateOrderRequest is the PATCH /update-order payload.
type UpdateOrderRequest struct {
	ID       string             `json:"id"`
	Status   domain.OrderStatus `json:"status"`
	TotalPay *float64           `json:"totalPay"`
	Seller   string             `json:"seller"`
}

// DeleteRequest is the POST /delete-request payload. Sale is the order as
// the client last saw it and becomes the archived copy.
type DeleteRequest struct {
	ID   string       `json:"id"`
	Sale domain.Order `json:"sale"`
}

// DeleteResponse reports a completed archive-and-delete.
type DeleteResponse struct {
	Success bool                `json:"success"`
	Result  domain.InsertResult `json:"result"`
}
