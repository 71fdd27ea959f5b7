package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util/errorutil"
)

// OrdersHandler exposes order endpoints.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	var order domain.Order
	if err := c.BodyParser(&order); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	res, err := h.orders.CreateOrder(c.UserContext(), actorEmail(c), order)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// List handles GET /orders?search=.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// Details handles GET /order-details/:id and answers null when nothing matches.
func (h *OrdersHandler) Details(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// Update handles PATCH /update-order.
func (h *OrdersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	res, err := h.orders.UpdateOrder(c.UserContext(), actorEmail(c), service.OrderUpdateInput{
		ID:       req.ID,
		Status:   req.Status,
		TotalPay: req.TotalPay,
		Seller:   req.Seller,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Delete handles POST /delete-request: archive the sale, then remove the order.
func (h *OrdersHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	res, err := h.orders.ArchiveOrder(c.UserContext(), actorEmail(c), req.ID, req.Sale)
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteResponse{Success: true, Result: res})
}

func actorEmail(c *fiber.Ctx) string {
	if identity, ok := auth.IdentityFromContext(c); ok {
		return identity.Email
	}
	return ""
}
