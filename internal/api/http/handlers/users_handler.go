package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util/errorutil"
)

// UsersHandler exposes the user registry.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Upsert handles POST /user. The body is stored on first sight; later calls
// only refresh last_loggedIn.
func (h *UsersHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UserUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	outcome, err := h.users.UpsertUser(c.UserContext(), req.Email(), req)
	if err != nil {
		return err
	}
	if outcome.Inserted {
		return c.JSON(outcome.Insert)
	}
	return c.JSON(outcome.Update)
}

// Role handles GET /user/role for the verified caller.
func (h *UsersHandler) Role(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("unauthorized access")
	}

	role, _, err := h.users.GetRole(c.UserContext(), identity.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.RoleResponse{Role: role})
}
