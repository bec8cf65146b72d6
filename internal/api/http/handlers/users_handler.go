package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixkit/repair-service/internal/api/dto"
	"github.com/fixkit/repair-service/internal/service"
)

// UsersHandler exposes the read-only user directory.
type UsersHandler struct {
	service *service.TicketService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(ticketService *service.TicketService) *UsersHandler {
	return &UsersHandler{service: ticketService}
}

// ListTechnicians GET /users/technicians. Backs the assignment picker.
func (h *UsersHandler) ListTechnicians(c *fiber.Ctx) error {
	technicians, err := h.service.ListTechnicians(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserSummary, 0, len(technicians))
	for i := range technicians {
		items = append(items, dto.NewUserSummary(&technicians[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
