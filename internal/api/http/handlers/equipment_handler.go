package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixkit/repair-service/internal/api/dto"
	"github.com/fixkit/repair-service/internal/auth"
	"github.com/fixkit/repair-service/internal/domain"
	"github.com/fixkit/repair-service/internal/repository"
	"github.com/fixkit/repair-service/internal/service"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

// EquipmentHandler exposes the equipment catalog and loan endpoints.
type EquipmentHandler struct {
	service *service.LoanService
}

// NewEquipmentHandler constructs handler.
func NewEquipmentHandler(loanService *service.LoanService) *EquipmentHandler {
	return &EquipmentHandler{service: loanService}
}

// CreateItem POST /equipment.
func (h *EquipmentHandler) CreateItem(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.service.RegisterItem(c.UserContext(), actor, service.EquipmentInput{
		Name:      req.Name,
		AssetCode: req.AssetCode,
		Category:  req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEquipmentItem(item)})
}

// ListItems GET /equipment.
func (h *EquipmentHandler) ListItems(c *fiber.Ctx) error {
	var status *domain.EquipmentStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		value := domain.EquipmentStatus(raw)
		status = &value
	}
	limit := parseInt(c.Query("page_size"), 50)
	page := parseInt(c.Query("page"), 1)
	items, err := h.service.ListItems(c.UserContext(), status, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	responses := make([]dto.EquipmentItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.NewEquipmentItem(&items[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// GetItem GET /equipment/:id.
func (h *EquipmentHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEquipmentItem(item)})
}

// Checkout POST /loans.
func (h *EquipmentHandler) Checkout(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ItemID == "" || req.BorrowerID == 0 {
		return apperrors.NewValidationError("item_id and borrower_id required", nil)
	}
	loan, err := h.service.Checkout(c.UserContext(), actor, service.CheckoutInput{
		ItemID:     req.ItemID,
		BorrowerID: req.BorrowerID,
		DueAt:      req.DueAt,
		Note:       req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewLoan(loan)})
}

// Return POST /loans/:id/return.
func (h *EquipmentHandler) Return(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	loan, err := h.service.Return(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLoan(loan)})
}

// GetLoan GET /loans/:id.
func (h *EquipmentHandler) GetLoan(c *fiber.Ctx) error {
	loan, err := h.service.GetLoan(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLoan(loan)})
}

// ListLoans GET /loans.
func (h *EquipmentHandler) ListLoans(c *fiber.Ctx) error {
	filter := repository.LoanFilter{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if borrower := c.Query("borrower_id"); borrower != "" {
		if id, err := strconv.ParseInt(borrower, 10, 64); err == nil {
			filter.BorrowerID = &id
		}
	}
	if item := strings.TrimSpace(c.Query("item_id")); item != "" {
		filter.ItemID = &item
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.LoanStatus(strings.TrimSpace(part)))
		}
	}
	loans, err := h.service.ListLoans(c.UserContext(), filter)
	if err != nil {
		return err
	}
	responses := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, dto.NewLoan(&loans[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}
