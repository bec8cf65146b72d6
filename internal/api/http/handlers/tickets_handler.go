package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fixkit/repair-service/internal/api/dto"
	"github.com/fixkit/repair-service/internal/auth"
	"github.com/fixkit/repair-service/internal/domain"
	"github.com/fixkit/repair-service/internal/lifecycle"
	"github.com/fixkit/repair-service/internal/service"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

// TicketsHandler exposes report intake and ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateReport POST /reports.
func (h *TicketsHandler) CreateReport(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateReport(c.UserContext(), actor, service.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Urgency:     req.Urgency,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.UserContext(), actor, service.TicketListFilter{
		Statuses:    query.Statuses,
		Urgencies:   query.Urgencies,
		AssigneeID:  query.AssigneeID,
		SearchTerm:  query.Search,
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
		Limit:       query.PageSize,
		Offset:      (query.Page - 1) * query.PageSize,
	})
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit := parseInt(c.Query("page_size"), 50)
	page := parseInt(c.Query("page"), 1)
	entries, err := h.service.ListHistory(c.UserContext(), actor, c.Params("id"), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewHistoryEntry(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateFields(c.UserContext(), actor, c.Params("id"), toChanges(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Transition POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TargetStatus == "" {
		return apperrors.NewValidationError("target_status required", nil)
	}
	ticket, err := h.service.Transition(c.UserContext(), actor, c.Params("id"), req.TargetStatus, toChanges(req.ChangeRequest))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), actor, c.Params("id"), req.AssigneeIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Accept POST /tickets/:id/accept.
func (h *TicketsHandler) Accept(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Accept(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Reject POST /tickets/:id/reject.
func (h *TicketsHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Reject(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

func toChanges(req dto.ChangeRequest) lifecycle.Changes {
	return lifecycle.Changes{
		Urgency:           req.Urgency,
		Title:             req.Title,
		Description:       req.Description,
		Location:          req.Location,
		Category:          req.Category,
		Notes:             req.Notes,
		MessageToReporter: req.MessageToReporter,
		Assignees:         req.Assignees,
		ReplaceAssignees:  req.Assignees != nil,
	}
}

func parseTicketQuery(c *fiber.Ctx) dto.TicketListQuery {
	query := dto.TicketListQuery{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			query.Statuses = append(query.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if urgencyStr := c.Query("urgency"); urgencyStr != "" {
		for _, part := range strings.Split(urgencyStr, ",") {
			query.Urgencies = append(query.Urgencies, domain.TicketUrgency(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		if id, err := strconv.ParseInt(assignee, 10, 64); err == nil {
			query.AssigneeID = &id
		}
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		query.Search = &search
	}
	query.CreatedFrom = parseTime(c.Query("created_from"))
	query.CreatedTo = parseTime(c.Query("created_to"))
	query.Page = parseInt(c.Query("page"), 1)
	query.PageSize = parseInt(c.Query("page_size"), 20)
	return query
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
