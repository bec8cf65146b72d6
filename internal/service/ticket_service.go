package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fixkit/repair-service/internal/cache"
	"github.com/fixkit/repair-service/internal/domain"
	"github.com/fixkit/repair-service/internal/events"
	"github.com/fixkit/repair-service/internal/lifecycle"
	"github.com/fixkit/repair-service/internal/repository"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

// TicketService is the single mutation path for tickets: it loads a snapshot,
// asks the lifecycle engine for a decision, and commits the result under
// optimistic concurrency. On a CONFLICT the caller reloads and retries; the
// engine operations are safe to re-run against a fresh snapshot.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.HistoryRepository
	users      repository.UserRepository
	snapshots  *cache.TicketCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.HistoryRepository
	UserRepo    repository.UserRepository
	Cache       *cache.TicketCache
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		snapshots:  deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ReportInput describes a report submission.
type ReportInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	Urgency     domain.TicketUrgency
}

// TicketListFilter describes listing parameters before actor scoping.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Urgencies   []domain.TicketUrgency
	AssigneeID  *int64
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CreateReport files a new repair report as a PENDING ticket.
func (s *TicketService) CreateReport(ctx context.Context, actor lifecycle.Actor, input ReportInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = domain.UrgencyNormal
	}
	if !domain.KnownUrgency(urgency) {
		return nil, apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": urgency})
	}

	ticket := &domain.Ticket{
		TicketCode:  generateTicketCode(),
		ReporterID:  actor.UserID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Category:    strings.TrimSpace(input.Category),
		Status:      domain.TicketStatusPending,
		Urgency:     urgency,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			TicketCode: ticket.TicketCode,
			Title:      ticket.Title,
			Urgency:    ticket.Urgency,
			ReporterID: ticket.ReporterID,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket the actor is allowed to see.
func (s *TicketService) GetTicket(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleUser && ticket.ReporterID != actor.UserID {
		return nil, rejectionUnauthorized("reporter may only view own tickets")
	}
	return ticket, nil
}

// ListTickets returns tickets visible to the actor.
func (s *TicketService) ListTickets(ctx context.Context, actor lifecycle.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Urgencies:   filter.Urgencies,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if actor.Role == domain.RoleUser {
		reporterID := actor.UserID
		repoFilter.ReporterID = &reporterID
		repoFilter.AssigneeID = nil
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListTechnicians returns the active IT users available for assignment.
func (s *TicketService) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	technicians, err := s.users.ListByRole(ctx, domain.RoleIT)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return technicians, nil
}

// ListHistory returns the audit trail for a ticket the actor may see.
func (s *TicketService) ListHistory(ctx context.Context, actor lifecycle.Actor, ticketID string, limit, offset int) ([]domain.AssignmentHistory, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Transition applies an explicit status change through the engine.
func (s *TicketService) Transition(ctx context.Context, actor lifecycle.Actor, ticketID string, target domain.TicketStatus, changes lifecycle.Changes) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	dec, err := lifecycle.ProposeTransition(*ticket, actor, target, changes)
	if err != nil {
		return nil, mapDecisionError(err)
	}
	if err := s.commit(ctx, actor, ticket.Status, &dec); err != nil {
		return nil, err
	}
	return &dec.Ticket, nil
}

// UpdateFields applies a field-only change (urgency, descriptive fields,
// notes, reporter message) through the engine.
func (s *TicketService) UpdateFields(ctx context.Context, actor lifecycle.Actor, ticketID string, changes lifecycle.Changes) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	dec, err := lifecycle.ApplyChange(*ticket, actor, changes)
	if err != nil {
		return nil, mapDecisionError(err)
	}
	if err := s.commit(ctx, actor, ticket.Status, &dec); err != nil {
		return nil, err
	}
	return &dec.Ticket, nil
}

// Assign sets the assignee set of a PENDING ticket, deriving the new status.
func (s *TicketService) Assign(ctx context.Context, actor lifecycle.Actor, ticketID string, assigneeIDs []int64) (*domain.Ticket, error) {
	if err := s.verifyAssignees(ctx, assigneeIDs); err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	dec, err := lifecycle.Assign(*ticket, actor, assigneeIDs)
	if err != nil {
		return nil, mapDecisionError(err)
	}
	if err := s.commit(ctx, actor, ticket.Status, &dec); err != nil {
		return nil, err
	}
	return &dec.Ticket, nil
}

// Accept records the assignee's acceptance of an ASSIGNED ticket.
func (s *TicketService) Accept(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	dec, err := lifecycle.AcceptJob(*ticket, actor)
	if err != nil {
		return nil, mapDecisionError(err)
	}
	if err := s.commit(ctx, actor, ticket.Status, &dec); err != nil {
		return nil, err
	}
	return &dec.Ticket, nil
}

// Reject returns an ASSIGNED ticket to the pool with a mandatory reason.
func (s *TicketService) Reject(ctx context.Context, actor lifecycle.Actor, ticketID, reason string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	dec, err := lifecycle.RejectJob(*ticket, actor, reason)
	if err != nil {
		return nil, mapDecisionError(err)
	}
	if err := s.commit(ctx, actor, ticket.Status, &dec); err != nil {
		return nil, err
	}
	return &dec.Ticket, nil
}

// loadTicket resolves an id or a REP- ticket code to a fresh snapshot.
func (s *TicketService) loadTicket(ctx context.Context, ticketRef string) (*domain.Ticket, error) {
	byCode := strings.HasPrefix(ticketRef, "REP-")
	if !byCode {
		if cached := s.snapshots.Get(ctx, ticketRef); cached != nil {
			return cached, nil
		}
	}

	var (
		ticket *domain.Ticket
		err    error
	)
	if byCode {
		ticket, err = s.tickets.GetByCode(ctx, ticketRef)
	} else {
		ticket, err = s.tickets.GetByID(ctx, ticketRef)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket": ticketRef})
		}
		return nil, apperrors.MapError(err)
	}
	s.snapshots.Put(ctx, ticket)
	return ticket, nil
}

func (s *TicketService) verifyAssignees(ctx context.Context, assigneeIDs []int64) error {
	if len(assigneeIDs) == 0 {
		return nil // the engine rejects the empty set with its own message
	}
	found, err := s.users.ListByIDs(ctx, assigneeIDs)
	if err != nil {
		return apperrors.MapError(err)
	}
	known := make(map[int64]domain.User, len(found))
	for _, user := range found {
		known[user.ID] = user
	}
	for _, id := range assigneeIDs {
		user, ok := known[id]
		if !ok {
			return apperrors.NewNotFound("assignee", map[string]any{"user_id": id})
		}
		if !user.Active {
			return apperrors.NewConflict("assignee inactive", map[string]any{"user_id": id})
		}
		if user.Role == domain.RoleUser {
			return apperrors.NewValidationError("assignee is not a technician", map[string]any{"user_id": id})
		}
	}
	return nil
}

// commit persists an accepted decision and emits its side effects.
func (s *TicketService) commit(ctx context.Context, actor lifecycle.Actor, oldStatus domain.TicketStatus, dec *lifecycle.Decision) error {
	if domain.Terminal(dec.Ticket.Status) && dec.Ticket.ClosedAt == nil {
		now := time.Now()
		dec.Ticket.ClosedAt = &now
	}

	if err := s.tickets.UpdateVersioned(ctx, &dec.Ticket); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			s.snapshots.Invalidate(ctx, dec.Ticket.ID)
			return apperrors.NewConflict("ticket was modified concurrently; reload and retry",
				map[string]any{"ticket_id": dec.Ticket.ID})
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": dec.Ticket.ID})
		default:
			return apperrors.MapError(err)
		}
	}
	if len(dec.History) > 0 {
		if err := s.history.CreateBatch(ctx, dec.History); err != nil {
			// The ticket update already committed; surface the failure
			// rather than pretend the audit trail is complete.
			s.logger.Error("history append failed", zap.String("ticket_id", dec.Ticket.ID), zap.Error(err))
			return apperrors.MapError(err)
		}
	}
	s.snapshots.Invalidate(ctx, dec.Ticket.ID)
	s.emitEvents(ctx, actor, oldStatus, dec)
	return nil
}

func (s *TicketService) emitEvents(ctx context.Context, actor lifecycle.Actor, oldStatus domain.TicketStatus, dec *lifecycle.Decision) {
	ticket := &dec.Ticket
	if ticket.Status != oldStatus {
		s.publish(ctx, actor, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	assignedEmitted := false
	for _, entry := range dec.History {
		switch entry.Action {
		case domain.ActionAssign:
			if assignedEmitted {
				continue // one assignment event per decision, not per member
			}
			assignedEmitted = true
			s.publish(ctx, actor, events.Event{
				Type:     events.EventTicketAssigned,
				TicketID: ticket.ID,
				Payload: events.TicketAssignedPayload{
					Assignees: ticket.Assignees,
					NewStatus: ticket.Status,
				},
			})
		case domain.ActionAccept:
			s.publish(ctx, actor, events.Event{
				Type:     events.EventTicketAccepted,
				TicketID: ticket.ID,
			})
		case domain.ActionReject:
			s.publish(ctx, actor, events.Event{
				Type:     events.EventTicketRejected,
				TicketID: ticket.ID,
				Payload:  events.TicketRejectedPayload{Reason: entry.Note},
			})
		}
	}
	if dec.NotifyReporter {
		s.publish(ctx, actor, events.Event{
			Type:     events.EventReporterNotified,
			TicketID: ticket.ID,
			Payload: events.ReporterNotifiedPayload{
				ReporterID: ticket.ReporterID,
				Message:    ticket.MessageToReporter,
			},
		})
	}
}

func (s *TicketService) publish(ctx context.Context, actor lifecycle.Actor, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Actor = events.Actor{UserID: actor.UserID, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

// mapDecisionError translates engine rejections into the HTTP error taxonomy.
func mapDecisionError(err error) error {
	if rej, ok := lifecycle.AsRejection(err); ok {
		switch rej.Kind {
		case lifecycle.RejectIllegalTransition:
			return apperrors.NewIllegalTransition(rej.Message)
		case lifecycle.RejectPreconditionFailed:
			return apperrors.NewPreconditionFailed(rej.Invariant, rej.Message)
		case lifecycle.RejectUnauthorized:
			return rejectionUnauthorized(rej.Message)
		case lifecycle.RejectInvalid:
			return apperrors.NewValidationError(rej.Message, nil)
		}
	}
	return apperrors.MapError(err)
}

func rejectionUnauthorized(message string) error {
	return apperrors.NewDomainError("UNAUTHORIZED", message, http.StatusForbidden, nil)
}

func generateTicketCode() string {
	return "REP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
