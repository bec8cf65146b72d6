package dto

import (
	"time"

	"github.com/fixkit/repair-service/internal/domain"
	"github.com/fixkit/repair-service/internal/lifecycle"
)

// CreateReportRequest payload.
type CreateReportRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Location    string               `json:"location"`
	Category    string               `json:"category"`
	Urgency     domain.TicketUrgency `json:"urgency"`
}

// TransitionRequest asks for an explicit status change, optionally bundling
// field edits that land in the same version.
type TransitionRequest struct {
	TargetStatus domain.TicketStatus `json:"target_status"`
	ChangeRequest
}

// ChangeRequest carries optional field edits. Absent fields stay untouched.
type ChangeRequest struct {
	Urgency           *domain.TicketUrgency `json:"urgency,omitempty"`
	Title             *string               `json:"title,omitempty"`
	Description       *string               `json:"description,omitempty"`
	Location          *string               `json:"location,omitempty"`
	Category          *string               `json:"category,omitempty"`
	Notes             *string               `json:"notes,omitempty"`
	MessageToReporter *string               `json:"message_to_reporter,omitempty"`
	Assignees         []int64               `json:"assignees,omitempty"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeIDs []int64 `json:"assignee_ids"`
}

// RejectRequest payload.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// TicketListQuery captures query filters for listing endpoints.
type TicketListQuery struct {
	Statuses    []domain.TicketStatus
	Urgencies   []domain.TicketUrgency
	AssigneeID  *int64
	Search      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// TicketSummary response.
type TicketSummary struct {
	ID         string               `json:"id"`
	TicketCode string               `json:"ticket_code"`
	ReporterID int64                `json:"reporter_id"`
	Title      string               `json:"title"`
	Status     domain.TicketStatus  `json:"status"`
	Urgency    domain.TicketUrgency `json:"urgency"`
	Assignees  []int64              `json:"assignees"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info, including the transitions
// that are currently legal from its status.
type TicketDetailResponse struct {
	ID                string                `json:"id"`
	TicketCode        string                `json:"ticket_code"`
	ReporterID        int64                 `json:"reporter_id"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Location          string                `json:"location"`
	Category          string                `json:"category"`
	Status            domain.TicketStatus   `json:"status"`
	Urgency           domain.TicketUrgency  `json:"urgency"`
	Assignees         []int64               `json:"assignees"`
	Notes             string                `json:"notes"`
	MessageToReporter string                `json:"message_to_reporter"`
	Version           int64                 `json:"version"`
	LegalTargets      []domain.TicketStatus `json:"legal_targets"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	ClosedAt          *time.Time            `json:"closed_at"`
}

// HistoryEntryResponse represents one audit trail entry.
type HistoryEntryResponse struct {
	ID         string               `json:"id"`
	Action     domain.HistoryAction `json:"action"`
	AssignerID int64                `json:"assigner_id"`
	AssigneeID *int64               `json:"assignee_id"`
	Note       string               `json:"note"`
	CreatedAt  time.Time            `json:"created_at"`
}

// NewTicketSummary maps a domain ticket to its summary form.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:         ticket.ID,
		TicketCode: ticket.TicketCode,
		ReporterID: ticket.ReporterID,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Urgency:    ticket.Urgency,
		Assignees:  ticket.Assignees,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket to its detail form.
func NewTicketDetail(ticket *domain.Ticket) TicketDetailResponse {
	return TicketDetailResponse{
		ID:                ticket.ID,
		TicketCode:        ticket.TicketCode,
		ReporterID:        ticket.ReporterID,
		Title:             ticket.Title,
		Description:       ticket.Description,
		Location:          ticket.Location,
		Category:          ticket.Category,
		Status:            ticket.Status,
		Urgency:           ticket.Urgency,
		Assignees:         ticket.Assignees,
		Notes:             ticket.Notes,
		MessageToReporter: ticket.MessageToReporter,
		Version:           ticket.Version,
		LegalTargets:      lifecycle.LegalTargets(ticket.Status),
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
		ClosedAt:          ticket.ClosedAt,
	}
}

// NewHistoryEntry maps an audit trail entry.
func NewHistoryEntry(entry domain.AssignmentHistory) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:         entry.ID,
		Action:     entry.Action,
		AssignerID: entry.AssignerID,
		AssigneeID: entry.AssigneeID,
		Note:       entry.Note,
		CreatedAt:  entry.CreatedAt,
	}
}
