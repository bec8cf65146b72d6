package events

import (
	"time"

	"github.com/fixkit/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketAccepted      EventType = "ticket_accepted"
	EventTicketRejected      EventType = "ticket_rejected"
	EventReporterNotified    EventType = "reporter_notified"
	EventLoanOpened          EventType = "loan_opened"
	EventLoanReturned        EventType = "loan_returned"
	EventLoanOverdue         EventType = "loan_overdue"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketCode string               `json:"ticket_code"`
	Title      string               `json:"title"`
	Urgency    domain.TicketUrgency `json:"urgency"`
	ReporterID int64                `json:"reporter_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Assignees []int64             `json:"assignees"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketRejectedPayload payload.
type TicketRejectedPayload struct {
	Reason string `json:"reason"`
}

// ReporterNotifiedPayload payload.
type ReporterNotifiedPayload struct {
	ReporterID int64  `json:"reporter_id"`
	Message    string `json:"message"`
}

// LoanPayload payload for loan events.
type LoanPayload struct {
	LoanID     string    `json:"loan_id"`
	ItemID     string    `json:"item_id"`
	BorrowerID int64     `json:"borrower_id"`
	DueAt      time.Time `json:"due_at"`
}
