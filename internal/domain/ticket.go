package domain

import "time"

// TicketStatus enumerates lifecycle states for repair tickets.
type TicketStatus string

const (
	TicketStatusPending      TicketStatus = "PENDING"
	TicketStatusAssigned     TicketStatus = "ASSIGNED"
	TicketStatusInProgress   TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingParts TicketStatus = "WAITING_PARTS"
	TicketStatusCompleted    TicketStatus = "COMPLETED"
	TicketStatusCancelled    TicketStatus = "CANCELLED"
)

// KnownStatus reports whether s is one of the enumerated statuses.
func KnownStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusPending, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusWaitingParts, TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s freezes the ticket.
func Terminal(s TicketStatus) bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// TicketUrgency enumerates how pressing a repair is.
type TicketUrgency string

const (
	UrgencyNormal   TicketUrgency = "NORMAL"
	UrgencyUrgent   TicketUrgency = "URGENT"
	UrgencyCritical TicketUrgency = "CRITICAL"
)

// KnownUrgency reports whether u is one of the enumerated urgencies.
func KnownUrgency(u TicketUrgency) bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for a reported repair request.
type Ticket struct {
	ID                string
	TicketCode        string
	ReporterID        int64
	Title             string
	Description       string
	Location          string
	Category          string
	Status            TicketStatus
	Urgency           TicketUrgency
	Assignees         []int64
	Notes             string
	MessageToReporter string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time
}

// HasAssignee reports membership of userID in the assignee set.
func (t *Ticket) HasAssignee(userID int64) bool {
	for _, id := range t.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so engine decisions never alias the snapshot.
func (t *Ticket) Clone() Ticket {
	out := *t
	out.Assignees = append([]int64(nil), t.Assignees...)
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		out.ClosedAt = &closed
	}
	return out
}
