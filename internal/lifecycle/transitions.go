package lifecycle

import "github.com/fixkit/repair-service/internal/domain"

// allowedTransitions is the canonical transition table. Every status check in
// the system goes through this map; views and handlers never encode their own.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending: {
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusAssigned: {
		domain.TicketStatusInProgress,
		domain.TicketStatusPending,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusWaitingParts,
		domain.TicketStatusCompleted,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusWaitingParts: {
		domain.TicketStatusInProgress,
		domain.TicketStatusCompleted,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusCompleted: {},
	domain.TicketStatusCancelled: {},
}

// CanTransition reports whether the table contains the edge from -> to.
func CanTransition(from, to domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// LegalTargets returns the outgoing edges for a status, in table order.
func LegalTargets(from domain.TicketStatus) []domain.TicketStatus {
	return append([]domain.TicketStatus(nil), allowedTransitions[from]...)
}
