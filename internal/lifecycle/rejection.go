package lifecycle

import (
	"errors"
	"fmt"

	"github.com/fixkit/repair-service/internal/domain"
)

// RejectionKind classifies why the engine refused a proposed change.
type RejectionKind string

const (
	RejectIllegalTransition  RejectionKind = "ILLEGAL_TRANSITION"
	RejectPreconditionFailed RejectionKind = "PRECONDITION_FAILED"
	RejectUnauthorized       RejectionKind = "UNAUTHORIZED"
	RejectInvalid            RejectionKind = "INVALID"
)

// Rejection is a typed, expected refusal. It is an error value so callers can
// propagate it, but it never represents a fault: every rejection is meant to
// end up as a user-facing message.
type Rejection struct {
	Kind      RejectionKind
	Invariant string
	Message   string
}

func (r *Rejection) Error() string {
	if r.Invariant != "" {
		return fmt.Sprintf("%s (%s): %s", r.Kind, r.Invariant, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// AsRejection extracts a Rejection from err, if it carries one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func illegalTransition(from, to domain.TicketStatus) *Rejection {
	return &Rejection{
		Kind:    RejectIllegalTransition,
		Message: fmt.Sprintf("no transition %s -> %s", from, to),
	}
}

func frozen(status domain.TicketStatus) *Rejection {
	return &Rejection{
		Kind:    RejectIllegalTransition,
		Message: fmt.Sprintf("ticket is %s and frozen", status),
	}
}

func precondition(invariant, message string) *Rejection {
	return &Rejection{Kind: RejectPreconditionFailed, Invariant: invariant, Message: message}
}

func unauthorized(message string) *Rejection {
	return &Rejection{Kind: RejectUnauthorized, Message: message}
}

func invalid(message string) *Rejection {
	return &Rejection{Kind: RejectInvalid, Message: message}
}
