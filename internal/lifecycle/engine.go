// Package lifecycle owns the repair-ticket state machine: which status
// transitions are legal, who may request them, and which invariants must hold
// before one is accepted. It is a pure decision layer: given a ticket
// snapshot, an actor, and a proposed change it returns the resulting ticket
// plus the history entries to append, and performs no I/O of its own.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/fixkit/repair-service/internal/domain"
)

// Actor is the already-authenticated identity performing an operation. The
// engine authorizes; it never authenticates.
type Actor struct {
	UserID int64
	Role   domain.Role
}

// Changes carries optional field mutations submitted alongside an operation.
// Nil pointers leave the field untouched. Assignees replaces the whole set
// when ReplaceAssignees is true.
type Changes struct {
	Urgency           *domain.TicketUrgency
	Title             *string
	Description       *string
	Location          *string
	Category          *string
	Notes             *string
	MessageToReporter *string
	Assignees         []int64
	ReplaceAssignees  bool
}

// Decision is the outcome of an accepted operation: the updated ticket copy,
// the audit entries to append, and whether the reporter must be notified.
// Timestamps on history entries are left zero; the persistence layer stamps
// them on insert.
type Decision struct {
	Ticket         domain.Ticket
	History        []domain.AssignmentHistory
	NotifyReporter bool
}

// ProposeTransition validates a status change (optionally combined with field
// and assignee changes) and computes the resulting state. Expected refusals
// come back as *Rejection; a malformed snapshot is a plain error.
func ProposeTransition(t domain.Ticket, actor Actor, target domain.TicketStatus, ch Changes) (Decision, error) {
	if err := validateSnapshot(&t); err != nil {
		return Decision{}, err
	}
	if domain.Terminal(t.Status) {
		return Decision{}, frozen(t.Status)
	}
	if !domain.KnownStatus(target) || target == t.Status || !CanTransition(t.Status, target) {
		return Decision{}, illegalTransition(t.Status, target)
	}
	if rej := authorizeTransition(&t, actor, target); rej != nil {
		return Decision{}, rej
	}
	if ch.ReplaceAssignees && actor.Role != domain.RoleAdmin {
		return Decision{}, unauthorized("only an administrator may change assignees")
	}

	dec := Decision{Ticket: t.Clone()}
	if rej := applyFieldChanges(&dec, ch); rej != nil {
		return Decision{}, rej
	}

	from := t.Status
	if ch.ReplaceAssignees {
		replaceAssignees(&dec, actor, ch.Assignees)
		if from == domain.TicketStatusPending {
			// Assignment out of the pool derives the target status; a freely
			// chosen one that disagrees is a caller bug, not a transition.
			if derived := deriveAssignedStatus(actor, dec.Ticket.Assignees); derived != target {
				return Decision{}, invalid(fmt.Sprintf("assignment from PENDING derives %s, not %s", derived, target))
			}
		}
	}
	if target == domain.TicketStatusPending {
		returnToPool(&dec, actor)
	}

	if rej := checkEntryInvariants(&dec.Ticket, target); rej != nil {
		return Decision{}, rej
	}

	dec.Ticket.Status = target
	dec.History = append(dec.History, statusChangeEntry(&dec.Ticket, actor, from, target))
	return dec, nil
}

// ApplyChange validates a field-only mutation (urgency, descriptive fields,
// notes, reporter message) with no status transition. Frozen tickets reject
// every change.
func ApplyChange(t domain.Ticket, actor Actor, ch Changes) (Decision, error) {
	if err := validateSnapshot(&t); err != nil {
		return Decision{}, err
	}
	if domain.Terminal(t.Status) {
		return Decision{}, frozen(t.Status)
	}
	if ch.ReplaceAssignees {
		return Decision{}, invalid("assignee changes require an assignment or transition operation")
	}
	if !canEdit(&t, actor) {
		return Decision{}, unauthorized("actor may not edit this ticket")
	}

	dec := Decision{Ticket: t.Clone()}
	if rej := applyFieldChanges(&dec, ch); rej != nil {
		return Decision{}, rej
	}
	return dec, nil
}

// AcceptJob is the assignee's explicit acceptance of an ASSIGNED ticket.
func AcceptJob(t domain.Ticket, actor Actor) (Decision, error) {
	if err := validateSnapshot(&t); err != nil {
		return Decision{}, err
	}
	if domain.Terminal(t.Status) {
		return Decision{}, frozen(t.Status)
	}
	if t.Status != domain.TicketStatusAssigned {
		return Decision{}, illegalTransition(t.Status, domain.TicketStatusInProgress)
	}
	if !t.HasAssignee(actor.UserID) {
		return Decision{}, unauthorized("only an assignee may accept this ticket")
	}

	dec := Decision{Ticket: t.Clone()}
	dec.Ticket.Status = domain.TicketStatusInProgress
	assignee := actor.UserID
	dec.History = append(dec.History, domain.AssignmentHistory{
		TicketID:   dec.Ticket.ID,
		Action:     domain.ActionAccept,
		AssignerID: actor.UserID,
		AssigneeID: &assignee,
	})
	return dec, nil
}

// RejectJob returns an ASSIGNED ticket to the pool. The reason is mandatory
// and recorded on the REJECT entry.
func RejectJob(t domain.Ticket, actor Actor, reason string) (Decision, error) {
	if err := validateSnapshot(&t); err != nil {
		return Decision{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return Decision{}, invalid("rejection reason required")
	}
	if domain.Terminal(t.Status) {
		return Decision{}, frozen(t.Status)
	}
	if t.Status != domain.TicketStatusAssigned {
		return Decision{}, illegalTransition(t.Status, domain.TicketStatusPending)
	}
	if !t.HasAssignee(actor.UserID) {
		return Decision{}, unauthorized("only an assignee may reject this ticket")
	}

	dec := Decision{Ticket: t.Clone()}
	actorID := actor.UserID
	dec.History = append(dec.History, domain.AssignmentHistory{
		TicketID:   dec.Ticket.ID,
		Action:     domain.ActionReject,
		AssignerID: actor.UserID,
		AssigneeID: &actorID,
		Note:       strings.TrimSpace(reason),
	})
	for _, id := range dec.Ticket.Assignees {
		if id == actor.UserID {
			continue
		}
		dec.History = append(dec.History, unassignEntry(&dec.Ticket, actor, id))
	}
	dec.Ticket.Assignees = nil
	dec.Ticket.Status = domain.TicketStatusPending
	return dec, nil
}

// Assign sets the assignee set of a PENDING ticket and derives the resulting
// status: an administrator assigning only themself fast-paths straight to
// IN_PROGRESS; anything else lands in ASSIGNED awaiting acceptance.
func Assign(t domain.Ticket, actor Actor, assigneeIDs []int64) (Decision, error) {
	if err := validateSnapshot(&t); err != nil {
		return Decision{}, err
	}
	if domain.Terminal(t.Status) {
		return Decision{}, frozen(t.Status)
	}
	if actor.Role != domain.RoleAdmin {
		return Decision{}, unauthorized("only an administrator may assign tickets")
	}
	if t.Status != domain.TicketStatusPending {
		return Decision{}, illegalTransition(t.Status, domain.TicketStatusAssigned)
	}
	ids := dedupe(assigneeIDs)
	if len(ids) == 0 {
		return Decision{}, invalid("at least one assignee required")
	}

	dec := Decision{Ticket: t.Clone()}
	replaceAssignees(&dec, actor, ids)
	// The derived status is implied by the ASSIGN entries; no separate
	// STATUS_CHANGE entry is recorded for assignment-driven transitions.
	dec.Ticket.Status = deriveAssignedStatus(actor, dec.Ticket.Assignees)
	return dec, nil
}

func validateSnapshot(t *domain.Ticket) error {
	if t.ID == "" {
		return fmt.Errorf("lifecycle: ticket snapshot missing id")
	}
	if !domain.KnownStatus(t.Status) {
		return fmt.Errorf("lifecycle: ticket %s has unknown status %q", t.ID, t.Status)
	}
	return nil
}

func authorizeTransition(t *domain.Ticket, actor Actor, target domain.TicketStatus) *Rejection {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleIT:
		if !t.HasAssignee(actor.UserID) {
			return unauthorized("technician is not assigned to this ticket")
		}
		switch t.Status {
		case domain.TicketStatusAssigned:
			if target == domain.TicketStatusInProgress || target == domain.TicketStatusPending {
				return nil
			}
		case domain.TicketStatusInProgress, domain.TicketStatusWaitingParts:
			// Assigned technicians drive their own work forward.
			return nil
		}
		return unauthorized("technician may not perform this transition")
	default:
		return unauthorized("role may not transition tickets")
	}
}

func canEdit(t *domain.Ticket, actor Actor) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.Role == domain.RoleIT && t.HasAssignee(actor.UserID)
}

func applyFieldChanges(dec *Decision, ch Changes) *Rejection {
	ticket := &dec.Ticket
	if ch.Urgency != nil {
		if !domain.KnownUrgency(*ch.Urgency) {
			return invalid(fmt.Sprintf("unknown urgency %q", *ch.Urgency))
		}
		ticket.Urgency = *ch.Urgency
	}
	if ch.Title != nil {
		ticket.Title = strings.TrimSpace(*ch.Title)
	}
	if ch.Description != nil {
		ticket.Description = strings.TrimSpace(*ch.Description)
	}
	if ch.Location != nil {
		ticket.Location = strings.TrimSpace(*ch.Location)
	}
	if ch.Category != nil {
		ticket.Category = strings.TrimSpace(*ch.Category)
	}
	if ch.Notes != nil {
		ticket.Notes = strings.TrimSpace(*ch.Notes)
	}
	if ch.MessageToReporter != nil {
		msg := strings.TrimSpace(*ch.MessageToReporter)
		if msg != ticket.MessageToReporter {
			ticket.MessageToReporter = msg
			dec.NotifyReporter = true
		}
	}
	return nil
}

func checkEntryInvariants(t *domain.Ticket, target domain.TicketStatus) *Rejection {
	switch target {
	case domain.TicketStatusAssigned, domain.TicketStatusInProgress:
		if len(t.Assignees) == 0 {
			return precondition("assignees", fmt.Sprintf("%s requires at least one assignee", target))
		}
	case domain.TicketStatusCompleted:
		if strings.TrimSpace(t.Notes) == "" {
			return precondition("notes", "COMPLETED requires a closing note")
		}
	}
	return nil
}

func deriveAssignedStatus(actor Actor, assignees []int64) domain.TicketStatus {
	if len(assignees) == 1 && assignees[0] == actor.UserID {
		return domain.TicketStatusInProgress
	}
	return domain.TicketStatusAssigned
}

// replaceAssignees swaps the set and logs one entry per membership delta.
func replaceAssignees(dec *Decision, actor Actor, next []int64) {
	next = dedupe(next)
	current := dec.Ticket.Assignees

	nextSet := make(map[int64]struct{}, len(next))
	for _, id := range next {
		nextSet[id] = struct{}{}
	}
	currentSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}

	for _, id := range current {
		if _, keep := nextSet[id]; !keep {
			dec.History = append(dec.History, unassignEntry(&dec.Ticket, actor, id))
		}
	}
	for _, id := range next {
		if _, had := currentSet[id]; !had {
			assignee := id
			dec.History = append(dec.History, domain.AssignmentHistory{
				TicketID:   dec.Ticket.ID,
				Action:     domain.ActionAssign,
				AssignerID: actor.UserID,
				AssigneeID: &assignee,
			})
		}
	}
	dec.Ticket.Assignees = next
}

// returnToPool clears the assignee set when a ticket goes back to PENDING.
func returnToPool(dec *Decision, actor Actor) {
	for _, id := range dec.Ticket.Assignees {
		dec.History = append(dec.History, unassignEntry(&dec.Ticket, actor, id))
	}
	dec.Ticket.Assignees = nil
}

func unassignEntry(t *domain.Ticket, actor Actor, assignee int64) domain.AssignmentHistory {
	id := assignee
	return domain.AssignmentHistory{
		TicketID:   t.ID,
		Action:     domain.ActionUnassign,
		AssignerID: actor.UserID,
		AssigneeID: &id,
	}
}

func statusChangeEntry(t *domain.Ticket, actor Actor, from, to domain.TicketStatus) domain.AssignmentHistory {
	return domain.AssignmentHistory{
		TicketID:   t.ID,
		Action:     domain.ActionStatusChange,
		AssignerID: actor.UserID,
		Note:       fmt.Sprintf("%s -> %s", from, to),
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
