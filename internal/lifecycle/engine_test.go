package lifecycle

import (
	"testing"

	"github.com/fixkit/repair-service/internal/domain"
)

var (
	admin = Actor{UserID: 1, Role: domain.RoleAdmin}
	tech1 = Actor{UserID: 10, Role: domain.RoleIT}
	tech2 = Actor{UserID: 11, Role: domain.RoleIT}
	enduser = Actor{UserID: 99, Role: domain.RoleUser}
)

func pendingTicket() domain.Ticket {
	return domain.Ticket{
		ID:         "tk-1",
		TicketCode: "REP-0001",
		ReporterID: 99,
		Title:      "projector dead",
		Status:     domain.TicketStatusPending,
		Urgency:    domain.UrgencyNormal,
		Version:    1,
	}
}

func ticketIn(status domain.TicketStatus, assignees ...int64) domain.Ticket {
	t := pendingTicket()
	t.Status = status
	t.Assignees = assignees
	return t
}

func mustReject(t *testing.T, err error, kind RejectionKind) *Rejection {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s rejection, got nil error", kind)
	}
	rej, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got hard error: %v", err)
	}
	if rej.Kind != kind {
		t.Fatalf("expected rejection kind %s, got %s (%s)", kind, rej.Kind, rej.Message)
	}
	return rej
}

func TestTerminalTicketsRejectEveryTransition(t *testing.T) {
	targets := []domain.TicketStatus{
		domain.TicketStatusPending,
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusWaitingParts,
		domain.TicketStatusCompleted,
		domain.TicketStatusCancelled,
	}
	for _, status := range []domain.TicketStatus{domain.TicketStatusCompleted, domain.TicketStatusCancelled} {
		for _, actor := range []Actor{admin, tech1, enduser} {
			for _, target := range targets {
				_, err := ProposeTransition(ticketIn(status, 10), actor, target, Changes{})
				mustReject(t, err, RejectIllegalTransition)
			}
		}
	}
}

func TestFrozenTicketRejectsFieldChanges(t *testing.T) {
	urgent := domain.UrgencyUrgent
	_, err := ApplyChange(ticketIn(domain.TicketStatusCompleted, 10), admin, Changes{Urgency: &urgent})
	mustReject(t, err, RejectIllegalTransition)
}

func TestAdminAssignSelfFastPath(t *testing.T) {
	dec, err := Assign(pendingTicket(), admin, []int64{admin.UserID})
	if err != nil {
		t.Fatalf("assign self: %v", err)
	}
	if dec.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", dec.Ticket.Status)
	}
	if len(dec.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(dec.History))
	}
	entry := dec.History[0]
	if entry.Action != domain.ActionAssign {
		t.Fatalf("expected ASSIGN entry, got %s", entry.Action)
	}
	if entry.AssigneeID == nil || *entry.AssigneeID != admin.UserID || entry.AssignerID != admin.UserID {
		t.Fatalf("expected actor to equal assignee, got assigner=%d assignee=%v", entry.AssignerID, entry.AssigneeID)
	}
}

func TestAdminAssignTwoTechnicians(t *testing.T) {
	dec, err := Assign(pendingTicket(), admin, []int64{tech1.UserID, tech2.UserID})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if dec.Ticket.Status != domain.TicketStatusAssigned {
		t.Fatalf("expected ASSIGNED, got %s", dec.Ticket.Status)
	}
	if len(dec.History) != 2 {
		t.Fatalf("expected 2 ASSIGN entries, got %d", len(dec.History))
	}
	for _, entry := range dec.History {
		if entry.Action != domain.ActionAssign {
			t.Fatalf("expected ASSIGN, got %s", entry.Action)
		}
	}
}

func TestAssignDeduplicatesAssignees(t *testing.T) {
	dec, err := Assign(pendingTicket(), admin, []int64{10, 10, 11})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(dec.Ticket.Assignees) != 2 {
		t.Fatalf("expected set of 2, got %v", dec.Ticket.Assignees)
	}
}

func TestAssignRequiresAdmin(t *testing.T) {
	_, err := Assign(pendingTicket(), tech1, []int64{tech1.UserID})
	mustReject(t, err, RejectUnauthorized)
}

func TestAssignRequiresPending(t *testing.T) {
	_, err := Assign(ticketIn(domain.TicketStatusInProgress, 10), admin, []int64{11})
	mustReject(t, err, RejectIllegalTransition)
}

func TestAssignRequiresAtLeastOneAssignee(t *testing.T) {
	_, err := Assign(pendingTicket(), admin, nil)
	mustReject(t, err, RejectInvalid)
}

func TestAcceptJobByAssignee(t *testing.T) {
	dec, err := AcceptJob(ticketIn(domain.TicketStatusAssigned, tech1.UserID), tech1)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if dec.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", dec.Ticket.Status)
	}
	if len(dec.History) != 1 || dec.History[0].Action != domain.ActionAccept {
		t.Fatalf("expected single ACCEPT entry, got %+v", dec.History)
	}
}

func TestAcceptJobByNonAssigneeUnauthorized(t *testing.T) {
	_, err := AcceptJob(ticketIn(domain.TicketStatusAssigned, tech1.UserID), tech2)
	mustReject(t, err, RejectUnauthorized)
}

func TestAcceptJobOutsideAssignedIllegal(t *testing.T) {
	_, err := AcceptJob(ticketIn(domain.TicketStatusInProgress, tech1.UserID), tech1)
	mustReject(t, err, RejectIllegalTransition)
}

func TestRejectJobReturnsTicketToPool(t *testing.T) {
	dec, err := RejectJob(ticketIn(domain.TicketStatusAssigned, tech1.UserID, tech2.UserID), tech1, "wrong building")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if dec.Ticket.Status != domain.TicketStatusPending {
		t.Fatalf("expected PENDING, got %s", dec.Ticket.Status)
	}
	if len(dec.Ticket.Assignees) != 0 {
		t.Fatalf("expected cleared assignees, got %v", dec.Ticket.Assignees)
	}
	if dec.History[0].Action != domain.ActionReject || dec.History[0].Note != "wrong building" {
		t.Fatalf("expected REJECT entry with reason, got %+v", dec.History[0])
	}
	if len(dec.History) != 2 || dec.History[1].Action != domain.ActionUnassign {
		t.Fatalf("expected UNASSIGN for remaining assignee, got %+v", dec.History)
	}
}

func TestRejectJobRequiresReason(t *testing.T) {
	_, err := RejectJob(ticketIn(domain.TicketStatusAssigned, tech1.UserID), tech1, "   ")
	mustReject(t, err, RejectInvalid)
}

func TestRejectJobByNonAssigneeUnauthorized(t *testing.T) {
	_, err := RejectJob(ticketIn(domain.TicketStatusAssigned, tech1.UserID), tech2, "not mine")
	mustReject(t, err, RejectUnauthorized)
}

func TestCompletedRequiresClosingNotes(t *testing.T) {
	_, err := ProposeTransition(ticketIn(domain.TicketStatusInProgress, tech1.UserID), tech1, domain.TicketStatusCompleted, Changes{})
	rej := mustReject(t, err, RejectPreconditionFailed)
	if rej.Invariant != "notes" {
		t.Fatalf("expected notes invariant, got %q", rej.Invariant)
	}
}

func TestCompletedAcceptsNotesSubmittedTogether(t *testing.T) {
	notes := "replaced power supply"
	dec, err := ProposeTransition(ticketIn(domain.TicketStatusInProgress, tech1.UserID), tech1, domain.TicketStatusCompleted, Changes{Notes: &notes})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if dec.Ticket.Notes == "" {
		t.Fatalf("expected notes carried into resulting ticket")
	}
	if dec.Ticket.Status != domain.TicketStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", dec.Ticket.Status)
	}
}

func TestInProgressRequiresAssignees(t *testing.T) {
	_, err := ProposeTransition(ticketIn(domain.TicketStatusWaitingParts), admin, domain.TicketStatusInProgress, Changes{})
	rej := mustReject(t, err, RejectPreconditionFailed)
	if rej.Invariant != "assignees" {
		t.Fatalf("expected assignees invariant, got %q", rej.Invariant)
	}
}

func TestIdempotentResubmissionRejected(t *testing.T) {
	dec, err := AcceptJob(ticketIn(domain.TicketStatusAssigned, tech1.UserID), tech1)
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err = ProposeTransition(dec.Ticket, admin, domain.TicketStatusInProgress, Changes{})
	mustReject(t, err, RejectIllegalTransition)
}

func TestTransitionToPendingClearsAssignees(t *testing.T) {
	dec, err := ProposeTransition(ticketIn(domain.TicketStatusAssigned, tech1.UserID, tech2.UserID), admin, domain.TicketStatusPending, Changes{})
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if len(dec.Ticket.Assignees) != 0 {
		t.Fatalf("expected empty pool ticket, got %v", dec.Ticket.Assignees)
	}
	unassigns := 0
	for _, entry := range dec.History {
		if entry.Action == domain.ActionUnassign {
			unassigns++
		}
	}
	if unassigns != 2 {
		t.Fatalf("expected 2 UNASSIGN entries, got %d (%+v)", unassigns, dec.History)
	}
}

func TestTechnicianCannotTransitionUnassignedTicket(t *testing.T) {
	_, err := ProposeTransition(ticketIn(domain.TicketStatusInProgress, tech2.UserID), tech1, domain.TicketStatusWaitingParts, Changes{})
	mustReject(t, err, RejectUnauthorized)
}

func TestTechnicianDrivesOwnWork(t *testing.T) {
	dec, err := ProposeTransition(ticketIn(domain.TicketStatusInProgress, tech1.UserID), tech1, domain.TicketStatusWaitingParts, Changes{})
	if err != nil {
		t.Fatalf("waiting parts: %v", err)
	}
	if dec.Ticket.Status != domain.TicketStatusWaitingParts {
		t.Fatalf("expected WAITING_PARTS, got %s", dec.Ticket.Status)
	}
	dec, err = ProposeTransition(dec.Ticket, tech1, domain.TicketStatusInProgress, Changes{})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if dec.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", dec.Ticket.Status)
	}
}

func TestReporterRoleCannotTransition(t *testing.T) {
	_, err := ProposeTransition(pendingTicket(), enduser, domain.TicketStatusCancelled, Changes{})
	mustReject(t, err, RejectUnauthorized)
}

func TestReporterMessageChangeFlagsNotification(t *testing.T) {
	msg := "a technician is on the way"
	dec, err := ApplyChange(ticketIn(domain.TicketStatusInProgress, tech1.UserID), tech1, Changes{MessageToReporter: &msg})
	if err != nil {
		t.Fatalf("apply change: %v", err)
	}
	if !dec.NotifyReporter {
		t.Fatalf("expected NotifyReporter set")
	}

	// Saving the same message again is not a change.
	dec2, err := ApplyChange(dec.Ticket, tech1, Changes{MessageToReporter: &msg})
	if err != nil {
		t.Fatalf("apply change: %v", err)
	}
	if dec2.NotifyReporter {
		t.Fatalf("unchanged message must not trigger a notification")
	}
}

func TestApplyChangeRejectsUnknownUrgency(t *testing.T) {
	bogus := domain.TicketUrgency("WHENEVER")
	_, err := ApplyChange(pendingTicket(), admin, Changes{Urgency: &bogus})
	mustReject(t, err, RejectInvalid)
}

func TestApplyChangeUnauthorizedForForeignTechnician(t *testing.T) {
	note := "checked on site"
	_, err := ApplyChange(ticketIn(domain.TicketStatusInProgress, tech1.UserID), tech2, Changes{Notes: &note})
	mustReject(t, err, RejectUnauthorized)
}

func TestMalformedSnapshotIsHardError(t *testing.T) {
	bad := pendingTicket()
	bad.Status = "LIMBO"
	_, err := ProposeTransition(bad, admin, domain.TicketStatusCancelled, Changes{})
	if err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if _, ok := AsRejection(err); ok {
		t.Fatalf("malformed snapshot must be a hard error, got rejection %v", err)
	}
}

func TestDecisionDoesNotAliasSnapshot(t *testing.T) {
	snapshot := ticketIn(domain.TicketStatusAssigned, tech1.UserID)
	dec, err := AcceptJob(snapshot, tech1)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	dec.Ticket.Assignees = append(dec.Ticket.Assignees, 77)
	if snapshot.HasAssignee(77) {
		t.Fatalf("decision mutated the input snapshot")
	}
	if snapshot.Status != domain.TicketStatusAssigned {
		t.Fatalf("input snapshot status changed to %s", snapshot.Status)
	}
}
