package domain

import "time"

// HistoryAction captures what an assignment history entry records.
type HistoryAction string

const (
	ActionAssign       HistoryAction = "ASSIGN"
	ActionUnassign     HistoryAction = "UNASSIGN"
	ActionAccept       HistoryAction = "ACCEPT"
	ActionReject       HistoryAction = "REJECT"
	ActionStatusChange HistoryAction = "STATUS_CHANGE"
)

// AssignmentHistory is an immutable audit trail entry. Entries are appended
// by the ticket service after an accepted decision and never mutated.
type AssignmentHistory struct {
	ID         string
	TicketID   string
	Action     HistoryAction
	AssignerID int64
	AssigneeID *int64
	Note       string
	CreatedAt  time.Time
}
