package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixkit/repair-service/internal/domain"
)

// ErrVersionConflict signals that the base version of an update no longer
// matches the stored row. Callers retry against a freshly loaded snapshot.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	ReporterID  *int64
	AssigneeID  *int64
	Statuses    []domain.TicketStatus
	Urgencies   []domain.TicketUrgency
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateVersioned persists the ticket and its assignee set under
	// optimistic concurrency: the stored version must equal ticket.Version
	// or ErrVersionConflict is returned. On success the version is bumped.
	UpdateVersioned(ctx context.Context, ticket *domain.Ticket) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_code, reporter_id, title, description, location, category, status, urgency, notes, message_to_reporter)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketCode,
		ticket.ReporterID,
		ticket.Title,
		ticket.Description,
		ticket.Location,
		ticket.Category,
		ticket.Status,
		ticket.Urgency,
		ticket.Notes,
		ticket.MessageToReporter,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

const ticketColumns = `id, ticket_code, reporter_id, title, description, location, category,
               status, urgency, notes, message_to_reporter, version, created_at, updated_at, closed_at`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_code=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if err := r.loadAssignees(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) loadAssignees(ctx context.Context, ticket *domain.Ticket) error {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM ticket_assignees WHERE ticket_id=$1 ORDER BY user_id`, ticket.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	ticket.Assignees = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ticket.Assignees = append(ticket.Assignees, id)
	}
	return rows.Err()
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets t`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM ticket_assignees a WHERE a.ticket_id=t.id AND a.user_id=$%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Urgencies) > 0 {
		placeholders := make([]string, len(filter.Urgencies))
		for i, urgency := range filter.Urgencies {
			args = append(args, urgency)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("urgency IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(location) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.loadAssignees(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *ticketRepository) UpdateVersioned(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE tickets SET title=$1, description=$2, location=$3, category=$4, status=$5,
            urgency=$6, notes=$7, message_to_reporter=$8, closed_at=$9,
            version=version+1, updated_at=NOW()
        WHERE id=$10 AND version=$11`
	cmd, err := tx.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Location,
		ticket.Category,
		ticket.Status,
		ticket.Urgency,
		ticket.Notes,
		ticket.MessageToReporter,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrVersionConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ticket_assignees WHERE ticket_id=$1`, ticket.ID); err != nil {
		return err
	}
	for _, userID := range ticket.Assignees {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_assignees (ticket_id, user_id) VALUES ($1,$2)`, ticket.ID, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	ticket.Version++
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketCode,
		&ticket.ReporterID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Location,
		&ticket.Category,
		&ticket.Status,
		&ticket.Urgency,
		&ticket.Notes,
		&ticket.MessageToReporter,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
