package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixkit/repair-service/internal/domain"
)

// HistoryRepository stores append-only assignment audit entries.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.AssignmentHistory) error
	CreateBatch(ctx context.Context, entries []domain.AssignmentHistory) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.AssignmentHistory, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.AssignmentHistory) error {
	const query = `
        INSERT INTO assignment_history (ticket_id, action, assigner_id, assignee_id, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.Action,
		entry.AssignerID,
		entry.AssigneeID,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) CreateBatch(ctx context.Context, entries []domain.AssignmentHistory) error {
	for i := range entries {
		if err := r.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.AssignmentHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, action, assigner_id, assignee_id, note, created_at
        FROM assignment_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AssignmentHistory
	for rows.Next() {
		var entry domain.AssignmentHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Action,
			&entry.AssignerID,
			&entry.AssigneeID,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
