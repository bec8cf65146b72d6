package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixkit/repair-service/internal/domain"
)

// LoanFilter captures loan listing parameters.
type LoanFilter struct {
	BorrowerID *int64
	ItemID     *string
	Statuses   []domain.LoanStatus
	Limit      int
	Offset     int
}

// LoanRepository persists equipment loans.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.EquipmentLoan) error
	GetByID(ctx context.Context, id string) (*domain.EquipmentLoan, error)
	List(ctx context.Context, filter LoanFilter) ([]domain.EquipmentLoan, error)
	// MarkReturned closes an open loan and returns the updated row.
	// pgx.ErrNoRows means the loan is missing or already closed.
	MarkReturned(ctx context.Context, id string, returnedAt time.Time) (*domain.EquipmentLoan, error)
	// MarkOverdue flips every ON_LOAN loan past its due date to OVERDUE and
	// returns the affected loans.
	MarkOverdue(ctx context.Context, now time.Time) ([]domain.EquipmentLoan, error)
}

type loanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository instantiates repository.
func NewLoanRepository(pool *pgxpool.Pool) LoanRepository {
	return &loanRepository{pool: pool}
}

const loanColumns = `id, item_id, borrower_id, status, note, loaned_at, due_at, returned_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.EquipmentLoan) error {
	const query = `
        INSERT INTO equipment_loans (item_id, borrower_id, status, note, due_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, loaned_at`
	return r.pool.QueryRow(ctx, query,
		loan.ItemID,
		loan.BorrowerID,
		loan.Status,
		loan.Note,
		loan.DueAt,
	).Scan(&loan.ID, &loan.LoanedAt)
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.EquipmentLoan, error) {
	query := `SELECT ` + loanColumns + ` FROM equipment_loans WHERE id=$1`
	var loan domain.EquipmentLoan
	if err := scanLoan(r.pool.QueryRow(ctx, query, id), &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter LoanFilter) ([]domain.EquipmentLoan, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.BorrowerID != nil {
		args = append(args, *filter.BorrowerID)
		clauses = append(clauses, fmt.Sprintf("borrower_id=$%d", len(args)))
	}
	if filter.ItemID != nil {
		args = append(args, *filter.ItemID)
		clauses = append(clauses, fmt.Sprintf("item_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM equipment_loans WHERE %s ORDER BY loaned_at DESC LIMIT %d OFFSET %d`,
		loanColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (r *loanRepository) MarkReturned(ctx context.Context, id string, returnedAt time.Time) (*domain.EquipmentLoan, error) {
	query := `
        UPDATE equipment_loans SET status=$1, returned_at=$2
        WHERE id=$3 AND status IN ($4, $5)
        RETURNING ` + loanColumns
	var loan domain.EquipmentLoan
	err := scanLoan(r.pool.QueryRow(ctx, query,
		domain.LoanReturned, returnedAt, id, domain.LoanOnLoan, domain.LoanOverdue), &loan)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) MarkOverdue(ctx context.Context, now time.Time) ([]domain.EquipmentLoan, error) {
	query := `
        UPDATE equipment_loans SET status=$1
        WHERE status=$2 AND due_at < $3
        RETURNING ` + loanColumns
	rows, err := r.pool.Query(ctx, query, domain.LoanOverdue, domain.LoanOnLoan, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func scanLoan(row pgx.Row, loan *domain.EquipmentLoan) error {
	return row.Scan(
		&loan.ID,
		&loan.ItemID,
		&loan.BorrowerID,
		&loan.Status,
		&loan.Note,
		&loan.LoanedAt,
		&loan.DueAt,
		&loan.ReturnedAt,
	)
}

func scanLoans(rows pgx.Rows) ([]domain.EquipmentLoan, error) {
	var result []domain.EquipmentLoan
	for rows.Next() {
		var loan domain.EquipmentLoan
		if err := scanLoan(rows, &loan); err != nil {
			return nil, err
		}
		result = append(result, loan)
	}
	return result, rows.Err()
}
