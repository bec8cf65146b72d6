package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixkit/repair-service/internal/domain"
)

// ErrItemUnavailable indicates the item exists but is not AVAILABLE, so it
// cannot be claimed for a new loan.
var ErrItemUnavailable = errors.New("equipment item unavailable")

// EquipmentRepository persists loanable items.
type EquipmentRepository interface {
	Create(ctx context.Context, item *domain.EquipmentItem) error
	GetByID(ctx context.Context, id string) (*domain.EquipmentItem, error)
	List(ctx context.Context, status *domain.EquipmentStatus, limit, offset int) ([]domain.EquipmentItem, error)
	ClaimForLoan(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.EquipmentStatus) error
}

type equipmentRepository struct {
	pool *pgxpool.Pool
}

// NewEquipmentRepository instantiates repository.
func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepository{pool: pool}
}

func (r *equipmentRepository) Create(ctx context.Context, item *domain.EquipmentItem) error {
	const query = `
        INSERT INTO equipment_items (asset_code, name, category, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.AssetCode,
		item.Name,
		item.Category,
		item.Status,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.EquipmentItem, error) {
	const query = `
        SELECT id, asset_code, name, category, status, created_at, updated_at
        FROM equipment_items WHERE id=$1`
	var item domain.EquipmentItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.AssetCode,
		&item.Name,
		&item.Category,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *equipmentRepository) List(ctx context.Context, status *domain.EquipmentStatus, limit, offset int) ([]domain.EquipmentItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
        SELECT id, asset_code, name, category, status, created_at, updated_at
        FROM equipment_items WHERE ($1::text IS NULL OR status=$1)
        ORDER BY asset_code LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EquipmentItem
	for rows.Next() {
		var item domain.EquipmentItem
		if err := rows.Scan(
			&item.ID,
			&item.AssetCode,
			&item.Name,
			&item.Category,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ClaimForLoan atomically flips an AVAILABLE item to ON_LOAN. The status
// guard in the WHERE clause is what arbitrates concurrent checkouts: only one
// caller observes an affected row.
func (r *equipmentRepository) ClaimForLoan(ctx context.Context, id string) error {
	const query = `
        UPDATE equipment_items SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.EquipmentOnLoan, id, domain.EquipmentAvailable)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM equipment_items WHERE id=$1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrItemUnavailable
	}
	return nil
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, id string, status domain.EquipmentStatus) error {
	const query = `UPDATE equipment_items SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
