package dto

import (
	"time"

	"github.com/fixkit/repair-service/internal/domain"
)

// CreateEquipmentRequest payload.
type CreateEquipmentRequest struct {
	Name      string `json:"name"`
	AssetCode string `json:"asset_code"`
	Category  string `json:"category"`
}

// CheckoutRequest payload.
type CheckoutRequest struct {
	ItemID     string    `json:"item_id"`
	BorrowerID int64     `json:"borrower_id"`
	DueAt      time.Time `json:"due_at"`
	Note       string    `json:"note"`
}

// EquipmentItemResponse describes a catalog item.
type EquipmentItemResponse struct {
	ID        string                 `json:"id"`
	AssetCode string                 `json:"asset_code"`
	Name      string                 `json:"name"`
	Category  string                 `json:"category"`
	Status    domain.EquipmentStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// LoanResponse describes one borrowing.
type LoanResponse struct {
	ID         string            `json:"id"`
	ItemID     string            `json:"item_id"`
	BorrowerID int64             `json:"borrower_id"`
	Status     domain.LoanStatus `json:"status"`
	Note       string            `json:"note"`
	LoanedAt   time.Time         `json:"loaned_at"`
	DueAt      time.Time         `json:"due_at"`
	ReturnedAt *time.Time        `json:"returned_at"`
}

// NewEquipmentItem maps a catalog item.
func NewEquipmentItem(item *domain.EquipmentItem) EquipmentItemResponse {
	return EquipmentItemResponse{
		ID:        item.ID,
		AssetCode: item.AssetCode,
		Name:      item.Name,
		Category:  item.Category,
		Status:    item.Status,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// NewLoan maps a loan record.
func NewLoan(loan *domain.EquipmentLoan) LoanResponse {
	return LoanResponse{
		ID:         loan.ID,
		ItemID:     loan.ItemID,
		BorrowerID: loan.BorrowerID,
		Status:     loan.Status,
		Note:       loan.Note,
		LoanedAt:   loan.LoanedAt,
		DueAt:      loan.DueAt,
		ReturnedAt: loan.ReturnedAt,
	}
}
