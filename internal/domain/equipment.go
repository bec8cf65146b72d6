package domain

import "time"

// EquipmentStatus enumerates availability states for loanable items.
type EquipmentStatus string

const (
	EquipmentAvailable EquipmentStatus = "AVAILABLE"
	EquipmentOnLoan    EquipmentStatus = "ON_LOAN"
	EquipmentRetired   EquipmentStatus = "RETIRED"
)

// EquipmentItem is a loanable asset tracked by the service.
type EquipmentItem struct {
	ID        string
	AssetCode string
	Name      string
	Category  string
	Status    EquipmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoanStatus enumerates states for an equipment loan.
type LoanStatus string

const (
	LoanOnLoan   LoanStatus = "ON_LOAN"
	LoanReturned LoanStatus = "RETURNED"
	LoanOverdue  LoanStatus = "OVERDUE"
)

// EquipmentLoan records one borrowing of an item.
type EquipmentLoan struct {
	ID         string
	ItemID     string
	BorrowerID int64
	Status     LoanStatus
	Note       string
	LoanedAt   time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
}
