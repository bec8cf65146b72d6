package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fixkit/repair-service/internal/domain"
	"github.com/fixkit/repair-service/internal/events"
	"github.com/fixkit/repair-service/internal/lifecycle"
	"github.com/fixkit/repair-service/internal/repository"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

// LoanService manages equipment checkout and return. Availability is tracked
// on the item row; the loan row is the audit record.
type LoanService struct {
	items      repository.EquipmentRepository
	loans      repository.LoanRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LoanDependencies bundles collaborators for the loan service.
type LoanDependencies struct {
	EquipmentRepo repository.EquipmentRepository
	LoanRepo      repository.LoanRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewLoanService constructs the service.
func NewLoanService(deps LoanDependencies) *LoanService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{
		items:      deps.EquipmentRepo,
		loans:      deps.LoanRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// EquipmentInput describes a new catalog item.
type EquipmentInput struct {
	Name      string
	AssetCode string
	Category  string
}

// CheckoutInput describes a loan request.
type CheckoutInput struct {
	ItemID     string
	BorrowerID int64
	DueAt      time.Time
	Note       string
}

// RegisterItem adds an equipment item to the catalog. Admin only.
func (s *LoanService) RegisterItem(ctx context.Context, actor lifecycle.Actor, input EquipmentInput) (*domain.EquipmentItem, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, rejectionUnauthorized("only admin may register equipment")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if strings.TrimSpace(input.AssetCode) == "" {
		return nil, apperrors.NewValidationError("asset code required", nil)
	}
	item := &domain.EquipmentItem{
		Name:      strings.TrimSpace(input.Name),
		AssetCode: strings.TrimSpace(input.AssetCode),
		Category:  strings.TrimSpace(input.Category),
		Status:    domain.EquipmentAvailable,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// ListItems returns catalog items, optionally filtered by status.
func (s *LoanService) ListItems(ctx context.Context, status *domain.EquipmentStatus, limit, offset int) ([]domain.EquipmentItem, error) {
	items, err := s.items.List(ctx, status, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// GetItem fetches one catalog item.
func (s *LoanService) GetItem(ctx context.Context, id string) (*domain.EquipmentItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("equipment item", map[string]any{"item_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// Checkout opens a loan for an AVAILABLE item. Staff only.
func (s *LoanService) Checkout(ctx context.Context, actor lifecycle.Actor, input CheckoutInput) (*domain.EquipmentLoan, error) {
	if actor.Role == domain.RoleUser {
		return nil, rejectionUnauthorized("only staff may check out equipment")
	}
	if input.DueAt.IsZero() {
		return nil, apperrors.NewValidationError("due date required", nil)
	}
	// Claim the item before writing the loan row. The claim is a conditional
	// status flip, so when two checkouts race only one of them gets the item.
	if err := s.items.ClaimForLoan(ctx, input.ItemID); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("equipment item", map[string]any{"item_id": input.ItemID})
		case errors.Is(err, repository.ErrItemUnavailable):
			return nil, apperrors.NewConflict("item is not available",
				map[string]any{"item_id": input.ItemID})
		default:
			return nil, apperrors.MapError(err)
		}
	}

	loan := &domain.EquipmentLoan{
		ItemID:     input.ItemID,
		BorrowerID: input.BorrowerID,
		Status:     domain.LoanOnLoan,
		Note:       strings.TrimSpace(input.Note),
		DueAt:      input.DueAt,
	}
	if err := s.loans.Create(ctx, loan); err != nil {
		if relErr := s.items.UpdateStatus(ctx, input.ItemID, domain.EquipmentAvailable); relErr != nil {
			s.logger.Error("item release failed after loan insert error",
				zap.String("item_id", input.ItemID), zap.Error(relErr))
		}
		return nil, apperrors.MapError(err)
	}
	s.publishLoan(ctx, actor, events.EventLoanOpened, loan)
	return loan, nil
}

// Return closes a loan and releases the item.
func (s *LoanService) Return(ctx context.Context, actor lifecycle.Actor, loanID string) (*domain.EquipmentLoan, error) {
	if actor.Role == domain.RoleUser {
		return nil, rejectionUnauthorized("only staff may record a return")
	}
	loan, err := s.loans.MarkReturned(ctx, loanID, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("loan not open", map[string]any{"loan_id": loanID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.items.UpdateStatus(ctx, loan.ItemID, domain.EquipmentAvailable); err != nil {
		s.logger.Error("item release failed after return",
			zap.String("item_id", loan.ItemID), zap.Error(err))
		return nil, apperrors.MapError(err)
	}
	s.publishLoan(ctx, actor, events.EventLoanReturned, loan)
	return loan, nil
}

// GetLoan fetches one loan record.
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.EquipmentLoan, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("loan", map[string]any{"loan_id": loanID})
		}
		return nil, apperrors.MapError(err)
	}
	return loan, nil
}

// ListLoans returns loans matching the filter.
func (s *LoanService) ListLoans(ctx context.Context, filter repository.LoanFilter) ([]domain.EquipmentLoan, error) {
	loans, err := s.loans.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return loans, nil
}

// SweepOverdue flags open loans past their due date and emits one event per
// newly overdue loan. Called by the background worker.
func (s *LoanService) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.loans.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for i := range overdue {
		s.publishLoan(ctx, lifecycle.Actor{}, events.EventLoanOverdue, &overdue[i])
	}
	return len(overdue), nil
}

func (s *LoanService) publishLoan(ctx context.Context, actor lifecycle.Actor, eventType events.EventType, loan *domain.EquipmentLoan) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     events.Actor{UserID: actor.UserID, Role: actor.Role},
		Timestamp: time.Now(),
		Payload: events.LoanPayload{
			LoanID:     loan.ID,
			ItemID:     loan.ItemID,
			BorrowerID: loan.BorrowerID,
			DueAt:      loan.DueAt,
		},
	})
}
