package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fixkit/repair-service/internal/domain"
	"github.com/fixkit/repair-service/internal/events"
	"github.com/fixkit/repair-service/internal/lifecycle"
	"github.com/fixkit/repair-service/internal/repository"
)

type stubEquipmentRepo struct {
	items    map[string]*domain.EquipmentItem
	statuses map[string]domain.EquipmentStatus
}

func newStubEquipmentRepo(items ...*domain.EquipmentItem) *stubEquipmentRepo {
	repo := &stubEquipmentRepo{
		items:    map[string]*domain.EquipmentItem{},
		statuses: map[string]domain.EquipmentStatus{},
	}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (s *stubEquipmentRepo) Create(_ context.Context, item *domain.EquipmentItem) error {
	item.ID = "item-" + item.AssetCode
	s.items[item.ID] = item
	return nil
}

func (s *stubEquipmentRepo) GetByID(_ context.Context, id string) (*domain.EquipmentItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (s *stubEquipmentRepo) List(_ context.Context, status *domain.EquipmentStatus, _, _ int) ([]domain.EquipmentItem, error) {
	var result []domain.EquipmentItem
	for _, item := range s.items {
		if status == nil || item.Status == *status {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *stubEquipmentRepo) ClaimForLoan(_ context.Context, id string) error {
	item, ok := s.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if item.Status != domain.EquipmentAvailable {
		return repository.ErrItemUnavailable
	}
	item.Status = domain.EquipmentOnLoan
	s.statuses[id] = domain.EquipmentOnLoan
	return nil
}

func (s *stubEquipmentRepo) UpdateStatus(_ context.Context, id string, status domain.EquipmentStatus) error {
	item, ok := s.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Status = status
	s.statuses[id] = status
	return nil
}

type stubLoanRepo struct {
	loans   map[string]*domain.EquipmentLoan
	overdue []domain.EquipmentLoan
}

func newStubLoanRepo() *stubLoanRepo {
	return &stubLoanRepo{loans: map[string]*domain.EquipmentLoan{}}
}

func (s *stubLoanRepo) Create(_ context.Context, loan *domain.EquipmentLoan) error {
	loan.ID = "loan-1"
	loan.LoanedAt = time.Now()
	s.loans[loan.ID] = loan
	return nil
}

func (s *stubLoanRepo) GetByID(_ context.Context, id string) (*domain.EquipmentLoan, error) {
	loan, ok := s.loans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *loan
	return &clone, nil
}

func (s *stubLoanRepo) List(_ context.Context, _ repository.LoanFilter) ([]domain.EquipmentLoan, error) {
	var result []domain.EquipmentLoan
	for _, loan := range s.loans {
		result = append(result, *loan)
	}
	return result, nil
}

func (s *stubLoanRepo) MarkReturned(_ context.Context, id string, returnedAt time.Time) (*domain.EquipmentLoan, error) {
	loan, ok := s.loans[id]
	if !ok || loan.Status == domain.LoanReturned {
		return nil, pgx.ErrNoRows
	}
	loan.Status = domain.LoanReturned
	loan.ReturnedAt = &returnedAt
	clone := *loan
	return &clone, nil
}

func (s *stubLoanRepo) MarkOverdue(_ context.Context, _ time.Time) ([]domain.EquipmentLoan, error) {
	return s.overdue, nil
}

func newLoanFixture(items ...*domain.EquipmentItem) (*LoanService, *stubEquipmentRepo, *stubLoanRepo, *recordingDispatcher) {
	equipment := newStubEquipmentRepo(items...)
	loans := newStubLoanRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewLoanService(LoanDependencies{
		EquipmentRepo: equipment,
		LoanRepo:      loans,
		Dispatcher:    dispatcher,
	})
	return svc, equipment, loans, dispatcher
}

func availableProjector() *domain.EquipmentItem {
	return &domain.EquipmentItem{
		ID:        "item-1",
		AssetCode: "PRJ-001",
		Name:      "portable projector",
		Status:    domain.EquipmentAvailable,
	}
}

func TestCheckoutMarksItemOnLoan(t *testing.T) {
	svc, equipment, _, dispatcher := newLoanFixture(availableProjector())
	tech := lifecycle.Actor{UserID: 10, Role: domain.RoleIT}

	loan, err := svc.Checkout(context.Background(), tech, CheckoutInput{
		ItemID:     "item-1",
		BorrowerID: 99,
		DueAt:      time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if loan.Status != domain.LoanOnLoan {
		t.Fatalf("loan status = %s, want ON_LOAN", loan.Status)
	}
	if equipment.statuses["item-1"] != domain.EquipmentOnLoan {
		t.Fatalf("item status = %s, want ON_LOAN", equipment.statuses["item-1"])
	}
	if got := dispatcher.types(); len(got) != 1 || got[0] != events.EventLoanOpened {
		t.Fatalf("events = %v, want [loan_opened]", got)
	}
}

func TestCheckoutRejectsUnavailableItem(t *testing.T) {
	item := availableProjector()
	item.Status = domain.EquipmentOnLoan
	svc, _, _, _ := newLoanFixture(item)
	tech := lifecycle.Actor{UserID: 10, Role: domain.RoleIT}

	_, err := svc.Checkout(context.Background(), tech, CheckoutInput{
		ItemID: "item-1", BorrowerID: 99, DueAt: time.Now().Add(time.Hour),
	})
	if code := domainCode(t, err); code != "CONFLICT" {
		t.Fatalf("code = %s, want CONFLICT", code)
	}
}

func TestCheckoutSecondClaimConflicts(t *testing.T) {
	svc, _, loans, dispatcher := newLoanFixture(availableProjector())
	tech := lifecycle.Actor{UserID: 10, Role: domain.RoleIT}
	admin := lifecycle.Actor{UserID: 1, Role: domain.RoleAdmin}

	if _, err := svc.Checkout(context.Background(), tech, CheckoutInput{
		ItemID: "item-1", BorrowerID: 99, DueAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("first Checkout: %v", err)
	}

	// Both callers saw the item AVAILABLE when they started. The claim is
	// what decides the winner, so the late caller must get a conflict.
	_, err := svc.Checkout(context.Background(), admin, CheckoutInput{
		ItemID: "item-1", BorrowerID: 42, DueAt: time.Now().Add(time.Hour),
	})
	if code := domainCode(t, err); code != "CONFLICT" {
		t.Fatalf("code = %s, want CONFLICT", code)
	}
	if len(loans.loans) != 1 {
		t.Fatalf("open loans = %d, want 1", len(loans.loans))
	}
	if got := dispatcher.types(); len(got) != 1 || got[0] != events.EventLoanOpened {
		t.Fatalf("events = %v, want single loan_opened", got)
	}
}

func TestCheckoutRequiresStaff(t *testing.T) {
	svc, _, _, _ := newLoanFixture(availableProjector())
	reporter := lifecycle.Actor{UserID: 99, Role: domain.RoleUser}

	_, err := svc.Checkout(context.Background(), reporter, CheckoutInput{
		ItemID: "item-1", BorrowerID: 99, DueAt: time.Now().Add(time.Hour),
	})
	if code := domainCode(t, err); code != "UNAUTHORIZED" {
		t.Fatalf("code = %s, want UNAUTHORIZED", code)
	}
}

func TestReturnReleasesItem(t *testing.T) {
	svc, equipment, _, dispatcher := newLoanFixture(availableProjector())
	tech := lifecycle.Actor{UserID: 10, Role: domain.RoleIT}

	if _, err := svc.Checkout(context.Background(), tech, CheckoutInput{
		ItemID: "item-1", BorrowerID: 99, DueAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	loan, err := svc.Return(context.Background(), tech, "loan-1")
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if loan.Status != domain.LoanReturned || loan.ReturnedAt == nil {
		t.Fatalf("loan = %+v, want RETURNED with timestamp", loan)
	}
	if equipment.statuses["item-1"] != domain.EquipmentAvailable {
		t.Fatalf("item status = %s, want AVAILABLE", equipment.statuses["item-1"])
	}
	if got := dispatcher.types(); len(got) != 2 || got[1] != events.EventLoanReturned {
		t.Fatalf("events = %v, want loan_returned last", got)
	}

	// Returning twice is a conflict, not a silent success.
	_, err = svc.Return(context.Background(), tech, "loan-1")
	if code := domainCode(t, err); code != "CONFLICT" {
		t.Fatalf("code = %s, want CONFLICT", code)
	}
}

func TestSweepOverdueEmitsPerLoan(t *testing.T) {
	svc, _, loans, dispatcher := newLoanFixture()
	due := time.Now().Add(-time.Hour)
	loans.overdue = []domain.EquipmentLoan{
		{ID: "loan-1", ItemID: "item-1", BorrowerID: 99, Status: domain.LoanOverdue, DueAt: due},
		{ID: "loan-2", ItemID: "item-2", BorrowerID: 42, Status: domain.LoanOverdue, DueAt: due},
	}

	count, err := svc.SweepOverdue(context.Background())
	if err != nil {
		t.Fatalf("SweepOverdue: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	got := dispatcher.types()
	if len(got) != 2 || got[0] != events.EventLoanOverdue || got[1] != events.EventLoanOverdue {
		t.Fatalf("events = %v, want two loan_overdue", got)
	}
}

func TestRegisterItemRequiresAdmin(t *testing.T) {
	svc, _, _, _ := newLoanFixture()
	tech := lifecycle.Actor{UserID: 10, Role: domain.RoleIT}

	_, err := svc.RegisterItem(context.Background(), tech, EquipmentInput{Name: "drill", AssetCode: "DRL-1"})
	if code := domainCode(t, err); code != "UNAUTHORIZED" {
		t.Fatalf("code = %s, want UNAUTHORIZED", code)
	}

	admin := lifecycle.Actor{UserID: 1, Role: domain.RoleAdmin}
	item, err := svc.RegisterItem(context.Background(), admin, EquipmentInput{Name: "drill", AssetCode: "DRL-1"})
	if err != nil {
		t.Fatalf("RegisterItem: %v", err)
	}
	if item.Status != domain.EquipmentAvailable {
		t.Fatalf("status = %s, want AVAILABLE", item.Status)
	}
}
