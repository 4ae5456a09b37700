package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/openbasket/allocator/internal/models"
	"github.com/openbasket/allocator/internal/repository"
	"github.com/shopspring/decimal"
)

// LedgerService handles per-account balance bookkeeping and deposit history.
// Account buckets are only ever mutated through Deposit/BatchDeposit and the
// Reserve/Commit/Refund moves, which preserves the conservation law
// totalDeposited == available + pending + invested.
type LedgerService struct {
	ledgerStore repository.LedgerStore
	minDeposit  decimal.Decimal
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerStore repository.LedgerStore, minDeposit decimal.Decimal) *LedgerService {
	return &LedgerService{
		ledgerStore: ledgerStore,
		minDeposit:  minDeposit,
	}
}

// Deposit credits an owner's account and appends an immutable deposit record.
// Deposits are not deduplicated; replay protection is a caller concern.
func (s *LedgerService) Deposit(ctx context.Context, ownerID int64, amount decimal.Decimal, depositType models.DepositType) (*models.DepositRecord, error) {
	rec, err := s.validateDeposit(ownerID, amount, depositType)
	if err != nil {
		return nil, err
	}
	if err := s.ledgerStore.CreditDeposit(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}
	return rec, nil
}

// BatchDeposit applies one deposit per (owner, amount) pair, atomically as a
// whole: one invalid entry rejects the entire batch with no partial
// application. Admin only.
func (s *LedgerService) BatchDeposit(ctx context.Context, actor models.Actor, ownerIDs []int64, amounts []decimal.Decimal, depositType models.DepositType) ([]*models.DepositRecord, error) {
	if !actor.Admin {
		return nil, ErrNotAuthorized
	}
	if len(ownerIDs) == 0 || len(ownerIDs) != len(amounts) {
		return nil, ErrBatchMismatch
	}

	// Validate every entry before touching any state.
	recs := make([]*models.DepositRecord, 0, len(ownerIDs))
	for i := range ownerIDs {
		rec, err := s.validateDeposit(ownerIDs[i], amounts[i], depositType)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		recs = append(recs, rec)
	}

	if err := s.ledgerStore.CreditDeposits(ctx, recs); err != nil {
		return nil, fmt.Errorf("failed to credit batch: %w", err)
	}
	return recs, nil
}

func (s *LedgerService) validateDeposit(ownerID int64, amount decimal.Decimal, depositType models.DepositType) (*models.DepositRecord, error) {
	if !depositType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDepositType, depositType)
	}
	if amount.LessThan(s.minDeposit) {
		return nil, fmt.Errorf("%w: %s < %s", ErrBelowMinimum, amount, s.minDeposit)
	}
	return &models.DepositRecord{
		OwnerID:     ownerID,
		Amount:      amount,
		DepositType: depositType,
	}, nil
}

// GetAccount retrieves an owner's ledger account, or nil if the owner has
// never deposited.
func (s *LedgerService) GetAccount(ctx context.Context, ownerID int64) (*models.LedgerAccount, error) {
	account, err := s.ledgerStore.GetAccount(ctx, ownerID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// Available returns the owner's available balance (zero for unknown owners)
func (s *LedgerService) Available(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.Available, nil
}

// PortfolioValue returns the nominal account value: available + pending +
// invested. Not mark-to-market.
func (s *LedgerService) PortfolioValue(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.PortfolioValue(), nil
}

// ListDeposits retrieves an owner's deposit history
func (s *LedgerService) ListDeposits(ctx context.Context, ownerID int64) ([]models.DepositRecord, error) {
	deposits, err := s.ledgerStore.ListDeposits(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

// Reserve moves amount available -> pending. For the execution engine.
func (s *LedgerService) Reserve(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	err := s.ledgerStore.Reserve(ctx, ownerID, amount)
	if errors.Is(err, repository.ErrInsufficientBalance) || errors.Is(err, repository.ErrAccountNotFound) {
		return ErrInsufficientBalance
	}
	return err
}

// Commit moves amount pending -> invested. For the execution engine.
func (s *LedgerService) Commit(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	return s.ledgerStore.Commit(ctx, ownerID, amount)
}

// Refund moves amount pending -> available. For the execution engine.
func (s *LedgerService) Refund(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	return s.ledgerStore.Refund(ctx, ownerID, amount)
}
