package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openbasket/allocator/internal/models"
	"github.com/openbasket/allocator/internal/repository"
	"github.com/shopspring/decimal"
)

func newLedgerService() (*LedgerService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewLedgerService(store, decimal.NewFromInt(1)), store
}

func TestDepositCreatesAccountLazily(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	account, err := svc.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account != nil {
		t.Fatalf("expected no account before first deposit, got %+v", account)
	}

	rec, err := svc.Deposit(ctx, 7, decimal.NewFromInt(100), models.DepositTypeManual)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected a non-zero deposit record ID")
	}

	account, err = svc.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account == nil {
		t.Fatal("expected account after deposit")
	}
	if !account.TotalDeposited.Equal(decimal.NewFromInt(100)) || !account.Available.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected deposited=available=100, got %+v", account)
	}
	if !account.Balanced() {
		t.Errorf("conservation law violated: %+v", account)
	}
}

func TestDepositBelowMinimum(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	for _, amount := range []string{"0.5", "0", "-10"} {
		d, _ := decimal.NewFromString(amount)
		if _, err := svc.Deposit(ctx, 7, d, models.DepositTypeManual); !errors.Is(err, ErrBelowMinimum) {
			t.Errorf("amount %s: expected ErrBelowMinimum, got %v", amount, err)
		}
	}

	if account, _ := svc.GetAccount(ctx, 7); account != nil {
		t.Errorf("rejected deposits created an account: %+v", account)
	}
}

func TestDepositUnknownType(t *testing.T) {
	svc, _ := newLedgerService()

	if _, err := svc.Deposit(context.Background(), 7, decimal.NewFromInt(10), models.DepositType("Airdrop")); !errors.Is(err, ErrInvalidDepositType) {
		t.Fatalf("expected ErrInvalidDepositType, got %v", err)
	}
}

func TestBatchDepositAllOrNothing(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	// One invalid entry rejects the whole batch.
	_, err := svc.BatchDeposit(ctx, admin,
		[]int64{1, 2},
		[]decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromFloat(0.5)},
		models.DepositTypeSalary)
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}

	// The valid entry must not have been applied.
	if account, _ := svc.GetAccount(ctx, 1); account != nil {
		t.Errorf("partial batch applied: %+v", account)
	}

	recs, err := svc.BatchDeposit(ctx, admin,
		[]int64{1, 2},
		[]decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(200)},
		models.DepositTypeSalary)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	for ownerID, want := range map[int64]int64{1: 100, 2: 200} {
		available, err := svc.Available(ctx, ownerID)
		if err != nil {
			t.Fatalf("available failed: %v", err)
		}
		if !available.Equal(decimal.NewFromInt(want)) {
			t.Errorf("owner %d: expected available %d, got %s", ownerID, want, available)
		}
	}
}

func TestBatchDepositGuards(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()
	amounts := []decimal.Decimal{decimal.NewFromInt(100)}

	if _, err := svc.BatchDeposit(ctx, models.Actor{UserID: 7}, []int64{1}, amounts, models.DepositTypeManual); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized for non-admin, got %v", err)
	}
	if _, err := svc.BatchDeposit(ctx, admin, []int64{1, 2}, amounts, models.DepositTypeManual); !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("expected ErrBatchMismatch for length mismatch, got %v", err)
	}
	if _, err := svc.BatchDeposit(ctx, admin, nil, nil, models.DepositTypeManual); !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("expected ErrBatchMismatch for empty batch, got %v", err)
	}
}

func TestReserveCommitRefundConservation(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, 7, decimal.NewFromInt(1000), models.DepositTypeManual); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	check := func(available, pending, invested int64) {
		t.Helper()
		account, err := svc.GetAccount(ctx, 7)
		if err != nil {
			t.Fatalf("get account failed: %v", err)
		}
		if !account.Balanced() {
			t.Fatalf("conservation law violated: %+v", account)
		}
		if !account.Available.Equal(decimal.NewFromInt(available)) ||
			!account.Pending.Equal(decimal.NewFromInt(pending)) ||
			!account.Invested.Equal(decimal.NewFromInt(invested)) {
			t.Fatalf("expected %d/%d/%d, got %s/%s/%s",
				available, pending, invested, account.Available, account.Pending, account.Invested)
		}
	}

	if err := svc.Reserve(ctx, 7, decimal.NewFromInt(600)); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	check(400, 600, 0)

	if err := svc.Commit(ctx, 7, decimal.NewFromInt(400)); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	check(400, 200, 400)

	if err := svc.Refund(ctx, 7, decimal.NewFromInt(200)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	check(600, 0, 400)
}

func TestReserveInsufficient(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	// Unknown owner reserves nothing.
	if err := svc.Reserve(ctx, 7, decimal.NewFromInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance for unknown owner, got %v", err)
	}

	if _, err := svc.Deposit(ctx, 7, decimal.NewFromInt(100), models.DepositTypeManual); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if err := svc.Reserve(ctx, 7, decimal.NewFromInt(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	available, err := svc.Available(ctx, 7)
	if err != nil {
		t.Fatalf("available failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(100)) {
		t.Errorf("failed reserve mutated the account: available %s", available)
	}
}

func TestPortfolioValue(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	value, err := svc.PortfolioValue(ctx, 7)
	if err != nil {
		t.Fatalf("portfolio value failed: %v", err)
	}
	if !value.IsZero() {
		t.Errorf("expected zero value for unknown owner, got %s", value)
	}

	if _, err := svc.Deposit(ctx, 7, decimal.NewFromInt(1000), models.DepositTypeManual); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if err := svc.Reserve(ctx, 7, decimal.NewFromInt(600)); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := svc.Commit(ctx, 7, decimal.NewFromInt(600)); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// Value spans all three buckets regardless of how funds are split.
	value, err = svc.PortfolioValue(ctx, 7)
	if err != nil {
		t.Fatalf("portfolio value failed: %v", err)
	}
	if !value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected value 1000, got %s", value)
	}
}

func TestListDepositsHistory(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	types := []models.DepositType{models.DepositTypeManual, models.DepositTypeSalary, models.DepositTypeEmployerMatch}
	for i, dt := range types {
		if _, err := svc.Deposit(ctx, 7, decimal.NewFromInt(int64(i+1)*10), dt); err != nil {
			t.Fatalf("deposit failed: %v", err)
		}
	}

	deposits, err := svc.ListDeposits(ctx, 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(deposits) != 3 {
		t.Fatalf("expected 3 deposits, got %d", len(deposits))
	}
	for i, dt := range types {
		if deposits[i].DepositType != dt {
			t.Errorf("deposit %d: expected type %s, got %s", i, dt, deposits[i].DepositType)
		}
	}
}
