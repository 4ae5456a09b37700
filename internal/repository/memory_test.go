package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/openbasket/allocator/internal/models"
	"github.com/shopspring/decimal"
)

func TestMemoryStorePlanIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		plan := &models.Plan{PlanType: models.PlanTypeCustom, Name: "p"}
		targets := []models.AllocationTarget{
			{AssetClass: models.AssetClassStablecoin, Token: "USDC", TargetBps: 10000, MaxBps: 10000},
		}
		if err := store.CreatePlan(ctx, plan, targets); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if plan.ID != want {
			t.Errorf("expected sequential ID %d, got %d", want, plan.ID)
		}
		if !plan.Active {
			t.Error("expected new plan to be active")
		}
	}
}

func TestMemoryStoreGetPlanCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	plan := &models.Plan{PlanType: models.PlanTypeCustom, Name: "p"}
	targets := []models.AllocationTarget{
		{AssetClass: models.AssetClassStablecoin, Token: "USDC", TargetBps: 10000, MaxBps: 10000},
	}
	if err := store.CreatePlan(ctx, plan, targets); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// Mutating the returned value must not affect stored state.
	got.Plan.Name = "mutated"
	got.Targets[0].Token = "HACK"

	again, err := store.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if again.Plan.Name != "p" || again.Targets[0].Token != "USDC" {
		t.Errorf("caller mutation leaked into the store: %+v", again)
	}
}

func TestMemoryStoreAccountLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetAccount(ctx, 7); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	rec := &models.DepositRecord{OwnerID: 7, Amount: decimal.NewFromInt(100), DepositType: models.DepositTypeManual}
	if err := store.CreditDeposit(ctx, rec); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("expected deposit ID 1, got %d", rec.ID)
	}

	account, err := store.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !account.TotalDeposited.Equal(decimal.NewFromInt(100)) || !account.Available.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected account after deposit: %+v", account)
	}

	// Second deposit accumulates on the same account.
	if err := store.CreditDeposit(ctx, &models.DepositRecord{OwnerID: 7, Amount: decimal.NewFromInt(50), DepositType: models.DepositTypeSalary}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	account, _ = store.GetAccount(ctx, 7)
	if !account.TotalDeposited.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected deposited 150, got %s", account.TotalDeposited)
	}
	if !account.Balanced() {
		t.Errorf("conservation law violated: %+v", account)
	}
}

func TestMemoryStoreBucketMoves(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	amount := decimal.NewFromInt

	if err := store.Reserve(ctx, 7, amount(10)); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := store.CreditDeposit(ctx, &models.DepositRecord{OwnerID: 7, Amount: amount(100), DepositType: models.DepositTypeManual}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	if err := store.Reserve(ctx, 7, amount(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := store.Reserve(ctx, 7, amount(60)); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// Cannot commit or refund more than is pending.
	if err := store.Commit(ctx, 7, amount(61)); !errors.Is(err, ErrInsufficientPending) {
		t.Fatalf("expected ErrInsufficientPending, got %v", err)
	}
	if err := store.Refund(ctx, 7, amount(61)); !errors.Is(err, ErrInsufficientPending) {
		t.Fatalf("expected ErrInsufficientPending, got %v", err)
	}

	if err := store.Commit(ctx, 7, amount(40)); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := store.Refund(ctx, 7, amount(20)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	account, err := store.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !account.Available.Equal(amount(60)) || !account.Pending.IsZero() || !account.Invested.Equal(amount(40)) {
		t.Errorf("unexpected buckets: %s/%s/%s", account.Available, account.Pending, account.Invested)
	}
	if !account.Balanced() {
		t.Errorf("conservation law violated: %+v", account)
	}
}

func TestMemoryStoreBatchDepositAtomicUnderOneLock(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	recs := []*models.DepositRecord{
		{OwnerID: 1, Amount: decimal.NewFromInt(10), DepositType: models.DepositTypeManual},
		{OwnerID: 2, Amount: decimal.NewFromInt(20), DepositType: models.DepositTypeManual},
		{OwnerID: 1, Amount: decimal.NewFromInt(5), DepositType: models.DepositTypeManual},
	}
	if err := store.CreditDeposits(ctx, recs); err != nil {
		t.Fatalf("batch credit failed: %v", err)
	}

	for i, rec := range recs {
		if rec.ID != int64(i+1) {
			t.Errorf("record %d: expected sequential ID %d, got %d", i, i+1, rec.ID)
		}
	}

	account, err := store.GetAccount(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !account.Available.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected owner 1 available 15, got %s", account.Available)
	}

	deposits, err := store.ListDeposits(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(deposits) != 2 {
		t.Errorf("expected 2 deposits for owner 1, got %d", len(deposits))
	}
}

func TestMemoryStoreInvestmentStateMachine(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	inv := &models.Investment{OwnerID: 7, PlanID: 1, TotalAmount: decimal.NewFromInt(100), Status: models.InvestmentStatusPending}
	if err := store.CreateInvestment(ctx, inv); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if inv.ID != 1 {
		t.Errorf("expected investment ID 1, got %d", inv.ID)
	}

	executed, err := store.MarkExecuted(ctx, inv.ID, decimal.NewFromInt(99))
	if err != nil {
		t.Fatalf("mark executed failed: %v", err)
	}
	if executed.Status != models.InvestmentStatusExecuted || !executed.ExecutedAmount.Equal(decimal.NewFromInt(99)) {
		t.Errorf("unexpected executed investment: %+v", executed)
	}
	if executed.ExecutedAt == nil {
		t.Error("expected executed_at to be set")
	}

	// Terminal records are write-once.
	if _, err := store.MarkExecuted(ctx, inv.ID, decimal.NewFromInt(99)); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending on re-execute, got %v", err)
	}
	if _, err := store.MarkFailed(ctx, inv.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending on fail-after-execute, got %v", err)
	}

	if _, err := store.MarkExecuted(ctx, 999, decimal.Zero); !errors.Is(err, ErrInvestmentNotFound) {
		t.Errorf("expected ErrInvestmentNotFound, got %v", err)
	}
}

func TestMemoryStoreListInvestmentsFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		inv := &models.Investment{OwnerID: 7, PlanID: 1, TotalAmount: decimal.NewFromInt(10), Status: models.InvestmentStatusPending}
		if err := store.CreateInvestment(ctx, inv); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	other := &models.Investment{OwnerID: 8, PlanID: 1, TotalAmount: decimal.NewFromInt(10), Status: models.InvestmentStatusPending}
	if err := store.CreateInvestment(ctx, other); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.MarkExecuted(ctx, 2, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("mark executed failed: %v", err)
	}

	all, err := store.ListInvestments(ctx, 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 investments for owner 7, got %d", len(all))
	}

	pending, err := store.ListPendingInvestments(ctx, 7)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending investments, got %d", len(pending))
	}
	for _, inv := range pending {
		if inv.Status != models.InvestmentStatusPending {
			t.Errorf("non-pending investment in pending list: %+v", inv)
		}
	}
}

func TestMemoryStoreHoldings(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.CreditHolding(ctx, 7, "WETH", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := store.CreditHolding(ctx, 7, "USDC", decimal.NewFromInt(70)); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := store.CreditHolding(ctx, 7, "WETH", decimal.NewFromInt(5)); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	holdings, err := store.ListHoldings(ctx, 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	// Sorted by token.
	if holdings[0].Token != "USDC" || !holdings[0].Amount.Equal(decimal.NewFromInt(70)) {
		t.Errorf("unexpected first holding: %+v", holdings[0])
	}
	if holdings[1].Token != "WETH" || !holdings[1].Amount.Equal(decimal.NewFromInt(35)) {
		t.Errorf("expected WETH holding accumulated to 35, got %+v", holdings[1])
	}

	empty, err := store.ListHoldings(ctx, 8)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no holdings for owner 8, got %+v", empty)
	}
}
