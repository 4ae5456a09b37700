package repository

import (
	"context"
	"errors"

	"github.com/openbasket/allocator/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrAccountNotFound     = errors.New("ledger account not found")
	ErrInvestmentNotFound  = errors.New("investment not found")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrInsufficientPending = errors.New("insufficient pending balance")
	ErrNotPending          = errors.New("investment is not pending")
)

// PlanStore persists plans and their ordered allocation targets
type PlanStore interface {
	// CreatePlan stores the plan and its targets, assigning the plan ID.
	CreatePlan(ctx context.Context, plan *models.Plan, targets []models.AllocationTarget) error
	// ReplaceTargets atomically swaps the full target list and updates the
	// plan's risk score and updated timestamp.
	ReplaceTargets(ctx context.Context, planID int64, riskScore int64, targets []models.AllocationTarget) error
	GetPlan(ctx context.Context, planID int64) (*models.PlanWithTargets, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error)
	SetActive(ctx context.Context, planID int64, active bool) error
}

// LedgerStore persists accounts, deposit records and balance moves.
// Reserve/Commit/Refund are the only mutation path for the balance buckets,
// which is what keeps the conservation law structurally intact.
type LedgerStore interface {
	GetAccount(ctx context.Context, ownerID int64) (*models.LedgerAccount, error)
	// CreditDeposit appends the record (assigning its ID), lazily creates
	// the account, and credits total-deposited and available together.
	CreditDeposit(ctx context.Context, rec *models.DepositRecord) error
	// CreditDeposits applies all records or none of them.
	CreditDeposits(ctx context.Context, recs []*models.DepositRecord) error
	// Reserve moves amount available -> pending.
	Reserve(ctx context.Context, ownerID int64, amount decimal.Decimal) error
	// Commit moves amount pending -> invested.
	Commit(ctx context.Context, ownerID int64, amount decimal.Decimal) error
	// Refund moves amount pending -> available.
	Refund(ctx context.Context, ownerID int64, amount decimal.Decimal) error
	ListDeposits(ctx context.Context, ownerID int64) ([]models.DepositRecord, error)
}

// InvestmentStore persists investment records and their one-way transitions
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, inv *models.Investment) error
	GetInvestment(ctx context.Context, id int64) (*models.Investment, error)
	// MarkExecuted transitions Pending -> Executed; fails ErrNotPending if
	// the record is already terminal.
	MarkExecuted(ctx context.Context, id int64, executedAmount decimal.Decimal) (*models.Investment, error)
	// MarkFailed transitions Pending -> Failed under the same guard.
	MarkFailed(ctx context.Context, id int64) (*models.Investment, error)
	ListInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error)
	ListPendingInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error)
}

// HoldingStore persists per-token holdings
type HoldingStore interface {
	// CreditHolding adds amount to the owner's holding of token, creating
	// the row if needed.
	CreditHolding(ctx context.Context, ownerID int64, token string, amount decimal.Decimal) error
	ListHoldings(ctx context.Context, ownerID int64) ([]models.Holding, error)
}
