package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositType represents the origin of a deposit
type DepositType string

const (
	DepositTypeManual        DepositType = "Manual"
	DepositTypeSalary        DepositType = "Salary"
	DepositTypeEmployerMatch DepositType = "EmployerMatch"
)

// Valid reports whether the deposit type is a known enum value.
func (d DepositType) Valid() bool {
	switch d {
	case DepositTypeManual, DepositTypeSalary, DepositTypeEmployerMatch:
		return true
	}
	return false
}

// LedgerAccount tracks one owner's funds across the three balance buckets.
// Invariant: TotalDeposited == Available + Pending + Invested.
// Created lazily on first deposit; mutated only through the ledger's
// reserve/commit/refund operations; never deleted.
type LedgerAccount struct {
	OwnerID        int64           `json:"owner_id"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	Available      decimal.Decimal `json:"available"`
	Pending        decimal.Decimal `json:"pending"`
	Invested       decimal.Decimal `json:"invested"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Balanced reports whether the account satisfies the conservation law.
func (a *LedgerAccount) Balanced() bool {
	return a.TotalDeposited.Equal(a.Available.Add(a.Pending).Add(a.Invested))
}

// PortfolioValue is the nominal account value: available + pending + invested.
func (a *LedgerAccount) PortfolioValue() decimal.Decimal {
	return a.Available.Add(a.Pending).Add(a.Invested)
}

// DepositRecord is an append-only, immutable record of one deposit
type DepositRecord struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	DepositType DepositType     `json:"deposit_type"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Holding is one owner's nominal balance in a single token.
// Uses composite primary key (owner_id, token) - no separate ID field.
type Holding struct {
	OwnerID int64           `json:"owner_id"`
	Token   string          `json:"token"`
	Amount  decimal.Decimal `json:"amount"`
}
