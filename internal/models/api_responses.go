package models

import (
	"github.com/shopspring/decimal"
)

// TargetRequest represents one allocation target in create/update requests
type TargetRequest struct {
	AssetClass AssetClass `json:"asset_class" binding:"required"`
	Token      string     `json:"token" binding:"required"`
	TargetBps  int64      `json:"target_bps"`
	MinBps     int64      `json:"min_bps"`
	MaxBps     int64      `json:"max_bps"`
}

// CreatePlanRequest represents the request body for creating a plan
type CreatePlanRequest struct {
	PlanType PlanType        `json:"plan_type" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Targets  []TargetRequest `json:"targets" binding:"required"`
}

// UpdatePlanRequest represents the request body for replacing a plan's targets
type UpdatePlanRequest struct {
	Targets []TargetRequest `json:"targets" binding:"required"`
}

// DepositRequest represents the request body for a single deposit
type DepositRequest struct {
	OwnerID     int64           `json:"owner_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	DepositType DepositType     `json:"deposit_type" binding:"required"`
}

// BatchDepositRequest represents the request body for an all-or-nothing batch
type BatchDepositRequest struct {
	OwnerIDs    []int64           `json:"owner_ids" binding:"required"`
	Amounts     []decimal.Decimal `json:"amounts" binding:"required"`
	DepositType DepositType       `json:"deposit_type" binding:"required"`
}

// InvestRequest represents the request body for creating an investment
type InvestRequest struct {
	OwnerID int64           `json:"owner_id" binding:"required"`
	PlanID  int64           `json:"plan_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// DepositAndInvestRequest represents the single-call convenience flow
type DepositAndInvestRequest struct {
	OwnerID     int64           `json:"owner_id" binding:"required"`
	PlanID      int64           `json:"plan_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	DepositType DepositType     `json:"deposit_type" binding:"required"`
}

// BatchExecuteRequest represents the request body for best-effort batch execution
type BatchExecuteRequest struct {
	InvestmentIDs []int64 `json:"investment_ids" binding:"required"`
}

// BatchExecuteResponse reports how a batch execution went
type BatchExecuteResponse struct {
	Executed int     `json:"executed"`
	Skipped  int     `json:"skipped"`
	IDs      []int64 `json:"executed_ids"`
}

// SlippageRequest represents the admin request to set slippage tolerance
type SlippageRequest struct {
	ToleranceBps int64 `json:"tolerance_bps"`
}

// PortfolioValueResponse is the nominal value of an account
type PortfolioValueResponse struct {
	OwnerID int64           `json:"owner_id"`
	Value   decimal.Decimal `json:"value"`
}

// AccountSummaryResponse aggregates an owner's ledger state
type AccountSummaryResponse struct {
	Account     *LedgerAccount  `json:"account"`
	Deposits    []DepositRecord `json:"deposits"`
	Investments []Investment    `json:"investments"`
	Holdings    []Holding       `json:"holdings"`
}

// ImportDepositsResponse reports the result of a CSV deposit import
type ImportDepositsResponse struct {
	Imported int             `json:"imported"`
	Total    decimal.Decimal `json:"total"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
