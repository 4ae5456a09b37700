package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus represents the status of an investment
type InvestmentStatus string

const (
	InvestmentStatusPending  InvestmentStatus = "Pending"
	InvestmentStatusExecuted InvestmentStatus = "Executed"
	InvestmentStatusFailed   InvestmentStatus = "Failed"
)

// Terminal reports whether the status is a terminal state.
func (s InvestmentStatus) Terminal() bool {
	return s == InvestmentStatusExecuted || s == InvestmentStatusFailed
}

// Investment represents one allocation of a reserved amount against a plan.
// Created Pending; transitions exactly once to Executed or Failed.
type Investment struct {
	ID             int64            `json:"id"`
	OwnerID        int64            `json:"owner_id"`
	PlanID         int64            `json:"plan_id"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	Status         InvestmentStatus `json:"status"`
	ExecutedAmount decimal.Decimal  `json:"executed_amount"`
	CreatedAt      time.Time        `json:"created_at"`
	ExecutedAt     *time.Time       `json:"executed_at,omitempty"`
}

// Actor identifies the caller of a mutating operation. Admin gating is an
// explicit parameter threaded through service calls, not global state.
type Actor struct {
	UserID int64
	Admin  bool
}

// AdminActor is a convenience constructor for administrative callers.
func AdminActor(userID int64) Actor {
	return Actor{UserID: userID, Admin: true}
}
