package services

import "errors"

// Validation errors: caller input, reported, never auto-retried.
var (
	ErrInvalidAllocation   = errors.New("invalid allocation")
	ErrDuplicateAsset      = errors.New("duplicate asset in allocation")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrBelowMinimum        = errors.New("deposit below minimum")
	ErrInvalidPlanType     = errors.New("invalid plan type")
	ErrInvalidAssetClass   = errors.New("invalid asset class")
	ErrInvalidDepositType  = errors.New("invalid deposit type")
	ErrBatchMismatch       = errors.New("batch owners and amounts must be equal-length and non-empty")
)

// State errors: ordering or lookup mistakes.
var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPlanInactive       = errors.New("plan is inactive")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrInvalidState       = errors.New("investment is not in a pending state")
)

// Resource errors: caller must deposit before retrying.
var (
	ErrInsufficientBalance = errors.New("insufficient available balance")
)

// Administrative errors: rejected synchronously, never partially applied.
var (
	ErrNotAuthorized   = errors.New("administrator role required")
	ErrSlippageTooHigh = errors.New("slippage tolerance exceeds ceiling")
)
