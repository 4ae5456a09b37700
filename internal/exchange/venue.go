package exchange

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrSwapFailed indicates the venue reverted, lacked liquidity, or delivered
// below the requested minimum. The engine absorbs it per leg; it never
// surfaces as an overall investment failure.
var ErrSwapFailed = errors.New("swap failed")

// SwapRequest describes one swap order sent to the venue
type SwapRequest struct {
	TokenIn      string          `json:"token_in"`
	TokenOut     string          `json:"token_out"`
	AmountIn     decimal.Decimal `json:"amount_in"`
	MinAmountOut decimal.Decimal `json:"min_amount_out"`
	Reference    string          `json:"reference,omitempty"`
}

// SwapResult is the venue's report of a completed swap
type SwapResult struct {
	AmountOut decimal.Decimal `json:"amount_out"`
	Reference string          `json:"reference,omitempty"`
}

// Venue abstracts the external swap venue. Untrusted for liveness (it may
// fail or under-deliver), trusted for custody once it reports success.
type Venue interface {
	Swap(ctx context.Context, req SwapRequest) (*SwapResult, error)
}
