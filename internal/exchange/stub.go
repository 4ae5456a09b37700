package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// StubVenue is an in-process venue for tests and database-less runs.
// Output is AmountIn scaled by a fixed rate; individual tokens can be marked
// illiquid to exercise the engine's fallback path.
type StubVenue struct {
	mu       sync.Mutex
	rate     decimal.Decimal
	illiquid map[string]bool
	swaps    []SwapRequest
}

// NewStubVenue creates a stub venue with a 1:1 output rate
func NewStubVenue() *StubVenue {
	return &StubVenue{
		rate:     decimal.NewFromInt(1),
		illiquid: make(map[string]bool),
	}
}

// SetRate sets the output rate applied to every swap
func (v *StubVenue) SetRate(rate decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rate = rate
}

// SetIlliquid marks a token so swaps into it fail
func (v *StubVenue) SetIlliquid(token string, illiquid bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.illiquid[token] = illiquid
}

// Swaps returns the requests seen so far
func (v *StubVenue) Swaps() []SwapRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]SwapRequest, len(v.swaps))
	copy(out, v.swaps)
	return out
}

// Swap fills the order at the configured rate, enforcing the minimum output
func (v *StubVenue) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.swaps = append(v.swaps, req)

	if v.illiquid[req.TokenOut] {
		return nil, fmt.Errorf("%w: no liquidity for %s", ErrSwapFailed, req.TokenOut)
	}

	out := req.AmountIn.Mul(v.rate)
	if out.LessThan(req.MinAmountOut) {
		return nil, fmt.Errorf("%w: output %s below minimum %s", ErrSwapFailed, out, req.MinAmountOut)
	}
	return &SwapResult{AmountOut: out, Reference: req.Reference}, nil
}
