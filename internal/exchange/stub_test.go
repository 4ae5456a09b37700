package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStubVenueSwap(t *testing.T) {
	v := NewStubVenue()

	result, err := v.Swap(context.Background(), SwapRequest{
		TokenIn:      "USDC",
		TokenOut:     "WETH",
		AmountIn:     decimal.NewFromInt(100),
		MinAmountOut: decimal.NewFromInt(99),
	})
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if !result.AmountOut.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 1:1 output 100, got %s", result.AmountOut)
	}

	swaps := v.Swaps()
	if len(swaps) != 1 || swaps[0].TokenOut != "WETH" {
		t.Errorf("expected the request to be recorded, got %+v", swaps)
	}
}

func TestStubVenueIlliquidToken(t *testing.T) {
	v := NewStubVenue()
	v.SetIlliquid("WETH", true)

	_, err := v.Swap(context.Background(), SwapRequest{
		TokenIn:      "USDC",
		TokenOut:     "WETH",
		AmountIn:     decimal.NewFromInt(100),
		MinAmountOut: decimal.NewFromInt(99),
	})
	if !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed, got %v", err)
	}

	// Failed swaps are still recorded.
	if len(v.Swaps()) != 1 {
		t.Errorf("expected failed swap to be recorded")
	}

	v.SetIlliquid("WETH", false)
	if _, err := v.Swap(context.Background(), SwapRequest{
		TokenIn:      "USDC",
		TokenOut:     "WETH",
		AmountIn:     decimal.NewFromInt(100),
		MinAmountOut: decimal.NewFromInt(99),
	}); err != nil {
		t.Errorf("expected swap to succeed after liquidity returns, got %v", err)
	}
}

func TestStubVenueMinOutEnforced(t *testing.T) {
	v := NewStubVenue()
	v.SetRate(decimal.NewFromFloat(0.9))

	_, err := v.Swap(context.Background(), SwapRequest{
		TokenIn:      "USDC",
		TokenOut:     "WETH",
		AmountIn:     decimal.NewFromInt(100),
		MinAmountOut: decimal.NewFromInt(99),
	})
	if !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed when output is below minimum, got %v", err)
	}

	result, err := v.Swap(context.Background(), SwapRequest{
		TokenIn:      "USDC",
		TokenOut:     "WETH",
		AmountIn:     decimal.NewFromInt(100),
		MinAmountOut: decimal.NewFromInt(90),
	})
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if !result.AmountOut.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected output 90 at rate 0.9, got %s", result.AmountOut)
	}
}
