package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is an HTTP client for a swap-venue REST API.
// The venue is expected to expose POST {base}/swap taking a SwapRequest and
// returning either a swap result or an error body.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new venue client
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type swapResponse struct {
	AmountOut decimal.Decimal `json:"amount_out"`
	Reference string          `json:"reference"`
	Error     string          `json:"error"`
}

// Swap submits a swap order and waits for the venue's report.
// Any non-2xx response or under-delivery is reported as ErrSwapFailed.
func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed swapResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: venue returned %d: %s", ErrSwapFailed, resp.StatusCode, parsed.Error)
	}
	if parsed.AmountOut.LessThan(req.MinAmountOut) {
		return nil, fmt.Errorf("%w: output %s below minimum %s", ErrSwapFailed, parsed.AmountOut, req.MinAmountOut)
	}

	return &SwapResult{AmountOut: parsed.AmountOut, Reference: parsed.Reference}, nil
}
