package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openbasket/allocator/internal/models"
	"github.com/shopspring/decimal"
)

// HoldingRepository handles database operations for per-token holdings
type HoldingRepository struct {
	pool *pgxpool.Pool
}

// NewHoldingRepository creates a new HoldingRepository
func NewHoldingRepository(pool *pgxpool.Pool) *HoldingRepository {
	return &HoldingRepository{pool: pool}
}

// CreditHolding adds amount to the owner's holding of token
func (r *HoldingRepository) CreditHolding(ctx context.Context, ownerID int64, token string, amount decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO holding (owner_id, token, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, token) DO UPDATE SET
			amount = holding.amount + EXCLUDED.amount
	`, ownerID, token, amount)
	if err != nil {
		return fmt.Errorf("failed to credit holding: %w", err)
	}
	return nil
}

// ListHoldings retrieves all holdings for an owner
func (r *HoldingRepository) ListHoldings(ctx context.Context, ownerID int64) ([]models.Holding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT owner_id, token, amount
		FROM holding
		WHERE owner_id = $1
		ORDER BY token
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.OwnerID, &h.Token, &h.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}
