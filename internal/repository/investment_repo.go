package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openbasket/allocator/internal/models"
	"github.com/shopspring/decimal"
)

// InvestmentRepository handles database operations for investments
type InvestmentRepository struct {
	pool *pgxpool.Pool
}

// NewInvestmentRepository creates a new InvestmentRepository
func NewInvestmentRepository(pool *pgxpool.Pool) *InvestmentRepository {
	return &InvestmentRepository{pool: pool}
}

// CreateInvestment stores a new pending investment
func (r *InvestmentRepository) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	query := `
		INSERT INTO investment (owner_id, plan_id, total_amount, status, executed_amount, created)
		VALUES ($1, $2, $3, $4, 0, NOW())
		RETURNING id, created
	`
	err := r.pool.QueryRow(ctx, query, inv.OwnerID, inv.PlanID, inv.TotalAmount, inv.Status).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// GetInvestment retrieves an investment by ID
func (r *InvestmentRepository) GetInvestment(ctx context.Context, id int64) (*models.Investment, error) {
	query := `
		SELECT id, owner_id, plan_id, total_amount, status, executed_amount, created, executed_at
		FROM investment
		WHERE id = $1
	`
	inv := &models.Investment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.OwnerID, &inv.PlanID, &inv.TotalAmount, &inv.Status,
		&inv.ExecutedAmount, &inv.CreatedAt, &inv.ExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

// MarkExecuted transitions a pending investment to Executed.
// The status guard in the WHERE clause makes the transition write-once.
func (r *InvestmentRepository) MarkExecuted(ctx context.Context, id int64, executedAmount decimal.Decimal) (*models.Investment, error) {
	query := `
		UPDATE investment
		SET status = $2, executed_amount = $3, executed_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING id, owner_id, plan_id, total_amount, status, executed_amount, created, executed_at
	`
	inv := &models.Investment{}
	err := r.pool.QueryRow(ctx, query, id, models.InvestmentStatusExecuted, executedAmount, models.InvestmentStatusPending).Scan(
		&inv.ID, &inv.OwnerID, &inv.PlanID, &inv.TotalAmount, &inv.Status,
		&inv.ExecutedAmount, &inv.CreatedAt, &inv.ExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetInvestment(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark executed: %w", err)
	}
	return inv, nil
}

// MarkFailed transitions a pending investment to Failed
func (r *InvestmentRepository) MarkFailed(ctx context.Context, id int64) (*models.Investment, error) {
	query := `
		UPDATE investment
		SET status = $2, executed_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING id, owner_id, plan_id, total_amount, status, executed_amount, created, executed_at
	`
	inv := &models.Investment{}
	err := r.pool.QueryRow(ctx, query, id, models.InvestmentStatusFailed, models.InvestmentStatusPending).Scan(
		&inv.ID, &inv.OwnerID, &inv.PlanID, &inv.TotalAmount, &inv.Status,
		&inv.ExecutedAmount, &inv.CreatedAt, &inv.ExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetInvestment(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark failed: %w", err)
	}
	return inv, nil
}

// ListInvestments retrieves all investments for an owner in insertion order
func (r *InvestmentRepository) ListInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error) {
	return r.list(ctx, ownerID, false)
}

// ListPendingInvestments retrieves an owner's pending investments
func (r *InvestmentRepository) ListPendingInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error) {
	return r.list(ctx, ownerID, true)
}

func (r *InvestmentRepository) list(ctx context.Context, ownerID int64, pendingOnly bool) ([]models.Investment, error) {
	query := `
		SELECT id, owner_id, plan_id, total_amount, status, executed_amount, created, executed_at
		FROM investment
		WHERE owner_id = $1
	`
	if pendingOnly {
		query += ` AND status = 'Pending'`
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		var inv models.Investment
		if err := rows.Scan(&inv.ID, &inv.OwnerID, &inv.PlanID, &inv.TotalAmount, &inv.Status,
			&inv.ExecutedAmount, &inv.CreatedAt, &inv.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}
