package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openbasket/allocator/internal/models"
)

// PlanRepository handles database operations for plans
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// CreatePlan creates a plan and its targets in one transaction
func (r *PlanRepository) CreatePlan(ctx context.Context, plan *models.Plan, targets []models.AllocationTarget) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO plan (plan_type, name, risk_score, active, created, updated)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		RETURNING id, active, created, updated
	`
	err = tx.QueryRow(ctx, query, plan.PlanType, plan.Name, plan.RiskScore).
		Scan(&plan.ID, &plan.Active, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if err := insertTargets(ctx, tx, plan.ID, targets); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ReplaceTargets atomically replaces the full target list of a plan
func (r *PlanRepository) ReplaceTargets(ctx context.Context, planID int64, riskScore int64, targets []models.AllocationTarget) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE plan SET risk_score = $1, updated = NOW() WHERE id = $2`, riskScore, planID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM plan_target WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("failed to delete targets: %w", err)
	}

	if err := insertTargets(ctx, tx, planID, targets); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertTargets(ctx context.Context, tx pgx.Tx, planID int64, targets []models.AllocationTarget) error {
	query := `
		INSERT INTO plan_target (plan_id, position, asset_class, token, target_bps, min_bps, max_bps)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range targets {
		targets[i].PlanID = planID
		targets[i].Position = i
		t := targets[i]
		if _, err := tx.Exec(ctx, query, planID, i, t.AssetClass, t.Token, t.TargetBps, t.MinBps, t.MaxBps); err != nil {
			return fmt.Errorf("failed to insert target: %w", err)
		}
	}
	return nil
}

// GetPlan retrieves a plan with its targets in stored order
func (r *PlanRepository) GetPlan(ctx context.Context, planID int64) (*models.PlanWithTargets, error) {
	query := `
		SELECT id, plan_type, name, risk_score, active, created, updated
		FROM plan
		WHERE id = $1
	`
	p := models.Plan{}
	err := r.pool.QueryRow(ctx, query, planID).Scan(
		&p.ID, &p.PlanType, &p.Name, &p.RiskScore, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT plan_id, position, asset_class, token, target_bps, min_bps, max_bps
		FROM plan_target
		WHERE plan_id = $1
		ORDER BY position
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var targets []models.AllocationTarget
	for rows.Next() {
		var t models.AllocationTarget
		if err := rows.Scan(&t.PlanID, &t.Position, &t.AssetClass, &t.Token, &t.TargetBps, &t.MinBps, &t.MaxBps); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.PlanWithTargets{Plan: p, Targets: targets}, nil
}

// ListPlans retrieves plans in insertion order
func (r *PlanRepository) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	query := `
		SELECT id, plan_type, name, risk_score, active, created, updated
		FROM plan
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.PlanType, &p.Name, &p.RiskScore, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// SetActive flips a plan's active flag (soft delete)
func (r *PlanRepository) SetActive(ctx context.Context, planID int64, active bool) error {
	result, err := r.pool.Exec(ctx, `UPDATE plan SET active = $1, updated = NOW() WHERE id = $2`, active, planID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}
