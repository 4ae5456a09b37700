package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openbasket/allocator/internal/cache"
	"github.com/openbasket/allocator/internal/models"
	"github.com/openbasket/allocator/internal/repository"
)

var ValidPlanTypes = map[models.PlanType]struct{}{
	models.PlanTypeConservative: {},
	models.PlanTypeBalanced:     {},
	models.PlanTypeGrowth:       {},
	models.PlanTypeCustom:       {},
}

// PlanService handles allocation-plan business logic
type PlanService struct {
	planStore repository.PlanStore
	planCache *cache.PlanCache
}

// NewPlanService creates a new PlanService
func NewPlanService(planStore repository.PlanStore, planCache *cache.PlanCache) *PlanService {
	return &PlanService{
		planStore: planStore,
		planCache: planCache,
	}
}

// CreatePlan validates and stores a new plan with its targets.
// Admin only. The risk score is derived from the target mix.
func (s *PlanService) CreatePlan(ctx context.Context, actor models.Actor, req *models.CreatePlanRequest) (*models.PlanWithTargets, error) {
	if !actor.Admin {
		return nil, ErrNotAuthorized
	}
	if _, ok := ValidPlanTypes[req.PlanType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlanType, req.PlanType)
	}

	targets, err := validateTargets(req.Targets)
	if err != nil {
		return nil, err
	}

	plan := &models.Plan{
		PlanType:  req.PlanType,
		Name:      req.Name,
		RiskScore: models.RiskScore(targets),
	}
	if err := s.planStore.CreatePlan(ctx, plan, targets); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	return &models.PlanWithTargets{Plan: *plan, Targets: targets}, nil
}

// UpdatePlan atomically replaces a plan's full target list and recomputes
// its risk score. Admin only. There is no field-by-field update.
func (s *PlanService) UpdatePlan(ctx context.Context, actor models.Actor, planID int64, req *models.UpdatePlanRequest) (*models.PlanWithTargets, error) {
	if !actor.Admin {
		return nil, ErrNotAuthorized
	}

	targets, err := validateTargets(req.Targets)
	if err != nil {
		return nil, err
	}

	if err := s.planStore.ReplaceTargets(ctx, planID, models.RiskScore(targets), targets); err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	s.planCache.Invalidate(planID)

	return s.GetPlan(ctx, planID)
}

// GetPlan retrieves a plan with its targets in stored order
func (s *PlanService) GetPlan(ctx context.Context, planID int64) (*models.PlanWithTargets, error) {
	defer TrackTime("GetPlan", time.Now())

	if plan, ok := s.planCache.Get(planID); ok {
		return plan, nil
	}

	plan, err := s.planStore.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	s.planCache.Set(planID, plan)
	return plan, nil
}

// ListPlans retrieves plans in insertion order
func (s *PlanService) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	plans, err := s.planStore.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// DeactivatePlan soft-deletes a plan; future invests against it fail.
// Admin only.
func (s *PlanService) DeactivatePlan(ctx context.Context, actor models.Actor, planID int64) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	if err := s.planStore.SetActive(ctx, planID, false); err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("failed to deactivate plan: %w", err)
	}
	s.planCache.Invalidate(planID)
	return nil
}

// validateTargets checks the allocation invariants and converts the request
// targets into model targets in request order.
func validateTargets(reqs []models.TargetRequest) ([]models.AllocationTarget, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: targets must be non-empty", ErrInvalidAllocation)
	}

	seen := make(map[string]struct{}, len(reqs))
	targets := make([]models.AllocationTarget, 0, len(reqs))
	var total int64

	for i, req := range reqs {
		if !req.AssetClass.Valid() {
			return nil, fmt.Errorf("%w: target[%d] class %q", ErrInvalidAssetClass, i, req.AssetClass)
		}
		if req.MinBps < 0 || req.MinBps > req.TargetBps || req.TargetBps > req.MaxBps || req.MaxBps > models.TotalBps {
			return nil, fmt.Errorf("%w: target[%d] requires 0 <= min <= target <= max <= %d bps", ErrInvalidAllocation, i, models.TotalBps)
		}
		if _, dup := seen[req.Token]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, req.Token)
		}
		seen[req.Token] = struct{}{}
		total += req.TargetBps

		targets = append(targets, models.AllocationTarget{
			Position:   i,
			AssetClass: req.AssetClass,
			Token:      req.Token,
			TargetBps:  req.TargetBps,
			MinBps:     req.MinBps,
			MaxBps:     req.MaxBps,
		})
	}

	if total != models.TotalBps {
		return nil, fmt.Errorf("%w: targets sum to %d bps, want %d", ErrInvalidAllocation, total, models.TotalBps)
	}
	return targets, nil
}
