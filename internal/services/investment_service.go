package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openbasket/allocator/internal/exchange"
	"github.com/openbasket/allocator/internal/models"
	"github.com/openbasket/allocator/internal/repository"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// MaxSlippageBps is the hard ceiling for the administrator-set slippage
// tolerance (10%).
const MaxSlippageBps int64 = 1000

// DefaultSlippageBps is the tolerance used until an administrator changes it.
const DefaultSlippageBps int64 = 100

var bpsDenominator = decimal.NewFromInt(models.TotalBps)

// InvestmentService is the execution engine: it fans a reserved amount out
// across a plan's targets through the swap venue and drives the investment
// state machine Pending -> Executed | Failed.
type InvestmentService struct {
	plans       *PlanService
	ledger      *LedgerService
	investments repository.InvestmentStore
	holdings    repository.HoldingStore

	mu          sync.RWMutex
	venue       exchange.Venue
	slippageBps int64

	baseToken string
}

// NewInvestmentService creates a new InvestmentService. slippageBps is the
// initial slippage tolerance; callers validate it against MaxSlippageBps.
func NewInvestmentService(plans *PlanService, ledger *LedgerService, investments repository.InvestmentStore, holdings repository.HoldingStore, venue exchange.Venue, baseToken string, slippageBps int64) *InvestmentService {
	return &InvestmentService{
		plans:       plans,
		ledger:      ledger,
		investments: investments,
		holdings:    holdings,
		venue:       venue,
		slippageBps: slippageBps,
		baseToken:   baseToken,
	}
}

// SetSlippageTolerance sets the per-leg slippage tolerance in bps.
// Admin only; bounded by MaxSlippageBps. Already-running executions keep
// the tolerance they snapshotted.
func (s *InvestmentService) SetSlippageTolerance(actor models.Actor, bps int64) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	if bps < 0 || bps > MaxSlippageBps {
		return fmt.Errorf("%w: %d > %d bps", ErrSlippageTooHigh, bps, MaxSlippageBps)
	}
	s.mu.Lock()
	s.slippageBps = bps
	s.mu.Unlock()
	return nil
}

// SlippageTolerance returns the current slippage tolerance in bps
func (s *InvestmentService) SlippageTolerance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slippageBps
}

// SetVenue rebinds the swap venue. Admin only. Executed investments are
// unaffected: all legs of an execution use one venue snapshot.
func (s *InvestmentService) SetVenue(actor models.Actor, venue exchange.Venue) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	s.mu.Lock()
	s.venue = venue
	s.mu.Unlock()
	return nil
}

// Invest reserves balance and creates a pending investment against a plan
func (s *InvestmentService) Invest(ctx context.Context, ownerID int64, planID int64, amount decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Plan.Active {
		return nil, fmt.Errorf("%w: plan %d", ErrPlanInactive, planID)
	}

	if err := s.ledger.Reserve(ctx, ownerID, amount); err != nil {
		return nil, err
	}

	inv := &models.Investment{
		OwnerID:     ownerID,
		PlanID:      planID,
		TotalAmount: amount,
		Status:      models.InvestmentStatusPending,
	}
	if err := s.investments.CreateInvestment(ctx, inv); err != nil {
		// Hand the reservation back rather than stranding it in pending.
		if refundErr := s.ledger.Refund(ctx, ownerID, amount); refundErr != nil {
			log.WithError(refundErr).WithField("owner_id", ownerID).Error("failed to refund after create failure")
		}
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}
	return inv, nil
}

// ExecuteInvestment executes a pending investment: one leg per plan target
// in stored order, floor-division leg sizing, direct credit for the base
// token, swap with fallback-to-base for everything else, remainder to base.
// The investment reaches Executed even when every swap fails.
func (s *InvestmentService) ExecuteInvestment(ctx context.Context, id int64) (*models.Investment, error) {
	defer TrackTime("ExecuteInvestment", time.Now())

	inv, err := s.investments.GetInvestment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvestmentNotFound) {
			return nil, ErrInvestmentNotFound
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	if inv.Status != models.InvestmentStatusPending {
		return nil, fmt.Errorf("%w: investment %d is %s", ErrInvalidState, id, inv.Status)
	}

	// Pre-leg fault: nothing has been credited yet, so an error here leaves
	// the ledger untouched and the investment pending.
	plan, err := s.plans.GetPlan(ctx, inv.PlanID)
	if err != nil {
		return nil, err
	}

	// One snapshot for the whole call; admin rebinding mid-flight does not
	// mix venues or tolerances within an execution.
	s.mu.RLock()
	venue := s.venue
	slippageBps := s.slippageBps
	s.mu.RUnlock()

	executed := decimal.Zero
	for _, target := range plan.Targets {
		legAmount := inv.TotalAmount.
			Mul(decimal.NewFromInt(target.TargetBps)).
			Div(bpsDenominator).
			Floor()
		if legAmount.IsZero() {
			continue
		}

		if err := s.placeLeg(ctx, venue, slippageBps, inv.OwnerID, target.Token, legAmount); err != nil {
			return nil, err
		}
		// Value is always "placed", whichever path the leg took.
		executed = executed.Add(legAmount)
	}

	// Rounding remainder from floor division stays with the owner in base
	// currency; no value is destroyed.
	remainder := inv.TotalAmount.Sub(executed)
	if remainder.IsPositive() {
		if err := s.holdings.CreditHolding(ctx, inv.OwnerID, s.baseToken, remainder); err != nil {
			return nil, fmt.Errorf("failed to credit remainder: %w", err)
		}
	}

	if err := s.ledger.Commit(ctx, inv.OwnerID, inv.TotalAmount); err != nil {
		return nil, fmt.Errorf("failed to commit ledger: %w", err)
	}

	result, err := s.investments.MarkExecuted(ctx, id, executed)
	if err != nil {
		return nil, fmt.Errorf("failed to mark executed: %w", err)
	}
	return result, nil
}

// placeLeg credits one leg: directly for the base token, otherwise through
// the venue with fallback-to-base when the swap fails.
func (s *InvestmentService) placeLeg(ctx context.Context, venue exchange.Venue, slippageBps int64, ownerID int64, token string, legAmount decimal.Decimal) error {
	if token == s.baseToken {
		return s.holdings.CreditHolding(ctx, ownerID, s.baseToken, legAmount)
	}

	minOut := legAmount.
		Mul(decimal.NewFromInt(models.TotalBps - slippageBps)).
		Div(bpsDenominator)

	result, err := venue.Swap(ctx, exchange.SwapRequest{
		TokenIn:      s.baseToken,
		TokenOut:     token,
		AmountIn:     legAmount,
		MinAmountOut: minOut,
	})
	if err != nil {
		// One illiquid asset must not block the rest of the basket: the
		// leg's value is held back in base currency instead. No retry.
		log.WithError(err).WithFields(log.Fields{
			"owner_id": ownerID,
			"token":    token,
			"amount":   legAmount,
		}).Warn("swap failed, falling back to base currency")
		return s.holdings.CreditHolding(ctx, ownerID, s.baseToken, legAmount)
	}

	return s.holdings.CreditHolding(ctx, ownerID, token, result.AmountOut)
}

// BatchExecuteInvestments executes each id independently, best-effort.
// Unknown or non-pending ids are skipped without error, so a batch is safely
// re-submittable over a superset including already-processed ids.
func (s *InvestmentService) BatchExecuteInvestments(ctx context.Context, ids []int64) (*models.BatchExecuteResponse, error) {
	resp := &models.BatchExecuteResponse{IDs: []int64{}}
	for _, id := range ids {
		if _, err := s.ExecuteInvestment(ctx, id); err != nil {
			if errors.Is(err, ErrInvestmentNotFound) || errors.Is(err, ErrInvalidState) {
				log.WithField("investment_id", id).Debug("skipping batch entry")
				resp.Skipped++
				continue
			}
			return nil, fmt.Errorf("investment %d: %w", id, err)
		}
		resp.Executed++
		resp.IDs = append(resp.IDs, id)
	}
	return resp, nil
}

// DepositAndInvest is the single-call convenience flow: deposit, then invest
// and execute through the same primitives as the two-phase flow.
func (s *InvestmentService) DepositAndInvest(ctx context.Context, ownerID int64, planID int64, amount decimal.Decimal, depositType models.DepositType) (*models.Investment, error) {
	if _, err := s.ledger.Deposit(ctx, ownerID, amount, depositType); err != nil {
		return nil, err
	}
	inv, err := s.Invest(ctx, ownerID, planID, amount)
	if err != nil {
		return nil, err
	}
	return s.ExecuteInvestment(ctx, inv.ID)
}

// FailInvestment is the administrative abort: Pending -> Failed, refunding
// the reserved amount. Admin only.
func (s *InvestmentService) FailInvestment(ctx context.Context, actor models.Actor, id int64) (*models.Investment, error) {
	if !actor.Admin {
		return nil, ErrNotAuthorized
	}

	inv, err := s.investments.GetInvestment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvestmentNotFound) {
			return nil, ErrInvestmentNotFound
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	if inv.Status != models.InvestmentStatusPending {
		return nil, fmt.Errorf("%w: investment %d is %s", ErrInvalidState, id, inv.Status)
	}

	// Refund before the terminal write: if the refund fails the record stays
	// Pending and the abort can be retried.
	if err := s.ledger.Refund(ctx, inv.OwnerID, inv.TotalAmount); err != nil {
		return nil, fmt.Errorf("failed to refund: %w", err)
	}
	result, err := s.investments.MarkFailed(ctx, id)
	if err != nil {
		// Put the reservation back so the still-pending record and the
		// ledger stay in step.
		if reserveErr := s.ledger.Reserve(ctx, inv.OwnerID, inv.TotalAmount); reserveErr != nil {
			log.WithError(reserveErr).WithField("owner_id", inv.OwnerID).Error("failed to re-reserve after abort failure")
		}
		return nil, fmt.Errorf("failed to mark failed: %w", err)
	}
	return result, nil
}

// GetInvestment retrieves an investment by ID
func (s *InvestmentService) GetInvestment(ctx context.Context, id int64) (*models.Investment, error) {
	inv, err := s.investments.GetInvestment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvestmentNotFound) {
			return nil, ErrInvestmentNotFound
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

// ListInvestments retrieves all investments for an owner
func (s *InvestmentService) ListInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error) {
	return s.investments.ListInvestments(ctx, ownerID)
}

// ListPendingInvestments retrieves an owner's pending investments
func (s *InvestmentService) ListPendingInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error) {
	return s.investments.ListPendingInvestments(ctx, ownerID)
}

// ListHoldings retrieves an owner's per-token holdings
func (s *InvestmentService) ListHoldings(ctx context.Context, ownerID int64) ([]models.Holding, error) {
	return s.holdings.ListHoldings(ctx, ownerID)
}
