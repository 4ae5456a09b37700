package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openbasket/allocator/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory implementation of all four stores, used by
// tests and when the service runs without a database. A single mutex keeps
// every operation atomic, matching the serial execution model.
type MemoryStore struct {
	mu sync.Mutex

	plans       map[int64]*models.Plan
	targets     map[int64][]models.AllocationTarget
	accounts    map[int64]*models.LedgerAccount
	deposits    []models.DepositRecord
	investments map[int64]*models.Investment
	holdings    map[int64]map[string]decimal.Decimal

	nextPlanID       int64
	nextDepositID    int64
	nextInvestmentID int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:            make(map[int64]*models.Plan),
		targets:          make(map[int64][]models.AllocationTarget),
		accounts:         make(map[int64]*models.LedgerAccount),
		investments:      make(map[int64]*models.Investment),
		holdings:         make(map[int64]map[string]decimal.Decimal),
		nextPlanID:       1,
		nextDepositID:    1,
		nextInvestmentID: 1,
	}
}

// --- PlanStore ---

func (s *MemoryStore) CreatePlan(ctx context.Context, plan *models.Plan, targets []models.AllocationTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan.ID = s.nextPlanID
	s.nextPlanID++
	plan.Active = true
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	stored := make([]models.AllocationTarget, len(targets))
	for i, t := range targets {
		t.PlanID = plan.ID
		t.Position = i
		stored[i] = t
	}

	cp := *plan
	s.plans[plan.ID] = &cp
	s.targets[plan.ID] = stored
	return nil
}

func (s *MemoryStore) ReplaceTargets(ctx context.Context, planID int64, riskScore int64, targets []models.AllocationTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planID]
	if !ok {
		return ErrPlanNotFound
	}
	plan.RiskScore = riskScore
	plan.UpdatedAt = time.Now()

	stored := make([]models.AllocationTarget, len(targets))
	for i, t := range targets {
		t.PlanID = planID
		t.Position = i
		stored[i] = t
	}
	s.targets[planID] = stored
	return nil
}

func (s *MemoryStore) GetPlan(ctx context.Context, planID int64) (*models.PlanWithTargets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	targets := make([]models.AllocationTarget, len(s.targets[planID]))
	copy(targets, s.targets[planID])
	return &models.PlanWithTargets{Plan: *plan, Targets: targets}, nil
}

func (s *MemoryStore) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var plans []models.Plan
	for _, id := range ids {
		p := s.plans[id]
		if activeOnly && !p.Active {
			continue
		}
		plans = append(plans, *p)
	}
	return plans, nil
}

func (s *MemoryStore) SetActive(ctx context.Context, planID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planID]
	if !ok {
		return ErrPlanNotFound
	}
	plan.Active = active
	plan.UpdatedAt = time.Now()
	return nil
}

// --- LedgerStore ---

func (s *MemoryStore) GetAccount(ctx context.Context, ownerID int64) (*models.LedgerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) CreditDeposit(ctx context.Context, rec *models.DepositRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creditDepositLocked(rec)
	return nil
}

func (s *MemoryStore) CreditDeposits(ctx context.Context, recs []*models.DepositRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All records are applied under one lock hold, so the batch is atomic.
	for _, rec := range recs {
		s.creditDepositLocked(rec)
	}
	return nil
}

func (s *MemoryStore) creditDepositLocked(rec *models.DepositRecord) {
	rec.ID = s.nextDepositID
	s.nextDepositID++
	rec.CreatedAt = time.Now()

	a, ok := s.accounts[rec.OwnerID]
	if !ok {
		a = &models.LedgerAccount{
			OwnerID:        rec.OwnerID,
			TotalDeposited: decimal.Zero,
			Available:      decimal.Zero,
			Pending:        decimal.Zero,
			Invested:       decimal.Zero,
			CreatedAt:      rec.CreatedAt,
		}
		s.accounts[rec.OwnerID] = a
	}
	a.TotalDeposited = a.TotalDeposited.Add(rec.Amount)
	a.Available = a.Available.Add(rec.Amount)
	a.UpdatedAt = rec.CreatedAt

	s.deposits = append(s.deposits, *rec)
}

func (s *MemoryStore) Reserve(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID]
	if !ok {
		return ErrAccountNotFound
	}
	if a.Available.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Available = a.Available.Sub(amount)
	a.Pending = a.Pending.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Commit(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID]
	if !ok {
		return ErrAccountNotFound
	}
	if a.Pending.LessThan(amount) {
		return ErrInsufficientPending
	}
	a.Pending = a.Pending.Sub(amount)
	a.Invested = a.Invested.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Refund(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID]
	if !ok {
		return ErrAccountNotFound
	}
	if a.Pending.LessThan(amount) {
		return ErrInsufficientPending
	}
	a.Pending = a.Pending.Sub(amount)
	a.Available = a.Available.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListDeposits(ctx context.Context, ownerID int64) ([]models.DepositRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deposits []models.DepositRecord
	for _, d := range s.deposits {
		if d.OwnerID == ownerID {
			deposits = append(deposits, d)
		}
	}
	return deposits, nil
}

// --- InvestmentStore ---

func (s *MemoryStore) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv.ID = s.nextInvestmentID
	s.nextInvestmentID++
	inv.CreatedAt = time.Now()
	inv.ExecutedAmount = decimal.Zero

	cp := *inv
	s.investments[inv.ID] = &cp
	return nil
}

func (s *MemoryStore) GetInvestment(ctx context.Context, id int64) (*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return nil, ErrInvestmentNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) MarkExecuted(ctx context.Context, id int64, executedAmount decimal.Decimal) (*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return nil, ErrInvestmentNotFound
	}
	if inv.Status != models.InvestmentStatusPending {
		return nil, ErrNotPending
	}
	now := time.Now()
	inv.Status = models.InvestmentStatusExecuted
	inv.ExecutedAmount = executedAmount
	inv.ExecutedAt = &now
	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id int64) (*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return nil, ErrInvestmentNotFound
	}
	if inv.Status != models.InvestmentStatusPending {
		return nil, ErrNotPending
	}
	now := time.Now()
	inv.Status = models.InvestmentStatusFailed
	inv.ExecutedAt = &now
	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) ListInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error) {
	return s.listInvestments(ownerID, false)
}

func (s *MemoryStore) ListPendingInvestments(ctx context.Context, ownerID int64) ([]models.Investment, error) {
	return s.listInvestments(ownerID, true)
}

func (s *MemoryStore) listInvestments(ownerID int64, pendingOnly bool) ([]models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.investments))
	for id := range s.investments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var investments []models.Investment
	for _, id := range ids {
		inv := s.investments[id]
		if inv.OwnerID != ownerID {
			continue
		}
		if pendingOnly && inv.Status != models.InvestmentStatusPending {
			continue
		}
		investments = append(investments, *inv)
	}
	return investments, nil
}

// --- HoldingStore ---

func (s *MemoryStore) CreditHolding(ctx context.Context, ownerID int64, token string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byToken, ok := s.holdings[ownerID]
	if !ok {
		byToken = make(map[string]decimal.Decimal)
		s.holdings[ownerID] = byToken
	}
	byToken[token] = byToken[token].Add(amount)
	return nil
}

func (s *MemoryStore) ListHoldings(ctx context.Context, ownerID int64) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byToken := s.holdings[ownerID]
	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var holdings []models.Holding
	for _, token := range tokens {
		holdings = append(holdings, models.Holding{OwnerID: ownerID, Token: token, Amount: byToken[token]})
	}
	return holdings, nil
}
