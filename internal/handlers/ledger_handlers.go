package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openbasket/allocator/internal/middleware"
	"github.com/openbasket/allocator/internal/models"
	"github.com/openbasket/allocator/internal/services"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// LedgerHandler handles deposit and account endpoints
type LedgerHandler struct {
	ledgerSvc     *services.LedgerService
	investmentSvc *services.InvestmentService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerSvc *services.LedgerService, investmentSvc *services.InvestmentService) *LedgerHandler {
	return &LedgerHandler{
		ledgerSvc:     ledgerSvc,
		investmentSvc: investmentSvc,
	}
}

// Deposit handles POST /deposits
// @Summary Deposit funds
// @Description Credit an owner's account and append a deposit record
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body models.DepositRequest true "Deposit"
// @Success 201 {object} models.DepositRecord
// @Failure 400 {object} models.ErrorResponse
// @Router /deposits [post]
func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	rec, err := h.ledgerSvc.Deposit(c.Request.Context(), req.OwnerID, req.Amount, req.DepositType)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// BatchDeposit handles POST /deposits/batch
// @Summary Batch deposit
// @Description Apply deposits for several owners atomically as a whole (admin only)
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body models.BatchDepositRequest true "Batch"
// @Success 201 {array} models.DepositRecord
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /deposits/batch [post]
func (h *LedgerHandler) BatchDeposit(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	var req models.BatchDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	recs, err := h.ledgerSvc.BatchDeposit(c.Request.Context(), actor, req.OwnerIDs, req.Amounts, req.DepositType)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recs)
}

// ImportDeposits handles POST /deposits/import
// @Summary Import deposits from CSV
// @Description Upload a CSV (owner_id, amount, deposit_type) applied as one atomic batch (admin only)
// @Tags ledger
// @Accept text/csv
// @Produce json
// @Success 201 {object} models.ImportDepositsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /deposits/import [post]
func (h *LedgerHandler) ImportDeposits(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	rows, err := ParseDepositsCSV(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "no deposit rows found",
		})
		return
	}

	// The CSV importer only supports a single deposit type per file; rows
	// default to Manual in the parser.
	depositType := models.DepositType(rows[0].DepositType)
	owners := make([]int64, len(rows))
	amounts := make([]decimal.Decimal, len(rows))
	total := decimal.Zero
	for i, row := range rows {
		owners[i] = row.OwnerID
		amounts[i] = row.Amount
		total = total.Add(row.Amount)
	}

	if _, err := h.ledgerSvc.BatchDeposit(c.Request.Context(), actor, owners, amounts, depositType); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ImportDepositsResponse{
		Imported: len(rows),
		Total:    total,
	})
}

// GetLedger handles GET /users/:user_id/ledger
// @Summary Get a ledger account
// @Tags ledger
// @Produce json
// @Param user_id path int true "Owner ID"
// @Success 200 {object} models.LedgerAccount
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{user_id}/ledger [get]
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	ownerID, ok := parseOwnerID(c)
	if !ok {
		return
	}

	account, err := h.ledgerSvc.GetAccount(c.Request.Context(), ownerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "no ledger account for this owner",
		})
		return
	}

	c.JSON(http.StatusOK, account)
}

// ListDeposits handles GET /users/:user_id/deposits
// @Summary List an owner's deposits
// @Tags ledger
// @Produce json
// @Param user_id path int true "Owner ID"
// @Success 200 {array} models.DepositRecord
// @Router /users/{user_id}/deposits [get]
func (h *LedgerHandler) ListDeposits(c *gin.Context) {
	ownerID, ok := parseOwnerID(c)
	if !ok {
		return
	}

	deposits, err := h.ledgerSvc.ListDeposits(c.Request.Context(), ownerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if deposits == nil {
		deposits = []models.DepositRecord{}
	}
	c.JSON(http.StatusOK, deposits)
}

// PortfolioValue handles GET /users/:user_id/portfolio-value
// @Summary Get nominal portfolio value
// @Description available + pending + invested; not mark-to-market
// @Tags ledger
// @Produce json
// @Param user_id path int true "Owner ID"
// @Success 200 {object} models.PortfolioValueResponse
// @Router /users/{user_id}/portfolio-value [get]
func (h *LedgerHandler) PortfolioValue(c *gin.Context) {
	ownerID, ok := parseOwnerID(c)
	if !ok {
		return
	}

	value, err := h.ledgerSvc.PortfolioValue(c.Request.Context(), ownerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PortfolioValueResponse{OwnerID: ownerID, Value: value})
}

// Summary handles GET /users/:user_id/summary
// @Summary Get an aggregated account summary
// @Description Account, deposit history, investments, and holdings in one response
// @Tags ledger
// @Produce json
// @Param user_id path int true "Owner ID"
// @Success 200 {object} models.AccountSummaryResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/{user_id}/summary [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	ownerID, ok := parseOwnerID(c)
	if !ok {
		return
	}

	var resp models.AccountSummaryResponse
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		account, err := h.ledgerSvc.GetAccount(ctx, ownerID)
		resp.Account = account
		return err
	})
	g.Go(func() error {
		deposits, err := h.ledgerSvc.ListDeposits(ctx, ownerID)
		resp.Deposits = deposits
		return err
	})
	g.Go(func() error {
		investments, err := h.investmentSvc.ListInvestments(ctx, ownerID)
		resp.Investments = investments
		return err
	})
	g.Go(func() error {
		holdings, err := h.investmentSvc.ListHoldings(ctx, ownerID)
		resp.Holdings = holdings
		return err
	})
	if err := g.Wait(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseOwnerID(c *gin.Context) (int64, bool) {
	ownerID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid user ID",
		})
		return 0, false
	}
	return ownerID, true
}

func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrInvalidDepositType),
		errors.Is(err, services.ErrBatchMismatch):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}
