package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openbasket/allocator/internal/middleware"
	"github.com/openbasket/allocator/internal/models"
	"github.com/openbasket/allocator/internal/services"
)

// InvestmentHandler handles investment endpoints
type InvestmentHandler struct {
	investmentSvc *services.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler
func NewInvestmentHandler(investmentSvc *services.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{
		investmentSvc: investmentSvc,
	}
}

// Invest handles POST /investments
// @Summary Create a pending investment
// @Description Reserve balance against a plan; execute separately
// @Tags investments
// @Accept json
// @Produce json
// @Param request body models.InvestRequest true "Investment"
// @Success 201 {object} models.Investment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /investments [post]
func (h *InvestmentHandler) Invest(c *gin.Context) {
	var req models.InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	inv, err := h.investmentSvc.Invest(c.Request.Context(), req.OwnerID, req.PlanID, req.Amount)
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// Execute handles POST /investments/:id/execute
// @Summary Execute a pending investment
// @Description Fan the reserved amount out across the plan targets
// @Tags investments
// @Produce json
// @Param id path int true "Investment ID"
// @Success 200 {object} models.Investment
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /investments/{id}/execute [post]
func (h *InvestmentHandler) Execute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid investment ID",
		})
		return
	}

	inv, err := h.investmentSvc.ExecuteInvestment(c.Request.Context(), id)
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// BatchExecute handles POST /investments/execute-batch
// @Summary Execute a batch of investments
// @Description Best-effort: unknown or non-pending ids are skipped, so batches are safely re-submittable
// @Tags investments
// @Accept json
// @Produce json
// @Param request body models.BatchExecuteRequest true "Investment IDs"
// @Success 200 {object} models.BatchExecuteResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /investments/execute-batch [post]
func (h *InvestmentHandler) BatchExecute(c *gin.Context) {
	var req models.BatchExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.investmentSvc.BatchExecuteInvestments(c.Request.Context(), req.InvestmentIDs)
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DepositAndInvest handles POST /invest-now
// @Summary Deposit and invest in one call
// @Description Single-call convenience flow over the same execution machinery
// @Tags investments
// @Accept json
// @Produce json
// @Param request body models.DepositAndInvestRequest true "Deposit and investment"
// @Success 200 {object} models.Investment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /invest-now [post]
func (h *InvestmentHandler) DepositAndInvest(c *gin.Context) {
	var req models.DepositAndInvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	inv, err := h.investmentSvc.DepositAndInvest(c.Request.Context(), req.OwnerID, req.PlanID, req.Amount, req.DepositType)
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Fail handles POST /investments/:id/fail
// @Summary Abort a pending investment
// @Description Administrative abort: refunds the reservation and marks the investment Failed (admin only)
// @Tags investments
// @Produce json
// @Param id path int true "Investment ID"
// @Success 200 {object} models.Investment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /investments/{id}/fail [post]
func (h *InvestmentHandler) Fail(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid investment ID",
		})
		return
	}

	inv, err := h.investmentSvc.FailInvestment(c.Request.Context(), actor, id)
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// List handles GET /users/:user_id/investments
// @Summary List an owner's investments
// @Tags investments
// @Produce json
// @Param user_id path int true "Owner ID"
// @Param pending query bool false "Only pending investments"
// @Success 200 {array} models.Investment
// @Router /users/{user_id}/investments [get]
func (h *InvestmentHandler) List(c *gin.Context) {
	ownerID, ok := parseOwnerID(c)
	if !ok {
		return
	}

	var (
		investments []models.Investment
		err         error
	)
	if c.Query("pending") == "true" {
		investments, err = h.investmentSvc.ListPendingInvestments(c.Request.Context(), ownerID)
	} else {
		investments, err = h.investmentSvc.ListInvestments(c.Request.Context(), ownerID)
	}
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	if investments == nil {
		investments = []models.Investment{}
	}
	c.JSON(http.StatusOK, investments)
}

// ListHoldings handles GET /users/:user_id/holdings
// @Summary List an owner's per-token holdings
// @Tags investments
// @Produce json
// @Param user_id path int true "Owner ID"
// @Success 200 {array} models.Holding
// @Router /users/{user_id}/holdings [get]
func (h *InvestmentHandler) ListHoldings(c *gin.Context) {
	ownerID, ok := parseOwnerID(c)
	if !ok {
		return
	}

	holdings, err := h.investmentSvc.ListHoldings(c.Request.Context(), ownerID)
	if err != nil {
		respondInvestmentError(c, err)
		return
	}

	if holdings == nil {
		holdings = []models.Holding{}
	}
	c.JSON(http.StatusOK, holdings)
}

// SetSlippage handles PUT /admin/slippage
// @Summary Set slippage tolerance
// @Description Set the per-leg slippage tolerance in bps, bounded by a hard ceiling (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.SlippageRequest true "Tolerance"
// @Success 200 {object} models.SlippageRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/slippage [put]
func (h *InvestmentHandler) SetSlippage(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	var req models.SlippageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	if err := h.investmentSvc.SetSlippageTolerance(actor, req.ToleranceBps); err != nil {
		respondInvestmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SlippageRequest{ToleranceBps: h.investmentSvc.SlippageTolerance()})
}

func respondInvestmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrPlanNotFound),
		errors.Is(err, services.ErrInvestmentNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "insufficient_balance",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrPlanInactive),
		errors.Is(err, services.ErrSlippageTooHigh),
		errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrInvalidDepositType):
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
