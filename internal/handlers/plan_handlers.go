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

// PlanHandler handles allocation-plan endpoints
type PlanHandler struct {
	planSvc *services.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planSvc *services.PlanService) *PlanHandler {
	return &PlanHandler{
		planSvc: planSvc,
	}
}

// Create handles POST /plans
// @Summary Create an allocation plan
// @Description Create a plan with its ordered allocation targets (admin only)
// @Tags plans
// @Accept json
// @Produce json
// @Param request body models.CreatePlanRequest true "Plan definition"
// @Success 201 {object} models.PlanWithTargets
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	var req models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	plan, err := h.planSvc.CreatePlan(c.Request.Context(), actor, &req)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// Get handles GET /plans/:id
// @Summary Get a plan
// @Description Get a plan with its targets in stored order
// @Tags plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} models.PlanWithTargets
// @Failure 404 {object} models.ErrorResponse
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid plan ID",
		})
		return
	}

	plan, err := h.planSvc.GetPlan(c.Request.Context(), id)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// List handles GET /plans
// @Summary List plans
// @Description List plans in insertion order
// @Tags plans
// @Produce json
// @Param active query bool false "Only active plans"
// @Success 200 {array} models.Plan
// @Failure 500 {object} models.ErrorResponse
// @Router /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	plans, err := h.planSvc.ListPlans(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	if plans == nil {
		plans = []models.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

// Update handles PUT /plans/:id
// @Summary Replace a plan's targets
// @Description Atomically replace the full target list (admin only)
// @Tags plans
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Param request body models.UpdatePlanRequest true "New target list"
// @Success 200 {object} models.PlanWithTargets
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /plans/{id} [put]
func (h *PlanHandler) Update(c *gin.Context) {
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
			Message: "invalid plan ID",
		})
		return
	}

	var req models.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	plan, err := h.planSvc.UpdatePlan(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// Deactivate handles DELETE /plans/:id
// @Summary Deactivate a plan
// @Description Soft-delete a plan; future invests against it fail (admin only)
// @Tags plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /plans/{id} [delete]
func (h *PlanHandler) Deactivate(c *gin.Context) {
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
			Message: "invalid plan ID",
		})
		return
	}

	if err := h.planSvc.DeactivatePlan(c.Request.Context(), actor, id); err != nil {
		respondPlanError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidAllocation),
		errors.Is(err, services.ErrDuplicateAsset),
		errors.Is(err, services.ErrInvalidPlanType),
		errors.Is(err, services.ErrInvalidAssetClass):
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
