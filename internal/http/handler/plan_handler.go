package handler

import (
	"net/http"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PlanHandler struct {
	svc *service.PlanService
}

func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

type createPlanRequest struct {
	Label    string          `json:"label" binding:"required"`
	Strategy domain.Strategy `json:"strategy" binding:"required"`
}

// POST /api/v3/scheduleplans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	plan, err := h.svc.CreatePlan(c.Request.Context(), domain.SchedulePlan{
		Label:    req.Label,
		Strategy: req.Strategy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GET /api/v3/scheduleplans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.svc.ListPlans(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": plans})
}

// GET /api/v3/scheduleplans/:guid
func (h *PlanHandler) GetPlan(c *gin.Context) {
	guid, err := uuid.Parse(c.Param("guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan guid"})
		return
	}
	plan, err := h.svc.GetPlan(c.Request.Context(), guid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DELETE /api/v3/scheduleplans/:guid
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	guid, err := uuid.Parse(c.Param("guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan guid"})
		return
	}
	if err := h.svc.DeletePlan(c.Request.Context(), guid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": guid.String()})
}
