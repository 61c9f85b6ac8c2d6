package handler

import (
	"net/http"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/service"

	"github.com/gin-gonic/gin"
)

type ParticipantHandler struct {
	svc *service.ParticipantService
}

func NewParticipantHandler(svc *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{svc: svc}
}

type enrollRequest struct {
	ID         string        `json:"id" binding:"required"`
	Email      string        `json:"email"`
	Roles      []domain.Role `json:"roles"`
	EnrolledAt *time.Time    `json:"enrolled_at"`
}

// POST /api/v3/participants
func (h *ParticipantHandler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	p := domain.Participant{ID: req.ID, Email: req.Email, Roles: req.Roles}
	if req.EnrolledAt != nil {
		p.EnrolledAt = *req.EnrolledAt
	}
	created, err := h.svc.Enroll(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GET /api/v3/participants/:participantId
func (h *ParticipantHandler) GetParticipant(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("participantId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/v3/participants
func (h *ParticipantHandler) ListParticipants(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}
