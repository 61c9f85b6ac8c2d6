package handler

import (
	"net/http"
	"strconv"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/http/middleware"
	"ActivityScheduler/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ActivityHandler struct {
	activities *service.ActivityService
	history    *service.HistoryService
}

func NewActivityHandler(activities *service.ActivityService, history *service.HistoryService) *ActivityHandler {
	return &ActivityHandler{activities: activities, history: history}
}

// GET /api/v3/activities?offset=+00:00&daysAhead=4&minimumPerSchedule=2
func (h *ActivityHandler) GetScheduledActivities(c *gin.Context) {
	daysAhead, err := strconv.Atoi(c.DefaultQuery("daysAhead", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid daysAhead"})
		return
	}
	var minimum *int
	if v := c.Query("minimumPerSchedule"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minimumPerSchedule"})
			return
		}
		minimum = &m
	}

	items, err := h.activities.GetScheduledActivities(c.Request.Context(),
		middleware.ParticipantID(c), c.DefaultQuery("offset", "+00:00"), daysAhead, minimum)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activityListBody(items, h.now()))
}

// GET /api/v4/activities?startTime=...&endTime=...
func (h *ActivityHandler) GetScheduledActivitiesByDateRange(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("startTime"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startTime"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("endTime"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endTime"})
		return
	}

	items, err := h.activities.GetScheduledActivitiesByDateRange(c.Request.Context(),
		middleware.ParticipantID(c), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activityListBody(items, h.now()))
}

// POST /api/v3/activities
func (h *ActivityHandler) UpdateScheduledActivities(c *gin.Context) {
	var updates []domain.ActivityUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	if err := h.activities.UpdateActivities(c.Request.Context(), middleware.ParticipantID(c), updates); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(updates)})
}

// GET /api/v3/activities/:activityGuid/history
func (h *ActivityHandler) GetActivityHistory(c *gin.Context) {
	h.serveActivityHistory(c, middleware.ParticipantID(c))
}

// GET /api/v3/participants/:participantId/activities/:activityGuid/history
// Researcher-only view of another participant's history; same filtering,
// ordering and pagination rules.
func (h *ActivityHandler) GetParticipantActivityHistory(c *gin.Context) {
	h.serveActivityHistory(c, c.Param("participantId"))
}

func (h *ActivityHandler) serveActivityHistory(c *gin.Context, participantID string) {
	activityGUID, err := uuid.Parse(c.Param("activityGuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity guid"})
		return
	}
	q, ok := historyQuery(c, participantID)
	if !ok {
		return
	}
	q.ActivityGUID = &activityGUID

	res, err := h.history.GetHistory(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyBody(res, h.now()))
}

// GET /api/v3/tasks/:taskId/history
func (h *ActivityHandler) GetTaskHistory(c *gin.Context) {
	taskID := c.Param("taskId")
	q, ok := historyQuery(c, middleware.ParticipantID(c))
	if !ok {
		return
	}
	q.TaskIdentifier = &taskID

	res, err := h.history.GetHistory(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyBody(res, h.now()))
}

func historyQuery(c *gin.Context, participantID string) (service.HistoryQuery, bool) {
	q := service.HistoryQuery{
		ParticipantID: participantID,
		OffsetKey:     c.Query("offsetKey"),
	}
	var err error
	if v := c.Query("scheduledOnStart"); v != "" {
		if q.Start, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduledOnStart"})
			return q, false
		}
	}
	if v := c.Query("scheduledOnEnd"); v != "" {
		if q.End, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduledOnEnd"})
			return q, false
		}
	}
	if v := c.Query("pageSize"); v != "" {
		if q.PageSize, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pageSize"})
			return q, false
		}
	}
	return q, true
}

// activityDTO decorates an instance with its derived status for responses.
type activityDTO struct {
	domain.ScheduledActivity
	Status domain.ScheduleStatus `json:"status"`
}

func activityListBody(items []domain.ScheduledActivity, now time.Time) gin.H {
	dtos := make([]activityDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, activityDTO{items[i], items[i].Status(now)})
	}
	return gin.H{"items": dtos}
}

func historyBody(res *service.HistoryResult, now time.Time) gin.H {
	dtos := make([]activityDTO, 0, len(res.Items))
	for i := range res.Items {
		dtos = append(dtos, activityDTO{res.Items[i], res.Items[i].Status(now)})
	}
	body := gin.H{
		"items":          dtos,
		"has_next":       res.HasNext,
		"request_params": res.RequestParams,
	}
	if res.NextPageOffsetKey != "" {
		body["next_page_offset_key"] = res.NextPageOffsetKey
	}
	return body
}

func (h *ActivityHandler) now() time.Time {
	if h.activities != nil && h.activities.Now != nil {
		return h.activities.Now()
	}
	return time.Now()
}
