package handlers

import (
	"net/http"
	"strconv"

	domain "campus-enrollment/internal/domain/enrollment"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"

	"github.com/gin-gonic/gin"
)

// ActivityHandler handles activity management HTTP requests
type ActivityHandler struct {
	activityService serviceInterfaces.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService serviceInterfaces.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// Create handles POST /api/v1/activities
func (h *ActivityHandler) Create(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var req domain.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}

	activity, err := h.activityService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Activity created successfully",
		"activity": activity,
	})
}

// List handles GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var filter domain.ActivityFilter

	if raw := c.Query("status"); raw != "" {
		status := domain.ActivityStatus(raw)
		switch status {
		case domain.ActivityDraft, domain.ActivityPublished, domain.ActivityCancelled, domain.ActivityCompleted:
			filter.Status = &status
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid status filter"})
			return
		}
	}

	if raw := c.Query("upcoming"); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid upcoming flag"})
			return
		}
		filter.UpcomingOnly = upcoming
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid offset"})
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	activities, err := h.activityService.List(c.Request.Context(), filter, caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"count":      len(activities),
	})
}

// Get handles GET /api/v1/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	activity, err := h.activityService.Get(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// Update handles PUT /api/v1/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var req domain.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}

	activity, err := h.activityService.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Activity updated successfully",
		"activity": activity,
	})
}

// Delete handles DELETE /api/v1/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Activity deleted successfully"})
}

// Summary handles GET /api/v1/activities/:id/summary
func (h *ActivityHandler) Summary(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	summary, err := h.activityService.Summary(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":    summary,
		"consistent": summary.Consistent(),
	})
}
