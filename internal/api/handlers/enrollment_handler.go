package handlers

import (
	"net/http"

	domain "campus-enrollment/internal/domain/enrollment"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnrollmentHandler handles enrollment-related HTTP requests
type EnrollmentHandler struct {
	enrollmentService serviceInterfaces.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService serviceInterfaces.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

// EnrollResponse is returned by a successful enrollment
type EnrollResponse struct {
	Message        string    `json:"message"`
	EnrollmentID   uuid.UUID `json:"enrollmentId"`
	RemainingSlots int       `json:"remainingSlots"`
}

// Enroll handles POST /api/v1/activities/:id/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	result, err := h.enrollmentService.Enroll(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, EnrollResponse{
		Message:        "Successfully enrolled in activity",
		EnrollmentID:   result.EnrollmentID,
		RemainingSlots: result.RemainingSeats,
	})
}

// Cancel handles DELETE /api/v1/activities/:id/enroll
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	message, err := h.enrollmentService.Cancel(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// MyEnrollments handles GET /api/v1/enrollments/me
func (h *EnrollmentHandler) MyEnrollments(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var status *domain.EnrollmentStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.EnrollmentStatus(raw)
		switch s {
		case domain.StatusEnrolled, domain.StatusWaitlisted, domain.StatusCancelled:
			status = &s
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid status filter"})
			return
		}
	}

	enrollments, err := h.enrollmentService.MyEnrollments(c.Request.Context(), caller, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"count":       len(enrollments),
	})
}

// Participants handles GET /api/v1/activities/:id/participants
func (h *EnrollmentHandler) Participants(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	participants, err := h.enrollmentService.Participants(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"count":        len(participants),
	})
}
