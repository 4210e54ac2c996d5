package handlers

import (
	"net/http"

	"campus-enrollment/internal/api/middleware"
	domain "campus-enrollment/internal/domain/enrollment"
	"campus-enrollment/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Status domain.EnrollmentStatus `json:"status,omitempty"`
}

// MessageResponse is the body of requests that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// writeError maps a service error to its status code. Internal details are
// logged and never sent to the client.
func writeError(c *gin.Context, err error) {
	de := domain.AsError(err)

	if de.Kind == domain.KindInternal {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
	}

	c.JSON(de.HTTPStatus(), ErrorResponse{
		Error:  de.Message,
		Status: de.Status,
	})
}

// principal returns the authenticated caller or writes 401.
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
	}
	return p, ok
}
