package router

import (
	"time"

	"campus-enrollment/internal/api/handlers"
	"campus-enrollment/internal/api/middleware"
	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"
	"campus-enrollment/pkg/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the wired components the HTTP layer serves from.
type Dependencies struct {
	Enrollments serviceInterfaces.EnrollmentService
	Activities  serviceInterfaces.ActivityService
	Auth        auth.Config

	// RateLimiter is optional; the enroll routes are not throttled without it.
	RateLimiter     interfaces.RateLimiter
	RateLimit       int
	RateLimitWindow time.Duration

	Pingers map[string]serviceInterfaces.Pinger
	Version string
}

func NewRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(middleware.Logger())
	r.Use(cors.Default())
	r.Use(gin.Recovery())

	enrollmentHandler := handlers.NewEnrollmentHandler(deps.Enrollments)
	activityHandler := handlers.NewActivityHandler(deps.Activities)
	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Pingers)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	throttle := func(c *gin.Context) { c.Next() }
	if deps.RateLimiter != nil && deps.RateLimit > 0 {
		throttle = middleware.RateLimit(deps.RateLimiter, deps.RateLimit, deps.RateLimitWindow)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(deps.Auth))
	{
		activities := v1.Group("/activities")
		{
			activities.GET("", activityHandler.List)
			activities.GET("/:id", activityHandler.Get)

			activities.POST("/:id/enroll", middleware.RequireRole(domain.RoleStudent), throttle, enrollmentHandler.Enroll)
			activities.DELETE("/:id/enroll", middleware.RequireRole(domain.RoleStudent), throttle, enrollmentHandler.Cancel)

			manage := activities.Group("", middleware.RequireRole(domain.RoleFaculty, domain.RoleAdmin))
			{
				manage.POST("", activityHandler.Create)
				manage.PUT("/:id", activityHandler.Update)
				manage.DELETE("/:id", activityHandler.Delete)
				manage.GET("/:id/participants", enrollmentHandler.Participants)
				manage.GET("/:id/summary", activityHandler.Summary)
			}
		}

		enrollments := v1.Group("/enrollments")
		{
			enrollments.GET("/me", enrollmentHandler.MyEnrollments)
		}
	}

	return r
}
