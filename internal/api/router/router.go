package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callouthq/dispatch/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "dispatch-api-service",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "dispatch-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	engineerHandler := handler.NewEngineerHandler(deps)

	// Customer/supplier surface. Jobs are addressed by their opaque
	// job token rather than a numeric id.
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Create a new job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_token - Get job details
			jobs.GET("/:job_token", jobHandler.GetJob)

			// GET /api/v1/jobs/:job_token/timeline - Status history projection
			jobs.GET("/:job_token/timeline", jobHandler.Timeline)

			// GET /api/v1/jobs/:job_token/tracking - Live engineer position
			jobs.GET("/:job_token/tracking", jobHandler.Tracking)

			// POST /api/v1/jobs/:job_token/accept - Supplier accepts the job
			jobs.POST("/:job_token/accept", jobHandler.SupplierAccept)

			// POST /api/v1/jobs/:job_token/assign - Supplier assigns an engineer
			jobs.POST("/:job_token/assign", jobHandler.AssignEngineer)

			// POST /api/v1/jobs/:job_token/cancel - Cancel a job
			jobs.POST("/:job_token/cancel", jobHandler.Cancel)

			// POST /api/v1/jobs/:job_token/decline - Supplier declines the job
			jobs.POST("/:job_token/decline", jobHandler.Decline)
		}

		// POST /api/v1/quotes - Price estimate without creating a job
		v1.POST("/quotes", jobHandler.Quote)
	}

	// Engineer surface. The token in the URL is the whole credential.
	engineer := r.Group("/engineer/job/:engineer_token")
	{
		engineer.GET("", engineerHandler.GetJob)
		engineer.POST("/accept", engineerHandler.Accept)
		engineer.POST("/decline", engineerHandler.Decline)
		engineer.POST("/en-route", engineerHandler.EnRoute)
		engineer.POST("/on-site", engineerHandler.OnSite)
		engineer.POST("/complete", engineerHandler.Complete)
	}

	// Compact alias used in SMS links.
	r.GET("/e/:short_code", engineerHandler.GetJobByShortCode)

	return r
}
