package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/summary", handler.GetSummary)
		v1.GET("/user", handler.GetUser)
		v1.GET("/report", handler.GetReport)
		v1.GET("/categories/:category", handler.GetCategory)

		runs := v1.Group("/runs")
		{
			runs.GET("", handler.GetRuns)
			runs.GET("/latest", handler.GetLatestRun)
			runs.GET("/:id", handler.GetRun)
		}
	}

	return router
}
