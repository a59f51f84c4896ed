package routes

import (
	"driver-registration-api/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.POST("/register", controllers.RegisterDriver)
		v1.GET("/registrations", controllers.GetRegistrations)
		v1.GET("/registrations/stats", controllers.GetRegistrationStats)
		v1.POST("/validate-now", controllers.TriggerValidation)

		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"message": "Driver Registration API is running",
			})
		})
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
