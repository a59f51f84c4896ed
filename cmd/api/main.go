package main

import (
	"context"
	"log"
	"os"
	"time"

	"driver-registration-api/config"
	"driver-registration-api/middleware"
	"driver-registration-api/routes"
	"driver-registration-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize logging, mail settings and database
	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.ReloadMailerConfig()
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Setup routes
	routes.SetupRoutes(router)

	// Create upload directory if not exists
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create upload directory: %v", err)
	}

	// Start the validation scheduler
	inspector := services.NewDocumentInspectorFromEnv()
	job := services.NewValidationJobService(nil, inspector)
	scheduler := services.NewValidationScheduler(job, validationInterval())
	scheduler.Start(context.Background())

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if inspector.Enabled() {
		log.Printf("OpenAI API key: configured")
	} else {
		log.Printf("OpenAI API key: NOT CONFIGURED - validation passes will be skipped")
	}
	log.Printf("Validation job scheduled: every %s", scheduler.Interval())

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// validationInterval reads VALIDATION_INTERVAL (a Go duration, e.g. "1h" or
// "30m"). Unset or invalid values fall back to the hourly default.
func validationInterval() time.Duration {
	raw := os.Getenv("VALIDATION_INTERVAL")
	if raw == "" {
		return 0
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid VALIDATION_INTERVAL %q, using default: %v", raw, err)
		return 0
	}
	return interval
}
