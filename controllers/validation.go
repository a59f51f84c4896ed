package controllers

import (
	"errors"
	"log"
	"net/http"

	"driver-registration-api/services"

	"github.com/gin-gonic/gin"
)

// TriggerValidation runs one validation pass on demand. The scheduled job and
// this endpoint share the same pass lock, so a pass already in flight maps to
// 409.
func TriggerValidation(c *gin.Context) {
	log.Println("Manual validation triggered via API")

	job := services.NewValidationJobService(nil, nil)
	summary, err := job.RunOnce(c.Request.Context(), nil)
	if err != nil {
		if errors.Is(err, services.ErrValidationAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Manual validation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Validation job triggered successfully",
		"summary": summary,
	})
}
