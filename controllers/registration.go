package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"driver-registration-api/config"
	"driver-registration-api/models"
	"driver-registration-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxDocumentSize = 10 * 1024 * 1024 // 10MB

var allowedDocumentExts = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func uploadRoot() string {
	root := os.Getenv("UPLOAD_PATH")
	if root == "" {
		root = "./uploads"
	}
	return root
}

// RegisterDriver accepts a multipart registration: the driver's identity
// fields plus the license and insurance documents. The row is created with
// status pending; the validation job picks it up asynchronously.
func RegisterDriver(c *gin.Context) {
	firstName := utils.SanitizeInput(c.PostForm("firstName"))
	lastName := utils.SanitizeInput(c.PostForm("lastName"))
	email := utils.SanitizeInput(c.PostForm("email"))
	phone := utils.SanitizeInput(c.PostForm("phone"))
	licenseExpiry := utils.SanitizeInput(c.PostForm("licenseExpiryDate"))
	insuranceExpiry := utils.SanitizeInput(c.PostForm("insuranceExpiryDate"))

	if firstName == "" || lastName == "" || email == "" || phone == "" || licenseExpiry == "" || insuranceExpiry == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if !utils.ValidateEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}
	if !utils.ValidateDate(licenseExpiry) || !utils.ValidateDate(insuranceExpiry) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expiry dates must be in YYYY-MM-DD format"})
		return
	}

	licenseDoc, err := c.FormFile("licenseDoc")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both documents are required"})
		return
	}
	insuranceDoc, err := c.FormFile("insuranceDoc")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both documents are required"})
		return
	}

	licensePath, err := saveUploadedDocument(c, licenseDoc, "licenses")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	insurancePath, err := saveUploadedDocument(c, insuranceDoc, "insurance")
	if err != nil {
		os.Remove(licensePath)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	driver := models.Driver{
		FirstName:           firstName,
		LastName:            lastName,
		Email:               email,
		Phone:               phone,
		LicenseDocPath:      licensePath,
		LicenseExpiryDate:   licenseExpiry,
		InsuranceDocPath:    insurancePath,
		InsuranceExpiryDate: insuranceExpiry,
		ValidationStatus:    models.ValidationStatusPending,
	}

	if err := config.DB.Create(&driver).Error; err != nil {
		// Clean up uploaded files if the insert fails.
		os.Remove(licensePath)
		os.Remove(insurancePath)

		if isDuplicateKeyError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"id":      driver.ID,
	})
}

// GetRegistrations lists every registration, newest first, for the admin
// table view.
func GetRegistrations(c *gin.Context) {
	var drivers []models.Driver
	if err := config.DB.Order("created_at DESC").Find(&drivers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, drivers)
}

// GetRegistrationStats returns status counts for the admin dashboard.
func GetRegistrationStats(c *gin.Context) {
	type statusCount struct {
		ValidationStatus string `gorm:"column:validation_status"`
		Count            int64  `gorm:"column:count"`
	}

	var rows []statusCount
	if err := config.DB.Model(&models.Driver{}).
		Select("validation_status, COUNT(*) AS count").
		Group("validation_status").
		Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := gin.H{
		"total":                          int64(0),
		models.ValidationStatusPending:   int64(0),
		models.ValidationStatusValidated: int64(0),
		models.ValidationStatusFailed:    int64(0),
	}
	var total int64
	for _, row := range rows {
		stats[row.ValidationStatus] = row.Count
		total += row.Count
	}
	stats["total"] = total

	c.JSON(http.StatusOK, stats)
}

// saveUploadedDocument checks size and extension, then stores the upload
// under UPLOAD_PATH/<subdir> with a random filename.
func saveUploadedDocument(c *gin.Context, file *multipart.FileHeader, subdir string) (string, error) {
	if file.Size > maxDocumentSize {
		return "", fmt.Errorf("file size exceeds 10MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocumentExts[ext] {
		return "", fmt.Errorf("invalid file type, only JPEG, PNG, and PDF are allowed")
	}

	dir := filepath.Join(uploadRoot(), subdir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create upload directory")
	}

	dst := filepath.Join(dir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save file")
	}
	return dst, nil
}

func isDuplicateKeyError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}
