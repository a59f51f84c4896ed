package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"driver-registration-api/config"
	"driver-registration-api/models"

	"gorm.io/gorm"
)

// DriverValidationResult is the terminal outcome recorded for one
// registration.
type DriverValidationResult struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// RegistrationValidationService validates a single registration end-to-end:
// load both documents, inspect each one, merge the verdicts and persist the
// terminal status.
type RegistrationValidationService struct {
	db        *gorm.DB
	inspector *DocumentInspector
}

// NewRegistrationValidationService constructs a RegistrationValidationService.
func NewRegistrationValidationService(db *gorm.DB, inspector *DocumentInspector) *RegistrationValidationService {
	if db == nil {
		db = config.DB
	}
	if inspector == nil {
		inspector = NewDocumentInspectorFromEnv()
	}
	return &RegistrationValidationService{db: db, inspector: inspector}
}

// Validate inspects both documents of the registration and records the
// outcome. Document or inspection problems become a terminal failed status;
// the returned error covers only the cases where no terminal status could be
// written, in which case the row stays pending and is retried on a later
// pass.
func (s *RegistrationValidationService) Validate(ctx context.Context, driver *models.Driver) (*DriverValidationResult, error) {
	if driver == nil {
		return nil, errors.New("driver is nil")
	}

	result := s.evaluate(ctx, driver)

	if err := s.recordOutcome(ctx, driver.ID, result); err != nil {
		return nil, fmt.Errorf("record validation outcome for registration %d: %w", driver.ID, err)
	}
	log.Printf("Registration %d validation completed: %s", driver.ID, result.Status)

	s.notifyDriver(driver, result)

	return result, nil
}

// evaluate produces the terminal status without touching the database. Any
// error on the way (missing file, unreadable document) is folded into a
// failed result so the registration never stays ambiguous.
func (s *RegistrationValidationService) evaluate(ctx context.Context, driver *models.Driver) *DriverValidationResult {
	licenseDoc, err := os.ReadFile(driver.LicenseDocPath)
	if err != nil {
		return validationError(err)
	}
	insuranceDoc, err := os.ReadFile(driver.InsuranceDocPath)
	if err != nil {
		return validationError(err)
	}

	expectedName := driver.FullName()

	licenseVerdict := s.inspector.Inspect(ctx, licenseDoc, documentMimeType(driver.LicenseDocPath),
		expectedName, driver.LicenseExpiryDate, "driver license")
	insuranceVerdict := s.inspector.Inspect(ctx, insuranceDoc, documentMimeType(driver.InsuranceDocPath),
		expectedName, driver.InsuranceExpiryDate, "insurance document")

	var notes []string
	if !licenseVerdict.IsValid {
		notes = append(notes, "License: "+licenseVerdict.Reason)
	}
	if !insuranceVerdict.IsValid {
		notes = append(notes, "Insurance: "+insuranceVerdict.Reason)
	}

	status := models.ValidationStatusValidated
	if len(notes) > 0 {
		status = models.ValidationStatusFailed
	}
	return &DriverValidationResult{Status: status, Notes: strings.Join(notes, "; ")}
}

func validationError(err error) *DriverValidationResult {
	return &DriverValidationResult{
		Status: models.ValidationStatusFailed,
		Notes:  "Validation error: " + err.Error(),
	}
}

// recordOutcome writes the terminal status. validated_at is overwritten
// unconditionally on every terminal write.
func (s *RegistrationValidationService) recordOutcome(ctx context.Context, driverID uint, result *DriverValidationResult) error {
	return s.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", driverID).
		Updates(map[string]interface{}{
			"validation_status": result.Status,
			"validation_notes":  result.Notes,
			"validated_at":      time.Now(),
		}).Error
}

// notifyDriver sends a best-effort status mail. Failures are logged only.
func (s *RegistrationValidationService) notifyDriver(driver *models.Driver, result *DriverValidationResult) {
	if !config.MailerConfigured() {
		return
	}

	subject := "Your driver registration has been validated"
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your registration documents were reviewed and accepted.</p>", driver.FirstName)
	if result.Status == models.ValidationStatusFailed {
		subject = "Your driver registration could not be validated"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your registration documents could not be validated: %s</p><p>Please register again with updated documents.</p>",
			driver.FirstName, result.Notes)
	}

	if err := config.SendMail([]string{driver.Email}, subject, body); err != nil {
		log.Printf("failed to send validation mail for registration %d: %v", driver.ID, err)
	}
}

// documentMimeType derives the upload's content type from its file
// extension. Anything that is not a PDF is sent to the inspector as a JPEG;
// the endpoint tolerates mislabeled image payloads and content sniffing is
// deliberately avoided.
func documentMimeType(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return "application/pdf"
	}
	return "image/jpeg"
}
