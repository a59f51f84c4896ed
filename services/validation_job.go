package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"driver-registration-api/config"
	"driver-registration-api/models"

	"gorm.io/gorm"
)

// ErrValidationAlreadyRunning is returned when a pass is requested while
// another one is still in flight.
var ErrValidationAlreadyRunning = errors.New("validation pass already running")

// recentWindow is the first selection tier: registrations created inside this
// window are picked up eagerly, everything older is only swept when the
// window turns up empty.
const recentWindow = time.Minute

// validationPassMu serialises passes process-wide. Job services are cheap to
// construct per request, so the guard cannot live on the instance.
var validationPassMu sync.Mutex

// ValidationRunSummary summarises one pass over the pending registrations.
type ValidationRunSummary struct {
	Selected  int `json:"selected"`
	Validated int `json:"validated"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ValidationRunInput controls a single pass.
type ValidationRunInput struct {
	// AllPending skips the recent-window tier and sweeps every pending row.
	AllPending bool
}

// driverValidator is what the job needs from the item validator.
type driverValidator interface {
	Validate(ctx context.Context, driver *models.Driver) (*DriverValidationResult, error)
}

// ValidationJobService runs one validation pass: select the pending working
// set, fan the items out concurrently and wait for all of them to settle.
// Individual failures are logged and skipped; they never abort the pass.
type ValidationJobService struct {
	db        *gorm.DB
	inspector *DocumentInspector
	validator driverValidator
}

// NewValidationJobService constructs a ValidationJobService. A nil db falls
// back to config.DB, a nil inspector is built from the environment.
func NewValidationJobService(db *gorm.DB, inspector *DocumentInspector) *ValidationJobService {
	if db == nil {
		db = config.DB
	}
	if inspector == nil {
		inspector = NewDocumentInspectorFromEnv()
	}
	return &ValidationJobService{
		db:        db,
		inspector: inspector,
		validator: NewRegistrationValidationService(db, inspector),
	}
}

// RunOnce executes a single validation pass and blocks until every selected
// registration has settled. Without an inspector credential the pass is a
// documented no-op.
func (s *ValidationJobService) RunOnce(ctx context.Context, input *ValidationRunInput) (*ValidationRunSummary, error) {
	if input == nil {
		input = &ValidationRunInput{}
	}

	if !s.inspector.Enabled() {
		log.Println("OpenAI API key not configured. Skipping validation.")
		return &ValidationRunSummary{}, nil
	}

	if !validationPassMu.TryLock() {
		return nil, ErrValidationAlreadyRunning
	}
	defer validationPassMu.Unlock()

	drivers, err := s.selectPending(ctx, input.AllPending)
	if err != nil {
		return nil, err
	}

	summary := &ValidationRunSummary{Selected: len(drivers)}
	if len(drivers) == 0 {
		log.Println("No pending registrations found")
		return summary, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for idx := range drivers {
		driver := &drivers[idx]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic validating registration %d: %v", driver.ID, r)
					mu.Lock()
					summary.Skipped++
					mu.Unlock()
				}
			}()

			result, err := s.validator.Validate(ctx, driver)
			if err != nil {
				// Skipped items stay pending and are retried next pass.
				log.Printf("Error validating registration %d: %v", driver.ID, err)
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				return
			}

			mu.Lock()
			if result.Status == models.ValidationStatusValidated {
				summary.Validated++
			} else {
				summary.Failed++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Println("Validation job completed")
	return summary, nil
}

// selectPending picks the working set, most recent first. The fast tier only
// looks at registrations created inside the recent window; when it comes up
// empty the sweep falls back to every pending row so nothing is stranded by
// a crashed earlier pass.
func (s *ValidationJobService) selectPending(ctx context.Context, allPending bool) ([]models.Driver, error) {
	var drivers []models.Driver

	if !allPending {
		cutoff := time.Now().Add(-recentWindow)
		if err := s.db.WithContext(ctx).
			Where("validation_status = ? AND created_at >= ?", models.ValidationStatusPending, cutoff).
			Order("created_at DESC").
			Find(&drivers).Error; err != nil {
			return nil, err
		}
		if len(drivers) > 0 {
			log.Printf("Found %d registration(s) to validate (from last minute)", len(drivers))
			return drivers, nil
		}
		log.Println("No pending registrations found in the last minute, checking all pending...")
	}

	if err := s.db.WithContext(ctx).
		Where("validation_status = ?", models.ValidationStatusPending).
		Order("created_at DESC").
		Find(&drivers).Error; err != nil {
		return nil, err
	}
	if len(drivers) > 0 {
		log.Printf("Found %d pending registration(s) to validate (from all time)", len(drivers))
	}
	return drivers, nil
}
