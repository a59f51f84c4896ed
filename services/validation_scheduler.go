package services

import (
	"context"
	"errors"
	"log"
	"time"
)

const defaultValidationInterval = time.Hour

// validationRunner is what the scheduler needs from the job service.
type validationRunner interface {
	RunOnce(ctx context.Context, input *ValidationRunInput) (*ValidationRunSummary, error)
}

// ValidationScheduler fires a validation pass on a fixed cadence. The manual
// trigger endpoint goes through the same job service; overlap between the two
// entry points is resolved by the job's pass lock.
type ValidationScheduler struct {
	job      validationRunner
	interval time.Duration
}

// NewValidationScheduler constructs a scheduler. A non-positive interval
// falls back to hourly, matching the production cadence.
func NewValidationScheduler(job validationRunner, interval time.Duration) *ValidationScheduler {
	if interval <= 0 {
		interval = defaultValidationInterval
	}
	return &ValidationScheduler{job: job, interval: interval}
}

// Interval returns the configured cadence.
func (s *ValidationScheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the cadence loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (s *ValidationScheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *ValidationScheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("Running validation job (every %s)...", s.interval)
			summary, err := s.job.RunOnce(ctx, nil)
			if err != nil {
				if errors.Is(err, ErrValidationAlreadyRunning) {
					log.Println("Previous validation pass still running, skipping this tick")
					continue
				}
				log.Printf("Error in validation job: %v", err)
				continue
			}
			if summary.Selected > 0 {
				log.Printf("Validation pass finished: %d selected, %d validated, %d failed, %d skipped",
					summary.Selected, summary.Validated, summary.Failed, summary.Skipped)
			}
		}
	}
}
