package scheduler

import (
	"fmt"
	"time"

	"property-sales/logger"
	"property-sales/services/lifecycle"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background expiry sweeps: confirmed holds are released
// after 24 hours, unapproved pre-bookings are cancelled after 14 days.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *lifecycle.Orchestrator
}

// New creates a scheduler around the lifecycle orchestrator.
func New(orchestrator *lifecycle.Orchestrator) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
	}
}

// Start registers the sweep jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Hold expiry, every hour on the hour.
	if _, err := s.cron.AddFunc("0 * * * *", s.runHoldSweep); err != nil {
		return fmt.Errorf("schedule hold sweep: %w", err)
	}

	// Booking expiry, daily at 02:30.
	if _, err := s.cron.AddFunc("30 2 * * *", s.runBookingSweep); err != nil {
		return fmt.Errorf("schedule booking sweep: %w", err)
	}

	s.cron.Start()
	logger.Info("Scheduler started: hold sweep hourly, booking sweep daily at 02:30")
	return nil
}

// Stop halts the cron loop; running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runHoldSweep() {
	expired, err := s.orchestrator.ExpireHoldings(time.Now())
	if err != nil {
		logger.Error("Hold sweep failed", err)
		return
	}
	if expired > 0 {
		logger.Info(fmt.Sprintf("Hold sweep released %d expired holding(s)", expired))
	}
}

func (s *Scheduler) runBookingSweep() {
	expired, err := s.orchestrator.ExpireBookings(time.Now())
	if err != nil {
		logger.Error("Booking sweep failed", err)
		return
	}
	if expired > 0 {
		logger.Info(fmt.Sprintf("Booking sweep cancelled %d expired pre-booking(s)", expired))
	}
}
