package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Purger drops expired entries and reports how many were removed.
type Purger interface {
	Purge() int
}

// Scheduler periodically purges expired login sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
	log       *slog.Logger
}

// New creates a new Scheduler. A non-positive interval defaults to one minute.
func New(purger Purger, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the purge job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.purger == nil {
		s.log.Info("scheduler: no session store to purge; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.runPurge)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runPurge() {
	if n := s.purger.Purge(); n > 0 {
		s.log.Info("scheduler: purged expired sessions", "count", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
