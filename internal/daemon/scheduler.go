package daemon

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the rate refresh on a cron schedule.
type Scheduler struct {
	Cron   *cron.Cron
	spec   string
	task   func()
	logger zerolog.Logger
}

// NewScheduler creates a scheduler for task. spec accepts standard five-field
// cron expressions and descriptors such as "@every 6h" or "@daily".
func NewScheduler(spec string, task func(), logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(),
		spec:   spec,
		task:   task,
		logger: logger,
	}
}

// Register adds the refresh task to the schedule.
func (s *Scheduler) Register() error {
	if _, err := s.Cron.AddFunc(s.spec, s.task); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Debug().Str("spec", s.spec).Msg("scheduler started")
}

// Stop stops the scheduler. The returned context is done once a running
// refresh has finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.Cron.Stop()
	s.logger.Debug().Msg("scheduler stopped")
	return ctx
}
