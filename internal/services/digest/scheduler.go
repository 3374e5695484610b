package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
)

// DefaultSchedule runs the digest at 07:30 every day. The first field is seconds.
const DefaultSchedule = "0 30 7 * * *"

// runTimeout bounds a single scheduled run
const runTimeout = 30 * time.Minute

// Scheduler triggers digest runs on a cron schedule
type Scheduler struct {
	digest   interfaces.DigestService
	schedule string
	cron     *cron.Cron
	logger   *common.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler for schedule, falling back to DefaultSchedule
func NewScheduler(digest interfaces.DigestService, schedule string, logger *common.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		digest:   digest,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Start registers the digest job and starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("digest scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", s.schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", s.schedule).Msg("Digest scheduler started")
	return nil
}

// Stop halts the cron loop, cancels an in-flight run and waits for it to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Digest scheduler stopped")
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Digest run panicked")
		}
	}()

	run, err := s.digest.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled digest run failed")
		return
	}
	s.logger.Info().Int("sent", run.Sent).Int("failed", run.Failed).Msg("Scheduled digest run finished")
}
