package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// GuardPruner drops stale anti-abuse state.
type GuardPruner interface {
	Prune(maxAge time.Duration) int
}

// LimiterCleaner forgets idle rate-limit buckets.
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

type Config struct {
	Interval time.Duration
	// StartMarkerTTL bounds how long an unfinished task start is remembered.
	StartMarkerTTL time.Duration
}

// Scheduler runs the periodic housekeeping jobs.
type Scheduler struct {
	sched gocron.Scheduler
	log   *slog.Logger
}

func NewScheduler(cfg Config, guard GuardPruner, limiter LimiterCleaner, log *slog.Logger) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("invalid housekeeping interval %s", cfg.Interval)
	}
	if cfg.StartMarkerTTL <= 0 {
		cfg.StartMarkerTTL = 24 * time.Hour
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{sched: sched, log: log}

	if err := s.add("prune-abuse-guard", cfg.Interval, func() {
		if n := guard.Prune(cfg.StartMarkerTTL); n > 0 {
			log.Info("pruned anti-abuse state", "removed", n)
		}
	}); err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	if err := s.add("cleanup-rate-limiter", cfg.Interval, func() {
		if n := limiter.Cleanup(cfg.Interval); n > 0 {
			log.Info("dropped idle rate-limit buckets", "removed", n)
		}
	}); err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) add(name string, every time.Duration, fn func()) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info("housekeeping scheduler started", "jobs", len(s.sched.Jobs()))
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
