// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job is one periodic task
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(logger *zap.Logger, jobs ...Job) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, jobs: jobs, logger: logger}
}

// Add registers another job; it must be called before Run
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run schedules every job, runs them until ctx is cancelled and then stops.
// Each job runs once immediately on start.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, job := range s.jobs {
		if _, err := s.scheduler.Every(job.Interval).Do(func() { s.runJob(ctx, job) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))

	<-ctx.Done()
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.logger.Debug("scheduled job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// Count adapts a cleanup function that reports how many rows it removed
func Count[N int | int64](name string, logger *zap.Logger, fn func(ctx context.Context, now time.Time) (N, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := fn(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("cleanup", zap.String("job", name), zap.Int64("removed", int64(n)))
		}
		return nil
	}
}
