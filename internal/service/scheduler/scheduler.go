package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"LureScan/pkg/logger"
)

// Scheduler runs scan passes on a cron schedule during trading hours.
type Scheduler struct {
	c   *cron.Cron
	log *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{c: cron.New(), log: log}
}

// AddJob registers fn under a standard 5-field cron spec.
func (s *Scheduler) AddJob(spec string, name string, fn func(ctx context.Context)) error {
	_, err := s.c.AddFunc(spec, func() {
		s.log.Info("scheduled job starting", logger.String("job", name))
		fn(context.Background())
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
