// Package scheduler runs the periodic reminder sweeps.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run. It reports how many users it touched.
type Job func(ctx context.Context) (int, error)

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// New creates a scheduler evaluating cron expressions in loc. Each run gets
// its own context bounded by timeout.
func New(loc *time.Location, timeout time.Duration) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		timeout: timeout,
	}
}

// Add registers job under a standard five-field cron expression.
func (s *Scheduler) Add(name, expr string, job Job) error {
	if _, err := s.cron.AddFunc(expr, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, expr, err)
	}
	log.Printf("scheduler: %s at %q", name, expr)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := job(ctx)
	if err != nil {
		log.Printf("ERROR %s: %v", name, err)
		return
	}
	log.Printf("%s: notified %d users in %s", name, n, time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the timers and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
