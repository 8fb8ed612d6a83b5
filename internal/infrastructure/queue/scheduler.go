package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
)

// Job is one periodic unit of work.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Scheduler runs each job on its own goroutine at a fixed interval. A job
// never overlaps with itself inside one process; overlap across processes is
// left to the job's own locking.
type Scheduler struct {
	jobs  []Job
	log   zerolog.Logger
	clock clockz.Clock
	wg    sync.WaitGroup
}

// NewScheduler drops jobs with a non-positive interval.
func NewScheduler(log zerolog.Logger, jobs ...Job) *Scheduler {
	s := &Scheduler{
		log:   log.With().Str("component", "scheduler").Logger(),
		clock: clockz.RealClock,
	}
	for _, j := range jobs {
		if j.Every <= 0 {
			s.log.Warn().Str("job", j.Name).Msg("job disabled: interval must be positive")
			continue
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// WithClock sets the time source driving the job tickers.
func (s *Scheduler) WithClock(clock clockz.Clock) *Scheduler {
	s.clock = clock
	return s
}

// Start launches all job goroutines. They stop when ctx is cancelled. Every
// ticker exists by the time Start returns.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		ticker := s.clock.NewTicker(j.Every)
		s.wg.Add(1)
		go s.runJob(ctx, j, ticker)
	}
}

// Wait blocks until every job goroutine has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, j Job, ticker clockz.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	s.log.Info().Str("job", j.Name).Dur("every", j.Every).Msg("job scheduled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("job", j.Name).Msg("job panicked")
		}
	}()
	if err := j.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", j.Name).Msg("job run failed")
	}
}
