// Package jobs runs periodic maintenance (token purge, low-stock sweep) on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Skotchmaster/bookstore/internal/logging"
)

type Func func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration
	names   map[cron.EntryID]string
}

func NewScheduler(log zerolog.Logger, timeout time.Duration) *Scheduler {
	cl := cronLogger{log: log.With().Str("component", "cron").Logger()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		timeout: timeout,
		names:   map[cron.EntryID]string{},
	}
}

// Add registers fn under spec. An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, fn Func) error {
	if spec == "" {
		s.log.Info().Str("job", name).Msg("job disabled")
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.names[id] = name
	return nil
}

func (s *Scheduler) run(name string, fn Func) {
	l := s.log.With().Str("job", name).Logger()
	ctx := logging.IntoContext(context.Background(), l)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		l.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		return
	}
	l.Info().Dur("took", time.Since(start)).Msg("job finished")
}

func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.names))
	for _, e := range s.cron.Entries() {
		out = append(out, s.names[e.ID])
	}
	return out
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, kv ...any) {
	c.log.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.log.Error().Err(err).Fields(kv).Msg(msg)
}
