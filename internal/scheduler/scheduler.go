// Package scheduler drives the scan pipeline (spec §4.4): a
// fixed-interval loop that fans out to every watchlist symbol with a
// bounded degree of parallelism, plus a cron table for any
// calendar-scheduled housekeeping. Grounded on the teacher's
// internal/scheduler/scheduler.go (robfig/cron wrapper, Job interface,
// idempotent Start/Stop) and sync_cycle.go's step-sequencing idiom,
// generalized from the teacher's LED-display sync cycle into the scan
// pipeline's accuracy/global-signal/per-symbol/portfolio-tick sequence.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// State is the scheduler's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Scan is the pipeline the scheduler drives once per tick.
type Scan interface {
	RunScan(ctx context.Context) error
}

// Scheduler wakes on a fixed interval and runs one Scan per tick. The
// interval loop is hand-rolled rather than another cron entry because
// Stop must wake a sleeping loop immediately instead of waiting out
// the remaining interval; AddCronJob still exposes the teacher's
// cron.Cron for anything genuinely calendar-scheduled.
type Scheduler struct {
	interval time.Duration
	scan     Scan
	cron     *cron.Cron
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	stopCh chan struct{}
	done   chan struct{}
}

func New(interval time.Duration, scan Scan, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		scan:     scan,
		cron:     cron.New(),
		log:      log.With().Str("component", "scheduler").Logger(),
		state:    StateIdle,
	}
}

// CurrentState reports the scheduler's lifecycle state.
func (s *Scheduler) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins the scan loop and the cron table. A no-op if already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateRunning
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.cron.Start()
	go s.loop()
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
}

// Stop signals the loop to stop, cancels any in-flight scan, and
// blocks until the loop has fully exited. A no-op if not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	close(s.stopCh)
	s.mu.Unlock()

	<-s.done

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.log.Info().Msg("scheduler stopped")
}

// TriggerScan runs one scan immediately, off the interval, without
// disturbing the running loop's own ticker. Used by the HTTP API's
// manual-trigger endpoint.
func (s *Scheduler) TriggerScan() {
	go s.runOnce()
}

// AddCronJob registers a calendar-scheduled function alongside the
// fixed-interval scan loop. Errors from fn are the caller's
// responsibility to log; AddCronJob only propagates a malformed spec.
func (s *Scheduler) AddCronJob(spec, name string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Debug().Str("job", name).Msg("running cron job")
		fn()
	})
	return err
}

func (s *Scheduler) loop() {
	defer close(s.done)

	s.runOnce()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce gives the scan a context that is cancelled the instant Stop
// is called, so cancellation is observed between symbols even if the
// interval timer hasn't fired yet.
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watch := make(chan struct{})
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-watch:
		}
	}()

	if err := s.scan.RunScan(ctx); err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Msg("scan failed")
	}
	close(watch)
}
