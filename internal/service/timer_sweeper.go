package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// TimerSweeper is a background worker that force-stops timers left
// running past the configured age, converting them to time entries so
// forgotten sessions don't grow without bound.
type TimerSweeper struct {
	timerService *TimerService
	timerRepo    domain.ActiveTimerRepository
	logger       zerolog.Logger
	interval     time.Duration
	maxTimerAge  time.Duration
	clock        Clock
	stopCh       chan struct{}
	doneCh       chan struct{}
	mu           sync.Mutex
	running      bool
}

// TimerSweeperConfig holds configuration for the timer sweeper
type TimerSweeperConfig struct {
	Interval    time.Duration // How often to sweep
	MaxTimerAge time.Duration // Timers older than this get force-stopped
}

// DefaultTimerSweeperConfig returns sensible defaults
func DefaultTimerSweeperConfig() TimerSweeperConfig {
	return TimerSweeperConfig{
		Interval:    15 * time.Minute,
		MaxTimerAge: 12 * time.Hour,
	}
}

// NewTimerSweeper creates a new timer sweeper
func NewTimerSweeper(
	timerService *TimerService,
	timerRepo domain.ActiveTimerRepository,
	logger zerolog.Logger,
	config TimerSweeperConfig,
	clock Clock,
) *TimerSweeper {
	if config.Interval <= 0 {
		config.Interval = 15 * time.Minute
	}
	if config.MaxTimerAge <= 0 {
		config.MaxTimerAge = 12 * time.Hour
	}
	if clock == nil {
		clock = RealClock{}
	}

	return &TimerSweeper{
		timerService: timerService,
		timerRepo:    timerRepo,
		logger:       logger.With().Str("component", "timer_sweeper").Logger(),
		interval:     config.Interval,
		maxTimerAge:  config.MaxTimerAge,
		clock:        clock,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (w *TimerSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Dur("max_timer_age", w.maxTimerAge).
		Msg("Starting timer sweeper")

	go w.run(ctx)
}

// Stop gracefully stops the sweeper
func (w *TimerSweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping timer sweeper")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Timer sweeper stopped")
}

func (w *TimerSweeper) run(ctx context.Context) {
	defer close(w.doneCh)

	w.Sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep force-stops all timers older than the configured age.
// Exported so an operator endpoint or test can trigger a pass directly.
func (w *TimerSweeper) Sweep(ctx context.Context) {
	cutoff := w.clock.Now().Add(-w.maxTimerAge)
	stale, err := w.timerRepo.ListRunningLongerThan(cutoff)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list stale timers")
		return
	}
	if len(stale) == 0 {
		return
	}

	stopped := 0
	for _, timer := range stale {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Context cancelled, stopping sweep")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("Stop signal received, stopping sweep")
			return
		default:
		}

		entry, err := w.timerService.ForceStop(timer)
		if err != nil {
			// A concurrent user stop is not an error worth alerting on
			if errors.Is(err, domain.ErrNoActiveTimer) {
				continue
			}
			w.logger.Error().
				Err(err).
				Str("timer_id", timer.ID.String()).
				Int32("workspace_id", timer.WorkspaceID).
				Msg("Failed to force-stop stale timer")
			continue
		}

		stopped++
		w.logger.Info().
			Str("timer_id", timer.ID.String()).
			Str("time_entry_id", entry.ID.String()).
			Int64("duration_seconds", entry.DurationSeconds).
			Msg("Force-stopped stale timer")
	}

	w.logger.Info().
		Int("stale", len(stale)).
		Int("stopped", stopped).
		Msg("Completed timer sweep")
}

// IsRunning returns whether the sweeper is currently running
func (w *TimerSweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
