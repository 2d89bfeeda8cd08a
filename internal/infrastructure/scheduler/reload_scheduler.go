// Package scheduler runs the periodic reload of the reconciliation pipeline.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CycleRunner triggers one load cycle of the reconciliation pipeline
type CycleRunner interface {
	RunLoadCycle(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// ReloadSchedulerConfig
// ---------------------------------------------------------------------------

// ReloadSchedulerConfig holds configuration for the reload scheduler
type ReloadSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Interval is the time between reload ticks
	Interval time.Duration
}

// DefaultReloadSchedulerConfig returns default configuration
func DefaultReloadSchedulerConfig() ReloadSchedulerConfig {
	return ReloadSchedulerConfig{
		Enabled:  true,
		Interval: 5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *ReloadSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ReloadScheduler
// ---------------------------------------------------------------------------

// ReloadScheduler triggers pipeline load cycles on a fixed interval. A failed
// cycle is logged and the next tick proceeds normally; there is no retry or
// backoff, the next tick is the retry.
type ReloadScheduler struct {
	config ReloadSchedulerConfig
	runner CycleRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReloadScheduler creates a reload scheduler for the given runner
func NewReloadScheduler(config ReloadSchedulerConfig, runner CycleRunner, logger *zap.Logger) (*ReloadScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReloadScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}, nil
}

// Start starts the tick loop. Starting an already running or disabled
// scheduler is a no-op.
func (s *ReloadScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning || !s.config.Enabled {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Reload scheduler started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop stops the tick loop and waits for an in-flight cycle to finish, or
// for the given context to expire.
func (s *ReloadScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reload scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reload scheduler stop timed out")
		return ctx.Err()
	}
}

// loop ticks until the context is cancelled
func (s *ReloadScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce triggers a single load cycle
func (s *ReloadScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.runner.RunLoadCycle(ctx); err != nil {
		s.logger.Error("Scheduled reload failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Scheduled reload triggered",
		zap.Duration("elapsed", time.Since(start)),
	)
}
