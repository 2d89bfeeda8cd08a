package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	calls atomic.Int64
	err   error
}

func (r *countingRunner) RunLoadCycle(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestReloadSchedulerConfig_Validate(t *testing.T) {
	cfg := DefaultReloadSchedulerConfig()
	require.NoError(t, cfg.Validate())

	cfg.Interval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestReloadScheduler_TicksUntilStopped(t *testing.T) {
	runner := &countingRunner{}
	sched, err := NewReloadScheduler(ReloadSchedulerConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	}, runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return runner.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sched.Stop(context.Background()))

	// No further ticks after Stop
	settled := runner.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, runner.calls.Load())
}

func TestReloadScheduler_FailedCycleDoesNotStopLoop(t *testing.T) {
	runner := &countingRunner{err: errors.New("sources down")}
	sched, err := NewReloadScheduler(ReloadSchedulerConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	}, runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop(context.Background()) }()

	assert.Eventually(t, func() bool {
		return runner.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReloadScheduler_DisabledNeverTicks(t *testing.T) {
	runner := &countingRunner{}
	sched, err := NewReloadScheduler(ReloadSchedulerConfig{
		Enabled:  false,
		Interval: 5 * time.Millisecond,
	}, runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), runner.calls.Load())
	require.NoError(t, sched.Stop(context.Background()))
}

func TestReloadScheduler_DoubleStartAndStop(t *testing.T) {
	runner := &countingRunner{}
	sched, err := NewReloadScheduler(DefaultReloadSchedulerConfig(), runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))
}
