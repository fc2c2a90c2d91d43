// internal/worker/worker_test.go
package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"ocf-deckgen/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunnerFunc adapte une fonction en Runner
type RunnerFunc func(ctx context.Context, jobID string, req models.GenerationRequest) error

func (f RunnerFunc) Run(ctx context.Context, jobID string, req models.GenerationRequest) error {
	return f(ctx, jobID, req)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestSubmitReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	pool := NewWorkerPool(RunnerFunc(func(context.Context, string, models.GenerationRequest) error {
		<-release
		return nil
	}), nil, zerolog.Nop())

	start := time.Now()
	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{UserPrompt: "pitch"}))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	stats := pool.GetStats()
	assert.True(t, stats.Running)
	assert.Equal(t, int64(1), stats.ActiveJobs)
	assert.Equal(t, []string{"job-1"}, stats.RunningJobIDs)

	assert.ErrorIs(t, pool.Submit("job-1", models.GenerationRequest{}), ErrJobRunning)

	close(release)
	waitFor(t, func() bool { return pool.GetStats().JobsSuccess == 1 })
	assert.Equal(t, int64(0), pool.GetStats().ActiveJobs)
}

func TestJobRunsOnDetachedContext(t *testing.T) {
	result := make(chan error, 1)
	pool := NewWorkerPool(RunnerFunc(func(ctx context.Context, _ string, _ models.GenerationRequest) error {
		time.Sleep(20 * time.Millisecond)
		result <- ctx.Err()
		return nil
	}), nil, zerolog.Nop())

	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{}))

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestJobTimeout(t *testing.T) {
	pool := NewWorkerPool(RunnerFunc(func(ctx context.Context, _ string, _ models.GenerationRequest) error {
		<-ctx.Done()
		return ctx.Err()
	}), &PoolConfig{JobTimeout: 30 * time.Millisecond}, zerolog.Nop())

	require.NoError(t, pool.Submit("slow", models.GenerationRequest{}))

	waitFor(t, func() bool { return pool.GetStats().JobsFailed == 1 })
	assert.Zero(t, pool.GetStats().JobsAborted)
}

func TestAbortCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	observed := make(chan error, 1)
	pool := NewWorkerPool(RunnerFunc(func(ctx context.Context, _ string, _ models.GenerationRequest) error {
		close(started)
		<-ctx.Done()
		observed <- ctx.Err()
		return ctx.Err()
	}), nil, zerolog.Nop())

	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{}))
	<-started

	assert.True(t, pool.Abort("job-1"))
	assert.ErrorIs(t, <-observed, context.Canceled)

	waitFor(t, func() bool { return pool.GetStats().ActiveJobs == 0 })
	assert.False(t, pool.Abort("job-1"))
	assert.False(t, pool.Abort("unknown"))
	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.JobsAborted)
	assert.Zero(t, stats.JobsFailed)
	assert.Zero(t, stats.JobsSuccess)
}

func TestAbortWithTimeoutIsCountedOnce(t *testing.T) {
	started := make(chan struct{})
	pool := NewWorkerPool(RunnerFunc(func(ctx context.Context, _ string, _ models.GenerationRequest) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}), &PoolConfig{JobTimeout: time.Minute}, zerolog.Nop())

	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{}))
	<-started
	require.True(t, pool.Abort("job-1"))

	waitFor(t, func() bool { return pool.GetStats().ActiveJobs == 0 })
	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.JobsTotal)
	assert.Equal(t, int64(1), stats.JobsAborted)
	assert.Zero(t, stats.JobsFailed)
}

func TestRunnerPanicIsContained(t *testing.T) {
	pool := NewWorkerPool(RunnerFunc(func(context.Context, string, models.GenerationRequest) error {
		panic("boom")
	}), nil, zerolog.Nop())

	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{}))

	waitFor(t, func() bool { return pool.GetStats().JobsFailed == 1 })
}

func TestStopWaitsForRunningJobs(t *testing.T) {
	finished := make(chan struct{})
	pool := NewWorkerPool(RunnerFunc(func(context.Context, string, models.GenerationRequest) error {
		time.Sleep(30 * time.Millisecond)
		close(finished)
		return errors.New("failed anyway")
	}), nil, zerolog.Nop())

	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{}))
	require.NoError(t, pool.Stop(context.Background()))

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before the running job finished")
	}

	assert.ErrorIs(t, pool.Submit("job-2", models.GenerationRequest{}), ErrPoolStopped)
	assert.False(t, pool.GetStats().Running)
	assert.Equal(t, int64(1), pool.GetStats().JobsFailed)
	assert.NoError(t, pool.Stop(context.Background()))
}

func TestStopDeadlineCancelsJobs(t *testing.T) {
	pool := NewWorkerPool(RunnerFunc(func(ctx context.Context, _ string, _ models.GenerationRequest) error {
		<-ctx.Done()
		return ctx.Err()
	}), nil, zerolog.Nop())

	require.NoError(t, pool.Submit("job-1", models.GenerationRequest{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), pool.GetStats().ActiveJobs)
}
