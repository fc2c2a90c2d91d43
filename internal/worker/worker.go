// internal/worker/worker.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ocf-deckgen/pkg/models"
)

// processJob exécute un job dans la goroutine qui lui est dédiée
func (p *WorkerPool) processJob(ctx context.Context, cancel context.CancelCauseFunc, jobID string, req models.GenerationRequest) {
	defer p.release(jobID, cancel)

	atomic.AddInt64(&p.jobsTotal, 1)
	logger := p.logger.With().Str("job_id", jobID).Logger()
	start := time.Now()

	logger.Info().Str("task", req.Task).Msg("Worker processing job")

	err := p.safeRun(ctx, jobID, req)

	if err == nil {
		atomic.AddInt64(&p.jobsSuccess, 1)
		logger.Info().Dur("duration", time.Since(start)).Msg("Worker completed job successfully")
		return
	}

	// Chaque job termine dans un seul compteur : success, aborted ou failed
	if errors.Is(context.Cause(ctx), ErrJobAborted) {
		atomic.AddInt64(&p.jobsAborted, 1)
		logger.Info().Err(err).Dur("duration", time.Since(start)).Msg("Worker stopped aborted job")
		return
	}

	atomic.AddInt64(&p.jobsFailed, 1)
	logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Worker failed job")
}

// safeRun empêche une panique du runner de tuer le processus
func (p *WorkerPool) safeRun(ctx context.Context, jobID string, req models.GenerationRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runner panicked: %v", r)
		}
	}()
	return p.runner.Run(ctx, jobID, req)
}

func (p *WorkerPool) release(jobID string, cancel context.CancelCauseFunc) {
	cancel(nil)

	p.mu.Lock()
	delete(p.running, jobID)
	p.mu.Unlock()
}
