// internal/worker/pool.go
package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ocf-deckgen/pkg/models"

	"github.com/rs/zerolog"
)

var (
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrJobRunning  = errors.New("job is already running")
	// ErrJobAborted est la cause d'annulation posée par Abort
	ErrJobAborted = errors.New("job aborted")
)

// Runner exécute une génération jusqu'à son état terminal
type Runner interface {
	Run(ctx context.Context, jobID string, req models.GenerationRequest) error
}

// PoolConfig contient la configuration du pool
type PoolConfig struct {
	JobTimeout time.Duration // Durée max d'une génération, 0 = sans limite
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		JobTimeout: 15 * time.Minute,
	}
}

// WorkerPool lance chaque génération dans sa propre goroutine, détachée de la
// requête HTTP qui l'a soumise, et garde de quoi l'annuler.
type WorkerPool struct {
	runner Runner
	config *PoolConfig
	logger zerolog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	running map[string]context.CancelCauseFunc
	stopped bool
	wg      sync.WaitGroup

	// Statistiques - atomic pour éviter les locks
	jobsTotal   int64
	jobsSuccess int64
	jobsFailed  int64
	jobsAborted int64
}

func NewWorkerPool(runner Runner, config *PoolConfig, logger zerolog.Logger) *WorkerPool {
	if config == nil {
		config = DefaultPoolConfig()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	return &WorkerPool{
		runner:     runner,
		config:     config,
		logger:     logger.With().Str("component", "worker_pool").Logger(),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		running:    make(map[string]context.CancelCauseFunc),
	}
}

// Submit démarre la génération en arrière-plan et rend la main immédiatement
func (p *WorkerPool) Submit(jobID string, req models.GenerationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrPoolStopped
	}
	if _, exists := p.running[jobID]; exists {
		return ErrJobRunning
	}

	ctx, cancel := p.jobContext()
	p.running[jobID] = cancel
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.processJob(ctx, cancel, jobID, req)
	}()

	p.logger.Debug().Str("job_id", jobID).Msg("Job submitted")
	return nil
}

// jobContext garde la cause d'annulation : un abort se distingue ainsi d'un
// timeout ou de l'arrêt du pool.
func (p *WorkerPool) jobContext() (context.Context, context.CancelCauseFunc) {
	ctx, cancelCause := context.WithCancelCause(p.baseCtx)
	if p.config.JobTimeout <= 0 {
		return ctx, cancelCause
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, p.config.JobTimeout)
	return ctx, func(cause error) {
		cancelCause(cause)
		cancelTimeout()
	}
}

// Abort annule les appels en cours du job ; false si le job ne tourne pas
func (p *WorkerPool) Abort(jobID string) bool {
	p.mu.Lock()
	cancel, ok := p.running[jobID]
	p.mu.Unlock()

	if !ok {
		return false
	}

	// Compté comme aborted par processJob si le runner s'arrête sur cette annulation
	cancel(ErrJobAborted)
	p.logger.Info().Str("job_id", jobID).Msg("Job aborted")
	return true
}

// Stop refuse les nouvelles soumissions et attend la fin des jobs en cours.
// Si ctx expire avant, les jobs restants sont annulés.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	active := len(p.running)
	p.mu.Unlock()

	p.logger.Info().Int("active_jobs", active).Msg("Stopping worker pool...")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.baseCancel()
		p.logger.Info().Msg("Worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn().Msg("Worker pool stop deadline reached, cancelling remaining jobs")
		p.baseCancel()
		<-done
		return ctx.Err()
	}
}

// GetStats retourne les statistiques du pool
func (p *WorkerPool) GetStats() models.WorkerStats {
	p.mu.Lock()
	ids := make([]string, 0, len(p.running))
	for id := range p.running {
		ids = append(ids, id)
	}
	stopped := p.stopped
	p.mu.Unlock()

	sort.Strings(ids)

	return models.WorkerStats{
		Running:       !stopped,
		ActiveJobs:    int64(len(ids)),
		JobsTotal:     atomic.LoadInt64(&p.jobsTotal),
		JobsSuccess:   atomic.LoadInt64(&p.jobsSuccess),
		JobsFailed:    atomic.LoadInt64(&p.jobsFailed),
		JobsAborted:   atomic.LoadInt64(&p.jobsAborted),
		RunningJobIDs: ids,
	}
}

func (p *WorkerPool) GetConfig() *PoolConfig {
	return p.config
}
