package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ocf-deckgen/pkg/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const CancelledMessage = "Generation cancelled by user"

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobExists          = errors.New("job already exists")
	ErrJobTerminal        = errors.New("job already finished")
	ErrInvalidTransition  = errors.New("invalid status transition")
	errEmptyJobIdentifier = errors.New("job id must not be empty")
)

// Store garde les jobs en mémoire, derrière un mutex unique. Les lecteurs
// reçoivent toujours une copie ; seul Update modifie un enregistrement.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]*models.GenerationJob
	tracer trace.Tracer
	logger zerolog.Logger
	now    func() time.Time
}

func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		jobs:   make(map[string]*models.GenerationJob),
		tracer: otel.Tracer("ocf-deckgen/jobs"),
		logger: logger.With().Str("component", "jobs").Logger(),
		now:    time.Now,
	}
}

// Create insère un job neuf (understanding, 0%)
func (s *Store) Create(ctx context.Context, id string) (*models.GenerationJob, error) {
	_, span := s.tracer.Start(ctx, "JobService.Create", trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	if id == "" {
		span.RecordError(errEmptyJobIdentifier)
		return nil, errEmptyJobIdentifier
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		span.RecordError(ErrJobExists)
		return nil, fmt.Errorf("failed to create job %s: %w", id, ErrJobExists)
	}

	job := models.NewGenerationJob(id)
	job.CreatedAt = s.now()
	job.UpdatedAt = job.CreatedAt
	s.jobs[id] = job

	s.logger.Debug().Str("job_id", id).Msg("JobService.Create: job created")
	return job.Clone(), nil
}

// Get retourne un instantané du job
func (s *Store) Get(ctx context.Context, id string) (*models.GenerationJob, error) {
	_, span := s.tracer.Start(ctx, "JobService.Get", trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("failed to get job %s: %w", id, ErrJobNotFound)
	}
	return job.Clone(), nil
}

// Update applique mutate sur une copie puis la publie, sous le verrou. Un job
// terminal n'est jamais modifié ; la progression ne recule pas et le statut
// ne revient pas à une phase antérieure.
func (s *Store) Update(ctx context.Context, id string, mutate func(*models.GenerationJob)) (*models.GenerationJob, error) {
	_, span := s.tracer.Start(ctx, "JobService.Update", trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("failed to update job %s: %w", id, ErrJobNotFound)
	}
	if current.IsTerminal() {
		return nil, fmt.Errorf("failed to update job %s: %w", id, ErrJobTerminal)
	}

	next := current.Clone()
	mutate(next)

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	if next.Status != current.Status && !current.Status.Precedes(next.Status) {
		err := fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next.Status)
		span.RecordError(err)
		return nil, err
	}
	if next.Progress < current.Progress {
		next.Progress = current.Progress
	}
	if next.Progress > 100 {
		next.Progress = 100
	}

	now := s.now()
	next.UpdatedAt = now
	if next.IsTerminal() {
		next.CompletedAt = &now
	}

	s.jobs[id] = next
	return next.Clone(), nil
}

// Cancel passe un job non terminal en error avec le message d'annulation
func (s *Store) Cancel(ctx context.Context, id string) (*models.GenerationJob, error) {
	job, err := s.Update(ctx, id, func(j *models.GenerationJob) {
		j.Fail(CancelledMessage, CancelledMessage)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("job_id", id).Msg("JobService.Cancel: job cancelled")
	return job, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// DeleteTerminalOlderThan évince les jobs terminés avant cutoff
func (s *Store) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	_, span := s.tracer.Start(ctx, "JobService.DeleteTerminalOlderThan")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, job := range s.jobs {
		if !job.IsTerminal() {
			continue
		}
		finishedAt := job.UpdatedAt
		if job.CompletedAt != nil {
			finishedAt = *job.CompletedAt
		}
		if finishedAt.Before(cutoff) {
			delete(s.jobs, id)
			deleted++
		}
	}

	span.SetAttributes(attribute.Int("jobs.deleted", deleted))
	return deleted, nil
}

var _ JobService = (*Store)(nil)
