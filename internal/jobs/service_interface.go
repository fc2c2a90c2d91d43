package jobs

import (
	"context"
	"time"

	"ocf-deckgen/pkg/models"
)

// JobService est le contrat du store de statut des générations
type JobService interface {
	Create(ctx context.Context, id string) (*models.GenerationJob, error)
	Get(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, mutate func(*models.GenerationJob)) (*models.GenerationJob, error)
	Cancel(ctx context.Context, id string) (*models.GenerationJob, error)
	Len() int
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
