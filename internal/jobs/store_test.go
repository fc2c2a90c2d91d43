package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ocf-deckgen/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(zerolog.Nop())
}

func TestStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	job, err := store.Create(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderstanding, job.Status)
	assert.Equal(t, 0, job.Progress)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, 1, store.Len())

	_, err = store.Create(ctx, "job-1")
	assert.ErrorIs(t, err, ErrJobExists)

	_, err = store.Create(ctx, "")
	assert.Error(t, err)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, err := store.Create(ctx, "job-1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Phases().Generating = []string{"slide 1"}
	})
	require.NoError(t, err)

	snapshot, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	snapshot.Progress = 99
	snapshot.PhaseContent.Generating[0] = "tampered"

	fresh, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Progress)
	assert.Equal(t, "slide 1", fresh.PhaseContent.Generating[0])
}

func TestStoreUpdateKeepsProgressMonotonic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, err := store.Create(ctx, "job-1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Status = models.StatusGenerating
		j.Progress = 40
	})
	require.NoError(t, err)

	job, err := store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Progress = 10
		j.Message = "late"
	})
	require.NoError(t, err)
	assert.Equal(t, 40, job.Progress)
	assert.Equal(t, "late", job.Message)

	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Status = models.StatusPlanning
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStoreUpdatePreservesPhaseContent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, err := store.Create(ctx, "job-1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Phases().Planning = `{"title":"x"}`
	})
	require.NoError(t, err)

	job, err := store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.SetPhase(models.StatusGenerating, 40, "Generating slides")
	})
	require.NoError(t, err)
	require.NotNil(t, job.PhaseContent)
	assert.Equal(t, `{"title":"x"}`, job.PhaseContent.Planning)
}

func TestStoreTerminalJobIsNeverMutated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, err := store.Create(ctx, "job-1")
	require.NoError(t, err)

	completed, err := store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Complete("# Deck", "Done")
	})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Fail("boom", "boom")
	})
	assert.ErrorIs(t, err, ErrJobTerminal)

	_, err = store.Cancel(ctx, "job-1")
	assert.ErrorIs(t, err, ErrJobTerminal)

	after, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, after.Status)
	assert.Equal(t, 100, after.Progress)
	require.NotNil(t, after.Result)
	assert.Equal(t, "# Deck", *after.Result)
	assert.Nil(t, after.Error)
}

func TestStoreCancel(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, err := store.Create(ctx, "job-1")
	require.NoError(t, err)
	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.SetPhase(models.StatusPlanning, 25, "Planning")
	})
	require.NoError(t, err)

	job, err := store.Cancel(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, job.Status)
	assert.Equal(t, CancelledMessage, job.Message)
	require.NotNil(t, job.Error)
	assert.Equal(t, 25, job.Progress)
	assert.Nil(t, job.Result)

	_, err = store.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	// une écriture tardive de l'orchestrateur ne ressuscite pas le job
	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Complete("late result", "Done")
	})
	assert.ErrorIs(t, err, ErrJobTerminal)
}

func TestStoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, err := store.Create(ctx, "job-1")
	require.NoError(t, err)
	_, err = store.Update(ctx, "job-1", func(j *models.GenerationJob) {
		j.Status = models.StatusGenerating
		j.Phases().Generating = make([]string, 50)
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, "job-1", func(j *models.GenerationJob) {
				j.Phases().Generating[i] = fmt.Sprintf("slide %d", i)
				j.SetProgress(40 + i*40/50)
			})
			assert.NoError(t, err)
			_, _ = store.Get(ctx, "job-1")
		}(i)
	}
	wg.Wait()

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	for i, slide := range job.PhaseContent.Generating {
		assert.Equal(t, fmt.Sprintf("slide %d", i), slide)
	}
	assert.Equal(t, 79, job.Progress)
}

func TestStoreDeleteTerminalOlderThan(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	for _, id := range []string{"old-done", "old-running", "new-done"} {
		_, err := store.Create(ctx, id)
		require.NoError(t, err)
	}
	_, err := store.Update(ctx, "old-done", func(j *models.GenerationJob) { j.Complete("x", "Done") })
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = store.Update(ctx, "new-done", func(j *models.GenerationJob) { j.Fail("boom", "Failed") })
	require.NoError(t, err)

	deleted, err := store.DeleteTerminalOlderThan(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.Get(ctx, "old-done")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = store.Get(ctx, "old-running")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "new-done")
	assert.NoError(t, err)
}
