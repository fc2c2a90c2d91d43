package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"ocf-deckgen/internal/jobs"
	"ocf-deckgen/internal/storage"
	"ocf-deckgen/internal/validation"
	"ocf-deckgen/internal/worker"
	"ocf-deckgen/pkg/models"
	pkgstorage "ocf-deckgen/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher lance et annule les générations en arrière-plan
type Dispatcher interface {
	Submit(jobID string, req models.GenerationRequest) error
	Abort(jobID string) bool
	GetStats() models.WorkerStats
}

// ResultStore donne accès aux decks exportés
type ResultStore interface {
	OpenResultFile(ctx context.Context, jobID, filename string) (io.ReadCloser, error)
	ListResultFiles(ctx context.Context, jobID string) ([]string, error)
	DeleteResult(ctx context.Context, jobID string) error
}

type Handlers struct {
	jobService jobs.JobService
	dispatcher Dispatcher
	results    ResultStore
	logger     zerolog.Logger
}

// NewHandlers crée les handlers ; results peut être nil si l'export est désactivé
func NewHandlers(jobService jobs.JobService, dispatcher Dispatcher, results ResultStore, logger zerolog.Logger) *Handlers {
	return &Handlers{
		jobService: jobService,
		dispatcher: dispatcher,
		results:    results,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// Health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "ocf-deckgen",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateGeneration crée le job, le confie au pool et répond sans attendre la génération
func (h *Handlers) CreateGeneration(c *gin.Context) {
	req, ok := validation.ValidatedGenerationRequest(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validated request missing"})
		return
	}

	if req.GenerationID == "" {
		req.GenerationID = uuid.NewString()
	}
	jobID := req.GenerationID
	logger := h.logger.With().Str("job_id", jobID).Str("request_id", RequestID(c)).Logger()

	if _, err := h.jobService.Create(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, jobs.ErrJobExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "generation already exists", "generationId": jobID})
			return
		}
		logger.Error().Err(err).Msg("Failed to create job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.dispatcher.Submit(jobID, req); err != nil {
		logger.Error().Err(err).Msg("Failed to submit job")
		// Le job ne tournera jamais : on le termine pour que le polling s'arrête
		_, _ = h.jobService.Update(context.WithoutCancel(c.Request.Context()), jobID, func(j *models.GenerationJob) {
			j.Fail(err.Error(), "Generation could not be scheduled")
		})
		status := http.StatusInternalServerError
		if errors.Is(err, worker.ErrPoolStopped) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "generationId": jobID})
		return
	}

	logger.Info().Str("task", req.Task).Msg("Generation accepted")
	c.JSON(http.StatusOK, models.GenerationAccepted{GenerationID: jobID})
}

// GetGeneration retourne l'instantané courant du job
func (h *Handlers) GetGeneration(c *gin.Context) {
	jobID := validation.ValidatedJobID(c)

	job, err := h.jobService.Get(c.Request.Context(), jobID)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelGeneration marque le job annulé puis interrompt ses appels en cours
func (h *Handlers) CancelGeneration(c *gin.Context) {
	jobID := validation.ValidatedJobID(c)

	job, err := h.jobService.Cancel(c.Request.Context(), jobID)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	aborted := h.dispatcher.Abort(jobID)
	h.logger.Info().
		Str("job_id", jobID).
		Str("request_id", RequestID(c)).
		Bool("aborted_running_work", aborted).
		Msg("Generation cancelled")

	c.JSON(http.StatusOK, job)
}

// DownloadResult sert un artefact exporté (slides.md par défaut)
func (h *Handlers) DownloadResult(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result export is disabled"})
		return
	}

	jobID := validation.ValidatedJobID(c)
	filename := validation.ValidatedFilename(c)
	if !storage.IsResultFile(filename) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	reader, err := h.results.OpenResultFile(c.Request.Context(), jobID, filename)
	if err != nil {
		if errors.Is(err, pkgstorage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to open result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer reader.Close()

	contentType := storage.ContentType(filename)
	c.Header("Content-Disposition", "inline; filename="+filename)
	c.DataFromReader(http.StatusOK, -1, contentType, reader, nil)
}

// ListResultFiles liste les artefacts exportés d'un job
func (h *Handlers) ListResultFiles(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result export is disabled"})
		return
	}

	jobID := validation.ValidatedJobID(c)
	files, err := h.results.ListResultFiles(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to list results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if files == nil {
		files = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"generationId": jobID,
		"files":        files,
	})
}

// DeleteResult supprime les artefacts exportés ; le job en mémoire n'est pas touché
func (h *Handlers) DeleteResult(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result export is disabled"})
		return
	}

	jobID := validation.ValidatedJobID(c)
	if err := h.results.DeleteResult(c.Request.Context(), jobID); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to delete results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// WorkerStats expose l'état du pool et la taille du store
func (h *Handlers) WorkerStats(c *gin.Context) {
	c.JSON(http.StatusOK, models.WorkerStatsResponse{
		WorkerPool: h.dispatcher.GetStats(),
		StoredJobs: h.jobService.Len(),
		Timestamp:  time.Now().UTC(),
	})
}

func (h *Handlers) respondJobError(c *gin.Context, jobID string, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "generation not found", "generationId": jobID})
	case errors.Is(err, jobs.ErrJobTerminal):
		body := gin.H{"error": "generation already finished", "generationId": jobID}
		if job, getErr := h.jobService.Get(c.Request.Context(), jobID); getErr == nil {
			body["status"] = job.Status
		}
		c.JSON(http.StatusConflict, body)
	default:
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Job service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
