package api

import (
	"ocf-deckgen/internal/jobs"
	"ocf-deckgen/internal/storage"
	"ocf-deckgen/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps regroupe ce dont le routeur a besoin
type RouterDeps struct {
	JobService     jobs.JobService
	Dispatcher     Dispatcher
	Results        ResultStore         // nil si l'export est désactivé
	Gatherer       prometheus.Gatherer // registre servi sur /metrics
	Validator      *validation.APIValidator
	AllowedOrigins []string
	Logger         zerolog.Logger
}

func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Validator == nil {
		deps.Validator = validation.NewAPIValidator(nil)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(deps.Logger),
		AccessLogger(deps.Logger),
		SecurityHeadersMiddleware(deps.AllowedOrigins),
		ValidationMiddleware(deps.Validator),
	)

	handlers := NewHandlers(deps.JobService, deps.Dispatcher, deps.Results, deps.Logger)

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	// Mêmes routes à la racine et sous /api/v1
	registerGenerationRoutes(r.Group(""), handlers)

	api := r.Group("/api/v1")
	{
		registerGenerationRoutes(api, handlers)
		api.GET("/worker/stats", handlers.WorkerStats)
	}

	return r
}

func registerGenerationRoutes(group *gin.RouterGroup, handlers *Handlers) {
	byQueryID := validation.ValidateRequest(validation.ValidateJobIDQuery("id"))
	byPathID := validation.ValidateRequest(validation.ValidateJobIDParam("id"))

	group.POST("/generate",
		validation.ParseGenerationRequest(),
		validation.ValidateRequest(validation.ValidateGenerationRequest),
		handlers.CreateGeneration)
	group.GET("/generate", byQueryID, handlers.GetGeneration)
	group.DELETE("/generate", byQueryID, handlers.CancelGeneration)

	group.GET("/generate/:id/result",
		validation.ValidateRequest(validation.CombineValidators(
			validation.ValidateJobIDParam("id"),
			validation.ValidateFilenameQuery("file", storage.DeckFilename),
		)),
		handlers.DownloadResult)
	group.DELETE("/generate/:id/result", byPathID, handlers.DeleteResult)
	group.GET("/generate/:id/files", byPathID, handlers.ListResultFiles)
}
