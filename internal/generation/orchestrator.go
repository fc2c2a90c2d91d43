// Package generation pilote un job de génération à travers ses phases :
// compréhension, plan, génération par slide en parallèle, puis raffinement.
package generation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ocf-deckgen/internal/jobs"
	"ocf-deckgen/internal/llm"
	"ocf-deckgen/internal/prompts"
	"ocf-deckgen/pkg/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Noms des phases, utilisés pour les métriques, les spans et Request.Phase
const (
	PhaseUnderstanding = "understanding"
	PhasePlanning      = "planning"
	PhaseExtraction    = "extraction"
	PhaseContent       = "content"
	PhaseGenerating    = "generating"
	PhaseRefinement    = "refinement"
	PhaseEdit          = "edit"
	PhaseChat          = "chat"
)

// Progression publiée à l'entrée de chaque phase
const (
	progressUnderstanding = 10
	progressPlanning      = 25
	progressGenerating    = 40
	progressGenerated     = 80
	progressFinalizing    = 85
	progressSingleCall    = 50
)

var ErrEmptyPlan = errors.New("slide plan contains no slides")

// ResultSink reçoit le job terminé pour export ; un échec n'affecte pas le job
type ResultSink interface {
	SaveResult(ctx context.Context, job *models.GenerationJob) error
}

// Recorder reçoit les durées de phase et le cycle de vie des jobs
type Recorder interface {
	ObservePhase(phase string, duration time.Duration)
	JobStarted()
	JobFinished(task string, success bool)
}

type noopRecorder struct{}

func (noopRecorder) ObservePhase(string, time.Duration) {}
func (noopRecorder) JobStarted()                        {}
func (noopRecorder) JobFinished(string, bool)           {}

// Config contient les réglages de l'orchestrateur
type Config struct {
	MaxParallelSlides int // 0 = toutes les slides en même temps
	MaxOutputTokens   int
}

type Option func(*Orchestrator)

func WithResultSink(sink ResultSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// Orchestrator exécute le pipeline de génération d'un job
type Orchestrator struct {
	gateway    llm.Gateway
	jobService jobs.JobService
	config     Config
	sink       ResultSink
	recorder   Recorder
	logger     zerolog.Logger
	tracer     trace.Tracer
}

func NewOrchestrator(gateway llm.Gateway, jobService jobs.JobService, config Config, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:    gateway,
		jobService: jobService,
		config:     config,
		recorder:   noopRecorder{},
		logger:     logger.With().Str("component", "orchestrator").Logger(),
		tracer:     otel.Tracer("ocf-deckgen/generation"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run conduit le job jusqu'à completed ou error. Toute erreur, panique
// comprise, est convertie en job error avant d'être retournée.
func (o *Orchestrator) Run(ctx context.Context, jobID string, req models.GenerationRequest) (err error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Run", trace.WithAttributes(attribute.String("job.id", jobID)))
	defer span.End()

	logger := o.logger.With().Str("job_id", jobID).Logger()
	start := time.Now()
	task := req.Task

	o.recorder.JobStarted()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
			logger.Error().Interface("panic", r).Msg("Orchestrator.Run: recovered from panic")
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.fail(ctx, logger, jobID, err)
		}
		span.SetAttributes(attribute.String("job.task", task))
		o.recorder.JobFinished(task, err == nil)
		logger.Info().
			Str("task", task).
			Dur("duration", time.Since(start)).
			Bool("success", err == nil).
			Msg("Orchestrator.Run: generation finished")
	}()

	logger.Info().Str("task", req.Task).Msg("Orchestrator.Run: generation started")

	params, err := o.understand(ctx, jobID, req)
	if err != nil {
		return err
	}
	task = params.Task

	var result string
	switch {
	case params.Task == models.TaskChat:
		result, err = o.singleCall(ctx, jobID, PhaseChat, "Generating response",
			prompts.Chat(req.UserPrompt, req.SlideContext), prompts.TemperatureChat)
	case params.Task == models.TaskEdit && req.SlideContext != "":
		var edited string
		edited, err = o.singleCall(ctx, jobID, PhaseEdit, "Editing slide",
			prompts.DirectEdit(req.UserPrompt, params.SlideConstraint, req.SlideContext), prompts.TemperatureEdit)
		result = prompts.CleanCodeBlock(edited)
	default:
		result, err = o.fullPipeline(ctx, jobID, req, params)
	}
	if err != nil {
		return err
	}

	return o.complete(ctx, logger, jobID, result)
}

// understand complète les paramètres manquants ; les valeurs fournies par l'appelant priment
func (o *Orchestrator) understand(ctx context.Context, jobID string, req models.GenerationRequest) (models.RequestParameters, error) {
	params := models.RequestParameters{
		UserPersona:     req.UserPersona,
		SlideGoal:       req.SlideGoal,
		SlideConstraint: req.SlideConstraint,
		Task:            req.Task,
	}
	if !req.NeedsUnderstanding() {
		return params, nil
	}

	ctx, end := o.startPhase(ctx, PhaseUnderstanding)
	var err error
	defer func() { end(err) }()

	if err = o.advance(ctx, jobID, models.StatusUnderstanding, progressUnderstanding, "Understanding your request"); err != nil {
		return params, err
	}

	var text string
	text, err = o.generate(ctx, PhaseUnderstanding, prompts.Parameters(req.UserPrompt, req.SlideContext), prompts.TemperatureUnderstanding)
	if err != nil {
		err = fmt.Errorf("understanding failed: %w", err)
		return params, err
	}
	if err = o.recordPhase(ctx, jobID, func(pc *models.PhaseContent) { pc.Understanding = text }); err != nil {
		return params, err
	}

	var extracted models.RequestParameters
	if err = prompts.DecodeJSON(text, &extracted); err != nil {
		err = fmt.Errorf("failed to parse request parameters: %w", err)
		return params, err
	}

	params.UserPersona = firstNonEmpty(params.UserPersona, extracted.UserPersona)
	params.SlideGoal = firstNonEmpty(params.SlideGoal, extracted.SlideGoal)
	params.SlideConstraint = firstNonEmpty(params.SlideConstraint, extracted.SlideConstraint)
	params.Task = firstNonEmpty(params.Task, extracted.Task)
	return params, nil
}

func (o *Orchestrator) singleCall(ctx context.Context, jobID, phase, message, prompt string, temperature float64) (string, error) {
	ctx, end := o.startPhase(ctx, phase)
	var err error
	defer func() { end(err) }()

	if err = o.advance(ctx, jobID, models.StatusGenerating, progressSingleCall, message); err != nil {
		return "", err
	}

	var text string
	text, err = o.generate(ctx, phase, prompt, temperature)
	if err != nil {
		err = fmt.Errorf("%s failed: %w", phase, err)
		return "", err
	}
	if err = o.recordPhase(ctx, jobID, func(pc *models.PhaseContent) { pc.Generating = []string{text} }); err != nil {
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) fullPipeline(ctx context.Context, jobID string, req models.GenerationRequest, params models.RequestParameters) (string, error) {
	plan, err := o.plan(ctx, jobID, req, params)
	if err != nil {
		return "", err
	}

	slides, err := o.generateSlides(ctx, jobID, plan, req.UserPrompt, params.SlideConstraint)
	if err != nil {
		return "", err
	}

	return o.refine(ctx, jobID, plan, slides, params.SlideConstraint)
}

func (o *Orchestrator) plan(ctx context.Context, jobID string, req models.GenerationRequest, params models.RequestParameters) (*models.SlidePlan, error) {
	ctx, end := o.startPhase(ctx, PhasePlanning)
	var err error
	defer func() { end(err) }()

	if err = o.advance(ctx, jobID, models.StatusPlanning, progressPlanning, "Planning presentation structure"); err != nil {
		return nil, err
	}

	var text string
	text, err = o.generate(ctx, PhasePlanning, prompts.Planning(req.UserPrompt, params, req.SlideContext), prompts.TemperaturePlanning)
	if err != nil {
		err = fmt.Errorf("planning failed: %w", err)
		return nil, err
	}
	if err = o.recordPhase(ctx, jobID, func(pc *models.PhaseContent) { pc.Planning = text }); err != nil {
		return nil, err
	}

	var plan models.SlidePlan
	if err = prompts.DecodeJSON(text, &plan); err != nil {
		err = fmt.Errorf("failed to parse slide plan: %w", err)
		return nil, err
	}
	if len(plan.Slides) == 0 {
		err = fmt.Errorf("failed to parse slide plan: %w", ErrEmptyPlan)
		return nil, err
	}
	if plan.TotalSlides != len(plan.Slides) {
		o.logger.Warn().
			Str("job_id", jobID).
			Int("announced", plan.TotalSlides).
			Int("actual", len(plan.Slides)).
			Msg("Orchestrator.plan: totalSlides does not match slides, using slide count")
	}
	plan.Normalize()

	return &plan, nil
}

// generateSlides lance une sous-tâche par slide et attend qu'elles soient
// toutes terminées. Les sorties sont rangées à l'index de la slide dans le plan.
func (o *Orchestrator) generateSlides(ctx context.Context, jobID string, plan *models.SlidePlan, userPrompt, constraint string) ([]string, error) {
	ctx, end := o.startPhase(ctx, PhaseGenerating)
	var err error
	defer func() { end(err) }()

	total := len(plan.Slides)
	err = o.update(ctx, jobID, func(j *models.GenerationJob) {
		j.SetPhase(models.StatusGenerating, progressGenerating, fmt.Sprintf("Generating %d slides", total))
		j.Phases().Generating = make([]string, total)
	})
	if err != nil {
		return nil, err
	}

	outputs := make([]string, total)
	var finished atomic.Int32

	var g errgroup.Group
	if o.config.MaxParallelSlides > 0 {
		g.SetLimit(o.config.MaxParallelSlides)
	}

	for i := range plan.Slides {
		index := i
		g.Go(func() (slideErr error) {
			defer func() {
				if r := recover(); r != nil {
					slideErr = fmt.Errorf("slide %d panicked: %v", index+1, r)
				}
			}()

			raw, text, err := o.generateSlide(ctx, jobID, plan, index+1, userPrompt, constraint)
			if err != nil {
				return fmt.Errorf("slide %d failed: %w", index+1, err)
			}
			outputs[index] = text

			done := int(finished.Add(1))
			return o.update(ctx, jobID, func(j *models.GenerationJob) {
				pc := j.Phases()
				if len(pc.Generating) == total {
					pc.Generating[index] = raw
				}
				j.SetProgress(progressGenerating + done*(progressGenerated-progressGenerating)/total)
				j.Message = fmt.Sprintf("Generated %d of %d slides", done, total)
			})
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// generateSlide : extraction (avec repli sur le plan) puis rédaction de la slide n.
// Retourne la sortie brute du LLM et la slide nettoyée.
func (o *Orchestrator) generateSlide(ctx context.Context, jobID string, plan *models.SlidePlan, n int, userPrompt, constraint string) (string, string, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.generateSlide", trace.WithAttributes(attribute.Int("slide.number", n)))
	defer span.End()

	slide, _ := plan.Slide(n)
	logger := o.logger.With().Str("job_id", jobID).Int("slide", n).Logger()

	info, err := o.extract(ctx, plan, n, userPrompt)
	if err != nil {
		if ctx.Err() != nil {
			span.RecordError(err)
			return "", "", err
		}
		logger.Warn().Err(err).Msg("Orchestrator.generateSlide: extraction unusable, falling back to plan data")
		info = models.FallbackSlideInfo(slide)
	}

	text, err := o.generate(ctx, PhaseContent, prompts.SlideContent(plan, n, info, constraint), prompts.TemperatureContent)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", "", err
	}

	return text, prompts.CleanCodeBlock(text), nil
}

func (o *Orchestrator) extract(ctx context.Context, plan *models.SlidePlan, n int, userPrompt string) (models.ExtractedSlideInfo, error) {
	var info models.ExtractedSlideInfo

	text, err := o.generate(ctx, PhaseExtraction, prompts.Extraction(plan, n, userPrompt), prompts.TemperatureExtraction)
	if err != nil {
		return info, err
	}
	if err := prompts.DecodeJSON(text, &info); err != nil {
		return info, err
	}
	return info, nil
}

func (o *Orchestrator) refine(ctx context.Context, jobID string, plan *models.SlidePlan, slides []string, constraint string) (string, error) {
	ctx, end := o.startPhase(ctx, PhaseRefinement)
	var err error
	defer func() { end(err) }()

	if err = o.advance(ctx, jobID, models.StatusFinalizing, progressFinalizing, "Refining the complete presentation"); err != nil {
		return "", err
	}

	var text string
	text, err = o.generate(ctx, PhaseRefinement, prompts.Refinement(slides, plan, constraint), prompts.TemperatureRefinement)
	if err != nil {
		err = fmt.Errorf("refinement failed: %w", err)
		return "", err
	}
	if err = o.recordPhase(ctx, jobID, func(pc *models.PhaseContent) { pc.Finalizing = text }); err != nil {
		return "", err
	}

	return prompts.CleanCodeBlock(text), nil
}

// complete exporte le deck puis publie l'état completed : un client qui lit
// completed trouve l'export déjà écrit.
func (o *Orchestrator) complete(ctx context.Context, logger zerolog.Logger, jobID, result string) error {
	const message = "Presentation ready"

	if o.sink != nil {
		snapshot, err := o.jobService.Get(ctx, jobID)
		if err != nil {
			return err
		}
		if snapshot.IsTerminal() {
			return fmt.Errorf("failed to complete job %s: %w", jobID, jobs.ErrJobTerminal)
		}
		snapshot.Complete(result, message)
		if err := o.sink.SaveResult(ctx, snapshot); err != nil {
			logger.Error().Err(err).Msg("Orchestrator.complete: failed to export result")
		}
	}

	_, err := o.jobService.Update(ctx, jobID, func(j *models.GenerationJob) {
		j.Complete(result, message)
	})
	return err
}

// fail convertit l'erreur en job error. Un job déjà terminal (annulé) est laissé tel quel.
func (o *Orchestrator) fail(ctx context.Context, logger zerolog.Logger, jobID string, cause error) {
	message := "Generation failed"
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		message = "Generation timed out"
	case errors.Is(ctx.Err(), context.Canceled):
		message = "Generation aborted"
	}

	_, err := o.jobService.Update(context.WithoutCancel(ctx), jobID, func(j *models.GenerationJob) {
		j.Fail(cause.Error(), message)
	})
	switch {
	case err == nil:
		logger.Error().Err(cause).Msg("Orchestrator.Run: generation failed")
	case errors.Is(err, jobs.ErrJobTerminal):
		logger.Info().Err(cause).Msg("Orchestrator.Run: job already terminal, dropping late failure")
	default:
		logger.Error().Err(err).AnErr("cause", cause).Msg("Orchestrator.Run: failed to record job failure")
	}
}

func (o *Orchestrator) generate(ctx context.Context, phase, prompt string, temperature float64) (string, error) {
	resp, err := o.gateway.Generate(ctx, llm.Request{
		SystemPrompt:    prompts.SystemPrompt,
		Messages:        []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature:     temperature,
		MaxOutputTokens: o.config.MaxOutputTokens,
		Phase:           phase,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (o *Orchestrator) advance(ctx context.Context, jobID string, status models.JobStatus, progress int, message string) error {
	return o.update(ctx, jobID, func(j *models.GenerationJob) {
		j.SetPhase(status, progress, message)
	})
}

func (o *Orchestrator) recordPhase(ctx context.Context, jobID string, record func(*models.PhaseContent)) error {
	return o.update(ctx, jobID, func(j *models.GenerationJob) {
		record(j.Phases())
	})
}

func (o *Orchestrator) update(ctx context.Context, jobID string, mutate func(*models.GenerationJob)) error {
	if _, err := o.jobService.Update(ctx, jobID, mutate); err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	return nil
}

// startPhase ouvre le span de la phase ; la fonction retournée le ferme et publie la durée
func (o *Orchestrator) startPhase(ctx context.Context, phase string) (context.Context, func(error)) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator."+phase)
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.recorder.ObservePhase(phase, time.Since(start))
		span.End()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
