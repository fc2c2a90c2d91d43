package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ocf-deckgen/pkg/models"
	"ocf-deckgen/pkg/storage"
)

const (
	DeckFilename   = "slides.md"
	PhasesFilename = "phases.json"
)

// ResultService exporte les decks terminés vers le backend de storage.
// L'export n'est jamais relu dans le store des jobs.
type ResultService struct {
	storage storage.Storage
}

func NewResultService(backend storage.Storage) *ResultService {
	return &ResultService{storage: backend}
}

func resultPath(jobID, filename string) (string, error) {
	if jobID == "" || strings.ContainsAny(jobID, `/\.`) {
		return "", fmt.Errorf("invalid job id for storage path: %q", jobID)
	}
	return fmt.Sprintf("results/%s/%s", jobID, filename), nil
}

// SaveResult écrit le deck et le contenu des phases d'un job terminé
func (s *ResultService) SaveResult(ctx context.Context, job *models.GenerationJob) error {
	if job.Status != models.StatusCompleted || job.Result == nil {
		return fmt.Errorf("job %s has no result to export (status %s)", job.ID, job.Status)
	}

	deckPath, err := resultPath(job.ID, DeckFilename)
	if err != nil {
		return err
	}
	if err := s.storage.Upload(ctx, deckPath, strings.NewReader(*job.Result)); err != nil {
		return fmt.Errorf("failed to export deck for job %s: %w", job.ID, err)
	}

	if job.PhaseContent.IsEmpty() {
		return nil
	}

	phases, err := json.MarshalIndent(job.PhaseContent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode phase content for job %s: %w", job.ID, err)
	}
	phasesPath, _ := resultPath(job.ID, PhasesFilename)
	if err := s.storage.Upload(ctx, phasesPath, bytes.NewReader(phases)); err != nil {
		return fmt.Errorf("failed to export phase content for job %s: %w", job.ID, err)
	}

	return nil
}

// OpenResult ouvre le deck exporté d'un job ; storage.ErrNotFound s'il n'existe pas
func (s *ResultService) OpenResult(ctx context.Context, jobID string) (io.ReadCloser, error) {
	return s.OpenResultFile(ctx, jobID, DeckFilename)
}

// OpenResultFile ouvre un des artefacts exportés (slides.md ou phases.json)
func (s *ResultService) OpenResultFile(ctx context.Context, jobID, filename string) (io.ReadCloser, error) {
	if !IsResultFile(filename) {
		return nil, fmt.Errorf("unknown result file: %q", filename)
	}
	path, err := resultPath(jobID, filename)
	if err != nil {
		return nil, err
	}
	return s.storage.Download(ctx, path)
}

// IsResultFile indique si filename est un artefact produit par SaveResult
func IsResultFile(filename string) bool {
	return filename == DeckFilename || filename == PhasesFilename
}

// ContentType retourne le type MIME d'un artefact exporté
func ContentType(filename string) string {
	if filename == PhasesFilename {
		return "application/json"
	}
	return "text/markdown; charset=utf-8"
}

// ListResultFiles liste les artefacts exportés d'un job
func (s *ResultService) ListResultFiles(ctx context.Context, jobID string) ([]string, error) {
	if _, err := resultPath(jobID, DeckFilename); err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("results/%s/", jobID)
	files, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, file := range files {
		if name, ok := strings.CutPrefix(file, prefix); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// DeleteResult supprime les artefacts exportés d'un job
func (s *ResultService) DeleteResult(ctx context.Context, jobID string) error {
	files, err := s.ListResultFiles(ctx, jobID)
	if err != nil {
		return err
	}
	for _, name := range files {
		path, _ := resultPath(jobID, name)
		if err := s.storage.Delete(ctx, path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return nil
}
