// internal/validation/api_validation.go - Validation spécifique à l'API

package validation

import (
	"strings"

	"ocf-deckgen/pkg/models"
)

// APIValidator gère la validation des requêtes API
type APIValidator struct {
	validationService *ValidationService
}

// NewAPIValidator crée un nouveau validateur d'API
func NewAPIValidator(config *ValidationConfig) *APIValidator {
	return &APIValidator{
		validationService: NewValidationService(config),
	}
}

// ValidateGenerationRequest valide le corps de POST /generate
func (av *APIValidator) ValidateGenerationRequest(req *models.GenerationRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}
	cfg := av.validationService.config

	result.Merge(av.validationService.ValidateUserPrompt(req.UserPrompt))
	result.Merge(av.validationService.ValidateTask(req.Task))
	result.Merge(av.validationService.ValidateTextField("slideContext", req.SlideContext, cfg.MaxSlideContextLength))
	result.Merge(av.validationService.ValidateTextField("userPersona", req.UserPersona, cfg.MaxFieldLength))
	result.Merge(av.validationService.ValidateTextField("slideGoal", req.SlideGoal, cfg.MaxFieldLength))
	result.Merge(av.validationService.ValidateTextField("slideConstraint", req.SlideConstraint, cfg.MaxFieldLength))

	// generationId est optionnel, le handler en alloue un sinon
	if req.GenerationID != "" {
		result.Merge(av.validationService.ValidateJobID("generationId", req.GenerationID))
	}

	return result
}

// ValidateJobIDParam valide un identifiant reçu en query ou en chemin
func (av *APIValidator) ValidateJobIDParam(jobIDStr string) (string, *ValidationResult) {
	jobID := strings.TrimSpace(jobIDStr)
	result := av.validationService.ValidateJobID("id", jobID)
	if !result.Valid {
		return "", result
	}
	return jobID, result
}

// ValidateFilenameParam valide le nom d'un artefact exporté
func (av *APIValidator) ValidateFilenameParam(filename string) *ValidationResult {
	return av.validationService.ValidateFilename(filename)
}
