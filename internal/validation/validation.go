// internal/validation/validation.go - Service de validation des entrées

package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"ocf-deckgen/pkg/models"
)

// ValidationConfig contient la configuration de validation
type ValidationConfig struct {
	MaxPromptLength       int             // Longueur max du userPrompt (caractères)
	MaxSlideContextLength int             // Longueur max du slideContext (caractères)
	MaxFieldLength        int             // Longueur max de persona, goal et constraint
	MaxJobIDLength        int             // Longueur max d'un generationId fourni
	MaxFilenameLength     int             // Longueur max du nom d'un artefact exporté
	AllowedExtensions     map[string]bool // Extensions des artefacts téléchargeables
}

// DefaultValidationConfig retourne la configuration par défaut
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxPromptLength:       20000,
		MaxSlideContextLength: 100000,
		MaxFieldLength:        2000,
		MaxJobIDLength:        128,
		MaxFilenameLength:     255,
		AllowedExtensions: map[string]bool{
			".md":   true, // Deck
			".json": true, // Contenu des phases
		},
	}
}

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationService gère la validation des entrées
type ValidationService struct {
	config *ValidationConfig
}

// NewValidationService crée un nouveau service de validation
func NewValidationService(config *ValidationConfig) *ValidationService {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &ValidationService{
		config: config,
	}
}

// ValidationError représente une erreur de validation avec détails
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult contient le résultat de validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError ajoute une erreur de validation
func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

// Merge ajoute les erreurs d'un autre résultat
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil || other.Valid {
		return
	}
	vr.Valid = false
	vr.Errors = append(vr.Errors, other.Errors...)
}

// ValidateJobID valide un identifiant de génération
func (vs *ValidationService) ValidateJobID(field, jobID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if jobID == "" {
		result.AddError(field, "", "generation ID is required", "REQUIRED")
		return result
	}

	if len(jobID) > vs.config.MaxJobIDLength {
		result.AddError(field, truncate(jobID, 64),
			fmt.Sprintf("generation ID too long (max %d characters)", vs.config.MaxJobIDLength),
			"TOO_LONG")
		return result
	}

	if !jobIDPattern.MatchString(jobID) {
		result.AddError(field, jobID,
			"generation ID may only contain letters, digits, '-' and '_'",
			"INVALID_FORMAT")
	}

	return result
}

// ValidateUserPrompt valide le prompt utilisateur, seul champ obligatoire
func (vs *ValidationService) ValidateUserPrompt(prompt string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(prompt) == "" {
		result.AddError("userPrompt", "", "userPrompt is required", "REQUIRED")
		return result
	}

	if !utf8.ValidString(prompt) {
		result.AddError("userPrompt", "", "userPrompt must be valid UTF-8", "INVALID_ENCODING")
		return result
	}

	if utf8.RuneCountInString(prompt) > vs.config.MaxPromptLength {
		result.AddError("userPrompt", truncate(prompt, 64),
			fmt.Sprintf("userPrompt too long (max %d characters)", vs.config.MaxPromptLength),
			"TOO_LONG")
	}

	return result
}

// ValidateTask valide la tâche demandée ; vide laisse l'extraction décider
func (vs *ValidationService) ValidateTask(task string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch task {
	case "", models.TaskCreate, models.TaskEdit, models.TaskChat:
	default:
		result.AddError("task", task,
			fmt.Sprintf("task must be one of %s, %s, %s", models.TaskCreate, models.TaskEdit, models.TaskChat),
			"INVALID_TASK")
	}

	return result
}

// ValidateTextField valide un champ texte optionnel borné en longueur
func (vs *ValidationService) ValidateTextField(field, value string, maxLength int) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		return result
	}

	if !utf8.ValidString(value) {
		result.AddError(field, "", field+" must be valid UTF-8", "INVALID_ENCODING")
		return result
	}

	if utf8.RuneCountInString(value) > maxLength {
		result.AddError(field, truncate(value, 64),
			fmt.Sprintf("%s too long (max %d characters)", field, maxLength),
			"TOO_LONG")
	}

	return result
}

// ValidateFilename valide le nom d'un artefact exporté
func (vs *ValidationService) ValidateFilename(filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if filename == "" {
		result.AddError("file", "", "filename is required", "REQUIRED")
		return result
	}

	if len(filename) > vs.config.MaxFilenameLength {
		result.AddError("file", truncate(filename, 64),
			fmt.Sprintf("filename too long (max %d characters)", vs.config.MaxFilenameLength),
			"TOO_LONG")
		return result
	}

	forbiddenChars := []string{"..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\x00"}
	for _, char := range forbiddenChars {
		if strings.Contains(filename, char) {
			result.AddError("file", filename,
				fmt.Sprintf("filename contains forbidden character: %q", char),
				"FORBIDDEN_CHAR")
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.AddError("file", filename, "filename must have an extension", "NO_EXTENSION")
	} else if !vs.config.AllowedExtensions[ext] {
		result.AddError("file", filename,
			fmt.Sprintf("file extension %s not allowed", ext),
			"FORBIDDEN_EXTENSION")
	}

	return result
}

// truncate coupe les valeurs longues renvoyées dans les erreurs
func truncate(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max]) + "..."
}
