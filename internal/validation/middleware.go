// internal/validation/middleware.go
package validation

import (
	"net/http"

	"ocf-deckgen/pkg/models"

	"github.com/gin-gonic/gin"
)

// Clés de contexte posées par les validators
const (
	ContextValidator        = "validator"
	ContextParsedRequest    = "parsed_request"
	ContextValidatedRequest = "validated_request"
	ContextValidatedJobID   = "validated_job_id"
	ContextValidatedFile    = "validated_filename"
)

// RequestValidator définit une fonction de validation pour une requête
type RequestValidator func(*gin.Context, *APIValidator) *ValidationResult

// ValidateRequest est le middleware principal qui exécute une liste de validators
func ValidateRequest(validators ...RequestValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		validator := GetValidator(c)
		if validator == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation service unavailable"})
			c.Abort()
			return
		}

		// Exécuter toutes les validations dans l'ordre
		for _, validate := range validators {
			if result := validate(c, validator); !result.Valid {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":             "Validation failed",
					"validation_errors": result.Errors,
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// GetValidator récupère le validator posé par le middleware de l'API
func GetValidator(c *gin.Context) *APIValidator {
	if validator, exists := c.Get(ContextValidator); exists {
		if apiValidator, ok := validator.(*APIValidator); ok {
			return apiValidator
		}
	}
	return nil
}

// ValidateJobIDQuery valide l'identifiant passé en query (?id=)
func ValidateJobIDQuery(name string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		jobID, result := v.ValidateJobIDParam(c.Query(name))
		if result.Valid {
			c.Set(ContextValidatedJobID, jobID)
		}
		return result
	}
}

// ValidateJobIDParam valide l'identifiant passé dans le chemin
func ValidateJobIDParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		jobID, result := v.ValidateJobIDParam(c.Param(paramName))
		if result.Valid {
			c.Set(ContextValidatedJobID, jobID)
		}
		return result
	}
}

// ValidateFilenameQuery valide le nom d'artefact en query, defaultName s'il est absent
func ValidateFilenameQuery(name, defaultName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		filename := c.DefaultQuery(name, defaultName)
		result := v.ValidateFilenameParam(filename)
		if result.Valid {
			c.Set(ContextValidatedFile, filename)
		}
		return result
	}
}

func ValidateGenerationRequest(c *gin.Context, v *APIValidator) *ValidationResult {
	// Récupérer la requête déjà parsée par ParseGenerationRequest
	req, exists := c.Get(ContextParsedRequest)
	if !exists {
		var parsedReq models.GenerationRequest
		if err := c.ShouldBindJSON(&parsedReq); err != nil {
			return &ValidationResult{Valid: false, Errors: []*ValidationError{{
				Field: "json", Value: "", Message: "JSON parsing failed", Code: "JSON_PARSE_ERROR",
			}}}
		}
		req = parsedReq
	}

	generationReq, ok := req.(models.GenerationRequest)
	if !ok {
		return &ValidationResult{Valid: false, Errors: []*ValidationError{{
			Field: "json", Value: "", Message: "unexpected request type", Code: "JSON_PARSE_ERROR",
		}}}
	}

	result := v.ValidateGenerationRequest(&generationReq)

	// Stocker pour le handler
	if result.Valid {
		c.Set(ContextValidatedRequest, generationReq)
	}

	return result
}

func ParseJSONRequest[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid JSON format",
				"details": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(ContextParsedRequest, req)
		c.Next()
	}
}

// Version spécialisée pour GenerationRequest
func ParseGenerationRequest() gin.HandlerFunc {
	return ParseJSONRequest[models.GenerationRequest]()
}

// CombineValidators combine plusieurs validators (tous doivent passer)
func CombineValidators(validators ...RequestValidator) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		for _, validator := range validators {
			if result := validator(c, v); !result.Valid {
				return result // Arrêter à la première erreur
			}
		}
		return &ValidationResult{Valid: true}
	}
}

// ValidatedJobID retourne l'identifiant validé par ValidateJobIDQuery/Param
func ValidatedJobID(c *gin.Context) string {
	return c.GetString(ContextValidatedJobID)
}

// ValidatedFilename retourne le nom validé par ValidateFilenameQuery
func ValidatedFilename(c *gin.Context) string {
	return c.GetString(ContextValidatedFile)
}

// ValidatedGenerationRequest retourne la requête validée par ValidateGenerationRequest
func ValidatedGenerationRequest(c *gin.Context) (models.GenerationRequest, bool) {
	req, exists := c.Get(ContextValidatedRequest)
	if !exists {
		return models.GenerationRequest{}, false
	}
	generationReq, ok := req.(models.GenerationRequest)
	return generationReq, ok
}
