// internal/validation/validation_test.go - Tests de validation des requêtes

package validation

import (
	"strings"
	"testing"

	"ocf-deckgen/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasCode(result *ValidationResult, field, code string) bool {
	for _, err := range result.Errors {
		if err.Field == field && err.Code == code {
			return true
		}
	}
	return false
}

func TestValidateGenerationRequest(t *testing.T) {
	validator := NewAPIValidator(nil)

	testCases := []struct {
		name  string
		req   models.GenerationRequest
		field string
		code  string
	}{
		{"missing prompt", models.GenerationRequest{}, "userPrompt", "REQUIRED"},
		{"blank prompt", models.GenerationRequest{UserPrompt: "  \n\t"}, "userPrompt", "REQUIRED"},
		{"prompt too long", models.GenerationRequest{UserPrompt: strings.Repeat("a", 20001)}, "userPrompt", "TOO_LONG"},
		{"invalid utf8", models.GenerationRequest{UserPrompt: "pitch \xff"}, "userPrompt", "INVALID_ENCODING"},
		{"unknown task", models.GenerationRequest{UserPrompt: "pitch", Task: "delete"}, "task", "INVALID_TASK"},
		{"task is case sensitive", models.GenerationRequest{UserPrompt: "pitch", Task: "Create"}, "task", "INVALID_TASK"},
		{"slide context too long", models.GenerationRequest{UserPrompt: "pitch", SlideContext: strings.Repeat("x", 100001)}, "slideContext", "TOO_LONG"},
		{"persona too long", models.GenerationRequest{UserPrompt: "pitch", UserPersona: strings.Repeat("x", 2001)}, "userPersona", "TOO_LONG"},
		{"generation id with slash", models.GenerationRequest{UserPrompt: "pitch", GenerationID: "../job"}, "generationId", "INVALID_FORMAT"},
		{"generation id too long", models.GenerationRequest{UserPrompt: "pitch", GenerationID: strings.Repeat("a", 129)}, "generationId", "TOO_LONG"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateGenerationRequest(&tc.req)
			assert.False(t, result.Valid)
			assert.True(t, hasCode(result, tc.field, tc.code), "expected %s on %s, got %+v", tc.code, tc.field, result.Errors)
		})
	}
}

func TestValidateGenerationRequest_Valid(t *testing.T) {
	validator := NewAPIValidator(nil)

	for _, task := range []string{"", models.TaskCreate, models.TaskEdit, models.TaskChat} {
		req := models.GenerationRequest{
			UserPrompt:   "pitch a recycling startup",
			Task:         task,
			SlideContext: "# Existing slide",
			GenerationID: "gen_123-abc",
		}
		result := validator.ValidateGenerationRequest(&req)
		assert.True(t, result.Valid, "task %q: %+v", task, result.Errors)
		assert.Empty(t, result.Errors)
	}
}

func TestValidateGenerationRequest_CollectsAllErrors(t *testing.T) {
	validator := NewAPIValidator(nil)

	req := models.GenerationRequest{Task: "unknown", GenerationID: "a b"}
	result := validator.ValidateGenerationRequest(&req)

	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)
}

func TestValidateJobIDParam(t *testing.T) {
	validator := NewAPIValidator(nil)

	jobID, result := validator.ValidateJobIDParam(" 3f1c-abc_1 ")
	assert.True(t, result.Valid)
	assert.Equal(t, "3f1c-abc_1", jobID)

	jobID, result = validator.ValidateJobIDParam("")
	assert.False(t, result.Valid)
	assert.Empty(t, jobID)
	assert.True(t, hasCode(result, "id", "REQUIRED"))

	_, result = validator.ValidateJobIDParam("job;drop")
	assert.True(t, hasCode(result, "id", "INVALID_FORMAT"))
}

func TestValidateFilename(t *testing.T) {
	validator := NewValidationService(DefaultValidationConfig())

	testCases := []struct {
		name     string
		filename string
		valid    bool
		code     string
	}{
		{"deck", "slides.md", true, ""},
		{"phases", "phases.json", true, ""},
		{"empty", "", false, "REQUIRED"},
		{"path traversal", "../../etc/passwd.md", false, "FORBIDDEN_CHAR"},
		{"backslash", `dir\slides.md`, false, "FORBIDDEN_CHAR"},
		{"no extension", "slides", false, "NO_EXTENSION"},
		{"forbidden extension", "deck.exe", false, "FORBIDDEN_EXTENSION"},
		{"too long", strings.Repeat("a", 300) + ".md", false, "TOO_LONG"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateFilename(tc.filename)
			assert.Equal(t, tc.valid, result.Valid)
			if !tc.valid {
				assert.True(t, hasCode(result, "file", tc.code), "got %+v", result.Errors)
			}
		})
	}
}

func TestValidationErrorTruncatesLongValues(t *testing.T) {
	validator := NewAPIValidator(nil)

	req := models.GenerationRequest{UserPrompt: strings.Repeat("é", 20001)}
	result := validator.ValidateGenerationRequest(&req)

	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasSuffix(result.Errors[0].Value, "..."))
	assert.Less(t, len([]rune(result.Errors[0].Value)), 100)
	assert.Contains(t, result.Errors[0].Error(), "userPrompt")
}
