package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput est retourné quand une sortie structurée n'est pas du JSON valide
var ErrMalformedOutput = errors.New("malformed structured output")

var (
	openingFence = regexp.MustCompile("(?m)^```[a-zA-Z0-9]*")
	closingFence = regexp.MustCompile("(?m)```$")
)

// CleanCodeBlock retire les balises ``` (avec ou sans langage) et les espaces autour
func CleanCodeBlock(text string) string {
	text = openingFence.ReplaceAllString(text, "")
	text = closingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// DecodeJSON nettoie la sortie du modèle puis la décode dans v
func DecodeJSON(text string, v any) error {
	cleaned := CleanCodeBlock(text)
	if cleaned == "" {
		return fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
