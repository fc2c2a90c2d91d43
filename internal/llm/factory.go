package llm

import (
	"fmt"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Config décrit le fournisseur LLM utilisé par le service
type Config struct {
	Provider        string
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	CallTimeout     time.Duration // 0 = pas de timeout par appel
}

// NewGateway construit la gateway du fournisseur configuré, enveloppée par le
// timeout par appel puis par l'instrumentation (recorder peut être nil).
func NewGateway(cfg Config, recorder CallRecorder) (Gateway, error) {
	var gw Gateway

	switch cfg.Provider {
	case ProviderOpenAI, "":
		gw = NewOpenAIGateway(OpenAIOptions{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: 2,
		})
	case ProviderAnthropic:
		gw = NewAnthropicGateway(AnthropicOptions{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: 2,
		})
	case ProviderGemini:
		gw = NewGeminiGateway(GeminiOptions{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case ProviderOllama:
		ollama, err := NewOllamaGateway(OllamaOptions{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		gw = ollama
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	gw = WithTimeout(gw, cfg.CallTimeout)
	if recorder != nil {
		gw = Instrument(gw, provider, recorder)
	}
	return gw, nil
}
