package llm

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/genai"
)

type GeminiGateway struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	once    sync.Once
	client  *genai.Client
	initErr error
}

type GeminiOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewGeminiGateway ne contacte pas l'API ; le client genai est créé au premier appel
func NewGeminiGateway(opts GeminiOptions) *GeminiGateway {
	return &GeminiGateway{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		model:      opts.Model,
		httpClient: opts.HTTPClient,
	}
}

func (g *GeminiGateway) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.httpClient,
		}
		if g.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
		}
		g.client, g.initErr = genai.NewClient(ctx, cfg)
	})
	if g.initErr != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", g.initErr)
	}
	return g.client, nil
}

func (g *GeminiGateway) Generate(ctx context.Context, req Request) (Response, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return Response{}, wrapError(ProviderGemini, req, err)
	}

	system, history := splitSystem(req)

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Response{}, wrapError(ProviderGemini, req, err)
	}
	if result == nil {
		return Response{}, wrapError(ProviderGemini, req, ErrEmptyResponse)
	}

	text := result.Text()
	if text == "" {
		return Response{}, wrapError(ProviderGemini, req, ErrEmptyResponse)
	}

	return Response{Text: text}, nil
}
