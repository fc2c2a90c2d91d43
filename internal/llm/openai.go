package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIBaseURL est l'endpoint OpenAI-compatible utilisé par défaut (Typhoon)
const DefaultOpenAIBaseURL = "https://api.opentyphoon.ai/v1"

// OpenAIGateway parle à tout endpoint compatible chat completions OpenAI
type OpenAIGateway struct {
	client openai.Client
	model  string
}

type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries int
}

func NewOpenAIGateway(opts OpenAIOptions) *OpenAIGateway {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL + "/"),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &OpenAIGateway{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}
}

func (g *OpenAIGateway) Generate(ctx context.Context, req Request) (Response, error) {
	system, history := splitSystem(req)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, m := range history {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	// max_tokens plutôt que max_completion_tokens : mieux supporté par les endpoints compatibles
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, wrapError(ProviderOpenAI, req, err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Response{}, wrapError(ProviderOpenAI, req, ErrEmptyResponse)
	}

	return Response{Text: resp.Choices[0].Message.Content}, nil
}
