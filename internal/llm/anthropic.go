package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicMaxTokens : l'API Messages exige max_tokens
const defaultAnthropicMaxTokens = 4096

type AnthropicGateway struct {
	client anthropic.Client
	model  anthropic.Model
}

type AnthropicOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries int
}

func NewAnthropicGateway(opts AnthropicOptions) *AnthropicGateway {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL+"/"))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &AnthropicGateway{
		client: anthropic.NewClient(reqOpts...),
		model:  anthropic.Model(opts.Model),
	}
}

func (g *AnthropicGateway) Generate(ctx context.Context, req Request) (Response, error) {
	system, history := splitSystem(req)

	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, wrapError(ProviderAnthropic, req, err)
	}
	if resp == nil {
		return Response{}, wrapError(ProviderAnthropic, req, ErrEmptyResponse)
	}

	var text strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, wrapError(ProviderAnthropic, req, ErrEmptyResponse)
	}

	return Response{Text: text.String()}, nil
}
