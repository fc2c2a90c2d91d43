package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const DefaultOllamaHost = "http://localhost:11434"

type OllamaGateway struct {
	client *api.Client
	model  string
}

type OllamaOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewOllamaGateway(opts OllamaOptions) (*OllamaGateway, error) {
	host := strings.TrimRight(opts.BaseURL, "/")
	if host == "" {
		host = DefaultOllamaHost
	}
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OllamaGateway{
		client: api.NewClient(parsed, httpClient),
		model:  opts.Model,
	}, nil
}

func (g *OllamaGateway) Generate(ctx context.Context, req Request) (Response, error) {
	system, history := splitSystem(req)

	messages := make([]api.Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, api.Message{Role: string(RoleSystem), Content: system})
	}
	for _, m := range history {
		messages = append(messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxOutputTokens > 0 {
		options["num_predict"] = req.MaxOutputTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	var text strings.Builder
	err := g.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return Response{}, wrapError(ProviderOllama, req, err)
	}
	if text.Len() == 0 {
		return Response{}, wrapError(ProviderOllama, req, ErrEmptyResponse)
	}

	return Response{Text: text.String()}, nil
}
