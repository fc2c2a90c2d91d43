// Package llm contient la gateway vers le modèle de génération de texte et ses
// implémentations par fournisseur.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role d'un message envoyé au modèle
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request est un appel unique à la gateway
type Request struct {
	SystemPrompt    string
	Messages        []Message
	Temperature     float64
	MaxOutputTokens int
	// Phase sert uniquement au nommage des métriques et des spans
	Phase string
}

type Response struct {
	Text string
}

// Gateway est le point d'accès boîte noire au LLM : generate(prompt) -> text
type Gateway interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GatewayFunc adapte une fonction en Gateway
type GatewayFunc func(ctx context.Context, req Request) (Response, error)

func (f GatewayFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

var (
	// ErrEmptyResponse est retourné quand le fournisseur répond sans texte
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrGatewayTimeout est retourné quand un appel dépasse le timeout par appel
	ErrGatewayTimeout = errors.New("gateway call timed out")
)

// GatewayError enveloppe toute erreur transport ou fournisseur
type GatewayError struct {
	Provider string
	Phase    string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s gateway call failed during %s: %v", e.Provider, e.Phase, e.Err)
	}
	return fmt.Sprintf("%s gateway call failed: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func wrapError(provider string, req Request, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return &GatewayError{Provider: provider, Phase: req.Phase, Err: err}
}

// splitSystem sépare le prompt système des messages de conversation ; les
// messages de rôle system sont concaténés au prompt système.
func splitSystem(req Request) (string, []Message) {
	system := req.SystemPrompt
	messages := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		messages = append(messages, m)
	}
	return system, messages
}
