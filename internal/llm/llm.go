// Package llm adapts hosted language models to a small completion interface:
// a system instruction plus an ordered history in, reply text out.
package llm

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/cove/agent-demo/internal/config"
	"github.com/cove/agent-demo/internal/model"
)

// MaxOutputTokens keeps replies SMS sized.
const MaxOutputTokens = 200

const (
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

type Turn struct {
	Role    model.Role
	Content string
}

// Completer produces the next assistant reply for a conversation.
//
// Stream yields reply fragments in order as the provider produces them. The
// sequence is finite; each range over it issues a new request, and stopping
// early releases the underlying connection.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
	Stream(ctx context.Context, system string, turns []Turn) iter.Seq2[string, error]
}

// HTTPClient is the subset of *http.Client used by the raw HTTP backends.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns the completer selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		m := cfg.LLMModel
		if m == "" {
			m = DefaultAnthropicModel
		}
		return NewAnthropic(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, m, &http.Client{Timeout: config.ServerRequestTimeout}), nil
	case config.ProviderGemini:
		m := cfg.LLMModel
		if m == "" {
			m = DefaultGeminiModel
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, m, "")
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
