package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/cove/agent-demo/internal/sse"
)

const anthropicVersion = "2023-06-01"

type Anthropic struct {
	baseURL string
	apiKey  string
	model   string
	client  HTTPClient
}

func NewAnthropic(baseURL, apiKey, model string, client HTTPClient) *Anthropic {
	return &Anthropic{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  client,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	resp, err := a.send(ctx, system, turns, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	if len(out.Content) == 0 || out.Content[0].Type != "text" {
		return "", nil
	}
	return out.Content[0].Text, nil
}

func (a *Anthropic) Stream(ctx context.Context, system string, turns []Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := a.send(ctx, system, turns, true)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for ev, err := range sse.Events(resp.Body) {
			if err != nil {
				yield("", fmt.Errorf("read anthropic stream: %w", err))
				return
			}

			var event streamEvent
			if err := json.Unmarshal(ev.Data, &event); err != nil {
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					if !yield(event.Delta.Text, nil) {
						return
					}
				}
			case "error":
				msg := "unknown error"
				if event.Error != nil {
					msg = event.Error.Message
				}
				yield("", fmt.Errorf("anthropic stream error: %s", msg))
				return
			case "message_stop":
				return
			}
		}

		// A body that ends without message_stop was cut off upstream.
		yield("", errors.New("anthropic stream ended before message_stop"))
	}
}

func (a *Anthropic) send(ctx context.Context, system string, turns []Turn, stream bool) (*http.Response, error) {
	msgs := make([]anthropicMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, anthropicMessage{Role: string(t.Role), Content: t.Content})
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: MaxOutputTokens,
		System:    system,
		Messages:  msgs,
		Stream:    stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("anthropic API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return resp, nil
}
