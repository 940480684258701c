// Package client is a typed caller for the demo API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/cove/agent-demo/internal/errors"
	"github.com/cove/agent-demo/internal/model"
	"github.com/cove/agent-demo/internal/sse"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient gets a
// default with a timeout long enough for a completion.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap exposes the server's error code so callers can use the apperrors
// predicates on client errors.
func (e *APIError) Unwrap() error {
	return apperrors.New(apperrors.ErrorCode(e.Code), e.Message)
}

type CreateDemoRequest struct {
	Website   string `json:"website"`
	Email     string `json:"email"`
	AgentType string `json:"agentType"`
}

type CreateDemoResponse struct {
	SessionID   string          `json:"sessionId"`
	CompanyName string          `json:"companyName"`
	AgentType   model.AgentType `json:"agentType"`
}

type ChatResponse struct {
	Response     string `json:"response"`
	MessageCount int    `json:"messageCount"`
}

type Session struct {
	ID           string          `json:"id"`
	CompanyURL   string          `json:"companyUrl"`
	CompanyName  string          `json:"companyName"`
	AgentType    model.AgentType `json:"agentType"`
	MessageCount int             `json:"messageCount"`
	BookingShown bool            `json:"bookingShown"`
	Greeting     string          `json:"greeting"`
	BookingURL   string          `json:"bookingUrl"`
	Messages     []model.Message `json:"messages"`
}

func (c *Client) CreateDemo(ctx context.Context, req CreateDemoRequest) (*CreateDemoResponse, error) {
	var out CreateDemoResponse
	if err := c.do(ctx, http.MethodPost, "/api/create-demo", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, sessionID, message string) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{SessionID: sessionID, Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatStream sends a message over the streaming endpoint, calling onDelta for
// each reply fragment as it arrives.
func (c *Client) ChatStream(ctx context.Context, sessionID, message string, onDelta func(string)) (*ChatResponse, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/chat/stream", chatRequest{SessionID: sessionID, Message: message})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	for ev, err := range sse.Events(resp.Body) {
		if err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}

		switch ev.Type {
		case "delta":
			var d struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(ev.Data, &d); err != nil {
				return nil, fmt.Errorf("decode delta: %w", err)
			}
			onDelta(d.Text)
		case "done":
			var out ChatResponse
			if err := json.Unmarshal(ev.Data, &out); err != nil {
				return nil, fmt.Errorf("decode done: %w", err)
			}
			return &out, nil
		case "error":
			apiErr := &APIError{Status: resp.StatusCode}
			json.Unmarshal(ev.Data, apiErr)
			return nil, apiErr
		}
	}

	return nil, fmt.Errorf("stream ended without a result")
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkBookingShown(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(sessionID)+"/booking-shown", nil, nil)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send issues the request and converts non-2xx responses to *APIError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return resp, nil
}
