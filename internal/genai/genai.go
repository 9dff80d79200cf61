// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai is the structured-generation collaborator. Stages hand it
// a system/user prompt pair and get back a parsed JSON object, or nil when
// no credential is configured. The client is strictly fail-open: callers
// must treat nil (and any error) as "use the deterministic fallback".
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/post-engine/internal/httputil"
	"github.com/pdiddy/post-engine/pkg/types"
)

// Endpoint is the chat-completions URL. Declared as a var so tests can
// substitute an httptest server.
var Endpoint = "https://api.openai.com/v1/chat/completions"

const defaultModel = "gpt-4.1-mini"

// Request is one structured generation request.
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Backend produces a structured JSON object for a prompt pair. A nil
// result with nil error means generation is unavailable (no credential);
// callers fall back to deterministic logic either way.
type Backend interface {
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// Client calls an OpenAI-compatible chat completions API, asking for a
// JSON-object response.
type Client struct {
	HTTP *http.Client
	Cfg  types.AIConfig
}

// NewClient builds a Client from the AI config.
func NewClient(httpClient *http.Client, cfg types.AIConfig) *Client {
	return &Client{HTTP: httpClient, Cfg: cfg}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat responseFmt   `json:"response_format"`
	Messages       []chatMessage `json:"messages"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateJSON sends the prompt pair and returns the model's JSON object.
// It returns (nil, nil) when no API key is configured. Rate-limited calls
// are retried with backoff; any other failure is returned as an error for
// the caller to degrade on.
func (c *Client) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.Cfg.APIKey == "" {
		return nil, nil
	}

	model := c.Cfg.Model
	if model == "" {
		model = defaultModel
	}

	body, err := json.Marshal(chatRequest{
		Model:          model,
		Temperature:    0.2,
		ResponseFormat: responseFmt{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.Cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, httpReq, c.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("generation API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(text))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("generation response missing content")
	}

	content := parsed.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("generation response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

// DecodeInto attempts to generate and unmarshal a structured object in one
// step. It returns false when generation is unavailable or the response
// does not fit the target shape; w receives a warning in the failure case
// so unattended runs stay observable. It never returns an error: shape
// mismatches and upstream failures all degrade to false.
func DecodeInto(ctx context.Context, backend Backend, req Request, target any, w io.Writer) bool {
	if backend == nil {
		return false
	}
	raw, err := backend.GenerateJSON(ctx, req)
	if err != nil {
		fmt.Fprintf(w, "warning: structured generation failed: %v\n", err)
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		fmt.Fprintf(w, "warning: generation response shape mismatch: %v\n", err)
		return false
	}
	return true
}
