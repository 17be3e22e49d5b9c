// Package suggest provides an OpenAI-compatible chat-completions client
// that produces recommendation stubs for the reconciliation engine. The
// engine never talks to this package directly; callers fetch stubs here and
// feed them to a Reconciler.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recmatch/internal/reconcile"
	"recmatch/internal/services"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultLimit       = 10
	maxLimit           = 25
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 30 * time.Second
)

// Service is the upstream suggestion boundary.
type Service interface {
	Suggest(ctx context.Context, seedTitle, seedOverview, mediaType string, limit int) ([]reconcile.Stub, error)
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the suggestion client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the default model name.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// NewClient constructs a suggestion client.
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Suggest asks the model for up to limit titles similar to the seed and
// returns them as stubs. Returned stubs are unverified input; identifiers
// in them may be hallucinated and must survive reconciliation before use.
func (c *Client) Suggest(ctx context.Context, seedTitle, seedOverview, mediaType string, limit int) ([]reconcile.Stub, error) {
	seedTitle = strings.TrimSpace(seedTitle)
	if seedTitle == "" {
		return nil, services.Wrap(services.ErrValidation, "suggest", "suggest", "seed title required", nil)
	}
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrValidation, "suggest", "suggest", "api key required", nil)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	content, err := c.completeJSON(ctx, buildUserPrompt(seedTitle, seedOverview, mediaType, limit))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Recommendations []reconcile.Stub `json:"recommendations"`
	}
	if err := decodeModelJSON(content, &payload); err != nil {
		return nil, services.Wrap(services.ErrMalformedStub, "suggest", "suggest", "parse recommendations", err)
	}

	stubs := make([]reconcile.Stub, 0, len(payload.Recommendations))
	for _, stub := range payload.Recommendations {
		stub.Title = strings.TrimSpace(stub.Title)
		if stub.Title == "" {
			continue
		}
		stubs = append(stubs, stub)
		if len(stubs) == limit {
			break
		}
	}
	return stubs, nil
}

func buildUserPrompt(seedTitle, seedOverview, mediaType string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seed title: %s\n", seedTitle)
	if overview := strings.TrimSpace(seedOverview); overview != "" {
		fmt.Fprintf(&b, "Seed overview: %s\n", overview)
	}
	if mediaType = strings.TrimSpace(mediaType); mediaType != "" {
		fmt.Fprintf(&b, "Media type: %s\n", mediaType)
	}
	fmt.Fprintf(&b, "Number of recommendations: %d\n", limit)
	return b.String()
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
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
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completeJSON(ctx context.Context, userPrompt string) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: recommendationPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		ResponseFormat: map[string]string{
			"type": jsonResponseType,
		},
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("suggest: encode request: %w", err)
	}
	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("suggest: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("suggest: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "suggest", "complete", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "suggest", "complete", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := services.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &services.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("suggest: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("suggest: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("suggest: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("suggest: empty content")
	}
	return content, nil
}

// decodeModelJSON decodes JSON from a model response, tolerating markdown
// fences and surrounding prose.
func decodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	sanitized := sanitizePayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return err
	}
	return nil
}

func sanitizePayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

var _ Service = (*Client)(nil)
