package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// Client calls an OpenAI-compatible chat completions endpoint and always
// requests a streamed response.
type Client struct {
	settings   domain.ProviderSettings
	httpClient *http.Client
	log        ports.Logger
}

// NewClient builds a completion client from provider settings.
func NewClient(settings domain.ProviderSettings, log ports.Logger) *Client {
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Complete implements ports.CompletionProvider. The returned stream owns the
// response body; cancelling ctx aborts the in-flight read.
func (c *Client) Complete(ctx context.Context, system string, user string) (ports.CompletionStream, error) {
	payload := chatCompletionRequest{
		Model:       valueOrDefault(c.settings.ModelID, "gpt-4-turbo"),
		Temperature: c.settings.Temperature,
		MaxTokens:   valueOrDefaultInt(c.settings.MaxTokens, 500),
		Stream:      true,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := valueOrDefault(c.settings.Endpoint, "https://api.openai.com/v1/chat/completions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("accept", "text/event-stream")
	if apiKey := resolveAuth(c.settings.AuthEnvVar, "OPENAI_API_KEY"); apiKey != "" {
		httpReq.Header.Set("authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("completion provider: %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	return NewStreamReader(resp.Body, resp.Body, c.log), nil
}

func resolveAuth(primary string, fallback string) string {
	if primary != "" {
		if value := os.Getenv(primary); value != "" {
			return value
		}
	}
	if fallback == "" {
		return ""
	}
	return os.Getenv(fallback)
}

func valueOrDefault(value string, def string) string {
	if value == "" {
		return def
	}
	return value
}

func valueOrDefaultInt(value int, def int) int {
	if value == 0 {
		return def
	}
	return value
}

var _ ports.CompletionProvider = (*Client)(nil)
