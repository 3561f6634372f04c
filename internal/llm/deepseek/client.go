package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stockbuddy-backend/internal/llm"
	"stockbuddy-backend/internal/shared/metrics"
	"stockbuddy-backend/internal/shared/telemetry"
)

const (
	model       = "deepseek-chat"
	maxAttempts = 3
	minBackoff  = 2 * time.Second
	maxBackoff  = 30 * time.Second
)

// Client implements llm.Client using DeepSeek Chat Completions.
type Client struct {
	apiKey      string
	apiURL      string
	maxTokens   int
	temperature float64
	httpClient  *http.Client

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a DeepSeek client. A missing API key is not an error
// here; Complete reports it per call so the rest of the app can start.
func NewClient(apiKey, apiURL string, maxTokens int, temperature float64) *Client {
	return &Client{
		apiKey:      apiKey,
		apiURL:      apiURL,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		sleep:       sleepCtx,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete posts a prompt and returns the completion text. Transient
// failures are retried with exponential backoff; whatever survives the
// retries comes back wrapped in llm.ErrAnalysisUnavailable.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("%w: missing DEEPSEEK_API_KEY in environment", llm.ErrAnalysisUnavailable)
	}
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	var lastErr error
	backoff := minBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		metrics.IncLLMCall()
		content, err := c.completeOnce(ctx, prompt, maxTokens)
		if err == nil {
			return content, nil
		}
		metrics.IncLLMFailure()
		lastErr = err
		telemetry.Warn("llm.attempt_failed", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
		if attempt == maxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return "", fmt.Errorf("%w: %v", llm.ErrAnalysisUnavailable, err)
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return "", fmt.Errorf("%w: %v", llm.ErrAnalysisUnavailable, lastErr)
}

func (c *Client) completeOnce(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:      false,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepseek http status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("deepseek response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("deepseek error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("unexpected AI response structure: missing choices")
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("unexpected AI response structure: empty content")
	}
	return content, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ llm.Client = (*Client)(nil)
