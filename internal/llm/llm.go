package llm

import (
	"context"
	"errors"
)

// Client abstracts the AI provider behind a single completion call.
type Client interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrAnalysisUnavailable wraps every provider failure: missing credentials,
// transport errors after retries, malformed responses. Callers fail the job
// with a user-facing message instead of surfacing transport details.
var ErrAnalysisUnavailable = errors.New("AI analysis unavailable")
