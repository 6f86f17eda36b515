package llm

import (
	"context"

	"github.com/jpo-explorer/backend/internal/domain/providers"
)

// Offline is a ChatCompleter that never leaves the process. It answers every
// request with empty text, so callers fall back to their deterministic path.
type Offline struct{}

// NewOffline returns the completer used when LLM_PROVIDER=none.
func NewOffline() providers.ChatCompleter {
	return Offline{}
}

// Complete implements providers.ChatCompleter.
func (Offline) Complete(ctx context.Context, _ providers.ChatRequest) (string, error) {
	return "", ctx.Err()
}
