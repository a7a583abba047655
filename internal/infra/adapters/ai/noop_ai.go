package ai

import (
	"context"
	"time"

	"clinical-consult-assistant/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopCompletionAdapter)(nil)

// NoopCompletionAdapter implements adapter.CompletionAdapter for local/dev
// runs without a credential. It returns canned text so the consult loop can
// be exercised end to end.
type NoopCompletionAdapter struct{}

func NewNoopCompletionAdapter() *NoopCompletionAdapter {
	return &NoopCompletionAdapter{}
}

func (a *NoopCompletionAdapter) Complete(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "This is a noop completion response.", nil
}
