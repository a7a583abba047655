package ai

import (
	"context"

	"clinical-consult-assistant/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*limitedCompletion)(nil)

type limitedCompletion struct {
	inner adapter.CompletionAdapter
	sem   chan struct{}
}

// NewLimitedCompletion caps the number of in-flight completion calls across
// all sessions. A single session is turn-based and never concurrent; the cap
// protects the provider quota in a multi-session deployment.
func NewLimitedCompletion(inner adapter.CompletionAdapter, maxConcurrent int) adapter.CompletionAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedCompletion{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedCompletion) Complete(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.Complete(ctx, model, system, prompt, temperature)
}
