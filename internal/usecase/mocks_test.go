package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"clinical-consult-assistant/internal/domain/model"
)

// ---- Fakes ----

type completionCall struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
}

// fakeCompletion records every call and replays queued replies in order.
type fakeCompletion struct {
	mu      sync.Mutex
	calls   []completionCall
	replies []string // consumed front to back; empty queue answers "ok"
	failAt  int      // 1-based call index that fails; 0 = never
}

func (f *fakeCompletion) Complete(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completionCall{Model: model, System: system, Prompt: prompt, Temperature: temperature})
	if f.failAt != 0 && len(f.calls) == f.failAt {
		return "", errors.New("completion unavailable")
	}
	if len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r, nil
	}
	return "ok", nil
}

func (f *fakeCompletion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompletion) call(i int) completionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// fakeExtractor echoes the document bytes back as extracted text, so tests
// control buffer content by controlling upload content.
type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b := make([]byte, size)
	if _, err := r.ReadAt(b, 0); err != nil && err != io.EOF {
		return "", err
	}
	return string(b), nil
}

// fakeSnapshot records the text it was asked to mine.
type fakeSnapshot struct {
	gotText string
	snap    model.PatientSnapshot
}

func (f *fakeSnapshot) Extract(text string) model.PatientSnapshot {
	f.gotText = text
	return f.snap
}
