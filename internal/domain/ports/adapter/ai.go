package adapter

import "context"

// CompletionAdapter is the port for the completion service boundary. One
// call carries a model identifier, the fixed system instruction, a single
// user-role prompt and a temperature scalar, and returns one completion
// string. Failures propagate to the caller; there is no retry at this layer.
type CompletionAdapter interface {
	Complete(ctx context.Context, model, system, prompt string, temperature float32) (string, error)
}
