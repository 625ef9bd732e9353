package ai

import "context"

// Writer generates article body text from a writing prompt.
type Writer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
