package llm

import "context"

// CompletionClient is the minimal completion surface the pipeline depends on.
// Implementations return the raw reply text; callers extract whatever
// structure they expect from it.
type CompletionClient interface {
	// Complete sends a prompt and returns the reply text.
	Complete(ctx context.Context, prompt, system string, temperature float64) (string, error)

	// Model returns the configured model name, for logging.
	Model() string
}
