package llm

import "context"

// MockCompletionClient is a configurable mock for testing pipeline stages.
// Set CompleteFunc to control behavior; calls and prompts are recorded for
// verification.
type MockCompletionClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns empty string and nil error.
	CompleteFunc func(ctx context.Context, prompt, system string, temperature float64) (string, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// CompleteCalls counts invocations; Prompts records each prompt in order.
	CompleteCalls int
	Prompts       []string
}

var _ CompletionClient = (*MockCompletionClient)(nil)

// NewMockCompletionClient creates a new mock with defaults.
func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{ModelName: "mock-model"}
}

// Complete implements CompletionClient.
func (m *MockCompletionClient) Complete(ctx context.Context, prompt, system string, temperature float64) (string, error) {
	m.CompleteCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, system, temperature)
	}
	return "", nil
}

// Model implements CompletionClient.
func (m *MockCompletionClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears recorded calls.
func (m *MockCompletionClient) Reset() {
	m.CompleteCalls = 0
	m.Prompts = nil
}
