package store

import "context"

// MockStore implements Store for tests using a function field pattern.
type MockStore struct {
	ExecuteFunc func(ctx context.Context, sqlQuery string) (*QueryResult, error)
	DialectName string

	ExecuteCalls int
	Statements   []string
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a mock store with sensible defaults.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Execute(ctx context.Context, sqlQuery string) (*QueryResult, error) {
	m.ExecuteCalls++
	m.Statements = append(m.Statements, sqlQuery)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, sqlQuery)
	}
	return &QueryResult{Columns: []string{}, Rows: [][]any{}}, nil
}

func (m *MockStore) Dialect() string {
	if m.DialectName == "" {
		return "postgres"
	}
	return m.DialectName
}

func (m *MockStore) Close() error { return nil }

// Reset clears recorded calls.
func (m *MockStore) Reset() {
	m.ExecuteCalls = 0
	m.Statements = nil
}

// MockRollbackStore is a MockStore that also implements RollbackHook, for
// testing the engine's between-attempt reset path.
type MockRollbackStore struct {
	MockStore

	RollbackFunc  func(ctx context.Context) error
	RollbackCalls int
}

var _ RollbackHook = (*MockRollbackStore)(nil)

func (m *MockRollbackStore) Rollback(ctx context.Context) error {
	m.RollbackCalls++
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}
