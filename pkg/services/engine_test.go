package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/apperrors"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/store"
)

func oneRowResult() *store.QueryResult {
	return &store.QueryResult{
		Columns:  []string{"project", "total"},
		Rows:     [][]any{{"Alpha", "1250.50"}},
		RowCount: 1,
	}
}

func TestExecutionEngine_Run_FirstAttemptSucceeds(t *testing.T) {
	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		return oneRowResult(), nil
	}
	gen := &MockQueryGenerator{}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	gq := models.GeneratedQuery{SQL: "SELECT project, total FROM opex_entries", Chart: models.ChartBar}
	outcome := engine.Run(context.Background(), gq)

	require.True(t, outcome.Succeeded)
	assert.Equal(t, 1, st.ExecuteCalls)
	assert.Equal(t, 0, gen.RepairCalls)
	require.Len(t, outcome.Attempts, 1)
	assert.Empty(t, outcome.Attempts[0].Error)
	assert.Equal(t, 1, outcome.RowCount)
	assert.Contains(t, outcome.Rendered, "Alpha")
	assert.Contains(t, outcome.Rendered, "(1 rows)")
	assert.Empty(t, outcome.LastError)
}

func TestExecutionEngine_Run_SemicolonStrippedBeforeStore(t *testing.T) {
	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		return oneRowResult(), nil
	}
	engine := NewExecutionEngine(st, &MockQueryGenerator{}, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT 1;"})

	require.True(t, outcome.Succeeded)
	require.Len(t, st.Statements, 1)
	assert.Equal(t, "SELECT 1", st.Statements[0])
	assert.Equal(t, "SELECT 1", outcome.Query.SQL)
}

func TestExecutionEngine_Run_RecoversAfterTwoFailures(t *testing.T) {
	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		if st.ExecuteCalls < 3 {
			return nil, fmt.Errorf("column \"prjct\" does not exist (attempt %d)", st.ExecuteCalls)
		}
		return oneRowResult(), nil
	}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = fmt.Sprintf("SELECT fix_%d FROM opex_entries", gen.RepairCalls)
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT prjct FROM opex_entries"})

	require.True(t, outcome.Succeeded)
	assert.Equal(t, 2, gen.RepairCalls, "one repair per failed attempt")
	assert.Equal(t, 3, st.ExecuteCalls)

	require.Len(t, outcome.Attempts, 3, "history includes the successful attempt")
	assert.Equal(t, "SELECT prjct FROM opex_entries", outcome.Attempts[0].SQL)
	assert.Contains(t, outcome.Attempts[0].Error, "attempt 1")
	assert.Equal(t, "SELECT fix_1 FROM opex_entries", outcome.Attempts[1].SQL)
	assert.Contains(t, outcome.Attempts[1].Error, "attempt 2")
	assert.Equal(t, "SELECT fix_2 FROM opex_entries", outcome.Attempts[2].SQL)
	assert.Empty(t, outcome.Attempts[2].Error)

	assert.Equal(t, "SELECT fix_2 FROM opex_entries", outcome.Query.SQL)
	require.Len(t, gen.RepairErrors, 2)
	assert.Contains(t, gen.RepairErrors[0], "attempt 1")
	assert.Contains(t, gen.RepairErrors[1], "attempt 2")
}

func TestExecutionEngine_Run_ExhaustsBudget(t *testing.T) {
	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		return nil, fmt.Errorf("syntax error near %q", sqlQuery)
	}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = fmt.Sprintf("SELECT fix_%d FROM opex_entries", gen.RepairCalls)
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT broken"})

	require.False(t, outcome.Succeeded)
	assert.Equal(t, 3, st.ExecuteCalls)
	assert.Equal(t, 3, gen.RepairCalls, "the final failure is repaired too")
	require.Len(t, outcome.Attempts, 3)

	// The last repair ran after the budget was spent; its output is reported
	// but never executed.
	assert.Equal(t, "SELECT fix_3 FROM opex_entries", outcome.LastSQL)
	assert.NotContains(t, st.Statements, "SELECT fix_3 FROM opex_entries")
	assert.Contains(t, outcome.LastError, "syntax error")
	assert.Contains(t, outcome.LastError, "fix_2", "last error comes from the final executed attempt")
}

func TestExecutionEngine_Run_EmptyRepairConsumesBudget(t *testing.T) {
	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		return nil, errors.New("relation \"opex\" does not exist")
	}
	gen := &MockQueryGenerator{}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT x FROM opex"})

	require.False(t, outcome.Succeeded)
	assert.Equal(t, 1, st.ExecuteCalls, "empty repairs never reach the store")
	assert.Equal(t, 3, gen.RepairCalls)
	require.Len(t, outcome.Attempts, 3)
	assert.Contains(t, outcome.Attempts[0].Error, "does not exist")
	assert.Equal(t, "repair produced an empty query", outcome.Attempts[1].Error)
	assert.Equal(t, "repair produced an empty query", outcome.Attempts[2].Error)
	assert.Equal(t, "repair produced an empty query", outcome.LastError)
	assert.Empty(t, outcome.LastSQL)
}

func TestExecutionEngine_Run_EmptyInitialQuery(t *testing.T) {
	st := store.NewMockStore()
	gen := &MockQueryGenerator{}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "   "})

	require.False(t, outcome.Succeeded)
	assert.Empty(t, outcome.Attempts)
	assert.Equal(t, 0, st.ExecuteCalls)
	assert.Equal(t, 0, gen.RepairCalls)
	assert.Equal(t, apperrors.ErrEmptyQuery.Error(), outcome.LastError)
}

func TestExecutionEngine_Run_UnsafeStatementNeverReachesStore(t *testing.T) {
	st := &store.MockRollbackStore{}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = "SELECT project FROM opex_entries"
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "DROP TABLE opex_entries"})

	require.True(t, outcome.Succeeded, "the repaired query runs on the next attempt")
	require.Len(t, outcome.Attempts, 2)
	assert.Contains(t, outcome.Attempts[0].Error, "safety screen")
	assert.Equal(t, 1, st.ExecuteCalls, "only the repaired query was executed")
	assert.Equal(t, 0, st.RollbackCalls, "screen rejections never touch the store")
}

func TestExecutionEngine_Run_RollbackAfterStoreFailure(t *testing.T) {
	st := &store.MockRollbackStore{}
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		if st.ExecuteCalls == 1 {
			return nil, errors.New("division by zero")
		}
		return oneRowResult(), nil
	}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = "SELECT project FROM opex_entries"
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT 1/0"})

	require.True(t, outcome.Succeeded)
	assert.Equal(t, 1, st.RollbackCalls)
}

func TestExecutionEngine_Run_RollbackErrorDoesNotStopRepair(t *testing.T) {
	st := &store.MockRollbackStore{}
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		if st.ExecuteCalls == 1 {
			return nil, errors.New("division by zero")
		}
		return oneRowResult(), nil
	}
	st.RollbackFunc = func(ctx context.Context) error {
		return errors.New("connection already closed")
	}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = "SELECT project FROM opex_entries"
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT 1/0"})

	require.True(t, outcome.Succeeded)
	assert.Equal(t, 1, st.RollbackCalls)
	assert.Equal(t, 1, gen.RepairCalls)
}

func TestExecutionEngine_Run_CanceledContextBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := store.NewMockStore()
	gen := &MockQueryGenerator{}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(ctx, models.GeneratedQuery{SQL: "SELECT 1"})

	require.False(t, outcome.Succeeded)
	assert.Empty(t, outcome.Attempts)
	assert.Equal(t, 0, st.ExecuteCalls)
	assert.Equal(t, 0, gen.RepairCalls)
	assert.Equal(t, context.Canceled.Error(), outcome.LastError)
	assert.Equal(t, "SELECT 1", outcome.LastSQL)
}

func TestExecutionEngine_Run_CancelMidLoopKeepsExecutionError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		cancel()
		return nil, errors.New("connection reset by peer")
	}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = "SELECT project FROM opex_entries"
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 3, zap.NewNop())

	outcome := engine.Run(ctx, models.GeneratedQuery{SQL: "SELECT 1"})

	require.False(t, outcome.Succeeded)
	assert.Equal(t, 1, st.ExecuteCalls)
	assert.Equal(t, 1, gen.RepairCalls, "the failed attempt is still repaired")
	require.Len(t, outcome.Attempts, 1)
	assert.Equal(t, "connection reset by peer", outcome.LastError, "cancellation does not mask the execution error")
	assert.Equal(t, "SELECT project FROM opex_entries", outcome.LastSQL)
}

func TestExecutionEngine_Run_SingleAttemptBudget(t *testing.T) {
	st := store.NewMockStore()
	st.ExecuteFunc = func(ctx context.Context, sqlQuery string) (*store.QueryResult, error) {
		return nil, errors.New("timeout")
	}
	gen := &MockQueryGenerator{}
	gen.RepairFunc = func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
		repaired := prev
		repaired.SQL = "SELECT repaired"
		return repaired
	}
	engine := NewExecutionEngine(st, gen, 1, zap.NewNop())

	outcome := engine.Run(context.Background(), models.GeneratedQuery{SQL: "SELECT 1"})

	require.False(t, outcome.Succeeded)
	assert.Equal(t, 1, st.ExecuteCalls)
	assert.Equal(t, 1, gen.RepairCalls)
	require.Len(t, outcome.Attempts, 1)
	assert.Equal(t, "SELECT repaired", outcome.LastSQL)
}
