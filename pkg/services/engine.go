package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/apperrors"
	"github.com/opsight-ai/opsight-engine/pkg/logging"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/sqlguard"
	"github.com/opsight-ai/opsight-engine/pkg/store"
)

// emptyRepairError is the synthetic failure recorded when a repair round
// produced no SQL. It consumes an attempt without touching the store.
const emptyRepairError = "repair produced an empty query"

// ExecutionEngine runs a generated query against the store with a bounded
// self-healing loop: every failed attempt is screened back through the
// generator's repair call until either an attempt succeeds or the budget
// is exhausted.
type ExecutionEngine interface {
	Run(ctx context.Context, gq models.GeneratedQuery) models.ExecutionOutcome
}

type executionEngine struct {
	store      store.Store
	generator  QueryGenerator
	retryLimit int
	logger     *zap.Logger
}

// NewExecutionEngine creates the bounded execution loop. retryLimit is the
// total number of attempts, not the number of retries after the first.
func NewExecutionEngine(st store.Store, generator QueryGenerator, retryLimit int, logger *zap.Logger) ExecutionEngine {
	return &executionEngine{
		store:      st,
		generator:  generator,
		retryLimit: retryLimit,
		logger:     logger.Named("execution-engine"),
	}
}

var _ ExecutionEngine = (*executionEngine)(nil)

func (e *executionEngine) Run(ctx context.Context, gq models.GeneratedQuery) models.ExecutionOutcome {
	outcome := models.ExecutionOutcome{Query: gq}

	if strings.TrimSpace(gq.SQL) == "" {
		outcome.LastError = apperrors.ErrEmptyQuery.Error()
		return outcome
	}

	current := gq
	for attempt := 1; attempt <= e.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			if outcome.LastError == "" {
				outcome.LastError = err.Error()
			}
			outcome.LastSQL = current.SQL
			return outcome
		}

		execErr, touchedStore := e.executeOnce(ctx, &current, &outcome)
		if execErr == "" {
			outcome.Succeeded = true
			outcome.Query = current
			outcome.Attempts = append(outcome.Attempts, models.ExecutionAttempt{SQL: current.SQL})
			return outcome
		}

		outcome.Attempts = append(outcome.Attempts, models.ExecutionAttempt{SQL: current.SQL, Error: execErr})
		outcome.LastError = execErr

		e.logger.Warn("Execution attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("limit", e.retryLimit),
			zap.String("sql", logging.SanitizeSQL(current.SQL)),
			zap.String("error", logging.SanitizeErrorText(execErr)))

		if touchedStore {
			if hook, ok := e.store.(store.RollbackHook); ok {
				if rbErr := hook.Rollback(ctx); rbErr != nil {
					e.logger.Warn("Rollback after failed attempt failed", zap.Error(rbErr))
				}
			}
		}

		// One repair per failed execution, the final one included: its
		// output is what an exhausted outcome reports as the last SQL.
		current = e.generator.Repair(ctx, current, execErr)
	}

	outcome.LastSQL = current.SQL
	return outcome
}

// executeOnce screens and runs the current SQL, filling the outcome on
// success. It returns the failure text ("" on success) and whether the
// store was reached.
func (e *executionEngine) executeOnce(ctx context.Context, current *models.GeneratedQuery, outcome *models.ExecutionOutcome) (string, bool) {
	if strings.TrimSpace(current.SQL) == "" {
		return emptyRepairError, false
	}

	screened, err := sqlguard.Screen(current.SQL)
	if err != nil {
		return err.Error(), false
	}

	result, err := e.store.Execute(ctx, screened)
	if err != nil {
		return err.Error(), true
	}

	current.SQL = screened
	outcome.Rendered = store.RenderTable(result)
	outcome.RowCount = result.RowCount
	return "", true
}
