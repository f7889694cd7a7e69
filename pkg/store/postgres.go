package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/config"
	"github.com/opsight-ai/opsight-engine/pkg/database"
	"github.com/opsight-ai/opsight-engine/pkg/logging"
)

// PostgresStore executes queries against a PostgreSQL dataset.
type PostgresStore struct {
	db      *database.DB
	maxRows int
	timeout time.Duration
	logger  *zap.Logger
}

// NewPostgres creates a PostgreSQL store on an existing connection pool.
func NewPostgres(db *database.DB, cfg *config.DatabaseConfig, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:      db,
		maxRows: cfg.MaxRows,
		timeout: cfg.QueryTimeout(),
		logger:  logger.Named("postgres-store"),
	}
}

// Execute runs a single SELECT and returns bounded results. The row cap is
// applied by wrapping the statement in a limited subquery, so generated
// queries never need their own LIMIT to stay bounded.
func (s *PostgresStore) Execute(ctx context.Context, sqlQuery string) (*QueryResult, error) {
	queryToRun := sqlQuery
	if s.maxRows > 0 {
		queryToRun = fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", sqlQuery, s.maxRows)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.Query(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make([]any, len(values))
		copy(row, values)
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	s.logger.Debug("Query executed",
		zap.String("sql", logging.SanitizeSQL(sqlQuery)),
		zap.Int("rows", len(resultRows)),
		zap.Duration("elapsed", time.Since(start)))

	return &QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// Dialect returns the SQL dialect name.
func (s *PostgresStore) Dialect() string { return "postgres" }

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
