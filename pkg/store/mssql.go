package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/config"
	"github.com/opsight-ai/opsight-engine/pkg/logging"
)

// MSSQLStore executes queries against a SQL Server dataset.
type MSSQLStore struct {
	db      *sql.DB
	maxRows int
	timeout time.Duration
	logger  *zap.Logger
}

// NewMSSQL creates a SQL Server store and verifies connectivity.
func NewMSSQL(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*MSSQLStore, error) {
	db, err := sql.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver connection: %w", err)
	}
	db.SetMaxOpenConns(int(cfg.MaxConnections))

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlserver: %w", err)
	}

	return &MSSQLStore{
		db:      db,
		maxRows: cfg.MaxRows,
		timeout: cfg.QueryTimeout(),
		logger:  logger.Named("mssql-store"),
	}, nil
}

// Execute runs a single SELECT and returns bounded results. The row cap is
// applied with SQL Server's TOP clause around the statement.
func (s *MSSQLStore) Execute(ctx context.Context, sqlQuery string) (*QueryResult, error) {
	queryToRun := sqlQuery
	if s.maxRows > 0 {
		queryToRun = fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", s.maxRows, sqlQuery)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			if b, ok := val.([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
				values[i] = string(b)
			}
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	s.logger.Debug("Query executed",
		zap.String("sql", logging.SanitizeSQL(sqlQuery)),
		zap.Int("rows", len(resultRows)),
		zap.Duration("elapsed", time.Since(start)))

	return &QueryResult{
		Columns:  columnNames,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// Dialect returns the SQL dialect name.
func (s *MSSQLStore) Dialect() string { return "mssql" }

// Close releases the connection pool.
func (s *MSSQLStore) Close() error {
	return s.db.Close()
}

// isStringType returns true for SQL Server character types whose values scan
// as []byte but should be treated as text.
func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

var _ Store = (*MSSQLStore)(nil)
