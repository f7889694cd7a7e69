// Package testhelpers provides utilities for testing opsight-engine components.
package testhelpers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/database"
)

// PostgresImage is the stock PostgreSQL image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// TestDB holds a shared test database container and connection pool.
// The dataset schema is applied through the regular migrations and seeded
// with a small deterministic slice of spend, demand, and priority rows.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "opsight_test",
			"POSTGRES_USER":     "opsight",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://opsight:test_password@%s:%s/opsight_test?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := database.RunMigrations(connStr, migrationsDir(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err := seedDataset(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to seed dataset: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// migrationsDir resolves the repository migrations directory from this source
// file, so integration tests work regardless of the calling package's working
// directory.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// seedDataset loads the deterministic rows integration tests assert against:
// six spend entries, four demand rows, three priority rows.
func seedDataset(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`INSERT INTO opex_entries
			(project, department, country, region, fiscal_year, month, category, vendor, manager, spend_usd, budget_usd, attributes)
		VALUES
			('Atlas',  'Platform',       'Germany',   'EMEA', 'FY2025', 1,  'software', 'CloudWorks', 'Meyer',   1250.50, 1500.00, '{"cost_center": "CC-100", "approval_status": "approved", "mm_actual": "2.5"}'),
			('Atlas',  'Platform',       'Germany',   'EMEA', 'FY2025', 2,  'software', 'CloudWorks', 'Meyer',   1310.00, 1500.00, '{"cost_center": "CC-100", "approval_status": "approved", "mm_actual": "2.8"}'),
			('Beacon', 'Analytics',      'France',    'EMEA', 'FY2025', 1,  'services', 'DataServe',  'Laurent', 980.25,  900.00,  '{"cost_center": "CC-200", "approval_status": "pending", "mm_actual": "1.25"}'),
			('Beacon', 'Analytics',      'France',    'EMEA', 'FY2025', 3,  'travel',   'TravelHub',  'Laurent', 240.00,  300.00,  '{"cost_center": "CC-200", "approval_status": "approved"}'),
			('Cinder', 'Infrastructure', 'Singapore', 'APAC', 'FY2024', 11, 'hardware', 'RackSpace',  'Tan',     5400.00, 5000.00, '{"cost_center": "CC-300", "approval_status": "approved", "mm_actual": "4.0"}'),
			('Cinder', 'Infrastructure', 'Singapore', 'APAC', 'FY2025', 1,  'hardware', 'RackSpace',  'Tan',     4875.75, 5000.00, '{"cost_center": "CC-300", "approval_status": "approved", "mm_actual": "3.5"}')`,
		`INSERT INTO resource_demand
			(project, department, role, country, fiscal_year, quarter, fte_demand, fte_supply, man_months, status)
		VALUES
			('Atlas',  'Platform',       'engineer', 'Germany',   'FY2025', 'Q1', 4.0, 3.0, 12.0, 'open'),
			('Atlas',  'Platform',       'analyst',  'Germany',   'FY2025', 'Q2', 1.5, 1.5, 4.5,  'filled'),
			('Beacon', 'Analytics',      'analyst',  'France',    'FY2025', 'Q1', 2.0, 1.0, 6.0,  'open'),
			('Cinder', 'Infrastructure', 'engineer', 'Singapore', 'FY2025', 'Q1', 3.0, 3.0, 9.0,  'filled')`,
		`INSERT INTO project_priority
			(project, department, rank, tier, score, fiscal_year, sponsor, status)
		VALUES
			('Atlas',  'Platform',       1, 'P0', 94.50, 'FY2025', 'Okafor',  'active'),
			('Cinder', 'Infrastructure', 2, 'P1', 81.00, 'FY2025', 'Tan',     'active'),
			('Beacon', 'Analytics',      3, 'P2', 66.25, 'FY2025', 'Laurent', 'on-hold')`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed insert failed: %w", err)
		}
	}

	return nil
}
