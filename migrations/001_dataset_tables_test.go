//go:build integration

package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsight-ai/opsight-engine/pkg/testhelpers"
)

// Test_001_DatasetTables verifies migration 001 creates the dataset tables
// with the column types the generator prompts describe.
func Test_001_DatasetTables(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	// Verify the attributes column exists and is JSONB
	var dataType string
	err := testDB.Pool.QueryRow(ctx, `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_name = 'opex_entries'
		AND column_name = 'attributes'
	`).Scan(&dataType)

	require.NoError(t, err, "Failed to query column information")
	assert.Equal(t, "jsonb", dataType, "attributes column should be JSONB type")

	// Verify the GIN index on attributes exists
	var indexExists bool
	err = testDB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'opex_entries'
			AND indexname = 'idx_opex_attributes'
		)
	`).Scan(&indexExists)

	require.NoError(t, err, "Failed to query index information")
	assert.True(t, indexExists, "idx_opex_attributes index should exist")

	// Verify the numeric columns carry the expected precision
	var numericScale int
	err = testDB.Pool.QueryRow(ctx, `
		SELECT numeric_scale
		FROM information_schema.columns
		WHERE table_name = 'opex_entries'
		AND column_name = 'spend_usd'
	`).Scan(&numericScale)

	require.NoError(t, err)
	assert.Equal(t, 2, numericScale, "spend_usd should have two decimal places")

	// Verify the month bounds check rejects out-of-range values
	_, err = testDB.Pool.Exec(ctx, `
		INSERT INTO opex_entries (project, fiscal_year, month)
		VALUES ('BoundsCheck', 'FY2025', 13)
	`)
	require.Error(t, err, "month 13 should violate the check constraint")
}

func Test_001_DemandAndPriorityTables(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"resource_demand", "project_priority"} {
		var exists bool
		err := testDB.Pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)
		`, table).Scan(&exists)

		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	// Rank lookups drive priority questions, so the index must be present
	var indexExists bool
	err := testDB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'project_priority'
			AND indexname = 'idx_priority_rank'
		)
	`).Scan(&indexExists)

	require.NoError(t, err)
	assert.True(t, indexExists)
}
