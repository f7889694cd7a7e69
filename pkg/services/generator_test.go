package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
)

func newTestGenerator(client llm.CompletionClient) QueryGenerator {
	return NewQueryGenerator(client, "postgres", 0.2, zap.NewNop())
}

func TestQueryGenerator_Generate_Success(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.InDelta(t, 0.2, temperature, 1e-9)
		assert.Contains(t, prompt, "PostgreSQL")
		assert.Contains(t, prompt, "total spend by project")
		return "```json\n{\"sql\": \"  SELECT project, SUM(spend_usd) FROM opex_entries GROUP BY project  \", \"explanation\": \"Sums actual spend per project.\", \"chart_type\": \"bar\"}\n```", nil
	}

	gq := newTestGenerator(mockClient).Generate(context.Background(),
		"total spend by project", "schema overview", "glossary hints")

	assert.Equal(t, "SELECT project, SUM(spend_usd) FROM opex_entries GROUP BY project", gq.SQL)
	assert.Equal(t, "Sums actual spend per project.", gq.Explanation)
	assert.Equal(t, models.ChartBar, gq.Chart)
}

func TestQueryGenerator_Generate_UnknownChartDefaultsToBar(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"sql": "SELECT 1", "explanation": "x", "chart_type": "sankey"}`, nil
	}

	gq := newTestGenerator(mockClient).Generate(context.Background(), "q", "", "")

	assert.Equal(t, models.ChartBar, gq.Chart)
}

func TestQueryGenerator_Generate_CallFailure(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("rate limited")
	}

	gq := newTestGenerator(mockClient).Generate(context.Background(), "q", "", "")

	assert.Empty(t, gq.SQL)
	assert.Contains(t, gq.Explanation, "completion call failed")
	assert.Contains(t, gq.Explanation, "rate limited")
}

func TestQueryGenerator_Generate_NoJSONInReply(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "Sorry, I cannot write that query.", nil
	}

	gq := newTestGenerator(mockClient).Generate(context.Background(), "q", "", "")

	assert.Empty(t, gq.SQL)
	assert.Equal(t, "completion reply contained no JSON object", gq.Explanation)
}

func TestQueryGenerator_Generate_UndecodableJSON(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"sql": ["not", "a", "string"]}`, nil
	}

	gq := newTestGenerator(mockClient).Generate(context.Background(), "q", "", "")

	assert.Empty(t, gq.SQL)
	assert.Contains(t, gq.Explanation, "completion reply JSON was not decodable")
}

func TestQueryGenerator_Repair_Success(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.Contains(t, prompt, "SELECT projct FROM opex_entries")
		assert.Contains(t, prompt, `column "projct" does not exist`)
		return `{"sql": "SELECT project FROM opex_entries", "explanation": "Fixed the column name.", "chart_type": "line"}`, nil
	}

	prev := models.GeneratedQuery{
		SQL:         "SELECT projct FROM opex_entries",
		Explanation: "Lists projects.",
		Chart:       models.ChartBar,
	}
	repaired := newTestGenerator(mockClient).Repair(context.Background(), prev, `column "projct" does not exist`)

	assert.Equal(t, "SELECT project FROM opex_entries", repaired.SQL)
	assert.Equal(t, "Fixed the column name.", repaired.Explanation)
	assert.Equal(t, models.ChartLine, repaired.Chart)
}

func TestQueryGenerator_Repair_KeepsPreviousFieldsWhenOmitted(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"sql": "SELECT project FROM opex_entries"}`, nil
	}

	prev := models.GeneratedQuery{
		SQL:         "SELECT projct FROM opex_entries",
		Explanation: "Lists projects.",
		Chart:       models.ChartPie,
	}
	repaired := newTestGenerator(mockClient).Repair(context.Background(), prev, "boom")

	assert.Equal(t, "SELECT project FROM opex_entries", repaired.SQL)
	assert.Equal(t, "Lists projects.", repaired.Explanation, "missing explanation keeps the previous one")
	assert.Equal(t, models.ChartPie, repaired.Chart, "missing chart keeps the previous one")
}

func TestQueryGenerator_Repair_FailureClearsSQL(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("server unavailable")
	}

	prev := models.GeneratedQuery{
		SQL:         "SELECT projct FROM opex_entries",
		Explanation: "Lists projects.",
		Chart:       models.ChartBar,
	}
	repaired := newTestGenerator(mockClient).Repair(context.Background(), prev, "boom")

	require.Empty(t, repaired.SQL, "a failed repair must not resubmit the broken query")
	assert.Equal(t, prev.Explanation, repaired.Explanation)
	assert.Equal(t, prev.Chart, repaired.Chart)
}
