package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/logging"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/prompts"
)

// QueryGenerator turns a validated request into an executable query and
// repairs queries that failed to execute.
type QueryGenerator interface {
	// Generate never fails: an empty SQL in the result signals failure, with
	// the failure class recorded in Explanation.
	Generate(ctx context.Context, request, schemaCtx, glossaryCtx string) models.GeneratedQuery
	// Repair fixes a failed query given the verbatim execution error. On a
	// broken completion path the result carries an empty SQL; explanation
	// and chart survive from the previous query.
	Repair(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery
}

type llmQueryGenerator struct {
	client      llm.CompletionClient
	dialect     string
	temperature float64
	logger      *zap.Logger
}

// NewQueryGenerator creates the SQL generator for the given dialect.
func NewQueryGenerator(client llm.CompletionClient, dialect string, temperature float64, logger *zap.Logger) QueryGenerator {
	return &llmQueryGenerator{
		client:      client,
		dialect:     dialect,
		temperature: temperature,
		logger:      logger.Named("query-generator"),
	}
}

var _ QueryGenerator = (*llmQueryGenerator)(nil)

// generatedQueryResponse is the JSON contract of the generation and repair
// prompts.
type generatedQueryResponse struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	ChartType   string `json:"chart_type"`
}

func (g *llmQueryGenerator) Generate(ctx context.Context, request, schemaCtx, glossaryCtx string) models.GeneratedQuery {
	prompt := prompts.BuildGenerationPrompt(prompts.GenerationContext{
		Dialect:        g.dialect,
		SchemaOverview: schemaCtx,
		SchemaHints:    glossaryCtx,
		Request:        request,
	})

	parsed, failure := g.complete(ctx, prompt)
	if failure != "" {
		g.logger.Warn("Query generation failed", zap.String("failure", failure))
		return models.GeneratedQuery{Explanation: failure}
	}

	gq := models.GeneratedQuery{
		SQL:         strings.TrimSpace(parsed.SQL),
		Explanation: parsed.Explanation,
		Chart:       models.ParseChartType(parsed.ChartType),
	}

	g.logger.Debug("Query generated",
		zap.String("sql", logging.SanitizeSQL(gq.SQL)),
		zap.String("chart_type", string(gq.Chart)))

	return gq
}

func (g *llmQueryGenerator) Repair(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
	prompt := prompts.BuildRepairPrompt(prompts.RepairContext{
		Dialect:     g.dialect,
		SQL:         prev.SQL,
		Explanation: prev.Explanation,
		ExecError:   execErr,
	})

	repaired := prev
	repaired.SQL = ""

	parsed, failure := g.complete(ctx, prompt)
	if failure != "" {
		g.logger.Warn("Query repair failed", zap.String("failure", failure))
		return repaired
	}

	repaired.SQL = strings.TrimSpace(parsed.SQL)
	if parsed.Explanation != "" {
		repaired.Explanation = parsed.Explanation
	}
	if parsed.ChartType != "" {
		repaired.Chart = models.ParseChartType(parsed.ChartType)
	}

	g.logger.Debug("Query repaired", zap.String("sql", logging.SanitizeSQL(repaired.SQL)))

	return repaired
}

// complete runs one completion call and decodes the reply, classifying
// failures as transport, missing JSON, or undecodable JSON.
func (g *llmQueryGenerator) complete(ctx context.Context, prompt string) (generatedQueryResponse, string) {
	var parsed generatedQueryResponse

	reply, err := g.client.Complete(ctx, prompt, "", g.temperature)
	if err != nil {
		return parsed, "completion call failed: " + err.Error()
	}

	raw, err := llm.ExtractJSON(reply)
	if err != nil {
		return parsed, "completion reply contained no JSON object"
	}

	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return parsed, "completion reply JSON was not decodable: " + err.Error()
	}

	return parsed, ""
}
