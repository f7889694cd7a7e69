package prompts

import (
	"fmt"
	"strings"
)

// GenerationContext carries the inputs for SQL generation.
type GenerationContext struct {
	Dialect        string
	SchemaOverview string
	SchemaHints    string
	Request        string
}

// RepairContext carries a failed query and the execution error for repair.
type RepairContext struct {
	Dialect     string
	SQL         string
	Explanation string
	ExecError   string
}

// chartTypeGuide lists the accepted chart_type values with selection hints.
// The set must stay in sync with models.ParseChartType.
const chartTypeGuide = `- bar: category comparisons (default)
- grouped_bar: two-way category comparisons
- line: trends over time
- area: cumulative trends over time
- pie: share of a whole, few categories
- scatter: correlation between two measures
- heatmap: intensity across two dimensions
- treemap: hierarchical composition
- waterfall: stepwise contribution to a total
- none: detail listings or single values`

func writeSQLRules(prompt *strings.Builder, dialect string) {
	prompt.WriteString("## Rules\n\n")
	fmt.Fprintf(prompt, "1. Write a single %s SELECT statement. No INSERT, UPDATE, DELETE, DDL, or multiple statements.\n", dialectName(dialect))
	prompt.WriteString("2. Inline all literal values. Never use bind parameters, placeholders, or named parameters.\n")
	if dialect == "mssql" {
		prompt.WriteString("3. Use case-insensitive pattern matching for text filters, e.g. LOWER(project) LIKE '%infra%'.\n")
		prompt.WriteString("4. The attributes column holds JSON text. Extract values with JSON_VALUE(attributes, '$.key') and CAST when comparing or aggregating numbers, e.g. CAST(JSON_VALUE(attributes, '$.mm_actual') AS DECIMAL(18,2)).\n")
		prompt.WriteString("5. Fiscal years are stored as text like 'FY2025'. Match them exactly.\n")
		prompt.WriteString("6. Add ORDER BY when ranking or listing, and TOP for potentially large detail listings.\n")
	} else {
		prompt.WriteString("3. Use case-insensitive pattern matching for text filters, e.g. project ILIKE '%infra%'.\n")
		prompt.WriteString("4. The attributes column is JSONB. Extract values with attributes->>'key' and CAST when comparing or aggregating numbers, e.g. CAST(attributes->>'mm_actual' AS NUMERIC).\n")
		prompt.WriteString("5. Fiscal years are stored as text like 'FY2025'. Match them exactly.\n")
		prompt.WriteString("6. Add ORDER BY when ranking or listing, and a LIMIT for potentially large detail listings.\n")
	}
	prompt.WriteString("7. Use only tables and columns from the dataset description.\n\n")
}

func dialectName(dialect string) string {
	switch dialect {
	case "mssql":
		return "SQL Server"
	default:
		return "PostgreSQL"
	}
}

// BuildGenerationPrompt creates the prompt that turns a validated request
// into an executable query. The response format matches models.GeneratedQuery.
func BuildGenerationPrompt(ctx GenerationContext) string {
	var prompt strings.Builder

	prompt.WriteString("# SQL Generation\n\n")
	prompt.WriteString("Write a query that answers the user's question from the dataset below.\n\n")

	prompt.WriteString("## Dataset\n\n")
	prompt.WriteString(ctx.SchemaOverview)
	prompt.WriteString("\n\n")

	if ctx.SchemaHints != "" {
		prompt.WriteString("## Vocabulary Matches\n\n")
		prompt.WriteString(ctx.SchemaHints)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("## Question\n\n")
	fmt.Fprintf(&prompt, "%q\n\n", ctx.Request)

	writeSQLRules(&prompt, ctx.Dialect)

	prompt.WriteString("## Chart Types\n\n")
	prompt.WriteString(chartTypeGuide)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with ONLY a JSON object, no markdown fences:\n")
	prompt.WriteString(`{
  "sql": "SELECT ...",
  "explanation": "one or two sentences on what the query computes",
  "chart_type": "bar"
}
`)

	return prompt.String()
}

// BuildRepairPrompt creates the prompt that fixes a query which failed to
// execute. Only the failing statement and its database error are provided,
// so the fix targets the reported failure rather than restyling the query.
func BuildRepairPrompt(ctx RepairContext) string {
	var prompt strings.Builder

	prompt.WriteString("# SQL Repair\n\n")
	prompt.WriteString("The query below failed to execute. Fix it so it runs, preserving its intent.\n\n")

	prompt.WriteString("## Failing Query\n\n")
	prompt.WriteString("```sql\n")
	prompt.WriteString(ctx.SQL)
	prompt.WriteString("\n```\n\n")

	if ctx.Explanation != "" {
		prompt.WriteString("## Intent\n\n")
		prompt.WriteString(ctx.Explanation)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("## Database Error\n\n")
	prompt.WriteString(ctx.ExecError)
	prompt.WriteString("\n\n")

	writeSQLRules(&prompt, ctx.Dialect)

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with ONLY a JSON object, no markdown fences:\n")
	prompt.WriteString(`{
  "sql": "SELECT ...",
  "explanation": "what the corrected query computes",
  "chart_type": "bar"
}
`)

	return prompt.String()
}
