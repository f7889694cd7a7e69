package prompts

import (
	"fmt"
	"strings"
)

// InsightContext carries the inputs for post-execution result analysis.
type InsightContext struct {
	Question       string
	SQL            string
	Explanation    string
	ResultsPreview string
}

// FollowupContext carries the inputs for follow-up question suggestions.
type FollowupContext struct {
	Question       string
	ResultsPreview string
}

// BuildInsightPrompt creates the prompt that summarizes query results into a
// short analyst-style answer.
func BuildInsightPrompt(ctx InsightContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Result Analysis\n\n")
	prompt.WriteString("Summarize what the query results say, as an analyst answering the user's question.\n\n")

	prompt.WriteString("## Question\n\n")
	fmt.Fprintf(&prompt, "%q\n\n", ctx.Question)

	prompt.WriteString("## Query\n\n")
	prompt.WriteString("```sql\n")
	prompt.WriteString(ctx.SQL)
	prompt.WriteString("\n```\n")
	if ctx.Explanation != "" {
		prompt.WriteString(ctx.Explanation)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Results\n\n")
	prompt.WriteString(ctx.ResultsPreview)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("Write 2-3 sentences of plain text. Lead with the direct answer, cite the standout figures, and mention a notable pattern or outlier if one exists. Do not describe the SQL, do not use markdown, and do not invent numbers that are not in the results.\n")

	return prompt.String()
}

// BuildFollowupPrompt creates the prompt that proposes follow-up questions a
// user could ask next. The response is a bare JSON array of strings.
func BuildFollowupPrompt(ctx FollowupContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Follow-up Suggestions\n\n")
	prompt.WriteString("Propose the next questions an analyst would ask after seeing these results.\n\n")

	prompt.WriteString("## Original Question\n\n")
	fmt.Fprintf(&prompt, "%q\n\n", ctx.Question)

	prompt.WriteString("## Results\n\n")
	prompt.WriteString(ctx.ResultsPreview)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("Suggest exactly 3 follow-up questions. Each must be answerable from the same dataset, build on what the results show (drill down, compare, or extend the time range), and be phrased the way a user would type it.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with ONLY a JSON array of 3 strings, no markdown fences:\n")
	prompt.WriteString(`["question one", "question two", "question three"]
`)

	return prompt.String()
}
