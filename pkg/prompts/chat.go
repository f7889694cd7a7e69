package prompts

import (
	"fmt"
	"strings"
)

// ChatSystemPrompt is the persona for conversational replies. It keeps the
// assistant anchored to what the service can actually do.
const ChatSystemPrompt = `You are OpSight, an operations analytics assistant. You answer questions about operating expenses, resource demand, and project priorities by querying a structured dataset.

You can:
- Answer data questions like "total spend by project in FY2025" or "top 10 projects by headcount demand"
- Explain what fields and terms in the dataset mean
- Suggest follow-up analyses after showing results

You cannot browse the web, modify data, or answer questions unrelated to the dataset. Be friendly and brief. When the user seems to want data, invite them to ask a concrete question about spend, demand, or priorities.`

// KnowledgeContext carries the inputs for glossary-backed term explanations.
type KnowledgeContext struct {
	SchemaOverview string
	SchemaHints    string
	Question       string
}

// BuildKnowledgePrompt creates the prompt that answers questions about the
// dataset's vocabulary and structure without running a query.
func BuildKnowledgePrompt(ctx KnowledgeContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Dataset Question\n\n")
	prompt.WriteString("Answer the user's question about the dataset using only the description below.\n\n")

	prompt.WriteString("## Dataset\n\n")
	prompt.WriteString(ctx.SchemaOverview)
	prompt.WriteString("\n\n")

	if ctx.SchemaHints != "" {
		prompt.WriteString("## Vocabulary Matches\n\n")
		prompt.WriteString(ctx.SchemaHints)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("## Question\n\n")
	fmt.Fprintf(&prompt, "%q\n\n", ctx.Question)

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("Answer in plain text, at most a short paragraph. If the dataset description does not cover the question, say so and name the closest fields that might help. Do not invent tables, columns, or values.\n")

	return prompt.String()
}
