// Package prompts builds the LLM prompts used by the query pipeline.
// Each builder takes a typed context struct and returns a complete prompt
// string, keeping prompt text out of the service layer.
package prompts

import (
	"fmt"
	"strings"
)

// IntentContext carries the inputs for intent classification.
type IntentContext struct {
	SchemaOverview string
	Request        string
}

// BuildIntentPrompt creates the prompt that routes a request to one of the
// three intent categories. The response format matches models.IntentDecision.
func BuildIntentPrompt(ctx IntentContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Intent Classification\n\n")
	prompt.WriteString("You are the router for a data analysis assistant. Classify the user's request into exactly one category.\n\n")

	prompt.WriteString("## Categories\n\n")
	prompt.WriteString("- DATA_QUERY: the user wants numbers, aggregations, rankings, trends, or filtered records from the dataset. Examples: \"total spend by project\", \"which cost center is over budget\", \"show headcount demand for 2025\".\n")
	prompt.WriteString("- SEMANTIC_SEARCH: the user asks what a term, column, or convention means, or how the data is structured. Examples: \"what does mm_actual mean\", \"what is a cost center\", \"explain the priority ranking\".\n")
	prompt.WriteString("- GENERAL_CHAT: greetings, small talk, questions about the assistant itself, or anything unrelated to the dataset.\n\n")

	prompt.WriteString("## Dataset\n\n")
	prompt.WriteString(ctx.SchemaOverview)
	prompt.WriteString("\n\n")

	prompt.WriteString("## User Request\n\n")
	fmt.Fprintf(&prompt, "%q\n\n", ctx.Request)

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("1. Pick the single best category.\n")
	prompt.WriteString("2. Give your confidence between 0.0 and 1.0. Use low confidence when the request is ambiguous between categories.\n")
	prompt.WriteString("3. For DATA_QUERY, rewrite the request as a self-contained analytical question in refined_query. Resolve vague references using the dataset vocabulary, keep the user's meaning, and do not invent filters the user did not ask for. For other categories leave refined_query empty.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with ONLY a JSON object, no markdown fences:\n")
	prompt.WriteString(`{
  "intent": "DATA_QUERY | SEMANTIC_SEARCH | GENERAL_CHAT",
  "confidence": 0.0,
  "reasoning": "one sentence",
  "refined_query": "self-contained question, or empty"
}
`)

	return prompt.String()
}
