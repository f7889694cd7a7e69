package prompts

import (
	"fmt"
	"strings"
)

// ValidationContext carries the inputs for pre-generation request validation.
type ValidationContext struct {
	SchemaOverview string
	SchemaHints    string
	Request        string
}

// BuildValidationPrompt creates the prompt that checks whether a data request
// is answerable from the dataset before SQL generation is attempted. The
// response format matches models.ValidationResult.
func BuildValidationPrompt(ctx ValidationContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Request Validation\n\n")
	prompt.WriteString("Decide whether the following request can be answered with the dataset described below. You are a gatekeeper, not a query writer.\n\n")

	prompt.WriteString("## Dataset\n\n")
	prompt.WriteString(ctx.SchemaOverview)
	prompt.WriteString("\n\n")

	if ctx.SchemaHints != "" {
		prompt.WriteString("## Vocabulary Matches\n\n")
		prompt.WriteString(ctx.SchemaHints)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("## User Request\n\n")
	fmt.Fprintf(&prompt, "%q\n\n", ctx.Request)

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("Mark the request unclear only when it cannot be answered without more information from the user. Prefer a reasonable interpretation over a clarifying question.\n\n")
	prompt.WriteString("- is_clear: false only if the request is ambiguous, references data that does not exist, or mixes incompatible asks.\n")
	prompt.WriteString("- confidence: how sure you are in your judgement, 0.0 to 1.0.\n")
	prompt.WriteString("- issues: concrete problems you found, empty if none.\n")
	prompt.WriteString("- suggestions: how the user could sharpen the request, empty if none.\n")
	prompt.WriteString("- clarifying_questions: questions to ask the user, only when is_clear is false.\n")
	prompt.WriteString("- interpreted_as: the request restated the way you understood it.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with ONLY a JSON object, no markdown fences:\n")
	prompt.WriteString(`{
  "is_clear": true,
  "confidence": 0.0,
  "issues": [],
  "suggestions": [],
  "clarifying_questions": [],
  "interpreted_as": "restated request"
}
`)

	return prompt.String()
}
