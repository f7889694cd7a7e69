// Package agents provides the production collaborators the router delegates
// non-data requests to: a conversational persona for general chat and a
// glossary-backed responder for questions about the dataset itself.
package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/prompts"
	"github.com/opsight-ai/opsight-engine/pkg/services"
)

const chatTemperature = 0.7

// helpKeywords detect requests for the capability menu, answered locally
// without a completion call.
var helpKeywords = []string{"help", "what can you do", "capabilities", "features", "menu", "assist"}

// PersonaChat answers greetings and small talk in the assistant's voice.
type PersonaChat struct {
	client llm.CompletionClient
	logger *zap.Logger
}

// NewPersonaChat creates the conversational responder.
func NewPersonaChat(client llm.CompletionClient, logger *zap.Logger) *PersonaChat {
	return &PersonaChat{
		client: client,
		logger: logger.Named("persona-chat"),
	}
}

var _ services.ChatResponder = (*PersonaChat)(nil)

// Respond generates a conversational reply. Capability questions get the
// deterministic menu; everything else goes through the persona prompt.
func (a *PersonaChat) Respond(ctx context.Context, text string) (string, error) {
	if isHelpRequest(text) {
		return Capabilities(), nil
	}

	reply, err := a.client.Complete(ctx, text, prompts.ChatSystemPrompt, chatTemperature)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	return strings.TrimSpace(reply), nil
}

func isHelpRequest(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range helpKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Capabilities returns the static catalog of supported question types. The
// MCP capabilities tool serves the same text.
func Capabilities() string {
	return `I can assist you with the following:

OpEx Financial Analytics
- "What is the total spend by project in FY2025?"
- "Compare budget vs actual variance by cost center."
- "Show the top 5 projects by spend."

Resource Demand & Capacity Planning
- "What is the total FTE demand by project?"
- "Show headcount demand by fiscal year."
- "List projects ranked by priority."

Dataset Knowledge
- "What does mm_actual mean?"
- "Explain the priority ranking."
- "What fields does the spend data have?"

Ask me anything in plain English and I will generate the appropriate query
and present the results.`
}
