package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/prompts"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
	"github.com/opsight-ai/opsight-engine/pkg/services"
)

const knowledgeTemperature = 0.2

// GlossaryKnowledge answers definition and structure questions from the
// schema glossary, without a document index and without touching the store.
type GlossaryKnowledge struct {
	client llm.CompletionClient
	mapper *schema.Mapper
	logger *zap.Logger
}

// NewGlossaryKnowledge creates the glossary-backed knowledge responder.
func NewGlossaryKnowledge(client llm.CompletionClient, mapper *schema.Mapper, logger *zap.Logger) *GlossaryKnowledge {
	return &GlossaryKnowledge{
		client: client,
		mapper: mapper,
		logger: logger.Named("glossary-knowledge"),
	}
}

var _ services.KnowledgeResponder = (*GlossaryKnowledge)(nil)

// Answer explains dataset vocabulary using only the glossary as context.
func (a *GlossaryKnowledge) Answer(ctx context.Context, text string) (string, error) {
	prompt := prompts.BuildKnowledgePrompt(prompts.KnowledgeContext{
		SchemaOverview: a.mapper.Overview(),
		SchemaHints:    a.mapper.RelevantContext(text),
		Question:       text,
	})

	reply, err := a.client.Complete(ctx, prompt, "", knowledgeTemperature)
	if err != nil {
		return "", fmt.Errorf("knowledge completion: %w", err)
	}

	return strings.TrimSpace(reply), nil
}
