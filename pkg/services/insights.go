package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/prompts"
)

const (
	insightTemperature  = 0.3
	followupTemperature = 0.5
	maxFollowups        = 3
)

// InsightService produces the post-execution analysis: a short answer
// summary and follow-up question suggestions. Both degrade gracefully;
// analysis never fails a request that already has results.
type InsightService interface {
	// Summarize returns an analyst-style summary of the results, or the
	// query's own explanation when the completion path breaks down.
	Summarize(ctx context.Context, question string, gq models.GeneratedQuery, rendered string) string
	// SuggestFollowups returns at most three follow-up questions, or nil.
	SuggestFollowups(ctx context.Context, question, rendered string) []string
}

type llmInsightService struct {
	client        llm.CompletionClient
	insightChars  int
	followupChars int
	logger        *zap.Logger
}

// NewInsightService creates the analysis stage. The preview sizes bound how
// much rendered result text reaches the analysis prompts.
func NewInsightService(client llm.CompletionClient, insightChars, followupChars int, logger *zap.Logger) InsightService {
	return &llmInsightService{
		client:        client,
		insightChars:  insightChars,
		followupChars: followupChars,
		logger:        logger.Named("insight-service"),
	}
}

var _ InsightService = (*llmInsightService)(nil)

func (s *llmInsightService) Summarize(ctx context.Context, question string, gq models.GeneratedQuery, rendered string) string {
	prompt := prompts.BuildInsightPrompt(prompts.InsightContext{
		Question:       question,
		SQL:            gq.SQL,
		Explanation:    gq.Explanation,
		ResultsPreview: preview(rendered, s.insightChars),
	})

	reply, err := s.client.Complete(ctx, prompt, "", insightTemperature)
	if err != nil {
		s.logger.Warn("Insight generation failed, using query explanation", zap.Error(err))
		return gq.Explanation
	}

	summary := strings.TrimSpace(reply)
	if summary == "" {
		return gq.Explanation
	}
	return summary
}

func (s *llmInsightService) SuggestFollowups(ctx context.Context, question, rendered string) []string {
	prompt := prompts.BuildFollowupPrompt(prompts.FollowupContext{
		Question:       question,
		ResultsPreview: preview(rendered, s.followupChars),
	})

	reply, err := s.client.Complete(ctx, prompt, "", followupTemperature)
	if err != nil {
		s.logger.Warn("Follow-up generation failed", zap.Error(err))
		return nil
	}

	followups, err := llm.ParseJSONResponse[[]string](reply)
	if err != nil {
		s.logger.Warn("Follow-up reply was not decodable", zap.Error(err))
		return nil
	}

	cleaned := make([]string, 0, maxFollowups)
	for _, f := range followups {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		cleaned = append(cleaned, f)
		if len(cleaned) == maxFollowups {
			break
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// preview bounds text fed to analysis prompts, cutting on a rune boundary.
func preview(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
