// Package services implements the resolution pipeline: intent
// classification, request validation, query generation, bounded
// self-healing execution, post-execution analysis, and the router that
// assembles every outcome into a response envelope.
package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/prompts"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
)

const classifyTemperature = 0.1

// ClassifierConfig tunes the keyword fallback used when the completion
// service is unavailable or replies with garbage.
type ClassifierConfig struct {
	DataKeywords       []string
	SearchKeywords     []string
	DataScoreThreshold int
	MinContextWords    int
	DataConfidence     float64
	SearchConfidence   float64
	ChatConfidence     float64
}

// DefaultClassifierConfig returns the fallback tuning the router ships with.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		DataKeywords: []string{
			"spend", "budget", "cost", "total", "sum", "average", "count",
			"how much", "how many", "list", "show me", "top", "bottom",
			"compare", "breakdown", "by project", "by cost center",
			"headcount", "demand", "fte", "allocation", "capacity", "staffing",
			"priority", "ranking", "trend", "quarterly", "fiscal", "variance",
			"opex", "resource", "man month", "man-month", "mm",
		},
		SearchKeywords: []string{
			"explain", "summarize", "what is", "what are", "policy",
			"meaning", "define", "how to", "why", "describe", "overview",
			"documentation", "guide", "process",
		},
		DataScoreThreshold: 2,
		MinContextWords:    3,
		DataConfidence:     0.75,
		SearchConfidence:   0.70,
		ChatConfidence:     0.80,
	}
}

// IntentClassifier routes a request to one of the three intent categories.
type IntentClassifier interface {
	// Classify never fails: when the completion path breaks down it falls
	// back to keyword scoring.
	Classify(ctx context.Context, text string) models.IntentDecision
}

type llmIntentClassifier struct {
	client llm.CompletionClient
	mapper *schema.Mapper
	cfg    ClassifierConfig
	logger *zap.Logger
}

// NewIntentClassifier creates the LLM-first classifier with keyword fallback.
func NewIntentClassifier(client llm.CompletionClient, mapper *schema.Mapper, cfg ClassifierConfig, logger *zap.Logger) IntentClassifier {
	return &llmIntentClassifier{
		client: client,
		mapper: mapper,
		cfg:    cfg,
		logger: logger.Named("intent-classifier"),
	}
}

var _ IntentClassifier = (*llmIntentClassifier)(nil)

func (s *llmIntentClassifier) Classify(ctx context.Context, text string) models.IntentDecision {
	prompt := prompts.BuildIntentPrompt(prompts.IntentContext{
		SchemaOverview: s.mapper.Overview(),
		Request:        text,
	})

	reply, err := s.client.Complete(ctx, prompt, "", classifyTemperature)
	if err != nil {
		s.logger.Warn("Intent classification fell back to keyword routing", zap.Error(err))
		return s.keywordFallback(text)
	}

	decision, err := llm.ParseJSONResponse[models.IntentDecision](reply)
	if err != nil {
		s.logger.Warn("Intent reply was not decodable, falling back to keyword routing", zap.Error(err))
		return s.keywordFallback(text)
	}

	category := models.IntentCategory(strings.ToUpper(strings.TrimSpace(string(decision.Category))))
	switch category {
	case models.IntentDataQuery, models.IntentSemanticSearch, models.IntentGeneralChat:
		decision.Category = category
	default:
		s.logger.Warn("Intent reply named an unknown category, falling back to keyword routing",
			zap.String("category", string(decision.Category)))
		return s.keywordFallback(text)
	}

	decision.Confidence = clamp01(decision.Confidence)
	decision.RefinedQuery = strings.TrimSpace(decision.RefinedQuery)

	s.logger.Debug("Intent classified",
		zap.String("category", string(decision.Category)),
		zap.Float64("confidence", decision.Confidence))

	return decision
}

// keywordFallback scores the lower-cased input by keyword substring hits.
// Data phrasing wins on a clear margin or on a lone hit in a long request
// with no explanation cues; explanation cues win next; everything else is
// small talk.
func (s *llmIntentClassifier) keywordFallback(text string) models.IntentDecision {
	lowered := strings.ToLower(text)

	dataScore := 0
	for _, kw := range s.cfg.DataKeywords {
		if strings.Contains(lowered, kw) {
			dataScore++
		}
	}
	searchScore := 0
	for _, kw := range s.cfg.SearchKeywords {
		if strings.Contains(lowered, kw) {
			searchScore++
		}
	}
	wordCount := len(strings.Fields(lowered))

	switch {
	case dataScore >= s.cfg.DataScoreThreshold ||
		(dataScore >= 1 && searchScore == 0 && wordCount > s.cfg.MinContextWords):
		return models.IntentDecision{
			Category:     models.IntentDataQuery,
			Confidence:   s.cfg.DataConfidence,
			Reasoning:    "Keyword-based routing (LLM unavailable): data query detected",
			RefinedQuery: text,
		}
	case searchScore >= 1:
		return models.IntentDecision{
			Category:   models.IntentSemanticSearch,
			Confidence: s.cfg.SearchConfidence,
			Reasoning:  "Keyword-based routing (LLM unavailable): explanation request detected",
		}
	default:
		return models.IntentDecision{
			Category:   models.IntentGeneralChat,
			Confidence: s.cfg.ChatConfidence,
			Reasoning:  "Keyword-based routing (LLM unavailable): general chat",
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
