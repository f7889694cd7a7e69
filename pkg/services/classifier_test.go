package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
)

func newTestMapper() *schema.Mapper {
	return schema.NewMapper(&schema.Glossary{
		Conventions: []string{"Fiscal years run February through January."},
		Tables: map[string]schema.Table{
			"opex_entries": {
				Description: "Operating expense actuals and budgets per project and cost center.",
				Columns: map[string]schema.Column{
					"project":   {Description: "Project name", Synonyms: []string{"initiative"}},
					"spend_usd": {Description: "Actual spend in USD", Synonyms: []string{"spend", "cost", "actuals"}},
				},
			},
			"resource_demand": {
				Description: "Monthly man-month demand per project.",
				Columns: map[string]schema.Column{
					"mm_demand": {Description: "Demanded man months", Synonyms: []string{"headcount", "demand"}},
				},
			},
		},
	})
}

func newTestClassifier(client llm.CompletionClient) IntentClassifier {
	return NewIntentClassifier(client, newTestMapper(), DefaultClassifierConfig(), zap.NewNop())
}

func TestIntentClassifier_Classify_LLMDecision(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.InDelta(t, 0.1, temperature, 1e-9)
		assert.Contains(t, prompt, "total spend by project in 2025")
		return "```json\n{\"intent\": \"data_query\", \"confidence\": 0.92, \"reasoning\": \"asks for an aggregate\", \"refined_query\": \" total spend grouped by project for fiscal 2025 \"}\n```", nil
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "total spend by project in 2025")

	assert.Equal(t, models.IntentDataQuery, decision.Category)
	assert.InDelta(t, 0.92, decision.Confidence, 1e-9)
	assert.Equal(t, "total spend grouped by project for fiscal 2025", decision.RefinedQuery)
	assert.Equal(t, 1, mockClient.CompleteCalls)
}

func TestIntentClassifier_Classify_ClampsConfidence(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"intent": "GENERAL_CHAT", "confidence": 1.7}`, nil
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "hey")

	assert.Equal(t, models.IntentGeneralChat, decision.Category)
	assert.Equal(t, 1.0, decision.Confidence)
}

func TestIntentClassifier_Classify_UnknownCategoryFallsBack(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"intent": "SQL_QUERY", "confidence": 0.9}`, nil
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "total spend by project in 2025")

	assert.Equal(t, models.IntentDataQuery, decision.Category)
	assert.InDelta(t, 0.75, decision.Confidence, 1e-9)
	assert.Contains(t, decision.Reasoning, "Keyword-based routing")
}

func TestIntentClassifier_Classify_UndecodableReplyFallsBack(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "I think this is a data question.", nil
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "explain the variance report process")

	assert.Equal(t, models.IntentSemanticSearch, decision.Category)
	assert.InDelta(t, 0.70, decision.Confidence, 1e-9)
}

func TestIntentClassifier_Classify_FallbackSmallTalk(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("connection refused")
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "Hello, who are you?")

	assert.Equal(t, models.IntentGeneralChat, decision.Category)
	assert.InDelta(t, 0.80, decision.Confidence, 1e-9)
	assert.Empty(t, decision.RefinedQuery)
}

func TestIntentClassifier_Classify_FallbackDataQuery(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("connection refused")
	}

	input := "total spend by project in 2025"
	decision := newTestClassifier(mockClient).Classify(context.Background(), input)

	require.Equal(t, models.IntentDataQuery, decision.Category)
	assert.InDelta(t, 0.75, decision.Confidence, 1e-9)
	assert.Equal(t, input, decision.RefinedQuery, "fallback passes the request through verbatim")
}

func TestIntentClassifier_Classify_FallbackSingleDataHitNeedsContext(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("connection refused")
	}
	classifier := newTestClassifier(mockClient)

	// One data keyword in a short request is not enough evidence.
	short := classifier.Classify(context.Background(), "spend?")
	assert.Equal(t, models.IntentGeneralChat, short.Category)

	// The same lone keyword in a longer request is.
	long := classifier.Classify(context.Background(), "can you show the spend for infrastructure please")
	assert.Equal(t, models.IntentDataQuery, long.Category)
}

func TestIntentClassifier_Classify_FallbackSearchBeatsLoneDataHit(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("connection refused")
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "explain what the spend column means here")

	assert.Equal(t, models.IntentSemanticSearch, decision.Category)
}

func TestIntentClassifier_Classify_LowercaseCategoryNormalized(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"intent": " semantic_search ", "confidence": 0.66}`, nil
	}

	decision := newTestClassifier(mockClient).Classify(context.Background(), "what is mm_actual?")

	assert.Equal(t, models.IntentSemanticSearch, decision.Category)
	assert.InDelta(t, 0.66, decision.Confidence, 1e-9)
}
