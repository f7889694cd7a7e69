package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
)

func newTestInsights(client llm.CompletionClient) InsightService {
	return NewInsightService(client, 3000, 1500, zap.NewNop())
}

func TestInsightService_Summarize_Success(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.InDelta(t, 0.3, temperature, 1e-9)
		assert.Contains(t, prompt, "total spend by project")
		assert.Contains(t, prompt, "Alpha | 1250.50")
		return "\n  Alpha leads spending at $1,250.50, roughly double Beta's total.  \n", nil
	}

	gq := models.GeneratedQuery{SQL: "SELECT 1", Explanation: "Sums spend per project."}
	summary := newTestInsights(mockClient).Summarize(context.Background(),
		"total spend by project", gq, "project | total\nAlpha | 1250.50")

	assert.Equal(t, "Alpha leads spending at $1,250.50, roughly double Beta's total.", summary)
}

func TestInsightService_Summarize_FallsBackToExplanation(t *testing.T) {
	gq := models.GeneratedQuery{Explanation: "Sums spend per project."}

	t.Run("call error", func(t *testing.T) {
		mockClient := llm.NewMockCompletionClient()
		mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return "", errors.New("overloaded")
		}
		summary := newTestInsights(mockClient).Summarize(context.Background(), "q", gq, "rows")
		assert.Equal(t, "Sums spend per project.", summary)
	})

	t.Run("blank reply", func(t *testing.T) {
		mockClient := llm.NewMockCompletionClient()
		mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return "   \n", nil
		}
		summary := newTestInsights(mockClient).Summarize(context.Background(), "q", gq, "rows")
		assert.Equal(t, "Sums spend per project.", summary)
	})
}

func TestInsightService_Summarize_BoundsResultsPreview(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "summary", nil
	}
	svc := NewInsightService(mockClient, 50, 50, zap.NewNop())

	rendered := strings.Repeat("x", 500)
	svc.Summarize(context.Background(), "q", models.GeneratedQuery{}, rendered)

	require.Len(t, mockClient.Prompts, 1)
	assert.NotContains(t, mockClient.Prompts[0], strings.Repeat("x", 51),
		"the prompt sees at most the configured preview size")
	assert.Contains(t, mockClient.Prompts[0], strings.Repeat("x", 50))
}

func TestInsightService_SuggestFollowups_Success(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.InDelta(t, 0.5, temperature, 1e-9)
		return `["How does this compare to FY2024?", "Which cost center drives Alpha?", "What is the monthly trend?"]`, nil
	}

	followups := newTestInsights(mockClient).SuggestFollowups(context.Background(), "total spend by project", "rows")

	assert.Equal(t, []string{
		"How does this compare to FY2024?",
		"Which cost center drives Alpha?",
		"What is the monthly trend?",
	}, followups)
}

func TestInsightService_SuggestFollowups_CapsAtThree(t *testing.T) {
	mockClient := llm.NewMockCompletionClient()
	mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `["one", "  ", "two", "three", "four"]`, nil
	}

	followups := newTestInsights(mockClient).SuggestFollowups(context.Background(), "q", "rows")

	assert.Equal(t, []string{"one", "two", "three"}, followups, "blanks are skipped and the list is capped")
}

func TestInsightService_SuggestFollowups_NilOnFailure(t *testing.T) {
	t.Run("call error", func(t *testing.T) {
		mockClient := llm.NewMockCompletionClient()
		mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return "", errors.New("overloaded")
		}
		assert.Nil(t, newTestInsights(mockClient).SuggestFollowups(context.Background(), "q", "rows"))
	})

	t.Run("not a JSON array", func(t *testing.T) {
		mockClient := llm.NewMockCompletionClient()
		mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return "You could ask about trends.", nil
		}
		assert.Nil(t, newTestInsights(mockClient).SuggestFollowups(context.Background(), "q", "rows"))
	})

	t.Run("all entries blank", func(t *testing.T) {
		mockClient := llm.NewMockCompletionClient()
		mockClient.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return `["", "  "]`, nil
		}
		assert.Nil(t, newTestInsights(mockClient).SuggestFollowups(context.Background(), "q", "rows"))
	})
}
