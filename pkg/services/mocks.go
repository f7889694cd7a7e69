package services

import (
	"context"

	"github.com/opsight-ai/opsight-engine/pkg/models"
)

// Function-field mocks for the pipeline stages, used by the router and
// surface tests.

// MockIntentClassifier implements IntentClassifier.
type MockIntentClassifier struct {
	ClassifyFunc  func(ctx context.Context, text string) models.IntentDecision
	ClassifyCalls int
	Inputs        []string
}

var _ IntentClassifier = (*MockIntentClassifier)(nil)

func (m *MockIntentClassifier) Classify(ctx context.Context, text string) models.IntentDecision {
	m.ClassifyCalls++
	m.Inputs = append(m.Inputs, text)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return models.IntentDecision{Category: models.IntentGeneralChat, Confidence: 0.8}
}

// MockQueryValidator implements QueryValidator.
type MockQueryValidator struct {
	ValidateFunc  func(ctx context.Context, text string) models.ValidationResult
	ValidateCalls int
	Inputs        []string
}

var _ QueryValidator = (*MockQueryValidator)(nil)

func (m *MockQueryValidator) Validate(ctx context.Context, text string) models.ValidationResult {
	m.ValidateCalls++
	m.Inputs = append(m.Inputs, text)
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, text)
	}
	return models.FailOpenValidation(text)
}

// MockQueryGenerator implements QueryGenerator.
type MockQueryGenerator struct {
	GenerateFunc func(ctx context.Context, request, schemaCtx, glossaryCtx string) models.GeneratedQuery
	RepairFunc   func(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery

	GenerateCalls int
	RepairCalls   int
	RepairErrors  []string
}

var _ QueryGenerator = (*MockQueryGenerator)(nil)

func (m *MockQueryGenerator) Generate(ctx context.Context, request, schemaCtx, glossaryCtx string) models.GeneratedQuery {
	m.GenerateCalls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, request, schemaCtx, glossaryCtx)
	}
	return models.GeneratedQuery{}
}

func (m *MockQueryGenerator) Repair(ctx context.Context, prev models.GeneratedQuery, execErr string) models.GeneratedQuery {
	m.RepairCalls++
	m.RepairErrors = append(m.RepairErrors, execErr)
	if m.RepairFunc != nil {
		return m.RepairFunc(ctx, prev, execErr)
	}
	repaired := prev
	repaired.SQL = ""
	return repaired
}

// MockExecutionEngine implements ExecutionEngine.
type MockExecutionEngine struct {
	RunFunc  func(ctx context.Context, gq models.GeneratedQuery) models.ExecutionOutcome
	RunCalls int
}

var _ ExecutionEngine = (*MockExecutionEngine)(nil)

func (m *MockExecutionEngine) Run(ctx context.Context, gq models.GeneratedQuery) models.ExecutionOutcome {
	m.RunCalls++
	if m.RunFunc != nil {
		return m.RunFunc(ctx, gq)
	}
	return models.ExecutionOutcome{}
}

// MockInsightService implements InsightService.
type MockInsightService struct {
	SummarizeFunc        func(ctx context.Context, question string, gq models.GeneratedQuery, rendered string) string
	SuggestFollowupsFunc func(ctx context.Context, question, rendered string) []string

	SummarizeCalls int
	FollowupCalls  int
}

var _ InsightService = (*MockInsightService)(nil)

func (m *MockInsightService) Summarize(ctx context.Context, question string, gq models.GeneratedQuery, rendered string) string {
	m.SummarizeCalls++
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, question, gq, rendered)
	}
	return gq.Explanation
}

func (m *MockInsightService) SuggestFollowups(ctx context.Context, question, rendered string) []string {
	m.FollowupCalls++
	if m.SuggestFollowupsFunc != nil {
		return m.SuggestFollowupsFunc(ctx, question, rendered)
	}
	return nil
}

// MockChatResponder implements ChatResponder.
type MockChatResponder struct {
	RespondFunc  func(ctx context.Context, text string) (string, error)
	RespondCalls int
}

var _ ChatResponder = (*MockChatResponder)(nil)

func (m *MockChatResponder) Respond(ctx context.Context, text string) (string, error) {
	m.RespondCalls++
	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, text)
	}
	return "Hello! Ask me about spend, demand, or priorities.", nil
}

// MockKnowledgeResponder implements KnowledgeResponder.
type MockKnowledgeResponder struct {
	AnswerFunc  func(ctx context.Context, text string) (string, error)
	AnswerCalls int
}

var _ KnowledgeResponder = (*MockKnowledgeResponder)(nil)

func (m *MockKnowledgeResponder) Answer(ctx context.Context, text string) (string, error) {
	m.AnswerCalls++
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, text)
	}
	return "That field records monthly actuals.", nil
}
