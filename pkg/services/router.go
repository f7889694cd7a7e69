package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/apperrors"
	"github.com/opsight-ai/opsight-engine/pkg/audit"
	"github.com/opsight-ai/opsight-engine/pkg/cache"
	"github.com/opsight-ai/opsight-engine/pkg/config"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
)

// ChatResponder handles small talk and questions about the assistant.
type ChatResponder interface {
	Respond(ctx context.Context, text string) (string, error)
}

// KnowledgeResponder answers questions about the dataset's vocabulary and
// structure without running a query.
type KnowledgeResponder interface {
	Answer(ctx context.Context, text string) (string, error)
}

// Router resolves a natural-language request end to end and always returns
// an envelope; no collaborator failure escapes as a panic or raw error.
type Router interface {
	Resolve(ctx context.Context, text string) models.Envelope
}

type router struct {
	classifier IntentClassifier
	validator  QueryValidator
	generator  QueryGenerator
	engine     ExecutionEngine
	insights   InsightService
	knowledge  KnowledgeResponder
	chat       ChatResponder
	cache      cache.ResponseCache
	mapper     *schema.Mapper
	auditor    *audit.SecurityAuditor

	clarifyThreshold  float64
	errorExcerptChars int
	logger            *zap.Logger
}

// NewRouter wires the full resolution pipeline. respCache and auditor may
// be nil.
func NewRouter(
	classifier IntentClassifier,
	validator QueryValidator,
	generator QueryGenerator,
	engine ExecutionEngine,
	insights InsightService,
	knowledge KnowledgeResponder,
	chat ChatResponder,
	respCache cache.ResponseCache,
	mapper *schema.Mapper,
	auditor *audit.SecurityAuditor,
	pipelineCfg config.PipelineConfig,
	logger *zap.Logger,
) Router {
	return &router{
		classifier:        classifier,
		validator:         validator,
		generator:         generator,
		engine:            engine,
		insights:          insights,
		knowledge:         knowledge,
		chat:              chat,
		cache:             respCache,
		mapper:            mapper,
		auditor:           auditor,
		clarifyThreshold:  pipelineCfg.ClarifyThreshold,
		errorExcerptChars: pipelineCfg.ErrorExcerptChars,
		logger:            logger.Named("router"),
	}
}

var _ Router = (*router)(nil)

func (r *router) Resolve(ctx context.Context, text string) models.Envelope {
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, text); ok {
			r.logger.Debug("Resolved from cache")
			return *cached
		}
	}

	decision := r.classifier.Classify(ctx, text)
	r.logger.Info("Request classified",
		zap.String("category", string(decision.Category)),
		zap.Float64("confidence", decision.Confidence))

	if decision.Confidence < r.clarifyThreshold {
		return models.Envelope{
			Status: models.StatusClarification,
			Message: fmt.Sprintf(
				"I'm not entirely sure what you're asking (confidence: %.0f%%). Could you please clarify your question?",
				decision.Confidence*100),
			Reasoning:   decision.Reasoning,
			Suggestions: clarificationSuggestions(),
		}
	}

	var envelope models.Envelope
	switch decision.Category {
	case models.IntentDataQuery:
		request := text
		if decision.RefinedQuery != "" {
			request = decision.RefinedQuery
		}
		envelope = r.resolveDataQuery(ctx, request)
	case models.IntentSemanticSearch:
		envelope = r.respondKnowledge(ctx, text)
	default:
		envelope = r.respondChat(ctx, text)
	}

	if r.cache != nil && envelope.Status == models.StatusSuccess {
		r.cache.Set(ctx, text, &envelope)
	}

	return envelope
}

// resolveDataQuery runs validation, generation, the bounded execution loop,
// and post-execution analysis for a data request.
func (r *router) resolveDataQuery(ctx context.Context, request string) models.Envelope {
	validation := r.validator.Validate(ctx, request)

	if validation.NeedsClarification(r.clarifyThreshold) {
		return models.Envelope{
			Status:              models.StatusClarification,
			Message:             "I'd like to clarify your request to give you the most accurate results.",
			InterpretedAs:       validation.InterpretedAs,
			Issues:              validation.Issues,
			ClarifyingQuestions: validation.ClarifyingQuestions,
			Suggestions:         validation.Suggestions,
		}
	}

	generationInput := request
	if validation.InterpretedAs != "" {
		generationInput = validation.InterpretedAs
	}

	gq := r.generator.Generate(ctx, generationInput,
		r.mapper.Overview(), r.mapper.RelevantContext(generationInput))
	if gq.SQL == "" {
		return models.Envelope{
			Status:      models.StatusError,
			Message:     "I couldn't generate a query for your question. Could you rephrase it with more specific details about what data you want to see?",
			Suggestions: errorSuggestions(validation),
		}
	}

	outcome := r.engine.Run(ctx, gq)
	r.auditOutcome(ctx, generationInput, outcome)
	if !outcome.Succeeded {
		return models.Envelope{
			Status: models.StatusError,
			Message: fmt.Sprintf(
				"I tried %d times but couldn't execute the query successfully. Last error: %s",
				len(outcome.Attempts), preview(outcome.LastError, r.errorExcerptChars)),
			LastSQL:     outcome.LastSQL,
			Suggestions: errorSuggestions(validation),
		}
	}

	return models.Envelope{
		Status:                models.StatusSuccess,
		SQL:                   outcome.Query.SQL,
		Explanation:           r.insights.Summarize(ctx, generationInput, outcome.Query, outcome.Rendered),
		Results:               outcome.Rendered,
		Chart:                 outcome.Query.Chart,
		FollowupSuggestions:   r.insights.SuggestFollowups(ctx, generationInput, outcome.Rendered),
		DataQualityWarnings:   CheckDataQuality(generationInput, outcome.Rendered, outcome.RowCount),
		QueryInterpretation:   validation.InterpretedAs,
		ValidationSuggestions: validation.Suggestions,
	}
}

// auditOutcome emits security audit events for an execution outcome: one
// per attempt the safety screen blocked, then either the exhaustion or the
// execution record.
func (r *router) auditOutcome(ctx context.Context, question string, outcome models.ExecutionOutcome) {
	if r.auditor == nil {
		return
	}

	unsafeMarker := apperrors.ErrUnsafeStatement.Error()
	for _, att := range outcome.Attempts {
		if att.Error != "" && strings.Contains(att.Error, unsafeMarker) {
			r.auditor.LogStatementRejected(ctx, audit.RejectionDetails{
				Question: question,
				SQL:      att.SQL,
				Reason:   att.Error,
			})
		}
	}

	if !outcome.Succeeded {
		r.auditor.LogRetryExhausted(ctx, audit.ExhaustionDetails{
			Question:  question,
			Attempts:  len(outcome.Attempts),
			LastError: outcome.LastError,
		})
		return
	}

	r.auditor.LogQueryExecution(ctx, audit.ExecutionDetails{
		Question: question,
		SQL:      outcome.Query.SQL,
		Rows:     outcome.RowCount,
	})
}

func (r *router) respondKnowledge(ctx context.Context, text string) models.Envelope {
	answer, err := r.knowledge.Answer(ctx, text)
	if err != nil {
		r.logger.Error("Knowledge responder failed", zap.Error(err))
		return collaboratorFailure()
	}
	return models.Envelope{
		Status:  models.StatusSuccess,
		Results: answer,
		Chart:   models.ChartNone,
	}
}

func (r *router) respondChat(ctx context.Context, text string) models.Envelope {
	reply, err := r.chat.Respond(ctx, text)
	if err != nil {
		r.logger.Error("Chat responder failed", zap.Error(err))
		return collaboratorFailure()
	}
	return models.Envelope{
		Status:  models.StatusSuccess,
		Results: reply,
		Chart:   models.ChartNone,
	}
}

// clarificationSuggestions is the fixed trio shown when intent confidence
// is too low to route at all.
func clarificationSuggestions() []string {
	return []string{
		"Try asking about specific metrics: 'total spend by project'",
		"For resource data: 'headcount demand by project'",
		"For explanations: 'explain the priority ranking'",
	}
}

// errorSuggestions prefers the validator's suggestions; without any it
// falls back to the default trio of retry hints.
func errorSuggestions(validation models.ValidationResult) []string {
	if len(validation.Suggestions) > 0 {
		return validation.Suggestions
	}
	return []string{
		"Try rephrasing your question with specific column names",
		"Specify the time period (e.g., 'in FY2025')",
		"Mention the exact table: OpEx spend, resource demand, or project priority",
	}
}

// collaboratorFailure is the catch-all error envelope for responder and
// infrastructure failures outside the execution loop.
func collaboratorFailure() models.Envelope {
	return models.Envelope{
		Status:  models.StatusError,
		Message: "Something went wrong while answering your question. Please try again.",
		Suggestions: []string{
			"Try a simpler version of the question",
			"Check that the database connection is configured correctly",
			"Verify the dataset has been loaded",
		},
	}
}
