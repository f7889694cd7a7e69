package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/jsonutil"
	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/prompts"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
)

const validateTemperature = 0.1

// QueryValidator judges whether a data request is answerable before any SQL
// is generated.
type QueryValidator interface {
	// Validate never fails: when the completion path breaks down it returns
	// the fail-open default and the pipeline proceeds.
	Validate(ctx context.Context, text string) models.ValidationResult
}

type llmQueryValidator struct {
	client llm.CompletionClient
	mapper *schema.Mapper
	logger *zap.Logger
}

// NewQueryValidator creates the fail-open request validator.
func NewQueryValidator(client llm.CompletionClient, mapper *schema.Mapper, logger *zap.Logger) QueryValidator {
	return &llmQueryValidator{
		client: client,
		mapper: mapper,
		logger: logger.Named("query-validator"),
	}
}

var _ QueryValidator = (*llmQueryValidator)(nil)

// validationResponse absorbs the loosely typed reply shapes the completion
// service produces for the validation prompt.
type validationResponse struct {
	IsClear             jsonutil.FlexibleBool        `json:"is_clear"`
	Confidence          jsonutil.FlexibleFloat       `json:"confidence"`
	Issues              jsonutil.FlexibleStringSlice `json:"issues"`
	Suggestions         jsonutil.FlexibleStringSlice `json:"suggestions"`
	ClarifyingQuestions jsonutil.FlexibleStringSlice `json:"clarifying_questions"`
	InterpretedAs       string                       `json:"interpreted_as"`
}

func (s *llmQueryValidator) Validate(ctx context.Context, text string) models.ValidationResult {
	prompt := prompts.BuildValidationPrompt(prompts.ValidationContext{
		SchemaOverview: s.mapper.Overview(),
		SchemaHints:    s.mapper.RelevantContext(text),
		Request:        text,
	})

	reply, err := s.client.Complete(ctx, prompt, "", validateTemperature)
	if err != nil {
		s.logger.Warn("Validation call failed, proceeding fail-open", zap.Error(err))
		return models.FailOpenValidation(text)
	}

	parsed, err := llm.ParseJSONResponse[validationResponse](reply)
	if err != nil {
		s.logger.Warn("Validation reply was not decodable, proceeding fail-open", zap.Error(err))
		return models.FailOpenValidation(text)
	}

	result := models.ValidationResult{
		IsClear:             bool(parsed.IsClear),
		Confidence:          clamp01(float64(parsed.Confidence)),
		Issues:              parsed.Issues,
		Suggestions:         parsed.Suggestions,
		ClarifyingQuestions: parsed.ClarifyingQuestions,
		InterpretedAs:       parsed.InterpretedAs,
	}

	s.logger.Debug("Request validated",
		zap.Bool("is_clear", result.IsClear),
		zap.Float64("confidence", result.Confidence),
		zap.Int("clarifying_questions", len(result.ClarifyingQuestions)))

	return result
}
