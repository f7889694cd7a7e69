package models

// Status discriminates the three envelope shapes. Callers switch on it and
// never need to inspect which fields happen to be set.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusClarification Status = "clarification_needed"
	StatusError         Status = "error"
)

// Envelope is the single response type for every resolution, successful or
// not. Fields beyond Status are populated per shape:
//
//   - success: SQL, Explanation, Results, Chart, FollowupSuggestions,
//     DataQualityWarnings, QueryInterpretation, ValidationSuggestions
//   - clarification_needed: Message, InterpretedAs, Issues,
//     ClarifyingQuestions, Suggestions, Reasoning
//   - error: Message, LastSQL, Suggestions
//
// Marshaling is deterministic: identical inputs produce byte-identical JSON.
type Envelope struct {
	Status Status `json:"status"`

	SQL                   string    `json:"sql,omitempty"`
	Explanation           string    `json:"explanation,omitempty"`
	Results               string    `json:"results,omitempty"`
	Chart                 ChartType `json:"chart_type,omitempty"`
	FollowupSuggestions   []string  `json:"followup_suggestions,omitempty"`
	DataQualityWarnings   []string  `json:"data_quality_warnings,omitempty"`
	QueryInterpretation   string    `json:"query_interpretation,omitempty"`
	ValidationSuggestions []string  `json:"validation_suggestions,omitempty"`

	Message             string   `json:"message,omitempty"`
	InterpretedAs       string   `json:"interpreted_as,omitempty"`
	Issues              []string `json:"issues,omitempty"`
	ClarifyingQuestions []string `json:"clarifying_questions,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`

	LastSQL     string   `json:"last_sql,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
