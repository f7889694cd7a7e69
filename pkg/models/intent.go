package models

// IntentCategory is the router's classification of a free-text request.
type IntentCategory string

const (
	// IntentDataQuery routes to structured query generation and execution.
	IntentDataQuery IntentCategory = "DATA_QUERY"
	// IntentSemanticSearch routes to the knowledge responder.
	IntentSemanticSearch IntentCategory = "SEMANTIC_SEARCH"
	// IntentGeneralChat routes to the conversational responder.
	IntentGeneralChat IntentCategory = "GENERAL_CHAT"
)

// IntentDecision is the outcome of intent classification. Confidence is
// always in [0,1]; RefinedQuery is a cleaned-up restatement of the request
// suitable for query generation (empty means use the original text).
type IntentDecision struct {
	Category     IntentCategory `json:"intent"`
	Confidence   float64        `json:"confidence"`
	Reasoning    string         `json:"reasoning,omitempty"`
	RefinedQuery string         `json:"refined_query,omitempty"`
}
