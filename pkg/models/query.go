package models

// ChartType names the visualization a result set is best rendered with.
// The engine never renders charts; it only recommends one.
type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartGroupedBar ChartType = "grouped_bar"
	ChartLine       ChartType = "line"
	ChartPie        ChartType = "pie"
	ChartArea       ChartType = "area"
	ChartScatter    ChartType = "scatter"
	ChartHeatmap    ChartType = "heatmap"
	ChartTreemap    ChartType = "treemap"
	ChartWaterfall  ChartType = "waterfall"
	ChartNone       ChartType = "none"
)

// ParseChartType maps a free-form chart name onto the closed set.
// Unknown values collapse to bar, the safe default for tabular aggregates.
func ParseChartType(s string) ChartType {
	switch ChartType(s) {
	case ChartBar, ChartGroupedBar, ChartLine, ChartPie, ChartArea,
		ChartScatter, ChartHeatmap, ChartTreemap, ChartWaterfall, ChartNone:
		return ChartType(s)
	default:
		return ChartBar
	}
}

// GeneratedQuery is the generator's output. An empty SQL signals that
// generation failed; Explanation then carries the failure class instead of
// a query description.
type GeneratedQuery struct {
	SQL         string    `json:"sql"`
	Explanation string    `json:"explanation"`
	Chart       ChartType `json:"chart_type"`
}

// FailOpenConfidence is the confidence assigned when request validation
// cannot complete and the pipeline proceeds as if the request were clear.
const FailOpenConfidence = 0.7

// ValidationResult is the validator's judgment of a request.
type ValidationResult struct {
	IsClear             bool     `json:"is_clear"`
	Confidence          float64  `json:"confidence"`
	Issues              []string `json:"issues,omitempty"`
	Suggestions         []string `json:"suggestions,omitempty"`
	ClarifyingQuestions []string `json:"clarifying_questions,omitempty"`
	InterpretedAs       string   `json:"interpreted_as,omitempty"`
}

// FailOpenValidation is the named fail-open default: the request is treated
// as clear and interpreted literally. Used whenever the validation call or
// its decoding fails.
func FailOpenValidation(query string) ValidationResult {
	return ValidationResult{
		IsClear:       true,
		Confidence:    FailOpenConfidence,
		InterpretedAs: query,
	}
}

// NeedsClarification reports whether the result should short-circuit the
// pipeline into a clarification response: the request is unclear, confidence
// is below the threshold, and there is at least one question to ask.
func (v ValidationResult) NeedsClarification(threshold float64) bool {
	return !v.IsClear && v.Confidence < threshold && len(v.ClarifyingQuestions) > 0
}
