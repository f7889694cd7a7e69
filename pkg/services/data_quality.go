package services

import (
	"fmt"
	"regexp"
	"strings"
)

// financialKeywords gates the negative-value check: a stray minus sign only
// matters when the request or the results are about money.
var financialKeywords = []string{"spend", "budget", "cost", "variance"}

// negativeNumber matches a minus sign starting a number that is not the
// separator inside a date like 2025-01.
var negativeNumber = regexp.MustCompile(`(^|[^0-9])-[0-9]`)

// CheckDataQuality runs local heuristics over the rendered results and
// returns human-readable warnings. The checks are independent and
// order-stable; no I/O and no completion calls are involved.
func CheckDataQuality(question, rendered string, rowCount int) []string {
	var warnings []string

	if rowCount == 0 {
		warnings = append(warnings, "No results returned - the query may be too restrictive or the table may be empty.")
	}

	if containsNullMarker(rendered) {
		warnings = append(warnings, "Some values contain NULL - data may be incomplete for certain records.")
	}

	if rowCount < 2 {
		warnings = append(warnings, "Very few rows returned - consider broadening your query filters.")
	}

	if zeros := strings.Count(rendered, "0.00"); zeros > 3 {
		warnings = append(warnings, fmt.Sprintf("Multiple zero values detected (%d instances) - verify data completeness.", zeros))
	}

	if negativeNumber.MatchString(rendered) && mentionsFinancialTerm(question, rendered) {
		warnings = append(warnings, "Negative financial values detected - this may indicate credits, reversals, or data issues.")
	}

	return warnings
}

func containsNullMarker(rendered string) bool {
	lowered := strings.ToLower(rendered)
	return strings.Contains(lowered, "null") || strings.Contains(rendered, "None")
}

func mentionsFinancialTerm(question, rendered string) bool {
	combined := strings.ToLower(question + " " + rendered)
	for _, kw := range financialKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}
