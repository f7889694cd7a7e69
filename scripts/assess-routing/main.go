// assess-routing evaluates the DETERMINISTIC keyword fallback of intent
// classification: the routing every request gets when the completion
// service is down or replies with garbage.
//
// This tool does NOT call an LLM - the completion client is forced to fail
// so every case takes the fallback path. A score of 100 means the keyword
// router handles the labeled corpus perfectly. This is achievable.
//
// Live classification quality depends on the configured model and is not
// assessed here.
//
// Usage: go run ./scripts/assess-routing [-labels labels.yaml] [-cases cases.txt]
//
// Case files hold one case per line as EXPECTED_CATEGORY|question.
// Lines starting with # are skipped.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/models"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
	"github.com/opsight-ai/opsight-engine/pkg/services"
)

// RoutingCase pairs a question with the category the fallback must pick.
type RoutingCase struct {
	Expected models.IntentCategory
	Question string
}

// defaultCases covers the three categories plus the margin behaviors the
// fallback is tuned for: data phrasing beating explanation cues on a clear
// margin, and lone keywords without context staying in chat.
var defaultCases = []RoutingCase{
	{models.IntentDataQuery, "total spend by project in 2025"},
	{models.IntentDataQuery, "show me top 10 vendors by cost"},
	{models.IntentDataQuery, "how many open fte demands per quarter"},
	{models.IntentDataQuery, "average man months by department"},
	{models.IntentDataQuery, "compare budget and spend for Atlas"},
	{models.IntentDataQuery, "opex breakdown by cost center"},
	{models.IntentDataQuery, "list projects by priority ranking"},
	{models.IntentDataQuery, "show me what is in the budget"},
	{models.IntentSemanticSearch, "what is the travel policy"},
	{models.IntentSemanticSearch, "explain the approval process"},
	{models.IntentSemanticSearch, "define man month"},
	{models.IntentSemanticSearch, "describe the prioritization process"},
	{models.IntentGeneralChat, "hello"},
	{models.IntentGeneralChat, "who are you"},
	{models.IntentGeneralChat, "thanks for the help"},
	{models.IntentGeneralChat, "capacity"},
}

type caseResult struct {
	Case     RoutingCase
	Decision models.IntentDecision
	Passed   bool
}

func main() {
	labelsPath := flag.String("labels", "labels.yaml", "Path to the schema glossary")
	casesPath := flag.String("cases", "", "Optional labeled case file (EXPECTED_CATEGORY|question per line)")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	cases := defaultCases
	if *casesPath != "" {
		loaded, err := loadCases(*casesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load cases: %v\n", err)
			os.Exit(1)
		}
		cases = loaded
	}

	glossary, err := schema.LoadGlossary(*labelsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load glossary: %v\n", err)
		os.Exit(1)
	}
	mapper := schema.NewMapper(glossary)

	// Force every classification onto the fallback path.
	client := llm.NewMockCompletionClient()
	client.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("completion disabled for assessment")
	}

	classifier := services.NewIntentClassifier(client, mapper, services.DefaultClassifierConfig(), logger)

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("Keyword Fallback Routing Assessment")
	fmt.Printf("Cases: %d\n", len(cases))
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	ctx := context.Background()
	results := make([]caseResult, 0, len(cases))
	byCategory := map[models.IntentCategory]int{}

	for _, c := range cases {
		decision := classifier.Classify(ctx, c.Question)
		passed := decision.Category == c.Expected
		results = append(results, caseResult{Case: c, Decision: decision, Passed: passed})
		byCategory[decision.Category]++

		marker := "✓"
		if !passed {
			marker = "✗"
		}
		fmt.Printf("%s %-16s %.2f  %q\n", marker, decision.Category, decision.Confidence, c.Question)
		if !passed {
			fmt.Printf("    expected %s\n", c.Expected)
		}
	}

	passedCount := 0
	for _, r := range results {
		if r.Passed {
			passedCount++
		}
	}
	score := passedCount * 100 / len(results)

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Printf("%s\n\n", strings.Repeat("=", 80))
	fmt.Printf("Score: %d/100 (%d of %d cases)\n", score, passedCount, len(results))
	for _, cat := range []models.IntentCategory{models.IntentDataQuery, models.IntentSemanticSearch, models.IntentGeneralChat} {
		fmt.Printf("  %-16s %d\n", cat, byCategory[cat])
	}

	if score < 100 {
		fmt.Println("\nFallback routing has gaps. Tune ClassifierConfig keywords or relabel the cases.")
		os.Exit(1)
	}
	fmt.Println("\nFallback routing is clean.")
}

// loadCases reads EXPECTED_CATEGORY|question lines, skipping blanks and
// # comments.
func loadCases(path string) ([]RoutingCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cases []RoutingCase
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		expected, question, ok := strings.Cut(text, "|")
		if !ok {
			return nil, fmt.Errorf("line %d: want EXPECTED_CATEGORY|question, got %q", line, text)
		}
		category := models.IntentCategory(strings.ToUpper(strings.TrimSpace(expected)))
		switch category {
		case models.IntentDataQuery, models.IntentSemanticSearch, models.IntentGeneralChat:
		default:
			return nil, fmt.Errorf("line %d: unknown category %q", line, expected)
		}
		cases = append(cases, RoutingCase{Expected: category, Question: strings.TrimSpace(question)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases in %s", path)
	}
	return cases, nil
}
