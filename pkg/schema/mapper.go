package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
)

// NoMappingsMessage is returned when a request matches nothing in the
// glossary. Prompt builders embed it verbatim so the model knows no
// vocabulary hints are available.
const NoMappingsMessage = "No specific schema mappings found for this query."

type entry struct {
	phrase  string
	table   string
	column  string
	desc    string
	pattern *regexp.Regexp
}

// Mapper resolves business vocabulary in a request to concrete columns.
type Mapper struct {
	glossary *Glossary
	entries  []entry // longest phrase first
	overview string
}

// NewMapper builds a Mapper from a parsed glossary. Synonym matching is
// word-bounded and longest-first, so "man month" wins over "month".
func NewMapper(g *Glossary) *Mapper {
	var entries []entry
	for _, tableName := range g.TableNames() {
		table := g.Tables[tableName]

		columnNames := make([]string, 0, len(table.Columns))
		for name := range table.Columns {
			columnNames = append(columnNames, name)
		}
		sort.Strings(columnNames)

		for _, columnName := range columnNames {
			column := table.Columns[columnName]
			for _, synonym := range column.Synonyms {
				phrase := strings.ToLower(strings.TrimSpace(synonym))
				if phrase == "" {
					continue
				}
				entries = append(entries, entry{
					phrase:  phrase,
					table:   tableName,
					column:  columnName,
					desc:    column.Description,
					pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`),
				})
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].phrase) > len(entries[j].phrase)
	})

	return &Mapper{
		glossary: g,
		entries:  entries,
		overview: buildOverview(g),
	}
}

// RelevantContext returns a vocabulary hint block for the request: each
// glossary phrase found in the text mapped to its table.column. Plural
// phrasing is matched through singularization, so "projects" still hits
// the "project" synonym.
func (m *Mapper) RelevantContext(text string) string {
	lowered := strings.ToLower(text)
	singular := singularize(lowered)

	type hit struct {
		table, column, desc, phrase string
	}
	var hits []hit
	seen := make(map[string]bool)

	for _, e := range m.entries {
		if !e.pattern.MatchString(lowered) && !e.pattern.MatchString(singular) {
			continue
		}
		key := e.table + "." + e.column
		if seen[key] {
			continue
		}
		seen[key] = true
		hits = append(hits, hit{table: e.table, column: e.column, desc: e.desc, phrase: e.phrase})
	}

	if len(hits) == 0 {
		return NoMappingsMessage
	}

	var b strings.Builder
	b.WriteString("Relevant schema information:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s.%s: %s (matched %q)\n", h.table, h.column, h.desc, h.phrase)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Overview returns the prompt-ready dataset description: every table with
// its columns, then the glossary's query-writing conventions.
func (m *Mapper) Overview() string {
	return m.overview
}

func buildOverview(g *Glossary) string {
	var b strings.Builder
	b.WriteString("The dataset contains the following tables:\n\n")

	for _, tableName := range g.TableNames() {
		table := g.Tables[tableName]
		fmt.Fprintf(&b, "Table %s: %s\n", tableName, table.Description)

		columnNames := make([]string, 0, len(table.Columns))
		for name := range table.Columns {
			columnNames = append(columnNames, name)
		}
		sort.Strings(columnNames)

		for _, columnName := range columnNames {
			fmt.Fprintf(&b, "  - %s: %s\n", columnName, table.Columns[columnName].Description)
		}
		b.WriteString("\n")
	}

	if len(g.Conventions) > 0 {
		b.WriteString("Query-writing conventions:\n")
		for _, c := range g.Conventions {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// singularize rewrites each word of the text to its singular form.
func singularize(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = inflection.Singular(w)
	}
	return strings.Join(words, " ")
}
