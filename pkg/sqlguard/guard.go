// Package sqlguard screens generated SQL before it reaches the database.
// Generated queries inline their literal values, so the screen checks three
// things: exactly one statement, a read-only statement kind, and no string
// literal that looks like an injection payload. Violations are returned as
// errors so the caller can feed them back into the repair loop.
package sqlguard

import (
	"fmt"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/opsight-ai/opsight-engine/pkg/apperrors"
)

// Screen validates a generated statement and returns it normalized, with
// surrounding whitespace and the trailing semicolon removed.
func Screen(sqlQuery string) (string, error) {
	normalized := stripTrailingSemicolon(strings.TrimSpace(sqlQuery))
	if normalized == "" {
		return "", apperrors.ErrEmptyQuery
	}

	if hasSemicolonOutsideStrings(normalized) {
		return "", fmt.Errorf("%w: multiple SQL statements are not allowed", apperrors.ErrUnsafeStatement)
	}

	keyword := firstKeyword(normalized)
	if keyword != "SELECT" && keyword != "WITH" {
		return "", fmt.Errorf("%w: only SELECT statements are allowed, got %s", apperrors.ErrUnsafeStatement, keyword)
	}

	for _, literal := range stringLiterals(normalized) {
		if isSQLi, fingerprint := libinjection.IsSQLi(literal); isSQLi {
			return "", fmt.Errorf("%w: string literal %q matches injection pattern %s",
				apperrors.ErrUnsafeStatement, literal, fingerprint)
		}
	}

	return normalized, nil
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace
// around it.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimRight(strings.TrimSuffix(sqlQuery, ";"), " \t\n\r")
	}
	return sqlQuery
}

// hasSemicolonOutsideStrings reports whether any semicolon remains outside
// string literals and quoted identifiers. The trailing semicolon has already
// been stripped, so any hit means a second statement.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Both backslash escape (\') and SQL doubled quote ('') keep us
			// inside: the doubled quote exits and immediately re-enters.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// firstKeyword returns the first SQL keyword, uppercased, skipping leading
// whitespace, line comments, and block comments.
func firstKeyword(sqlQuery string) string {
	rest := sqlQuery
	for {
		rest = strings.TrimLeft(rest, " \t\n\r")
		switch {
		case strings.HasPrefix(rest, "--"):
			idx := strings.IndexByte(rest, '\n')
			if idx < 0 {
				return ""
			}
			rest = rest[idx+1:]
		case strings.HasPrefix(rest, "/*"):
			idx := strings.Index(rest, "*/")
			if idx < 0 {
				return ""
			}
			rest = rest[idx+2:]
		default:
			end := 0
			for end < len(rest) && isKeywordChar(rest[end]) {
				end++
			}
			return strings.ToUpper(rest[:end])
		}
	}
}

func isKeywordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// stringLiterals extracts the contents of single-quoted literals, with SQL
// doubled quotes collapsed back to a single quote.
func stringLiterals(sqlQuery string) []string {
	var literals []string
	var current strings.Builder
	inString := false

	runes := []rune(sqlQuery)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		if !inString {
			if char == '\'' {
				inString = true
				current.Reset()
			}
			continue
		}
		if char == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				current.WriteRune('\'')
				i++
				continue
			}
			inString = false
			literals = append(literals, current.String())
			continue
		}
		current.WriteRune(char)
	}

	return literals
}
