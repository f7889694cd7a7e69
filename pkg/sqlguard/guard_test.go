package sqlguard

import (
	"errors"
	"testing"

	"github.com/opsight-ai/opsight-engine/pkg/apperrors"
)

func TestScreen_ValidQueries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple select",
			input:    "SELECT project, SUM(spend_usd) FROM opex_entries GROUP BY project",
			expected: "SELECT project, SUM(spend_usd) FROM opex_entries GROUP BY project",
		},
		{
			name:     "trailing semicolon stripped",
			input:    "SELECT * FROM resource_demand;",
			expected: "SELECT * FROM resource_demand",
		},
		{
			name:     "trailing semicolon with whitespace",
			input:    "  SELECT * FROM resource_demand ;  ",
			expected: "SELECT * FROM resource_demand",
		},
		{
			name:     "lowercase select",
			input:    "select rank, project from project_priority order by rank",
			expected: "select rank, project from project_priority order by rank",
		},
		{
			name:     "cte",
			input:    "WITH totals AS (SELECT project, SUM(spend_usd) s FROM opex_entries GROUP BY project) SELECT * FROM totals ORDER BY s DESC",
			expected: "WITH totals AS (SELECT project, SUM(spend_usd) s FROM opex_entries GROUP BY project) SELECT * FROM totals ORDER BY s DESC",
		},
		{
			name:     "semicolon inside string literal",
			input:    "SELECT * FROM opex_entries WHERE project = 'alpha;beta'",
			expected: "SELECT * FROM opex_entries WHERE project = 'alpha;beta'",
		},
		{
			name:     "semicolon inside quoted identifier",
			input:    `SELECT "odd;name" FROM opex_entries`,
			expected: `SELECT "odd;name" FROM opex_entries`,
		},
		{
			name:     "pattern literal",
			input:    "SELECT * FROM opex_entries WHERE project ILIKE '%infra%'",
			expected: "SELECT * FROM opex_entries WHERE project ILIKE '%infra%'",
		},
		{
			name:     "fiscal year literal",
			input:    "SELECT SUM(spend_usd) FROM opex_entries WHERE fiscal_year = 'FY2025'",
			expected: "SELECT SUM(spend_usd) FROM opex_entries WHERE fiscal_year = 'FY2025'",
		},
		{
			name:     "leading line comment",
			input:    "-- spend per project\nSELECT project, SUM(spend_usd) FROM opex_entries GROUP BY project",
			expected: "-- spend per project\nSELECT project, SUM(spend_usd) FROM opex_entries GROUP BY project",
		},
		{
			name:     "leading block comment",
			input:    "/* totals */ SELECT SUM(spend_usd) FROM opex_entries",
			expected: "/* totals */ SELECT SUM(spend_usd) FROM opex_entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Screen(tt.input)
			if err != nil {
				t.Fatalf("Screen(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Screen(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestScreen_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "empty",
			input:   "",
			wantErr: apperrors.ErrEmptyQuery,
		},
		{
			name:    "whitespace only",
			input:   "   \n\t",
			wantErr: apperrors.ErrEmptyQuery,
		},
		{
			name:    "bare semicolon",
			input:   ";",
			wantErr: apperrors.ErrEmptyQuery,
		},
		{
			name:    "multiple statements",
			input:   "SELECT 1; DROP TABLE opex_entries",
			wantErr: apperrors.ErrUnsafeStatement,
		},
		{
			name:    "delete",
			input:   "DELETE FROM opex_entries",
			wantErr: apperrors.ErrUnsafeStatement,
		},
		{
			name:    "update",
			input:   "UPDATE opex_entries SET spend_usd = 0",
			wantErr: apperrors.ErrUnsafeStatement,
		},
		{
			name:    "insert",
			input:   "INSERT INTO opex_entries (project) VALUES ('x')",
			wantErr: apperrors.ErrUnsafeStatement,
		},
		{
			name:    "ddl",
			input:   "CREATE TABLE t (id INT)",
			wantErr: apperrors.ErrUnsafeStatement,
		},
		{
			name:    "injection payload in literal",
			input:   "SELECT * FROM opex_entries WHERE project = '''; DROP TABLE opex_entries--'",
			wantErr: apperrors.ErrUnsafeStatement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Screen(tt.input)
			if err == nil {
				t.Fatalf("Screen(%q) expected error, got nil", tt.input)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Screen(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestStringLiterals(t *testing.T) {
	got := stringLiterals("SELECT * FROM t WHERE a = 'one' AND b = 'O''Brien' AND c = ''")
	want := []string{"one", "O'Brien", ""}
	if len(got) != len(want) {
		t.Fatalf("stringLiterals returned %d literals, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("literal[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFirstKeyword(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"SELECT 1", "SELECT"},
		{"  with t as (select 1) select * from t", "WITH"},
		{"-- comment\nSELECT 1", "SELECT"},
		{"/* a */ /* b */ DELETE FROM t", "DELETE"},
		{"-- only a comment", ""},
	}

	for _, tt := range tests {
		if got := firstKeyword(tt.input); got != tt.want {
			t.Errorf("firstKeyword(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
