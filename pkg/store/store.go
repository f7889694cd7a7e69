// Package store executes screened read-only SQL against the backing dataset
// and renders results for display and LLM analysis.
package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoResultsMessage is the rendered form of an empty result set.
const NoResultsMessage = "No results found."

// QueryResult holds an executed query's rows in column order. Rows are kept
// ordered rather than as maps so duplicate column names survive and rendering
// is deterministic.
type QueryResult struct {
	Columns  []string
	Rows     [][]any
	RowCount int
}

// Store executes read-only queries against the dataset.
type Store interface {
	// Execute runs a single screened SELECT and returns bounded results.
	Execute(ctx context.Context, sqlQuery string) (*QueryResult, error)
	// Dialect returns the SQL dialect name used in generation prompts.
	Dialect() string
	Close() error
}

// RollbackHook is an optional capability for stores whose sessions need an
// explicit reset after a failed statement. The execution engine calls it
// best-effort between attempts; stores with autocommit pools do not
// implement it.
type RollbackHook interface {
	Rollback(ctx context.Context) error
}

// RenderTable renders a result as an aligned text table, the form embedded
// in responses and fed to the analysis prompts.
func RenderTable(result *QueryResult) string {
	if result == nil || result.RowCount == 0 {
		return NoResultsMessage
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}

	rendered := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for c := range result.Columns {
			var cell string
			if c < len(row) {
				cell = FormatValue(row[c])
			}
			cells[c] = cell
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
		rendered[r] = cells
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cell)
			if pad := widths[i] - len(cell); pad > 0 && i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		b.WriteString("\n")
	}

	writeRow(result.Columns)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteString("\n")
	for _, cells := range rendered {
		writeRow(cells)
	}
	fmt.Fprintf(&b, "(%d rows)\n", result.RowCount)

	return b.String()
}

// FormatValue renders a single cell. Driver-level values (pgtype wrappers
// and friends) are unwrapped through driver.Valuer before formatting.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	if valuer, ok := v.(driver.Valuer); ok {
		unwrapped, err := valuer.Value()
		if err == nil {
			if unwrapped == nil {
				return "NULL"
			}
			// pgtype.Numeric encodes as mantissa and exponent ("256050e-2");
			// expand it so tables show plain decimals.
			if s, ok := unwrapped.(string); ok {
				if expanded, ok := expandExponentForm(s); ok {
					return expanded
				}
			}
			v = unwrapped
		}
	}

	switch val := v.(type) {
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// expandExponentForm converts a "<digits>e<exp>" decimal into plain notation.
// Reports false for anything that is not exactly that shape.
func expandExponentForm(s string) (string, bool) {
	idx := strings.IndexByte(s, 'e')
	if idx <= 0 || idx == len(s)-1 {
		return "", false
	}

	mantissa, expPart := s[:idx], s[idx+1:]
	exp, err := strconv.Atoi(expPart)
	if err != nil {
		return "", false
	}

	neg := strings.HasPrefix(mantissa, "-")
	digits := strings.TrimPrefix(mantissa, "-")
	if digits == "" {
		return "", false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", false
		}
	}

	switch {
	case exp >= 0:
		digits += strings.Repeat("0", exp)
	default:
		point := len(digits) + exp
		if point <= 0 {
			digits = "0." + strings.Repeat("0", -point) + digits
		} else {
			digits = digits[:point] + "." + digits[point:]
		}
	}

	if neg {
		digits = "-" + digits
	}
	return digits, true
}
