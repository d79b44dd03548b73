package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// RESOLVE — Header row → field index
// ============================================================================
// Headers are compared in snake_case so "First Issue Date",
// "FIRST_ISSUE_DATE" and "firstIssueDate" all match the same column.
// ============================================================================

// ErrMissingColumn is returned when a required column is not in the header.
var ErrMissingColumn = errors.New("missing required column")

// Resolve maps every field of c to its index in headers.
// Optional columns that are not found are left out of the map.
func (c Config) Resolve(headers []string) (map[string]int, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := toSnakeCase(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	fields := make(map[string]int, len(c.Columns))
	var missing []string
	for _, col := range c.Columns {
		pos, ok := lookup(index, col)
		if ok {
			fields[col.Field] = pos
			continue
		}
		if col.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", col.Header, c.Label(col.Field)))
		}
	}

	if len(missing) > 0 {
		return fields, fmt.Errorf("%s: %w: %s", c.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return fields, nil
}

func lookup(index map[string]int, col ColumnMeta) (int, bool) {
	for _, name := range append([]string{col.Header}, col.Aliases...) {
		if pos, ok := index[toSnakeCase(name)]; ok {
			return pos, true
		}
	}
	return 0, false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a key for human display.
// "nationality_group" → "Nationality Group"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}
