package tabular

import "strings"

// timeKeywords are the column-name fragments that suggest a time axis.
// Both Turkish and English forms are checked case-insensitively.
var timeKeywords = []string{"yıl", "year", "tarih", "date", "ay", "month", "zaman", "time", "sene"}

// sampleRows bounds how many rows are inspected when guessing value columns.
const sampleRows = 10

// Suggestion is an advisory role mapping guess. The caller decides the final
// mapping; a suggestion is never applied over an explicit choice.
type Suggestion struct {
	Time  string
	Value []string
}

// SuggestTimeColumn returns the first column whose name contains a
// time-indicating keyword, or "" if none match.
func SuggestTimeColumn(columns []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, kw := range timeKeywords {
			if strings.Contains(lower, kw) {
				return col
			}
		}
	}
	return ""
}

// SuggestValueColumns returns the columns (excluding timeColumn) whose sampled
// values are entirely numeric-coercible. Columns with no non-empty sampled
// values are not suggested.
func SuggestValueColumns(t *Table, timeColumn string) []string {
	var value []string
	for _, col := range t.Columns {
		if col == timeColumn {
			continue
		}
		if columnIsNumeric(t, col) {
			value = append(value, col)
		}
	}
	return value
}

// Suggest combines time and value column inference over a parsed table.
func Suggest(t *Table) Suggestion {
	timeCol := SuggestTimeColumn(t.Columns)
	return Suggestion{
		Time:  timeCol,
		Value: SuggestValueColumns(t, timeCol),
	}
}

func columnIsNumeric(t *Table, col string) bool {
	seen := 0
	for i, row := range t.Rows {
		if i >= sampleRows {
			break
		}
		v := row[col]
		if v == nil || v == "" {
			continue
		}
		if _, ok := CoerceNumber(v); !ok {
			return false
		}
		seen++
	}
	return seen > 0
}
