// Package tabular parses raw pasted CSV/TSV text into a typed row set.
// It handles the two delimiter conventions editors paste from spreadsheets
// (tab-separated and comma-separated) and both decimal separators used in
// Turkish and English locales.
package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Parse failure sentinels.
var (
	ErrEmptyInput       = errors.New("empty input")
	ErrInvalidHeader    = errors.New("invalid header")
	ErrInsufficientRows = errors.New("insufficient rows")
	ErrNoValidRows      = errors.New("no valid rows")
)

// Row maps a column name to a raw cell value: float64 for numeric cells,
// string otherwise (empty cells stay as the empty string).
type Row map[string]interface{}

// RowError records a data line that could not be parsed. Such lines are
// excluded from the output rows but never abort the whole parse.
type RowError struct {
	Line    int // 1-based line number in the original input
	Message string
}

// maxSurfacedRowErrors caps how many row errors are reported to the caller.
const maxSurfacedRowErrors = 3

// Table is the result of a successful parse. Every row has exactly the keys
// in Columns; rows violating that are collected in RowErrors instead.
type Table struct {
	Columns   []string
	Rows      []Row
	Delimiter rune
	RowErrors []RowError
}

// RowErrorSummary returns up to three row error messages and whether more
// were suppressed.
func (t *Table) RowErrorSummary() ([]string, bool) {
	n := len(t.RowErrors)
	if n == 0 {
		return nil, false
	}
	limit := n
	if limit > maxSurfacedRowErrors {
		limit = maxSurfacedRowErrors
	}
	msgs := make([]string, 0, limit)
	for _, re := range t.RowErrors[:limit] {
		msgs = append(msgs, re.Message)
	}
	return msgs, n > maxSurfacedRowErrors
}

// Parse parses pasted CSV or TSV text. The first line is the header row.
// The delimiter is decided once per parse: tab if the first line contains a
// tab character, comma otherwise.
func Parse(input string) (*Table, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: veri boş, lütfen CSV veya tab ile ayrılmış veri girin", ErrEmptyInput)
	}

	var lines []string
	var lineNums []int
	for i, line := range strings.Split(strings.TrimSpace(input), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		lineNums = append(lineNums, i+1)
	}

	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: en az bir başlık satırı ve bir veri satırı gerekli", ErrInsufficientRows)
	}

	delimiter := ','
	if strings.ContainsRune(lines[0], '\t') {
		delimiter = '\t'
	}

	headers := splitCells(lines[0], delimiter)
	for _, h := range headers {
		if h == "" {
			return nil, fmt.Errorf("%w: her sütunun bir adı olmalı", ErrInvalidHeader)
		}
	}

	t := &Table{Columns: headers, Delimiter: delimiter}

	for i := 1; i < len(lines); i++ {
		cells := splitCells(lines[i], delimiter)
		if len(cells) != len(headers) {
			t.RowErrors = append(t.RowErrors, RowError{
				Line: lineNums[i],
				Message: fmt.Sprintf("Satır %d: sütun sayısı eşleşmiyor (%d sütun, %d bekleniyor)",
					lineNums[i], len(cells), len(headers)),
			})
			continue
		}

		row := make(Row, len(headers))
		for j, header := range headers {
			row[header] = coerceCell(cells[j], delimiter)
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: hiç veri satırı işlenemedi, veri formatını kontrol edin", ErrNoValidRows)
	}

	return t, nil
}

// splitCells splits a line on the delimiter, trimming whitespace and
// surrounding quote characters from every cell.
func splitCells(line string, delimiter rune) []string {
	parts := strings.Split(line, string(delimiter))
	cells := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, `"`)
		p = strings.TrimSuffix(p, `"`)
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// coerceCell converts a cell to float64 when it parses as a number under the
// active delimiter's decimal convention; empty cells stay empty strings and
// unparsable cells keep their original text.
func coerceCell(cell string, delimiter rune) interface{} {
	if cell == "" {
		return ""
	}
	if v, ok := ParseNumber(cell, delimiter); ok {
		return v
	}
	return cell
}

// SampleInput returns the placeholder data snippet shown to editors.
func SampleInput() string {
	return "Yıl,Değer\n2020,100\n2021,120\n2022,135\n2023,150"
}
