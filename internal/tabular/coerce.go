package tabular

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnparsableTime indicates a cell could not be interpreted as a point in
// time. Callers must surface this instead of substituting a default: a made-up
// date corrupts the time axis without any visible error.
var ErrUnparsableTime = errors.New("unparsable time value")

// dateLayouts are tried in order for non-year time strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
	"01.2006",
}

// ParseNumber parses a numeric cell under the decimal convention implied by
// the field delimiter. With a tab delimiter a comma inside the cell is a
// decimal separator (Turkish spreadsheet paste); with a comma delimiter the
// cell is parsed as-is, since the comma is already spent as the field
// separator.
func ParseNumber(cell string, delimiter rune) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if delimiter == '\t' && strings.Contains(s, ",") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CoerceNumber converts an already-parsed cell value to float64. Applied
// again at consumption time so generators never trust upstream coercion.
// String cells accept either decimal convention here since the delimiter
// ambiguity no longer exists.
func CoerceNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		return ParseNumber(x, '\t')
	default:
		return 0, false
	}
}

// ParseTimeValue normalizes the heterogeneous time representations editors
// paste (bare years, date strings, numbers) into a time.Time. A bare 4-digit
// year maps to January 1 of that year. Anything unrecognizable returns
// ErrUnparsableTime; there is deliberately no silent fallback.
func ParseTimeValue(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case float64:
		if x == math.Trunc(x) && x >= 1000 && x <= 9999 {
			return time.Date(int(x), time.January, 1, 0, 0, 0, 0, time.UTC), nil
		}
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparsableTime, x)
	case int:
		return ParseTimeValue(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if len(s) == 4 {
			if year, err := strconv.Atoi(s); err == nil && year >= 1000 {
				return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
			}
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableTime, s)
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparsableTime, v)
	}
}
