package tabular

// LongTuple is one observation in long format: one (time, series, value)
// triple per non-empty cell of a wide table.
type LongTuple struct {
	Time   interface{}
	Series string
	Value  float64
}

// ToLongFormat converts wide rows into long tuples. Emission order is
// row-major, then valueKeys in the caller-supplied order. That order is
// significant: it becomes the default series and legend order, and the
// stacking order of cumulative archetypes. Cells that are nil, empty, or not
// numeric-coercible are dropped.
func ToLongFormat(rows []Row, timeKey string, valueKeys []string) []LongTuple {
	tuples := make([]LongTuple, 0, len(rows)*len(valueKeys))
	for _, row := range rows {
		for _, key := range valueKeys {
			cell, ok := row[key]
			if !ok || cell == nil || cell == "" {
				continue
			}
			v, ok := CoerceNumber(cell)
			if !ok {
				continue
			}
			tuples = append(tuples, LongTuple{
				Time:   row[timeKey],
				Series: key,
				Value:  v,
			})
		}
	}
	return tuples
}
