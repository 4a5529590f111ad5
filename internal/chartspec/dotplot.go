package chartspec

import (
	"fmt"

	"github.com/datum-viz/datum/internal/tabular"
)

// dotPlot builds the single-snapshot comparison archetype: one dot per
// (category, value column) pair. When a group-by column is mapped the table
// is first filtered to its most recent snapshot, since a dot plot can only
// show one point in time.
func (g *generation) dotPlot() *Spec {
	s := newSpec(g.tmpl.ID, g.state, g.opts)

	if len(g.rows) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}
	if g.mapping.Time == "" {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoCategory)
	}
	if len(g.mapping.Value) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoValueColumn)
	}

	rows := g.rows
	if g.mapping.GroupBy != "" {
		rows = g.latestSnapshot(rows, g.mapping.GroupBy)
	}

	tuples := tabular.ToLongFormat(rows, g.mapping.Time, g.mapping.Value)
	if len(tuples) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}

	values := make([]map[string]interface{}, 0, len(tuples))
	for _, t := range tuples {
		values = append(values, map[string]interface{}{
			fieldCategory: fmt.Sprintf("%v", t.Time),
			fieldSeries:   t.Series,
			fieldValue:    t.Value,
		})
	}
	categories := seriesOrder(values, fieldCategory)
	series := seriesOrder(values, fieldSeries)

	s.Data = &Data{Values: values}

	categoryCh := &Channel{
		Field: fieldCategory,
		Type:  "nominal",
		Title: g.categoryAxisTitle(),
		Sort:  categories,
		Axis:  &Axis{Grid: boolPtr(true)},
	}
	valueCh := &Channel{
		Field: fieldValue,
		Type:  "quantitative",
		Title: g.opts.valueAxisTitle(),
		Axis:  &Axis{Format: axisNumberFormat(g.opts.NumberFormat)},
	}

	enc := &Encoding{
		Color: g.colorChannel(series),
		Tooltip: []Channel{
			{Field: fieldCategory, Type: "nominal", Title: "Kategori"},
			{Field: fieldSeries, Type: "nominal", Title: "Seri"},
			{Field: fieldValue, Type: "quantitative", Title: g.opts.valueAxisTitle(), Format: axisNumberFormat(g.opts.NumberFormat)},
		},
	}
	// Horizontal is the readable default: category labels stay upright.
	if g.opts.DotPlotOrientation == OrientationVertical {
		enc.X, enc.Y = categoryCh, valueCh
	} else {
		enc.X, enc.Y = valueCh, categoryCh
	}

	s.Layer = append(s.Layer, Layer{
		Mark:     &Mark{Type: "point", Filled: boolPtr(true), Size: 100, Opacity: 0.9, Tooltip: boolPtr(true)},
		Encoding: enc,
	})

	return g.finish(s)
}

// latestSnapshot keeps only the rows carrying the last distinct value of the
// group-by column, in row order. Earlier snapshots are dropped with a warning
// rather than silently averaged together.
func (g *generation) latestSnapshot(rows []tabular.Row, groupBy string) []tabular.Row {
	var distinct []string
	seen := make(map[string]bool)
	for _, row := range rows {
		key := fmt.Sprintf("%v", row[groupBy])
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, key)
		}
	}
	if len(distinct) < 2 {
		return rows
	}
	latest := distinct[len(distinct)-1]
	filtered := make([]tabular.Row, 0, len(rows))
	for _, row := range rows {
		if fmt.Sprintf("%v", row[groupBy]) == latest {
			filtered = append(filtered, row)
		}
	}
	g.warnf("Nokta grafiği tek bir kesiti gösterir: yalnızca %q (%s) kesiti kullanıldı", latest, groupBy)
	return filtered
}
