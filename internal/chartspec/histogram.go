package chartspec

import "github.com/datum-viz/datum/internal/tabular"

// histogram builds the distribution archetype over exactly one numeric
// column. It is the one archetype with no time or category role.
func (g *generation) histogram() *Spec {
	if len(g.mapping.Value) == 0 {
		return g.emptyHistogram("", msgNoValueColumn)
	}
	column := g.mapping.Value[0]
	if len(g.mapping.Value) > 1 {
		g.warnf("Histogram tek bir sütunun dağılımını gösterir: yalnızca %q kullanıldı", column)
	}

	values := make([]map[string]interface{}, 0, len(g.rows))
	for _, row := range g.rows {
		cell, ok := row[column]
		if !ok || cell == nil || cell == "" {
			continue
		}
		if v, ok := tabular.CoerceNumber(cell); ok {
			values = append(values, map[string]interface{}{fieldValue: v})
		}
	}
	if len(values) == 0 {
		return g.emptyHistogram(column, msgNoRows)
	}

	s := g.histogramSkeleton(column)
	s.Data = &Data{Values: values}
	return g.finish(s)
}

// emptyHistogram is the archetype's degenerate form. Unlike the generic text
// placeholder it keeps the full histogram structure (binned x, counted y)
// with an empty dataset, so the editor preview shows the chart frame the
// editor is configuring rather than a bare message.
func (g *generation) emptyHistogram(column, reason string) *Spec {
	s := g.histogramSkeleton(column)
	s.Data = &Data{Values: []map[string]interface{}{}}
	s.IsInvalid = true
	s.InvalidReason = reason
	return g.finish(s)
}

func (g *generation) histogramSkeleton(column string) *Spec {
	s := newSpec(g.tmpl.ID, g.state, g.opts)

	xTitle := g.opts.XAxisLabel
	if xTitle == "" {
		xTitle = column
	}
	yTitle := g.opts.YAxisLabel
	if yTitle == "" {
		yTitle = "Frekans"
	}

	s.Layer = append(s.Layer, Layer{
		Mark: &Mark{Type: "bar", BinSpacing: intPtr(0), Tooltip: boolPtr(true)},
		Encoding: &Encoding{
			X: &Channel{
				Field: fieldValue,
				Type:  "quantitative",
				Bin:   &Bin{Maxbins: g.opts.histogramBins()},
				Title: xTitle,
				Axis:  &Axis{Format: axisNumberFormat(g.opts.NumberFormat)},
			},
			Y: &Channel{
				Aggregate: "count",
				Type:      "quantitative",
				Title:     yTitle,
				Scale:     &Scale{Zero: boolPtr(true)},
			},
			Color: &Channel{Value: primaryColor(g.opts.ColorMode)},
		},
	})
	return s
}
