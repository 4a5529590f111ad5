package chartspec

import "github.com/datum-viz/datum/internal/tabular"

// line builds the time-series archetype: a line layer plus a point overlay
// over a shared temporal axis. A single value column keeps the data as flat
// tuples with one fixed color; several columns reshape to long format with a
// nominal color encoding.
func (g *generation) line() *Spec {
	s := newSpec(g.tmpl.ID, g.state, g.opts)

	if len(g.rows) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}
	if g.mapping.Time == "" {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoTimeColumn)
	}
	if len(g.mapping.Value) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoValueColumn)
	}

	tuples := tabular.ToLongFormat(g.rows, g.mapping.Time, g.mapping.Value)
	values := g.temporalTuples(tuples)
	if len(values) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}
	series := seriesOrder(values, fieldSeries)
	single := len(series) == 1

	if single {
		for _, v := range values {
			delete(v, fieldSeries)
		}
	}

	s.Data = &Data{Values: values}

	xCh := &Channel{
		Field: fieldTime,
		Type:  "temporal",
		Title: g.timeAxisTitle(),
	}
	yCh := &Channel{
		Field: fieldValue,
		Type:  "quantitative",
		Title: g.opts.valueAxisTitle(),
		Axis:  &Axis{Format: axisNumberFormat(g.opts.NumberFormat)},
	}

	lineMark := &Mark{Type: "line", StrokeWidth: 2.5, Tooltip: boolPtr(true)}
	pointMark := &Mark{Type: "point", Filled: boolPtr(true), Size: 45, Tooltip: boolPtr(true)}

	var colorCh *Channel
	tooltip := []Channel{
		{Field: fieldTime, Type: "temporal", Title: "Tarih"},
		{Field: fieldValue, Type: "quantitative", Title: g.opts.valueAxisTitle(), Format: axisNumberFormat(g.opts.NumberFormat)},
	}
	if single {
		lineMark.Color = primaryColor(g.opts.ColorMode)
		pointMark.Color = lineMark.Color
	} else {
		colorCh = g.colorChannel(series)
		tooltip = []Channel{
			{Field: fieldTime, Type: "temporal", Title: "Tarih"},
			{Field: fieldSeries, Type: "nominal", Title: "Seri"},
			{Field: fieldValue, Type: "quantitative", Title: g.opts.valueAxisTitle(), Format: axisNumberFormat(g.opts.NumberFormat)},
		}
	}

	s.Layer = append(s.Layer,
		Layer{Mark: lineMark, Encoding: &Encoding{X: xCh, Y: yCh, Color: colorCh, Tooltip: tooltip}},
		Layer{Mark: pointMark, Encoding: &Encoding{X: xCh, Y: yCh, Color: colorCh}},
	)

	if g.opts.LineEndLabels && len(series) <= lineEndLabelMaxSeries {
		mark := &Mark{
			Type:       "text",
			Align:      "left",
			Baseline:   "middle",
			DX:         8,
			FontSize:   g.opts.labelFontSize(),
			FontWeight: "bold",
		}
		enc := &Encoding{
			X: &Channel{Field: fieldTime, Type: "temporal"},
			Y: &Channel{Field: fieldValue, Type: "quantitative"},
		}
		var labels []map[string]interface{}
		if single {
			labels = values[len(values)-1:]
			enc.Text = &Channel{Value: series[0]}
			mark.Color = lineMark.Color
		} else {
			labels = lineEndLabelData(values, series)
			enc.Text = &Channel{Field: fieldSeries, Type: "nominal"}
			enc.Color = g.colorChannel(series)
		}
		if len(labels) > 0 {
			s.Layer = append(s.Layer, Layer{Data: &Data{Values: labels}, Mark: mark, Encoding: enc})
		}
	}

	return g.finish(s)
}

// lineEndLabelData picks the last datum of each series, in series order, as
// anchors for end-of-line labels.
func lineEndLabelData(values []map[string]interface{}, series []string) []map[string]interface{} {
	last := make(map[string]map[string]interface{}, len(series))
	for _, v := range values {
		name, _ := v[fieldSeries].(string)
		last[name] = v
	}
	out := make([]map[string]interface{}, 0, len(series))
	for _, name := range series {
		if v, ok := last[name]; ok {
			out = append(out, v)
		}
	}
	return out
}
