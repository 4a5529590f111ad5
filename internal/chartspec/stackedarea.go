package chartspec

import "github.com/datum-viz/datum/internal/tabular"

// stackOrderField keeps the visual stacking order equal to the value-column
// order chosen by the editor instead of the renderer's alphabetical default.
const stackOrderField = "stackOrder"

// stackedArea builds the cumulative time-series archetype. The stack always
// sits on a zero baseline; a cumulative chart floating off zero misstates
// the totals it exists to show.
func (g *generation) stackedArea() *Spec {
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

	idx := make(map[string]int, len(series))
	for i, name := range series {
		idx[name] = i
	}
	for _, v := range values {
		name, _ := v[fieldSeries].(string)
		v[stackOrderField] = idx[name]
	}
	s.Data = &Data{Values: values}

	timeCh := &Channel{
		Field: fieldTime,
		Type:  "temporal",
		Title: g.timeAxisTitle(),
	}
	valueCh := &Channel{
		Field:     fieldValue,
		Type:      "quantitative",
		Aggregate: "sum",
		Stack:     "zero",
		Title:     g.opts.valueAxisTitle(),
		Axis:      &Axis{Format: axisNumberFormat(g.opts.NumberFormat)},
		Scale:     &Scale{Zero: boolPtr(true)},
	}

	enc := &Encoding{
		Color: g.colorChannel(series),
		Order: &Channel{Field: stackOrderField, Type: "quantitative", Sort: "ascending"},
		Tooltip: []Channel{
			{Field: fieldTime, Type: "temporal", Title: "Tarih"},
			{Field: fieldSeries, Type: "nominal", Title: "Seri"},
			{Field: fieldValue, Type: "quantitative", Title: g.opts.valueAxisTitle(), Format: axisNumberFormat(g.opts.NumberFormat)},
		},
	}
	if g.opts.StackedAreaOrientation == OrientationHorizontal {
		enc.X, enc.Y = valueCh, timeCh
	} else {
		enc.X, enc.Y = timeCh, valueCh
	}

	s.Layer = append(s.Layer, Layer{
		Mark: &Mark{
			Type:        "area",
			Opacity:     0.7,
			Stroke:      "#ffffff",
			StrokeWidth: 1,
			Tooltip:     boolPtr(true),
		},
		Encoding: enc,
	})

	return g.finish(s)
}
