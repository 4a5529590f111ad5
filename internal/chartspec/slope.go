package chartspec

import (
	"fmt"

	"github.com/datum-viz/datum/internal/tabular"
)

const fieldPeriod = "period"

// slope builds the two-point comparison archetype. The x axis has exactly two
// ordinal positions, anchored to the FIRST and LAST value columns in mapping
// order; intermediate value columns are ignored by design, so editors can
// reuse a wide table without trimming it.
func (g *generation) slope() *Spec {
	s := newSpec(g.tmpl.ID, g.state, g.opts)

	if len(g.rows) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}
	if g.mapping.Time == "" {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoCategory)
	}
	if len(g.mapping.Value) < 2 {
		return placeholder(g.tmpl.ID, g.state, g.opts, "Eğim grafiği için en az iki değer sütunu gerekli.")
	}

	first := g.mapping.Value[0]
	last := g.mapping.Value[len(g.mapping.Value)-1]
	if len(g.mapping.Value) > 2 {
		g.warnf("Eğim grafiği yalnızca ilk (%q) ve son (%q) değer sütunlarını kullanır", first, last)
	}

	var values []map[string]interface{}
	var entities []string
	seenEntity := make(map[string]bool)
	skipped := 0
	for _, row := range g.rows {
		entity := fmt.Sprintf("%v", row[g.mapping.Time])
		a, okA := tabular.CoerceNumber(row[first])
		b, okB := tabular.CoerceNumber(row[last])
		if entity == "" || entity == "<nil>" || !okA || !okB {
			skipped++
			continue
		}
		if !seenEntity[entity] {
			seenEntity[entity] = true
			entities = append(entities, entity)
		}
		values = append(values,
			map[string]interface{}{fieldCategory: entity, fieldPeriod: first, fieldValue: a},
			map[string]interface{}{fieldCategory: entity, fieldPeriod: last, fieldValue: b},
		)
	}
	if skipped > 0 {
		g.warnf("%d satır atlandı: iki uç değerden biri eksik veya sayısal değil", skipped)
	}
	if len(values) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}

	s.Data = &Data{Values: values}

	xTitle := g.opts.XAxisLabel
	if xTitle == "" {
		xTitle = fmt.Sprintf("%s → %s", first, last)
	}
	xCh := &Channel{
		Field: fieldPeriod,
		Type:  "ordinal",
		Title: xTitle,
		Sort:  []string{first, last},
		Scale: &Scale{Padding: 0.5},
		Axis:  &Axis{LabelAngle: intPtr(0), Grid: boolPtr(false)},
	}
	yCh := &Channel{
		Field: fieldValue,
		Type:  "quantitative",
		Title: g.opts.valueAxisTitle(),
		Axis:  &Axis{Format: axisNumberFormat(g.opts.NumberFormat)},
	}

	colorCh := &Channel{
		Field:  fieldCategory,
		Type:   "nominal",
		Sort:   entities,
		Scale:  &Scale{Domain: toInterfaceSlice(entities), Range: palette(g.opts.ColorMode, len(entities))},
		Legend: legendNull,
	}

	vertical := g.opts.SlopeChartOrientation == OrientationVertical
	lineEnc := &Encoding{X: xCh, Y: yCh, Color: colorCh, Detail: &Channel{Field: fieldCategory, Type: "nominal"}}
	pointEnc := &Encoding{X: xCh, Y: yCh, Color: colorCh}
	if vertical {
		lineEnc.X, lineEnc.Y = yCh, xCh
		pointEnc.X, pointEnc.Y = yCh, xCh
	}

	s.Layer = append(s.Layer,
		Layer{
			Mark:     &Mark{Type: "line", StrokeWidth: 2, Tooltip: boolPtr(true)},
			Encoding: lineEnc,
		},
		Layer{
			Mark:     &Mark{Type: "point", Filled: boolPtr(true), Size: 70},
			Encoding: pointEnc,
		},
	)

	s.Layer = append(s.Layer, g.slopeLabelLayers(values, first, last, colorCh, vertical)...)

	return g.finish(s)
}

// slopeLabelLayers places entity labels outside the plotting band: names of
// the first period hang to the left, names of the last period to the right,
// so labels never cross the slopes themselves. In the vertical orientation
// the periods stack top to bottom and the labels move above and below.
func (g *generation) slopeLabelLayers(values []map[string]interface{}, first, last string, colorCh *Channel, vertical bool) []Layer {
	var left, right []map[string]interface{}
	for _, v := range values {
		d := map[string]interface{}{
			fieldCategory: v[fieldCategory],
			fieldPeriod:   v[fieldPeriod],
			fieldValue:    v[fieldValue],
		}
		label, _ := v[fieldCategory].(string)
		if g.opts.SlopeChartShowValueLabels {
			if num, ok := v[fieldValue].(float64); ok {
				label = fmt.Sprintf("%s %s", label, FormatNumber(num, g.opts.NumberFormat))
			}
		}
		d["label"] = label
		if v[fieldPeriod] == first {
			left = append(left, d)
		} else {
			right = append(right, d)
		}
	}

	size := g.opts.labelFontSize()
	textEnc := func(data []map[string]interface{}, mark *Mark) Layer {
		periodCh := &Channel{Field: fieldPeriod, Type: "ordinal", Sort: []string{first, last}}
		valueCh := &Channel{Field: fieldValue, Type: "quantitative"}
		enc := &Encoding{
			X:     periodCh,
			Y:     valueCh,
			Color: colorCh,
			Text:  &Channel{Field: "label", Type: "nominal"},
		}
		if vertical {
			enc.X, enc.Y = valueCh, periodCh
		}
		return Layer{Data: &Data{Values: data}, Mark: mark, Encoding: enc}
	}
	if vertical {
		return []Layer{
			textEnc(left, &Mark{Type: "text", Align: "center", Baseline: "bottom", DY: -10, FontSize: size}),
			textEnc(right, &Mark{Type: "text", Align: "center", Baseline: "top", DY: 10, FontSize: size}),
		}
	}
	return []Layer{
		textEnc(left, &Mark{Type: "text", Align: "right", Baseline: "middle", DX: -10, FontSize: size}),
		textEnc(right, &Mark{Type: "text", Align: "left", Baseline: "middle", DX: 10, FontSize: size}),
	}
}
