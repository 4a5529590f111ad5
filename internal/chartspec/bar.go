package chartspec

import (
	"fmt"
	"sort"

	"github.com/datum-viz/datum/internal/tabular"
)

// Density thresholds for bar label typography. Sizes shrink as bars multiply
// so labels stay legible instead of colliding.
const (
	barCountMedium   = 16
	barCountDense    = 32
	barMinFontSize   = 8
	barRotateAtCount = 8
	// A bar taller than this share of the tallest bar gets its label drawn
	// inside the bar; an outside label would clip at the chart top.
	barInsideRatio = 0.85
)

// bar builds the category comparison archetype: vertical bars per category,
// grouped side by side when several value columns are mapped or when a group
// column splits a single value column into sub-bars.
func (g *generation) bar() *Spec {
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

	var values []map[string]interface{}
	var maxVal float64
	if g.mapping.GroupBy != "" {
		values, maxVal = g.barGroupedValues()
	} else {
		tuples := tabular.ToLongFormat(g.rows, g.mapping.Time, g.mapping.Value)
		values = make([]map[string]interface{}, 0, len(tuples))
		for _, t := range tuples {
			values = append(values, map[string]interface{}{
				fieldCategory: fmt.Sprintf("%v", t.Time),
				fieldSeries:   t.Series,
				fieldValue:    t.Value,
			})
			if t.Value > maxVal {
				maxVal = t.Value
			}
		}
	}
	if len(values) == 0 {
		return placeholder(g.tmpl.ID, g.state, g.opts, msgNoRows)
	}

	categories := seriesOrder(values, fieldCategory)
	series := seriesOrder(values, fieldSeries)
	sortBarCategories(values, categories, series)
	multiSeries := len(series) > 1

	s.Data = &Data{Values: values}

	angle := 0
	if len(categories) > barRotateAtCount {
		angle = -45
	}
	xCh := &Channel{
		Field: fieldCategory,
		Type:  "nominal",
		Title: g.categoryAxisTitle(),
		Sort:  categories,
		Axis:  &Axis{LabelAngle: intPtr(angle)},
	}
	yCh := &Channel{
		Field: fieldValue,
		Type:  "quantitative",
		Title: g.opts.valueAxisTitle(),
		Axis:  &Axis{Format: axisNumberFormat(g.opts.NumberFormat)},
		Scale: &Scale{Zero: boolPtr(true)},
	}

	barEnc := &Encoding{
		X:     xCh,
		Y:     yCh,
		Color: g.colorChannel(series),
		Tooltip: []Channel{
			{Field: fieldCategory, Type: "nominal", Title: "Kategori"},
			{Field: fieldSeries, Type: "nominal", Title: "Seri"},
			{Field: fieldValue, Type: "quantitative", Title: g.opts.valueAxisTitle(), Format: axisNumberFormat(g.opts.NumberFormat)},
		},
	}
	if multiSeries {
		barEnc.XOffset = &Channel{Field: fieldSeries, Type: "nominal", Sort: series}
	}

	s.Layer = append(s.Layer, Layer{
		Mark:     &Mark{Type: "bar", Tooltip: boolPtr(true)},
		Encoding: barEnc,
	})

	if g.barLabelsEnabled() {
		s.Layer = append(s.Layer, g.barLabelLayers(values, series, categories, maxVal, multiSeries)...)
	}

	return g.finish(s)
}

// barGroupedValues reshapes the rows when a group column drives the series:
// each row contributes one bar keyed by its category and group cells, with
// the value read from the first value column.
func (g *generation) barGroupedValues() ([]map[string]interface{}, float64) {
	column := g.mapping.Value[0]
	if len(g.mapping.Value) > 1 {
		g.warnf("Grup sütunu seçiliyken yalnızca ilk değer sütunu (%q) kullanıldı", column)
	}

	var values []map[string]interface{}
	maxVal := 0.0
	for _, row := range g.rows {
		cat := row[g.mapping.Time]
		grp := row[g.mapping.GroupBy]
		if cat == nil || cat == "" || grp == nil || grp == "" {
			continue
		}
		v, ok := tabular.CoerceNumber(row[column])
		if !ok {
			continue
		}
		values = append(values, map[string]interface{}{
			fieldCategory: fmt.Sprintf("%v", cat),
			fieldSeries:   fmt.Sprintf("%v", grp),
			fieldValue:    v,
		})
		if v > maxVal {
			maxVal = v
		}
	}
	return values, maxVal
}

// sortBarCategories orders the category axis descending by each category's
// value at the last series, so the chart reads largest first. Ties and
// categories missing that series keep their appearance order.
func sortBarCategories(values []map[string]interface{}, categories, series []string) {
	if len(series) == 0 {
		return
	}
	last := series[len(series)-1]
	at := make(map[string]float64, len(categories))
	has := make(map[string]bool, len(categories))
	for _, v := range values {
		cat, _ := v[fieldCategory].(string)
		if name, _ := v[fieldSeries].(string); name != last || has[cat] {
			continue
		}
		val, _ := v[fieldValue].(float64)
		at[cat] = val
		has[cat] = true
	}
	sort.SliceStable(categories, func(i, j int) bool {
		ci, cj := categories[i], categories[j]
		if has[ci] != has[cj] {
			return has[ci]
		}
		return at[ci] > at[cj]
	})
}

func (g *generation) categoryAxisTitle() interface{} {
	if g.opts.XAxisLabel != "" {
		return g.opts.XAxisLabel
	}
	return nil
}

func (g *generation) barLabelsEnabled() bool {
	if g.opts.BarLabelPlacement == BarLabelPlacementOff {
		return false
	}
	return g.opts.BarLabelSource != "" && g.opts.BarLabelSource != BarLabelSourceNone
}

// barLabelText renders one bar's label according to the configured source.
func (g *generation) barLabelText(category, series string, value float64) string {
	num := FormatNumber(value, g.opts.NumberFormat)
	switch g.opts.BarLabelSource {
	case BarLabelSourceSeries:
		return series
	case BarLabelSourceCategory:
		return category
	case BarLabelSourceValueSeries:
		return fmt.Sprintf("%s %s", series, num)
	default:
		return num
	}
}

// barLabelLayers splits labels into an outside set (above the bar) and an
// inside set (just below the bar top, in white) depending on how close each
// bar comes to the chart ceiling. Font size adapts to bar density.
func (g *generation) barLabelLayers(values []map[string]interface{}, series, categories []string, maxVal float64, multiSeries bool) []Layer {
	fontSize := g.opts.labelFontSize()
	switch {
	case len(values) > barCountDense:
		fontSize -= 3
	case len(values) > barCountMedium:
		fontSize -= 2
	}
	if fontSize < barMinFontSize {
		fontSize = barMinFontSize
	}

	var outside, inside []map[string]interface{}
	for _, v := range values {
		category, _ := v[fieldCategory].(string)
		name, _ := v[fieldSeries].(string)
		num, _ := v[fieldValue].(float64)
		d := map[string]interface{}{
			fieldCategory: category,
			fieldSeries:   name,
			fieldValue:    num,
			"label":       g.barLabelText(category, name, num),
		}
		if maxVal > 0 && num/maxVal > barInsideRatio {
			inside = append(inside, d)
		} else {
			outside = append(outside, d)
		}
	}

	layer := func(data []map[string]interface{}, dy int, color string) Layer {
		enc := &Encoding{
			X:    &Channel{Field: fieldCategory, Type: "nominal", Sort: categories},
			Y:    &Channel{Field: fieldValue, Type: "quantitative"},
			Text: &Channel{Field: "label", Type: "nominal"},
		}
		if multiSeries {
			enc.XOffset = &Channel{Field: fieldSeries, Type: "nominal", Sort: series}
		}
		return Layer{
			Data:     &Data{Values: data},
			Mark:     &Mark{Type: "text", Baseline: "bottom", DY: dy, FontSize: fontSize, Color: color},
			Encoding: enc,
		}
	}

	var layers []Layer
	if len(outside) > 0 {
		layers = append(layers, layer(outside, -4, "#374151"))
	}
	if len(inside) > 0 {
		layers = append(layers, layer(inside, 14, "#ffffff"))
	}
	return layers
}
