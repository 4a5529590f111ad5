package chartspec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/tabular"
)

func mustParse(t *testing.T, input string) *tabular.Table {
	t.Helper()
	table, err := tabular.Parse(input)
	require.NoError(t, err)
	return table
}

func TestGenerateLineEndToEnd(t *testing.T) {
	raw := "Yıl,Nüfus\n2020,100\n2021,120\n2022,135"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.Line,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}},
	})
	require.NoError(t, err)
	require.NotNil(t, spec)

	assert.Equal(t, SchemaURL, spec.Schema)
	assert.Equal(t, "container", spec.Width)
	assert.Equal(t, 400, spec.Height)
	assert.False(t, spec.IsInvalid)

	require.NotNil(t, spec.Data)
	require.Len(t, spec.Data.Values, 3)
	assert.Equal(t, "2020-01-01", spec.Data.Values[0][fieldTime])
	assert.Equal(t, 100.0, spec.Data.Values[0][fieldValue])
	assert.Equal(t, "2022-01-01", spec.Data.Values[2][fieldTime])

	// Line layer plus its point overlay.
	require.Len(t, spec.Layer, 2)
	enc := spec.Layer[0].Encoding
	require.NotNil(t, enc)
	assert.Equal(t, "temporal", enc.X.Type)
	assert.Equal(t, "Değer", enc.Y.Title)
	assert.Equal(t, "point", spec.Layer[1].Mark.Type)

	// Single series: flat tuples and one fixed color, no color encoding.
	assert.Nil(t, enc.Color)
	assert.NotEmpty(t, spec.Layer[0].Mark.Color)
	assert.Equal(t, spec.Layer[0].Mark.Color, spec.Layer[1].Mark.Color)
	for _, v := range spec.Data.Values {
		assert.NotContains(t, v, fieldSeries)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	raw := "Yıl\tİhracat\tİthalat\n2020\t10,5\t8,2\n2021\t12,1\t9,9"
	table := mustParse(t, raw)
	req := Request{
		Template: registry.Line,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"İhracat", "İthalat"}},
		Options:  EditorialOptions{Title: "Dış ticaret", LineEndLabels: true},
	}

	a, err := Generate(req)
	require.NoError(t, err)
	b, err := Generate(req)
	require.NoError(t, err)

	aj, err := a.JSON()
	require.NoError(t, err)
	bj, err := b.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(aj), string(bj))
}

func TestGenerateEditorStateRoundTrip(t *testing.T) {
	raw := "Yıl,Nüfus\n2020,100\n2021,120"
	table := mustParse(t, raw)
	opts := EditorialOptions{
		Title:        "Nüfus artışı",
		Subtitle:     "2020-2021",
		Unit:         "kişi",
		ColorMode:    ColorModeSingleColor,
		NumberFormat: NumberFormatDot,
		LabelSize:    LabelSizeLarge,
		ShowLegend:   boolPtr(false),
	}
	mapping := RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}}

	spec, err := Generate(Request{
		Template: registry.Line,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  mapping,
		Options:  opts,
	})
	require.NoError(t, err)

	encoded, err := spec.JSON()
	require.NoError(t, err)
	restored, err := ParseSpec(encoded)
	require.NoError(t, err)

	require.NotNil(t, restored.EditorState)
	assert.Equal(t, raw, restored.EditorState.RawDataInput)
	assert.Equal(t, mapping, restored.EditorState.ColumnMappings)
	assert.Equal(t, opts, restored.EditorState.EditorialSettings)
	assert.Equal(t, registry.Line, restored.TemplateID)
}

func TestGenerateRoleExclusion(t *testing.T) {
	raw := "Yıl,Nüfus\n2020,100\n2021,120"
	table := mustParse(t, raw)

	// The time column sneaks into the value list; it must be dropped.
	spec, err := Generate(Request{
		Template: registry.Line,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"Yıl", "Nüfus", "Nüfus"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Nüfus"}, spec.EditorState.ColumnMappings.Value)
	// The deduped single series renders as flat tuples.
	require.Len(t, spec.Data.Values, 2)
	for _, v := range spec.Data.Values {
		assert.NotContains(t, v, fieldSeries)
	}
}

func TestGenerateAlwaysRenderable(t *testing.T) {
	cases := []struct {
		name    string
		tmpl    registry.ID
		rows    []tabular.Row
		mapping RoleMapping
	}{
		{"no rows", registry.Line, nil, RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}}},
		{"no time column", registry.Line, []tabular.Row{{"A": 1.0}}, RoleMapping{Value: []string{"A"}}},
		{"no value columns", registry.CategoryBar, []tabular.Row{{"A": "x"}}, RoleMapping{Time: "A"}},
		{"all values dropped", registry.Line, []tabular.Row{{"Yıl": "2020", "Nüfus": "abc"}}, RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}}},
		{"unparsable times", registry.Line, []tabular.Row{{"Yıl": "???", "Nüfus": 5.0}}, RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}}},
		{"slope single column", registry.SlopeChart, []tabular.Row{{"Ülke": "TR", "2010": 1.0}}, RoleMapping{Time: "Ülke", Value: []string{"2010"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Generate(Request{Template: tc.tmpl, Rows: tc.rows, Mapping: tc.mapping})
			require.NoError(t, err)
			require.NotNil(t, spec)

			assert.True(t, spec.IsInvalid)
			assert.NotEmpty(t, spec.InvalidReason)
			assert.Equal(t, SchemaURL, spec.Schema)
			assert.Equal(t, "container", spec.Width)
			assert.Equal(t, 400, spec.Height)
			assert.Equal(t, tc.tmpl, spec.TemplateID)

			// The document must survive serialization too.
			_, err = spec.JSON()
			assert.NoError(t, err)
		})
	}
}

func TestGenerateRejectsUnknownAndComingSoon(t *testing.T) {
	_, err := Generate(Request{Template: "sparkline"})
	assert.ErrorIs(t, err, registry.ErrUnknownTemplate)

	_, err = Generate(Request{Template: registry.PieChart})
	assert.ErrorIs(t, err, registry.ErrNotImplemented)

	_, err = Generate(Request{Template: registry.Dumbbell})
	assert.ErrorIs(t, err, registry.ErrNotImplemented)
}

func TestGenerateTurkishDecimalParsing(t *testing.T) {
	raw := "Şehir\tSıcaklık\nAnkara\t8,8\nİzmir\t12,4"
	table := mustParse(t, raw)
	require.Equal(t, '\t', table.Delimiter)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Şehir", Value: []string{"Sıcaklık"}},
	})
	require.NoError(t, err)
	require.Len(t, spec.Data.Values, 2)
	assert.Equal(t, 8.8, spec.Data.Values[0][fieldValue])
	assert.Equal(t, 12.4, spec.Data.Values[1][fieldValue])
}

func TestGenerateStackedAreaZeroBaseline(t *testing.T) {
	raw := "Yıl,Kömür,Rüzgar\n2020,50,10\n2021,45,20"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.StackedArea,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"Kömür", "Rüzgar"}},
	})
	require.NoError(t, err)
	require.Len(t, spec.Layer, 1)

	enc := spec.Layer[0].Encoding
	require.NotNil(t, enc.Y.Scale)
	require.NotNil(t, enc.Y.Scale.Zero)
	assert.True(t, *enc.Y.Scale.Zero)
	assert.Equal(t, "zero", enc.Y.Stack)
	assert.Equal(t, "area", spec.Layer[0].Mark.Type)

	// Stacking order follows the mapped column order.
	require.NotNil(t, enc.Order)
	assert.Equal(t, stackOrderField, enc.Order.Field)
	assert.Equal(t, 0, spec.Data.Values[0][stackOrderField])
	assert.Equal(t, 1, spec.Data.Values[1][stackOrderField])
}

func TestGenerateSlopeAnchors(t *testing.T) {
	raw := "Ülke,2010,2015,2022\nTürkiye,10,13,15\nYunanistan,8,7,9"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.SlopeChart,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Ülke", Value: []string{"2010", "2015", "2022"}},
	})
	require.NoError(t, err)
	assert.False(t, spec.IsInvalid)

	// Only the first and last columns anchor the two x positions.
	periods := map[interface{}]bool{}
	for _, v := range spec.Data.Values {
		periods[v[fieldPeriod]] = true
	}
	assert.Equal(t, map[interface{}]bool{"2010": true, "2022": true}, periods)

	enc := spec.Layer[0].Encoding
	assert.Equal(t, []string{"2010", "2022"}, enc.X.Sort)
	assert.Equal(t, "2010 → 2022", enc.X.Title)
	assert.Equal(t, json.RawMessage("null"), enc.Color.Legend)

	// Skipping the middle column is surfaced, not silent.
	require.NotEmpty(t, spec.Warnings)
	assert.Contains(t, spec.Warnings[0], "2010")
	assert.Contains(t, spec.Warnings[0], "2022")
}

func TestGenerateSlopeLabelPlacement(t *testing.T) {
	raw := "Ülke,2010,2022\nTürkiye,10,15"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.SlopeChart,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Ülke", Value: []string{"2010", "2022"}},
		Options:  EditorialOptions{SlopeChartShowValueLabels: true},
	})
	require.NoError(t, err)

	// line + points + left labels + right labels
	require.Len(t, spec.Layer, 4)
	left, right := spec.Layer[2], spec.Layer[3]
	assert.Equal(t, "right", left.Mark.Align)
	assert.Negative(t, left.Mark.DX)
	assert.Equal(t, "left", right.Mark.Align)
	assert.Positive(t, right.Mark.DX)
	assert.Equal(t, "Türkiye 10", left.Data.Values[0]["label"])
	assert.Equal(t, "Türkiye 15", right.Data.Values[0]["label"])
}

func TestGenerateSlopeOrientation(t *testing.T) {
	raw := "Ülke,2010,2022\nTürkiye,10,15"
	table := mustParse(t, raw)
	base := Request{
		Template: registry.SlopeChart,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Ülke", Value: []string{"2010", "2022"}},
	}

	horizontal, err := Generate(base)
	require.NoError(t, err)
	assert.Equal(t, fieldPeriod, horizontal.Layer[0].Encoding.X.Field)
	assert.Equal(t, fieldValue, horizontal.Layer[0].Encoding.Y.Field)

	base.Options = EditorialOptions{SlopeChartOrientation: OrientationVertical}
	vertical, err := Generate(base)
	require.NoError(t, err)
	assert.Equal(t, fieldValue, vertical.Layer[0].Encoding.X.Field)
	assert.Equal(t, fieldPeriod, vertical.Layer[0].Encoding.Y.Field)

	// Labels move off the band vertically instead of sideways.
	require.Len(t, vertical.Layer, 4)
	assert.Negative(t, vertical.Layer[2].Mark.DY)
	assert.Equal(t, "bottom", vertical.Layer[2].Mark.Baseline)
	assert.Positive(t, vertical.Layer[3].Mark.DY)
	assert.Equal(t, "top", vertical.Layer[3].Mark.Baseline)
}

func TestGenerateHistogramFirstColumnOnly(t *testing.T) {
	raw := "Puan,Yaş\n55,20\n72,30\n90,40"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.Histogram,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Value: []string{"Puan", "Yaş"}},
	})
	require.NoError(t, err)
	assert.False(t, spec.IsInvalid)

	require.Len(t, spec.Data.Values, 3)
	assert.Equal(t, 55.0, spec.Data.Values[0][fieldValue])

	// True histogram: bars touch.
	require.NotNil(t, spec.Layer[0].Mark.BinSpacing)
	assert.Equal(t, 0, *spec.Layer[0].Mark.BinSpacing)

	enc := spec.Layer[0].Encoding
	require.NotNil(t, enc.X.Bin)
	assert.Equal(t, DefaultHistogramBins, enc.X.Bin.Maxbins)
	assert.Equal(t, "Puan", enc.X.Title)
	assert.Equal(t, "count", enc.Y.Aggregate)
	assert.Equal(t, "Frekans", enc.Y.Title)
	require.NotNil(t, enc.Y.Scale.Zero)
	assert.True(t, *enc.Y.Scale.Zero)

	require.NotEmpty(t, spec.Warnings)
	assert.Contains(t, spec.Warnings[0], "Puan")
}

func TestGenerateHistogramEmptyKeepsStructure(t *testing.T) {
	spec, err := Generate(Request{
		Template: registry.Histogram,
		Mapping:  RoleMapping{Value: []string{"Puan"}},
	})
	require.NoError(t, err)

	assert.True(t, spec.IsInvalid)
	assert.NotEmpty(t, spec.InvalidReason)
	require.NotNil(t, spec.Data)
	assert.Empty(t, spec.Data.Values)

	// Degenerate form keeps the binned encoding, not a bare text mark.
	require.Len(t, spec.Layer, 1)
	require.NotNil(t, spec.Layer[0].Encoding.X.Bin)
	assert.Equal(t, "count", spec.Layer[0].Encoding.Y.Aggregate)
}

func TestGenerateHistogramBinClamp(t *testing.T) {
	raw := "Puan\n10\n20\n30"
	table := mustParse(t, raw)

	for hint, want := range map[int]int{1: MinHistogramBins, 500: MaxHistogramBins, 20: 20} {
		spec, err := Generate(Request{
			Template: registry.Histogram,
			Rows:     table.Rows,
			Mapping:  RoleMapping{Value: []string{"Puan"}},
			Options:  EditorialOptions{HistogramBinCount: hint},
		})
		require.NoError(t, err)
		assert.Equal(t, want, spec.Layer[0].Encoding.X.Bin.Maxbins)
	}
}

func TestGenerateDotPlotSnapshotFilter(t *testing.T) {
	raw := "İl,Oran,Dönem\nAnkara,40,2020\nİzmir,42,2020\nAnkara,45,2023\nİzmir,47,2023"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.DotPlot,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Oran"}, GroupBy: "Dönem"},
	})
	require.NoError(t, err)

	require.Len(t, spec.Data.Values, 2)
	assert.Equal(t, 45.0, spec.Data.Values[0][fieldValue])
	assert.Equal(t, 47.0, spec.Data.Values[1][fieldValue])

	require.NotEmpty(t, spec.Warnings)
	assert.Contains(t, spec.Warnings[0], "2023")
}

func TestGenerateDotPlotOrientation(t *testing.T) {
	raw := "İl,Oran\nAnkara,40\nİzmir,42"
	table := mustParse(t, raw)
	base := Request{
		Template: registry.DotPlot,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Oran"}},
	}

	horizontal, err := Generate(base)
	require.NoError(t, err)
	assert.Equal(t, fieldValue, horizontal.Layer[0].Encoding.X.Field)
	assert.Equal(t, fieldCategory, horizontal.Layer[0].Encoding.Y.Field)

	base.Options = EditorialOptions{DotPlotOrientation: OrientationVertical}
	vertical, err := Generate(base)
	require.NoError(t, err)
	assert.Equal(t, fieldCategory, vertical.Layer[0].Encoding.X.Field)
	assert.Equal(t, fieldValue, vertical.Layer[0].Encoding.Y.Field)
}

func TestGenerateBarLabels(t *testing.T) {
	raw := "İl,Nüfus\nAnkara,95\nİzmir,40\nBursa,100"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		RawData:  raw,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Nüfus"}},
		Options:  EditorialOptions{BarLabelSource: BarLabelSourceValue},
	})
	require.NoError(t, err)

	// bar layer + outside labels + inside labels
	require.Len(t, spec.Layer, 3)
	outside, inside := spec.Layer[1], spec.Layer[2]

	// Bars near the ceiling (95, 100 of max 100) label inside; 40 outside.
	require.Len(t, outside.Data.Values, 1)
	assert.Equal(t, "40", outside.Data.Values[0]["label"])
	require.Len(t, inside.Data.Values, 2)
	assert.Equal(t, "#ffffff", inside.Mark.Color)
	assert.Negative(t, outside.Mark.DY)
	assert.Positive(t, inside.Mark.DY)
}

func TestGenerateBarDensityAdaptation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Kategori,Değer\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("k")
		sb.WriteByte(byte('a' + i%26))
		sb.WriteString(strings.Repeat("x", i/26))
		sb.WriteString(",50\n")
	}
	table := mustParse(t, sb.String())
	require.Len(t, table.Rows, 40)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Kategori", Value: []string{"Değer"}},
		Options:  EditorialOptions{BarLabelSource: BarLabelSourceValue},
	})
	require.NoError(t, err)

	// Crowded category axis rotates its labels.
	require.NotNil(t, spec.Layer[0].Encoding.X.Axis.LabelAngle)
	assert.Equal(t, -45, *spec.Layer[0].Encoding.X.Axis.LabelAngle)

	// 40 bars: label font drops 3 below the base size.
	require.Greater(t, len(spec.Layer), 1)
	assert.Equal(t, 9, spec.Layer[1].Mark.FontSize)
}

func TestGenerateBarGroupedMultiSeries(t *testing.T) {
	raw := "İl,Erkek,Kadın\nAnkara,50,52\nİzmir,60,43"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Erkek", "Kadın"}},
	})
	require.NoError(t, err)

	enc := spec.Layer[0].Encoding
	require.NotNil(t, enc.XOffset)
	assert.Equal(t, fieldSeries, enc.XOffset.Field)
	assert.Equal(t, []string{"Erkek", "Kadın"}, enc.Color.Sort)
	assert.Nil(t, enc.Color.Legend)

	// The last series (Kadın) decides category order, not the first.
	assert.Equal(t, []string{"Ankara", "İzmir"}, enc.X.Sort)
}

func TestGenerateBarCategoryOrdering(t *testing.T) {
	raw := "İl,Nüfus\nAnkara,95\nİzmir,40\nBursa,100"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Nüfus"}},
	})
	require.NoError(t, err)

	// Categories descend by value; the data itself keeps row order.
	assert.Equal(t, []string{"Bursa", "Ankara", "İzmir"}, spec.Layer[0].Encoding.X.Sort)
	assert.Equal(t, "Ankara", spec.Data.Values[0][fieldCategory])
}

func TestGenerateBarGroupColumn(t *testing.T) {
	raw := "İl,Oran,Yıl\nAnkara,40,2020\nİzmir,42,2020\nAnkara,45,2023\nİzmir,47,2023"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Oran"}, GroupBy: "Yıl"},
	})
	require.NoError(t, err)

	// Group values become the series: sub-bars per year within each city.
	require.Len(t, spec.Data.Values, 4)
	assert.Equal(t, "2020", spec.Data.Values[0][fieldSeries])
	assert.Equal(t, 40.0, spec.Data.Values[0][fieldValue])

	enc := spec.Layer[0].Encoding
	require.NotNil(t, enc.XOffset)
	assert.Equal(t, []string{"2020", "2023"}, enc.Color.Sort)

	// Ordered by the latest group: İzmir 47 beats Ankara 45.
	assert.Equal(t, []string{"İzmir", "Ankara"}, enc.X.Sort)
}

func TestGenerateBarGroupColumnExtraValuesWarning(t *testing.T) {
	raw := "İl,Oran,Sayı,Yıl\nAnkara,40,1,2020\nİzmir,42,2,2020\nBursa,44,3,2020"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.CategoryBar,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "İl", Value: []string{"Oran", "Sayı"}, GroupBy: "Yıl"},
	})
	require.NoError(t, err)

	for _, v := range spec.Data.Values {
		assert.Equal(t, "2020", v[fieldSeries])
	}
	require.NotEmpty(t, spec.Warnings)
	assert.Contains(t, spec.Warnings[0], "Oran")
}

func TestGenerateLineEndLabels(t *testing.T) {
	raw := "Yıl,İhracat,İthalat\n2020,10,8\n2021,12,9"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.Line,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"İhracat", "İthalat"}},
		Options:  EditorialOptions{LineEndLabels: true},
	})
	require.NoError(t, err)

	// line + points + end labels
	require.Len(t, spec.Layer, 3)
	labels := spec.Layer[2]
	assert.Equal(t, "text", labels.Mark.Type)
	require.Len(t, labels.Data.Values, 2)
	assert.Equal(t, "İhracat", labels.Data.Values[0][fieldSeries])
	assert.Equal(t, "2021-01-01", labels.Data.Values[0][fieldTime])
}

func TestGenerateLineSingleSeriesEndLabel(t *testing.T) {
	raw := "Yıl,Nüfus\n2020,100\n2021,120"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.Line,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}},
		Options:  EditorialOptions{LineEndLabels: true},
	})
	require.NoError(t, err)

	require.Len(t, spec.Layer, 3)
	labels := spec.Layer[2]
	require.Len(t, labels.Data.Values, 1)
	assert.Equal(t, "2021-01-01", labels.Data.Values[0][fieldTime])
	// Flat tuples carry no series field; the label text is the column name.
	assert.Equal(t, "Nüfus", labels.Encoding.Text.Value)
}

func TestGenerateSkipsUnparsableTimesWithWarning(t *testing.T) {
	raw := "Yıl,Nüfus\n2020,100\nbelirsiz,110\n2022,120"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.Line,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}},
	})
	require.NoError(t, err)

	assert.False(t, spec.IsInvalid)
	assert.Len(t, spec.Data.Values, 2)
	require.Len(t, spec.Warnings, 1)
	assert.Contains(t, spec.Warnings[0], "belirsiz")
}

func TestGenerateLegendToggle(t *testing.T) {
	raw := "Yıl,A,B\n2020,1,2\n2021,3,4"
	table := mustParse(t, raw)
	base := Request{
		Template: registry.Line,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"A", "B"}},
	}

	on, err := Generate(base)
	require.NoError(t, err)
	assert.Nil(t, on.Layer[0].Encoding.Color.Legend)

	base.Options = EditorialOptions{ShowLegend: boolPtr(false)}
	off, err := Generate(base)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), off.Layer[0].Encoding.Color.Legend)
}

func TestGeneratePaletteSelection(t *testing.T) {
	raw := "Yıl,A,B,C\n2020,1,2,3"
	table := mustParse(t, raw)

	spec, err := Generate(Request{
		Template: registry.Line,
		Rows:     table.Rows,
		Mapping:  RoleMapping{Time: "Yıl", Value: []string{"A", "B", "C"}},
		Options:  EditorialOptions{ColorMode: ColorModeMonochrome},
	})
	require.NoError(t, err)

	scale := spec.Layer[0].Encoding.Color.Scale
	require.NotNil(t, scale)
	assert.Equal(t, []interface{}{"A", "B", "C"}, scale.Domain)
	assert.Equal(t, paletteMonochrome[:3], scale.Range)
}
