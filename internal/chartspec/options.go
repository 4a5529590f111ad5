package chartspec

import (
	"strconv"
	"strings"
)

// ColorMode selects one of the fixed ordered palettes.
type ColorMode string

const (
	ColorModeMonochrome  ColorMode = "monochrome"
	ColorModeSingleColor ColorMode = "single-color"
	ColorModeMultiColor  ColorMode = "multi-color"
)

// NumberFormat is the display grouping convention. It controls rendering
// only; decimal parsing of input is delimiter-driven in the tabular package.
type NumberFormat string

const (
	NumberFormatComma NumberFormat = "comma" // 1,234.5
	NumberFormatDot   NumberFormat = "dot"   // 1.234,5
)

// LabelSize selects the base label font size.
type LabelSize string

const (
	LabelSizeSmall  LabelSize = "small"  // 10px
	LabelSizeMedium LabelSize = "medium" // 12px
	LabelSizeLarge  LabelSize = "large"  // 14px
)

// LogoSize sizes the optional Datum logo watermark.
type LogoSize string

const (
	LogoSizeSmall  LogoSize = "small"
	LogoSizeMedium LogoSize = "medium"
	LogoSizeLarge  LogoSize = "large"
)

// BarLabelPlacement controls bar label rendering.
type BarLabelPlacement string

const (
	BarLabelPlacementOff  BarLabelPlacement = "off"
	BarLabelPlacementAuto BarLabelPlacement = "auto"
)

// BarLabelSource selects what a bar label shows.
type BarLabelSource string

const (
	BarLabelSourceNone        BarLabelSource = "none"
	BarLabelSourceValue       BarLabelSource = "value"
	BarLabelSourceSeries      BarLabelSource = "series"
	BarLabelSourceCategory    BarLabelSource = "category"
	BarLabelSourceValueSeries BarLabelSource = "value+series"
)

// Orientation flips the value axis of archetypes that support it.
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

// EditorialOptions are the presentation knobs exposed to editors. All fields
// are optional; zero values fall back to the documented defaults. The struct
// round-trips through the embedded editor state, so json tags match the
// persisted shape.
type EditorialOptions struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`

	XAxisLabel string `json:"xAxisLabel,omitempty"`
	YAxisLabel string `json:"yAxisLabel,omitempty"`
	Unit       string `json:"unit,omitempty"`

	NumberFormat NumberFormat `json:"numberFormat,omitempty"`
	ColorMode    ColorMode    `json:"colorMode,omitempty"`
	LabelSize    LabelSize    `json:"labelSize,omitempty"`

	ShowLegend    *bool    `json:"showLegend,omitempty"`
	ShowDatumLogo bool     `json:"showDatumLogo,omitempty"`
	DatumLogoSize LogoSize `json:"datumLogoSize,omitempty"`

	BarLabelPlacement BarLabelPlacement `json:"barLabelPlacement,omitempty"`
	BarLabelSource    BarLabelSource    `json:"barLabelSource,omitempty"`

	DotPlotOrientation     Orientation `json:"dotPlotOrientation,omitempty"`
	StackedAreaOrientation Orientation `json:"stackedAreaOrientation,omitempty"`
	SlopeChartOrientation  Orientation `json:"slopeChartOrientation,omitempty"`

	SlopeChartShowValueLabels bool `json:"slopeChartShowValueLabels,omitempty"`

	HistogramBinCount int  `json:"histogramBinCount,omitempty"`
	LineEndLabels     bool `json:"lineEndLabels,omitempty"`

	AccessibilityDescription string `json:"accessibilityDescription,omitempty"`
}

// Histogram bin bounds and default.
const (
	DefaultHistogramBins = 15
	MinHistogramBins     = 5
	MaxHistogramBins     = 50
)

// lineEndLabelMaxSeries caps end-of-line labels; beyond this they overlap
// into noise, so the legend takes over.
const lineEndLabelMaxSeries = 6

// defaultValueAxisTitle is used whenever no unit or explicit label is given.
// It must never fall back to a series/column name on axes that aggregate
// across series.
const defaultValueAxisTitle = "Değer"

// legendEnabled resolves the ShowLegend default (on).
func (o EditorialOptions) legendEnabled() bool {
	return o.ShowLegend == nil || *o.ShowLegend
}

// labelFontSize maps LabelSize to pixels.
func (o EditorialOptions) labelFontSize() int {
	switch o.LabelSize {
	case LabelSizeSmall:
		return 10
	case LabelSizeLarge:
		return 14
	default:
		return 12
	}
}

// histogramBins clamps the bin-count hint into the allowed range.
func (o EditorialOptions) histogramBins() int {
	n := o.HistogramBinCount
	if n == 0 {
		return DefaultHistogramBins
	}
	if n < MinHistogramBins {
		return MinHistogramBins
	}
	if n > MaxHistogramBins {
		return MaxHistogramBins
	}
	return n
}

// valueAxisTitle resolves the value-axis title: explicit label, then unit,
// then the generic default.
func (o EditorialOptions) valueAxisTitle() string {
	if o.YAxisLabel != "" {
		return o.YAxisLabel
	}
	if o.Unit != "" {
		return o.Unit
	}
	return defaultValueAxisTitle
}

// Fixed ordered palettes. Selection is a lookup keyed on ColorMode, never a
// computation.
var (
	paletteMonochrome = []string{
		"#111827", "#4b5563", "#6b7280", "#9ca3af", "#c4c9d1", "#e5e7eb",
	}
	paletteSingleColor = []string{
		"#08306b", "#2171b5", "#4292c6", "#6baed6", "#9ecae1", "#c6dbef",
	}
	paletteMultiColor = []string{
		"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948",
		"#b07aa1", "#ff9da7", "#9c755f", "#bab0ac", "#d37295", "#8cd17d",
	}
)

// palette returns the ordered palette for the color mode, cycled to cover n
// series. The returned slice is always freshly allocated.
func palette(mode ColorMode, n int) []string {
	var base []string
	switch mode {
	case ColorModeMonochrome:
		base = paletteMonochrome
	case ColorModeSingleColor:
		base = paletteSingleColor
	default:
		base = paletteMultiColor
	}
	if n <= 0 {
		n = 1
	}
	out := make([]string, n)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out
}

// primaryColor is the single-series color for the given mode.
func primaryColor(mode ColorMode) string {
	switch mode {
	case ColorModeMonochrome:
		return paletteMonochrome[0]
	case ColorModeSingleColor:
		return paletteSingleColor[1]
	default:
		return "#3b82f6"
	}
}

// axisNumberFormat is the d3-format string for numeric axis ticks; thousands
// grouping is always on.
func axisNumberFormat(f NumberFormat) string {
	if f == NumberFormatDot {
		return ".0f"
	}
	return ",.0f"
}

// FormatNumber renders a value for labels and tooltips with thousands
// grouping in the selected convention. The fraction comes from the shortest
// exact decimal form of the value, so no digits are rounded away.
func FormatNumber(v float64, f NumberFormat) string {
	groupSep, decSep := ",", "."
	if f == NumberFormatDot {
		groupSep, decSep = ".", ","
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	digits, frac, hasFrac := strings.Cut(s, ".")

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	out := strings.Join(groups, groupSep)

	if hasFrac {
		out += decSep + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
