// Package chartspec turns parsed tabular data plus a role mapping and
// editorial options into a renderer-ready chart specification. Generation is
// deterministic and total: for any input that passes template resolution the
// generator returns a well-formed document, degrading to an explicitly marked
// placeholder instead of failing.
package chartspec

import (
	"encoding/json"

	"github.com/datum-viz/datum/internal/registry"
)

// SchemaURL is the declarative grammar dialect emitted specs conform to.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Fixed frame dimensions. Width is the literal string "container" so the
// embed fills its parent element.
const (
	specWidth  = "container"
	specHeight = 400
)

// legendNull marshals as a JSON null, which the renderer reads as "hide this
// legend". Distinct from omitting the field, which means "default legend".
var legendNull = json.RawMessage("null")

// RoleMapping binds table columns to archetype roles. Value order is
// caller-controlled and significant: it drives series order, legend order,
// and stacking z-order.
type RoleMapping struct {
	Time    string   `json:"time"`
	Value   []string `json:"value"`
	GroupBy string   `json:"groupBy,omitempty"`
}

// EditorState is the private envelope embedded in every generated spec. It
// carries everything needed to reopen the chart in the editor exactly as it
// was authored, raw pasted text included.
type EditorState struct {
	RawDataInput      string           `json:"rawDataInput"`
	ColumnMappings    RoleMapping      `json:"columnMappings"`
	EditorialSettings EditorialOptions `json:"editorialSettings"`
}

// Spec is the top-level chart document. Fields prefixed with an underscore
// are private to the Datum pipeline and ignored by conforming renderers.
type Spec struct {
	Schema      string      `json:"$schema"`
	Description string      `json:"description,omitempty"`
	Title       *Title      `json:"title,omitempty"`
	Width       interface{} `json:"width"`
	Height      int         `json:"height"`
	Data        *Data       `json:"data,omitempty"`
	Mark        *Mark       `json:"mark,omitempty"`
	Encoding    *Encoding   `json:"encoding,omitempty"`
	Layer       []Layer     `json:"layer,omitempty"`
	Config      *Config     `json:"config,omitempty"`

	TemplateID    registry.ID  `json:"_templateId"`
	EditorState   *EditorState `json:"_editorState,omitempty"`
	IsInvalid     bool         `json:"_isInvalid,omitempty"`
	InvalidReason string       `json:"_invalidReason,omitempty"`
	Warnings      []string     `json:"_warnings,omitempty"`
}

// Layer is one mark plus its encodings. Layers without their own Data share
// the top-level dataset.
type Layer struct {
	Data     *Data     `json:"data,omitempty"`
	Mark     *Mark     `json:"mark,omitempty"`
	Encoding *Encoding `json:"encoding,omitempty"`
}

// Data is an inline dataset.
type Data struct {
	Values []map[string]interface{} `json:"values"`
}

// Title is the chart heading block.
type Title struct {
	Text             string `json:"text"`
	Subtitle         string `json:"subtitle,omitempty"`
	Anchor           string `json:"anchor,omitempty"`
	FontSize         int    `json:"fontSize,omitempty"`
	SubtitleFontSize int    `json:"subtitleFontSize,omitempty"`
	SubtitleColor    string `json:"subtitleColor,omitempty"`
}

// Mark describes a geometric mark and its visual properties.
type Mark struct {
	Type        string      `json:"type"`
	Point       interface{} `json:"point,omitempty"`
	Interpolate string      `json:"interpolate,omitempty"`
	Opacity     float64     `json:"opacity,omitempty"`
	Filled      *bool       `json:"filled,omitempty"`
	Color       string      `json:"color,omitempty"`
	Stroke      string      `json:"stroke,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	Size        float64     `json:"size,omitempty"`
	BinSpacing  *int        `json:"binSpacing,omitempty"`
	Align       string      `json:"align,omitempty"`
	Baseline    string      `json:"baseline,omitempty"`
	DX          int         `json:"dx,omitempty"`
	DY          int         `json:"dy,omitempty"`
	FontSize    int         `json:"fontSize,omitempty"`
	FontWeight  interface{} `json:"fontWeight,omitempty"`
	Tooltip     *bool       `json:"tooltip,omitempty"`
}

// Encoding maps data fields to visual channels.
type Encoding struct {
	X       *Channel  `json:"x,omitempty"`
	XOffset *Channel  `json:"xOffset,omitempty"`
	Y       *Channel  `json:"y,omitempty"`
	Color   *Channel  `json:"color,omitempty"`
	Detail  *Channel  `json:"detail,omitempty"`
	Order   *Channel  `json:"order,omitempty"`
	Text    *Channel  `json:"text,omitempty"`
	Tooltip []Channel `json:"tooltip,omitempty"`
}

// Channel is one field-to-channel binding.
type Channel struct {
	Field     string          `json:"field,omitempty"`
	Type      string          `json:"type,omitempty"`
	Title     interface{}     `json:"title,omitempty"`
	Bin       *Bin            `json:"bin,omitempty"`
	Aggregate string          `json:"aggregate,omitempty"`
	Axis      *Axis           `json:"axis,omitempty"`
	Scale     *Scale          `json:"scale,omitempty"`
	Stack     interface{}     `json:"stack,omitempty"`
	Sort      interface{}     `json:"sort,omitempty"`
	Legend    json.RawMessage `json:"legend,omitempty"`
	Format    string          `json:"format,omitempty"`
	Value     interface{}     `json:"value,omitempty"`
}

// Bin configures histogram binning.
type Bin struct {
	Maxbins int `json:"maxbins"`
}

// Axis customizes one axis.
type Axis struct {
	Title         interface{} `json:"title,omitempty"`
	Format        string      `json:"format,omitempty"`
	LabelAngle    *int        `json:"labelAngle,omitempty"`
	LabelFontSize int         `json:"labelFontSize,omitempty"`
	TitleFontSize int         `json:"titleFontSize,omitempty"`
	Grid          *bool       `json:"grid,omitempty"`
	Ticks         *bool       `json:"ticks,omitempty"`
	Domain        *bool       `json:"domain,omitempty"`
	LabelPadding  int         `json:"labelPadding,omitempty"`
}

// Scale customizes one scale.
type Scale struct {
	Zero    *bool         `json:"zero,omitempty"`
	Domain  []interface{} `json:"domain,omitempty"`
	Range   []string      `json:"range,omitempty"`
	Padding float64       `json:"padding,omitempty"`
}

// Config holds chart-wide defaults.
type Config struct {
	Axis       *AxisConfig   `json:"axis,omitempty"`
	Legend     *LegendConfig `json:"legend,omitempty"`
	View       *ViewConfig   `json:"view,omitempty"`
	Background string        `json:"background,omitempty"`
}

// AxisConfig sets shared axis typography.
type AxisConfig struct {
	LabelFontSize int    `json:"labelFontSize,omitempty"`
	TitleFontSize int    `json:"titleFontSize,omitempty"`
	LabelColor    string `json:"labelColor,omitempty"`
	TitleColor    string `json:"titleColor,omitempty"`
	GridColor     string `json:"gridColor,omitempty"`
	GridDash      []int  `json:"gridDash,omitempty"`
}

// LegendConfig sets shared legend placement and typography.
type LegendConfig struct {
	Orient        string `json:"orient,omitempty"`
	LabelFontSize int    `json:"labelFontSize,omitempty"`
	TitleFontSize int    `json:"titleFontSize,omitempty"`
	SymbolSize    int    `json:"symbolSize,omitempty"`
	SymbolType    string `json:"symbolType,omitempty"`
}

// ViewConfig controls the plotting area frame.
type ViewConfig struct {
	Stroke json.RawMessage `json:"stroke,omitempty"`
}

// JSON serializes the spec. Inline data rows are map-backed; encoding/json
// sorts map keys, so equal inputs always produce byte-identical output.
func (s *Spec) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ParseSpec deserializes a stored spec document.
func ParseSpec(raw []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// newSpec builds the shared document skeleton: schema, frame, title block,
// base config, and the editor-state envelope.
func newSpec(id registry.ID, state *EditorState, opts EditorialOptions) *Spec {
	s := &Spec{
		Schema:      SchemaURL,
		Width:       specWidth,
		Height:      specHeight,
		TemplateID:  id,
		EditorState: state,
		Config:      baseConfig(opts),
	}
	if opts.AccessibilityDescription != "" {
		s.Description = opts.AccessibilityDescription
	}
	if opts.Title != "" {
		s.Title = &Title{
			Text:             opts.Title,
			Subtitle:         opts.Subtitle,
			Anchor:           "start",
			FontSize:         18,
			SubtitleFontSize: 13,
			SubtitleColor:    "#6b7280",
		}
	}
	return s
}

func baseConfig(opts EditorialOptions) *Config {
	size := opts.labelFontSize()
	return &Config{
		Axis: &AxisConfig{
			LabelFontSize: size,
			TitleFontSize: size + 1,
			LabelColor:    "#374151",
			TitleColor:    "#374151",
			GridColor:     "#e5e7eb",
			GridDash:      []int{2, 2},
		},
		Legend: &LegendConfig{
			Orient:        "top",
			LabelFontSize: size,
			SymbolSize:    80,
			SymbolType:    "circle",
		},
		View:       &ViewConfig{Stroke: json.RawMessage("null")},
		Background: "#ffffff",
	}
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }
